package conversations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/shipyard/pkg/models"
)

// SQLStore implements Store over database/sql. Both the SQLite and Postgres
// backends share it; the dialect only differs in placeholder syntax.
type SQLStore struct {
	db       *sql.DB
	postgres bool
}

func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) init() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			owner_user_id TEXT NOT NULL,
			organization_id TEXT NOT NULL,
			project_id TEXT,
			server_id TEXT,
			ai_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT,
			tool_calls TEXT,
			status TEXT NOT NULL,
			seq BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tool_executions (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			tool_call_id TEXT,
			tool_name TEXT NOT NULL,
			arguments TEXT,
			status TEXT NOT NULL,
			result TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ais (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			name TEXT NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			api_url TEXT,
			api_key TEXT,
			enabled BOOLEAN NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_conversation ON tool_executions(conversation_id)`,
		// The approval waiter polls by status.
		`CREATE INDEX IF NOT EXISTS idx_executions_status ON tool_executions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_org ON conversations(organization_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) CreateConversation(ctx context.Context, c *models.Conversation) (*models.Conversation, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO conversations (id, owner_user_id, organization_id, project_id, server_id, ai_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		c.ID, c.OwnerUserID, c.OrganizationID, c.ProjectID, c.ServerID, c.AIID, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

func (s *SQLStore) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, owner_user_id, organization_id, project_id, server_id, ai_id, created_at
		 FROM conversations WHERE id = ?`), conversationID)
	var c models.Conversation
	var projectID, serverID sql.NullString
	err := row.Scan(&c.ID, &c.OwnerUserID, &c.OrganizationID, &projectID, &serverID, &c.AIID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select conversation: %w", err)
	}
	c.ProjectID = projectID.String
	c.ServerID = serverID.String
	return &c, nil
}

func (s *SQLStore) ListConversations(ctx context.Context, ownerUserID string) ([]*models.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, owner_user_id, organization_id, project_id, server_id, ai_id, created_at
		 FROM conversations WHERE owner_user_id = ? ORDER BY created_at`), ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("select conversations: %w", err)
	}
	defer rows.Close()
	var out []*models.Conversation
	for rows.Next() {
		var c models.Conversation
		var projectID, serverID sql.NullString
		if err := rows.Scan(&c.ID, &c.OwnerUserID, &c.OrganizationID, &projectID, &serverID, &c.AIID, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.ProjectID = projectID.String
		c.ServerID = serverID.String
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteConversation(ctx context.Context, conversationID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM conversations WHERE id = ?`), conversationID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM messages WHERE conversation_id = ?`), conversationID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	// Executions belong to their conversation and go with it.
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM tool_executions WHERE conversation_id = ?`), conversationID); err != nil {
		return fmt.Errorf("delete executions: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) AppendMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = models.MessageSent
	}
	m.CreatedAt = time.Now().UTC()
	toolCalls, err := marshalToolCalls(m.ToolCalls)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(1) FROM conversations WHERE id = ?`), m.ConversationID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check conversation: %w", err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, s.rebind(
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`), m.ConversationID).Scan(&seq); err != nil {
		return nil, fmt.Errorf("next seq: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO messages (id, conversation_id, role, content, tool_calls, status, seq, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.ConversationID, string(m.Role), m.Content, toolCalls, string(m.Status), seq, m.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *SQLStore) UpdateMessage(ctx context.Context, m *models.Message) error {
	toolCalls, err := marshalToolCalls(m.ToolCalls)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE messages SET content = ?, tool_calls = ?, status = ? WHERE id = ?`),
		m.Content, toolCalls, string(m.Status), m.ID)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Messages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, conversation_id, role, content, tool_calls, status, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY seq`), conversationID)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()
	var out []*models.Message
	for rows.Next() {
		var m models.Message
		var role, status string
		var content, toolCalls sql.NullString
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &content, &toolCalls, &status, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		m.Status = models.MessageStatus(status)
		m.Content = content.String
		if toolCalls.String != "" {
			if err := json.Unmarshal([]byte(toolCalls.String), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("decode tool calls: %w", err)
			}
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateExecution(ctx context.Context, e *models.ToolExecution) (*models.ToolExecution, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = models.ExecutionPending
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO tool_executions (id, conversation_id, tool_call_id, tool_name, arguments, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.ConversationID, e.ToolCallID, e.ToolName, string(e.Arguments), string(e.Status), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert execution: %w", err)
	}
	return e, nil
}

func (s *SQLStore) GetExecution(ctx context.Context, executionID string) (*models.ToolExecution, error) {
	return s.scanExecution(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, conversation_id, tool_call_id, tool_name, arguments, status, result, created_at, updated_at
		 FROM tool_executions WHERE id = ?`), executionID))
}

func (s *SQLStore) ListExecutions(ctx context.Context, executionIDs []string) ([]*models.ToolExecution, error) {
	out := make([]*models.ToolExecution, 0, len(executionIDs))
	for _, id := range executionIDs {
		e, err := s.GetExecution(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// TransitionExecution applies the status change only when the stored status
// still equals from. The precondition in the UPDATE makes concurrent
// approvals settle on exactly one winner.
func (s *SQLStore) TransitionExecution(ctx context.Context, executionID string, from, to models.ExecutionStatus, result *models.ToolResult) (*models.ToolExecution, bool, error) {
	var resultJSON any
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return nil, false, fmt.Errorf("encode result: %w", err)
		}
		resultJSON = string(raw)
	}
	var res sql.Result
	var err error
	if result != nil {
		res, err = s.db.ExecContext(ctx, s.rebind(
			`UPDATE tool_executions SET status = ?, result = ?, updated_at = ? WHERE id = ? AND status = ?`),
			string(to), resultJSON, time.Now().UTC(), executionID, string(from))
	} else {
		res, err = s.db.ExecContext(ctx, s.rebind(
			`UPDATE tool_executions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`),
			string(to), time.Now().UTC(), executionID, string(from))
	}
	if err != nil {
		return nil, false, fmt.Errorf("transition execution: %w", err)
	}
	n, _ := res.RowsAffected()

	e, getErr := s.GetExecution(ctx, executionID)
	if getErr != nil {
		return nil, false, getErr
	}
	return e, n > 0, nil
}

func (s *SQLStore) ListAIs(ctx context.Context, orgID string) ([]*models.AI, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, organization_id, name, provider, model, api_url, api_key, enabled
		 FROM ais WHERE organization_id = ? ORDER BY name`), orgID)
	if err != nil {
		return nil, fmt.Errorf("select ais: %w", err)
	}
	defer rows.Close()
	var out []*models.AI
	for rows.Next() {
		ai, err := scanAI(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ai)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetAI(ctx context.Context, aiID string) (*models.AI, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, organization_id, name, provider, model, api_url, api_key, enabled
		 FROM ais WHERE id = ?`), aiID)
	if err != nil {
		return nil, fmt.Errorf("select ai: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanAI(rows)
}

// SaveAI upserts a model binding.
func (s *SQLStore) SaveAI(ctx context.Context, ai *models.AI) error {
	if ai.ID == "" {
		ai.ID = uuid.NewString()
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM ais WHERE id = ?`), ai.ID); err != nil {
		return fmt.Errorf("replace ai: %w", err)
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO ais (id, organization_id, name, provider, model, api_url, api_key, enabled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		ai.ID, ai.OrganizationID, ai.Name, ai.Provider, ai.Model, ai.APIURL, ai.APIKey, ai.Enabled)
	if err != nil {
		return fmt.Errorf("insert ai: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore) scanExecution(row rowScanner) (*models.ToolExecution, error) {
	var e models.ToolExecution
	var toolCallID, arguments, result sql.NullString
	var status string
	err := row.Scan(&e.ID, &e.ConversationID, &toolCallID, &e.ToolName, &arguments, &status, &result, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan execution: %w", err)
	}
	e.ToolCallID = toolCallID.String
	e.Status = models.ExecutionStatus(status)
	if arguments.String != "" {
		e.Arguments = json.RawMessage(arguments.String)
	}
	if result.String != "" {
		var tr models.ToolResult
		if err := json.Unmarshal([]byte(result.String), &tr); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		e.Result = &tr
	}
	return &e, nil
}

func scanAI(row rowScanner) (*models.AI, error) {
	var ai models.AI
	var apiURL, apiKey sql.NullString
	if err := row.Scan(&ai.ID, &ai.OrganizationID, &ai.Name, &ai.Provider, &ai.Model, &apiURL, &apiKey, &ai.Enabled); err != nil {
		return nil, fmt.Errorf("scan ai: %w", err)
	}
	ai.APIURL = apiURL.String
	ai.APIKey = apiKey.String
	return &ai, nil
}

func marshalToolCalls(calls []models.ToolCall) (any, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(calls)
	if err != nil {
		return nil, fmt.Errorf("encode tool calls: %w", err)
	}
	return string(raw), nil
}
