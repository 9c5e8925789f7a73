package conversations

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/haasonsaas/shipyard/pkg/models"
)

func newTestSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteConversationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	c, err := s.CreateConversation(ctx, &models.Conversation{
		OwnerUserID:    "u-1",
		OrganizationID: "org-1",
		ProjectID:      "p-1",
		AIID:           "A",
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetConversation(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.OwnerUserID != "u-1" || got.ProjectID != "p-1" || got.AIID != "A" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	list, err := s.ListConversations(ctx, "u-1")
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
}

func TestSQLiteMessageSequencing(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)
	c, _ := s.CreateConversation(ctx, &models.Conversation{OwnerUserID: "u-1", OrganizationID: "org-1", AIID: "A"})

	for _, content := range []string{"a", "b", "c"} {
		if _, err := s.AppendMessage(ctx, &models.Message{
			ConversationID: c.ID,
			Role:           models.RoleUser,
			Content:        content,
		}); err != nil {
			t.Fatal(err)
		}
	}
	msgs, err := s.Messages(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 || msgs[0].Content != "a" || msgs[2].Content != "c" {
		t.Errorf("sequencing broken: %+v", msgs)
	}
}

func TestSQLiteMessageToolCalls(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)
	c, _ := s.CreateConversation(ctx, &models.Conversation{OwnerUserID: "u-1", OrganizationID: "org-1", AIID: "A"})

	if _, err := s.AppendMessage(ctx, &models.Message{
		ConversationID: c.ID,
		Role:           models.RoleAssistant,
		ToolCalls: []models.ToolCall{
			{ID: "tc-1", Name: "project_list", Arguments: []byte(`{}`)},
		},
	}); err != nil {
		t.Fatal(err)
	}
	msgs, _ := s.Messages(ctx, c.ID)
	if len(msgs) != 1 || len(msgs[0].ToolCalls) != 1 || msgs[0].ToolCalls[0].Name != "project_list" {
		t.Errorf("tool calls not preserved: %+v", msgs)
	}
}

func TestSQLiteExecutionTransition(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)
	c, _ := s.CreateConversation(ctx, &models.Conversation{OwnerUserID: "u-1", OrganizationID: "org-1", AIID: "A"})

	e, err := s.CreateExecution(ctx, &models.ToolExecution{
		ConversationID: c.ID,
		ToolCallID:     "tc-1",
		ToolName:       "application_deploy",
		Arguments:      []byte(`{"applicationId":"a-1"}`),
	})
	if err != nil {
		t.Fatal(err)
	}

	approved, applied, err := s.TransitionExecution(ctx, e.ID, models.ExecutionPending, models.ExecutionApproved, nil)
	if err != nil || !applied || approved.Status != models.ExecutionApproved {
		t.Fatalf("approve: applied=%v status=%v err=%v", applied, approved.Status, err)
	}

	result := models.OK("deploying", map[string]any{"applicationId": "a-1"})
	completed, applied, err := s.TransitionExecution(ctx, e.ID, models.ExecutionExecuting, models.ExecutionCompleted, result)
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Error("transition from a mismatched status must not apply")
	}
	if completed.Status != models.ExecutionApproved {
		t.Errorf("status = %s", completed.Status)
	}

	// approved -> executing -> completed
	if _, applied, _ = s.TransitionExecution(ctx, e.ID, models.ExecutionApproved, models.ExecutionExecuting, nil); !applied {
		t.Fatal("executing transition must apply")
	}
	final, applied, err := s.TransitionExecution(ctx, e.ID, models.ExecutionExecuting, models.ExecutionCompleted, result)
	if err != nil || !applied {
		t.Fatalf("complete: applied=%v err=%v", applied, err)
	}
	if final.Result == nil || !final.Result.Success {
		t.Errorf("result not persisted: %+v", final.Result)
	}
}

func TestSQLiteDeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)
	c, _ := s.CreateConversation(ctx, &models.Conversation{OwnerUserID: "u-1", OrganizationID: "org-1", AIID: "A"})
	e, _ := s.CreateExecution(ctx, &models.ToolExecution{ConversationID: c.ID, ToolName: "project_delete"})

	if err := s.DeleteConversation(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetExecution(ctx, e.ID); err != ErrNotFound {
		t.Error("execution must be deleted with its conversation")
	}
}

func TestSQLiteAIBindings(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)
	if err := s.SaveAI(ctx, &models.AI{
		ID:             "A",
		OrganizationID: "org-1",
		Name:           "default",
		Provider:       "openai",
		Model:          "gpt-4o",
		APIKey:         "sk-test",
		Enabled:        true,
	}); err != nil {
		t.Fatal(err)
	}
	ai, err := s.GetAI(ctx, "A")
	if err != nil {
		t.Fatal(err)
	}
	if ai.APIKey != "sk-test" || !ai.Enabled {
		t.Errorf("binding mismatch: %+v", ai)
	}
	list, _ := s.ListAIs(ctx, "org-1")
	if len(list) != 1 {
		t.Errorf("expected 1 binding, got %d", len(list))
	}
}

// The Postgres dialect rewrites placeholders and carries the status
// precondition in the UPDATE itself.
func TestPostgresTransitionUsesStatusPrecondition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	s := NewPostgresStoreWithDB(db)

	mock.ExpectExec(`UPDATE tool_executions SET status = \$1, updated_at = \$2 WHERE id = \$3 AND status = \$4`).
		WithArgs("approved", sqlmock.AnyArg(), "e-1", "pending_approval").
		WillReturnResult(sqlmock.NewResult(0, 1))
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, conversation_id, tool_call_id, tool_name, arguments, status, result, created_at, updated_at`).
		WithArgs("e-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "conversation_id", "tool_call_id", "tool_name", "arguments", "status", "result", "created_at", "updated_at",
		}).AddRow("e-1", "c-1", "tc-1", "application_deploy", `{}`, "approved", nil, now, now))

	e, applied, err := s.TransitionExecution(context.Background(), "e-1", models.ExecutionPending, models.ExecutionApproved, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !applied || e.Status != models.ExecutionApproved {
		t.Errorf("applied=%v status=%s", applied, e.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
