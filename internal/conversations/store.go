// Package conversations persists chat transcripts, configured model bindings
// and the approval-gated tool executions attached to them. Three backends:
// in-memory, SQLite and Postgres.
package conversations

import (
	"context"
	"errors"

	"github.com/haasonsaas/shipyard/pkg/models"
)

var (
	// ErrNotFound marks a missing conversation, message, execution or binding.
	ErrNotFound = errors.New("not found")
)

// Store is the persistence boundary for C5/C9.
type Store interface {
	CreateConversation(ctx context.Context, c *models.Conversation) (*models.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, ownerUserID string) ([]*models.Conversation, error)
	// DeleteConversation removes the conversation together with its messages
	// and executions.
	DeleteConversation(ctx context.Context, conversationID string) error

	AppendMessage(ctx context.Context, m *models.Message) (*models.Message, error)
	// UpdateMessage rewrites content, tool calls and status of an existing
	// message.
	UpdateMessage(ctx context.Context, m *models.Message) error
	Messages(ctx context.Context, conversationID string) ([]*models.Message, error)

	CreateExecution(ctx context.Context, e *models.ToolExecution) (*models.ToolExecution, error)
	GetExecution(ctx context.Context, executionID string) (*models.ToolExecution, error)
	ListExecutions(ctx context.Context, executionIDs []string) ([]*models.ToolExecution, error)
	// TransitionExecution moves an execution from one status to another,
	// optionally attaching a result. The write happens only when the current
	// status equals from; the bool reports whether the transition applied.
	// Either way the current row is returned.
	TransitionExecution(ctx context.Context, executionID string, from, to models.ExecutionStatus, result *models.ToolResult) (*models.ToolExecution, bool, error)

	ListAIs(ctx context.Context, orgID string) ([]*models.AI, error)
	GetAI(ctx context.Context, aiID string) (*models.AI, error)

	Close() error
}

// ChangeNotifier is implemented by stores that can wake waiters on execution
// status writes. Stores without it are polled.
type ChangeNotifier interface {
	// AwaitChange blocks until the execution's status is written or ctx ends.
	AwaitChange(ctx context.Context, executionID string) error
}
