package conversations

import (
	"context"
	"testing"
	"time"

	"github.com/haasonsaas/shipyard/pkg/models"
)

func seedConversation(t *testing.T, s Store) *models.Conversation {
	t.Helper()
	c, err := s.CreateConversation(context.Background(), &models.Conversation{
		OwnerUserID:    "u-1",
		OrganizationID: "org-1",
		AIID:           "A",
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestMemoryStoreMessageOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := seedConversation(t, s)

	for _, content := range []string{"first", "second", "third"} {
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
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Content != want {
			t.Errorf("message %d = %q, want %q", i, msgs[i].Content, want)
		}
	}
}

func TestMemoryStoreUpdateMessage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := seedConversation(t, s)

	m, err := s.AppendMessage(ctx, &models.Message{
		ConversationID: c.ID,
		Role:           models.RoleAssistant,
		Status:         models.MessageSending,
	})
	if err != nil {
		t.Fatal(err)
	}
	m.Content = "done"
	m.Status = models.MessageSent
	if err := s.UpdateMessage(ctx, m); err != nil {
		t.Fatal(err)
	}
	msgs, _ := s.Messages(ctx, c.ID)
	if msgs[0].Content != "done" || msgs[0].Status != models.MessageSent {
		t.Errorf("update not applied: %+v", msgs[0])
	}
}

func TestMemoryStoreDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := seedConversation(t, s)

	e, err := s.CreateExecution(ctx, &models.ToolExecution{
		ConversationID: c.ID,
		ToolName:       "application_deploy",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteConversation(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetExecution(ctx, e.ID); err != ErrNotFound {
		t.Error("deleting a conversation must delete its executions")
	}
	if _, err := s.Messages(ctx, c.ID); err != ErrNotFound {
		t.Error("messages of a deleted conversation must be gone")
	}
}

func TestTransitionExecutionAtMostOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := seedConversation(t, s)

	e, err := s.CreateExecution(ctx, &models.ToolExecution{
		ConversationID: c.ID,
		ToolName:       "application_deploy",
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.Status != models.ExecutionPending {
		t.Fatalf("new execution status = %s", e.Status)
	}

	first, applied, err := s.TransitionExecution(ctx, e.ID, models.ExecutionPending, models.ExecutionApproved, nil)
	if err != nil || !applied {
		t.Fatalf("first transition applied=%v err=%v", applied, err)
	}
	if first.Status != models.ExecutionApproved {
		t.Errorf("status = %s", first.Status)
	}

	second, applied, err := s.TransitionExecution(ctx, e.ID, models.ExecutionPending, models.ExecutionApproved, nil)
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Error("second transition must be a no-op")
	}
	if second.Status != models.ExecutionApproved {
		t.Errorf("second call must return the settled state, got %s", second.Status)
	}
}

func TestWaiterWakesOnDecision(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := seedConversation(t, s)
	e, _ := s.CreateExecution(ctx, &models.ToolExecution{
		ConversationID: c.ID,
		ToolName:       "postgres_create",
	})

	done := make(chan *models.ToolExecution, 1)
	go func() {
		w := NewWaiter(s)
		out, err := w.WaitDecision(ctx, e.ID)
		if err != nil {
			t.Errorf("wait: %v", err)
		}
		done <- out
	}()

	// Give the waiter time to park on the watcher channel.
	time.Sleep(20 * time.Millisecond)
	if _, _, err := s.TransitionExecution(ctx, e.ID, models.ExecutionPending, models.ExecutionApproved, nil); err != nil {
		t.Fatal(err)
	}

	select {
	case out := <-done:
		if out.Status != models.ExecutionApproved {
			t.Errorf("woken with status %s", out.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not wake on decision")
	}
}

func TestWaiterHonorsContext(t *testing.T) {
	s := NewMemoryStore()
	c := seedConversation(t, s)
	e, _ := s.CreateExecution(context.Background(), &models.ToolExecution{
		ConversationID: c.ID,
		ToolName:       "postgres_create",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	w := NewWaiter(s)
	if _, err := w.WaitDecision(ctx, e.ID); err == nil {
		t.Fatal("expected context error for undecided execution")
	}
}
