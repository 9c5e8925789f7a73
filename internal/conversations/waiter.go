package conversations

import (
	"context"
	"time"

	"github.com/haasonsaas/shipyard/pkg/models"
)

// DefaultPollInterval is the fallback cadence for stores that cannot notify.
const DefaultPollInterval = 2 * time.Second

// Waiter suspends a caller until an execution leaves pending_approval.
// Notifying stores wake it immediately; others are polled.
type Waiter struct {
	store        Store
	pollInterval time.Duration
}

// NewWaiter creates a waiter over the store.
func NewWaiter(store Store) *Waiter {
	return &Waiter{store: store, pollInterval: DefaultPollInterval}
}

// WaitDecision blocks until the execution's status is no longer
// pending_approval, then returns the current row. The context bounds the
// wait.
func (w *Waiter) WaitDecision(ctx context.Context, executionID string) (*models.ToolExecution, error) {
	notifier, canNotify := w.store.(ChangeNotifier)
	for {
		e, err := w.store.GetExecution(ctx, executionID)
		if err != nil {
			return nil, err
		}
		if e.Status != models.ExecutionPending {
			return e, nil
		}

		if canNotify {
			// Re-check after the wake-up; a notification may race the read.
			if err := notifier.AwaitChange(ctx, executionID); err != nil {
				return nil, err
			}
			continue
		}

		select {
		case <-time.After(w.pollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
