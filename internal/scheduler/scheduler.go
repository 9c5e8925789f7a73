// Package scheduler runs recurring jobs for schedules, backups and volume
// backups. A local implementation ticks in-process; the remote one delegates
// to the hosted jobs service.
package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/haasonsaas/shipyard/internal/domain"
)

var cronParser = cron.NewParser(
	cron.SecondOptional |
		cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow |
		cron.Descriptor,
)

// ValidateCron rejects expressions the parser cannot schedule.
func ValidateCron(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return fmt.Errorf("cron expression is required")
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// JobFunc executes the work behind a due schedule.
type JobFunc func(ctx context.Context, s *domain.Schedule) error

// Scheduler manages the recurring-job lifecycle for schedules.
type Scheduler interface {
	// Create registers a schedule. The expression must already be valid.
	Create(ctx context.Context, s *domain.Schedule) error
	// Update replaces the registration for an existing schedule.
	Update(ctx context.Context, s *domain.Schedule) error
	// Remove drops the registration. Removing an unknown id is a no-op.
	Remove(ctx context.Context, scheduleID string) error
	// Run triggers the schedule immediately, outside its cadence.
	Run(ctx context.Context, scheduleID string) error
}
