// Package schedule registers the cron schedule tools. Every expression is
// validated before it reaches the scheduler.
package schedule

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/scheduler"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmDelete = "CONFIRM_SCHEDULE_DELETE"

// Register adds the schedule tools.
func Register(reg *tool.Registry, svc *domain.Services, sched scheduler.Scheduler) {
	reg.MustRegister(
		&tool.Def{
			Name:        "schedule_list",
			Description: "List the organization's cron schedules.",
			Category:    tool.CategorySettings,
			Risk:        models.RiskLow,
			Params:      tool.NewSchema(nil),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				schedules, err := svc.Schedules.ListSchedules(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				return models.OK("schedules listed", schedules), nil
			},
		},
		&tool.Def{
			Name:             "schedule_create",
			Description:      "Create a cron schedule running a command inside a service.",
			Category:         tool.CategorySettings,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"name":           tool.String("Schedule display name."),
				"cronExpression": tool.String("Cron expression, e.g. */15 * * * *."),
				"serviceType":    tool.String("Target service kind.").Enum("application", "compose", "postgres", "mysql", "mariadb", "mongo", "redis"),
				"serviceId":      tool.String("Target service id."),
				"command":        tool.String("Command to run inside the service.").Optional(),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				if res := guard.ServiceOrg(ctx, svc, tc, args.String("serviceType"), args.String("serviceId")); res != nil {
					return res, nil
				}
				if err := scheduler.ValidateCron(args.String("cronExpression")); err != nil {
					return models.Fail("Invalid cron expression", err.Error()), nil
				}
				s, err := svc.Schedules.CreateSchedule(ctx, &domain.Schedule{
					OrganizationID: tc.OrganizationID,
					Name:           args.String("name"),
					CronExpression: args.String("cronExpression"),
					ServiceType:    args.String("serviceType"),
					ServiceID:      args.String("serviceId"),
					Command:        args.String("command"),
					Enabled:        true,
				})
				if err != nil {
					return nil, err
				}
				if sched != nil {
					if err := sched.Create(ctx, s); err != nil {
						return models.Fail("created but scheduling failed", err.Error()), nil
					}
				}
				return models.OK("schedule created", s), nil
			},
		},
		&tool.Def{
			Name:             "schedule_update",
			Description:      "Update a schedule's cadence, command or enabled flag.",
			Category:         tool.CategorySettings,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"scheduleId":     tool.String("Schedule to update."),
				"cronExpression": tool.String("New cron expression.").Optional(),
				"command":        tool.String("New command.").Optional(),
				"enabled":        tool.Bool("Enable or pause the schedule.").Optional(),
			}).Refine(tool.AtLeastOneOf("cronExpression", "command", "enabled")),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				s, res := ownedSchedule(ctx, svc, tc, args.String("scheduleId"))
				if res != nil {
					return res, nil
				}
				if args.Has("cronExpression") {
					if err := scheduler.ValidateCron(args.String("cronExpression")); err != nil {
						return models.Fail("Invalid cron expression", err.Error()), nil
					}
					s.CronExpression = args.String("cronExpression")
				}
				if args.Has("command") {
					s.Command = args.String("command")
				}
				if args.Has("enabled") {
					s.Enabled = args.Bool("enabled")
				}
				updated, err := svc.Schedules.UpdateSchedule(ctx, s)
				if err != nil {
					return nil, err
				}
				if sched != nil {
					if err := sched.Update(ctx, updated); err != nil {
						return models.Fail("updated but rescheduling failed", err.Error()), nil
					}
				}
				return models.OK("schedule updated", updated), nil
			},
		},
		&tool.Def{
			Name:             "schedule_run_now",
			Description:      "Trigger a schedule immediately, outside its cadence.",
			Category:         tool.CategorySettings,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"scheduleId": tool.String("Schedule to run."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				s, res := ownedSchedule(ctx, svc, tc, args.String("scheduleId"))
				if res != nil {
					return res, nil
				}
				if sched == nil {
					return models.Fail("Scheduler is not configured", models.ErrCodeBadRequest), nil
				}
				if err := sched.Run(ctx, s.ScheduleID); err != nil {
					return models.Fail("Run failed", err.Error()), nil
				}
				return models.OK("schedule triggered", map[string]string{"scheduleId": s.ScheduleID}), nil
			},
		},
		&tool.Def{
			Name:             "schedule_delete",
			Description:      "Delete a schedule and unregister it from the scheduler.",
			Category:         tool.CategorySettings,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"scheduleId": tool.String("Schedule to delete."),
				"confirm":    tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				s, res := ownedSchedule(ctx, svc, tc, args.String("scheduleId"))
				if res != nil {
					return res, nil
				}
				if err := svc.Schedules.DeleteSchedule(ctx, s.ScheduleID); err != nil {
					return nil, err
				}
				if sched != nil {
					if err := sched.Remove(ctx, s.ScheduleID); err != nil {
						return models.Fail("deleted but unscheduling failed", err.Error()), nil
					}
				}
				return models.OK("schedule deleted", map[string]string{"scheduleId": s.ScheduleID}), nil
			},
		},
	)
}

func ownedSchedule(ctx context.Context, svc *domain.Services, tc tool.Context, id string) (*domain.Schedule, *models.ToolResult) {
	s, err := svc.Schedules.GetSchedule(ctx, id)
	if err != nil {
		return nil, guard.NotFoundResult(err, "Schedule")
	}
	if res := guard.CheckOrg(s.OrganizationID, tc); res != nil {
		return nil, res
	}
	return s, nil
}
