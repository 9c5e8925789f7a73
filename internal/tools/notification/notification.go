// Package notification registers the notification channel tools.
package notification

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmDelete = "CONFIRM_NOTIFICATION_DELETE"

// Register adds the notification tools.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "notification_list",
			Description: "List the notification channels. Webhook URLs are masked.",
			Category:    tool.CategorySettings,
			Risk:        models.RiskLow,
			Params:      tool.NewSchema(nil),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				channels, err := svc.Credentials.ListNotifications(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				masked := make([]domain.NotificationMasked, 0, len(channels))
				for _, n := range channels {
					masked = append(masked, n.Masked())
				}
				return models.OK("notification channels listed", masked), nil
			},
		},
		&tool.Def{
			Name:             "notification_create",
			Description:      "Add a notification channel.",
			Category:         tool.CategorySettings,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"name":       tool.String("Display name."),
				"channel":    tool.String("Channel kind.").Enum("slack", "discord", "telegram", "email", "webhook"),
				"webhookUrl": tool.String("Webhook or endpoint URL."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				n, err := svc.Credentials.CreateNotification(ctx, &domain.Notification{
					OrganizationID: tc.OrganizationID,
					Name:           args.String("name"),
					Channel:        args.String("channel"),
					WebhookURL:     args.String("webhookUrl"),
				})
				if err != nil {
					return nil, err
				}
				return models.OK("notification channel added", n.Masked()), nil
			},
		},
		&tool.Def{
			Name:        "notification_test",
			Description: "Send a test message through a notification channel.",
			Category:    tool.CategorySettings,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"notificationId": tool.String("Channel to test."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				n, res := ownedNotification(ctx, svc, tc, args.String("notificationId"))
				if res != nil {
					return res, nil
				}
				if svc.Notifier == nil {
					return models.Fail("Notification delivery is not configured", models.ErrCodeBadRequest), nil
				}
				if err := svc.Notifier.SendTest(ctx, n); err != nil {
					return models.Fail("Test message failed", err.Error()), nil
				}
				return models.OK("test message sent", map[string]string{"notificationId": n.NotificationID}), nil
			},
		},
		&tool.Def{
			Name:             "notification_delete",
			Description:      "Delete a notification channel.",
			Category:         tool.CategorySettings,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"notificationId": tool.String("Channel to delete."),
				"confirm":        tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				n, res := ownedNotification(ctx, svc, tc, args.String("notificationId"))
				if res != nil {
					return res, nil
				}
				if err := svc.Credentials.DeleteNotification(ctx, n.NotificationID); err != nil {
					return nil, err
				}
				return models.OK("notification channel deleted", map[string]string{"notificationId": n.NotificationID}), nil
			},
		},
	)
}

func ownedNotification(ctx context.Context, svc *domain.Services, tc tool.Context, id string) (*domain.Notification, *models.ToolResult) {
	n, err := svc.Credentials.GetNotification(ctx, id)
	if err != nil {
		return nil, guard.NotFoundResult(err, "Notification channel")
	}
	if res := guard.CheckOrg(n.OrganizationID, tc); res != nil {
		return nil, res
	}
	return n, nil
}
