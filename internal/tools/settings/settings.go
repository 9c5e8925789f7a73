// Package settings registers the platform settings tools. Updates are
// owner-only.
package settings

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

// Register adds the settings tools.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "settings_get",
			Description: "Get the organization's platform settings.",
			Category:    tool.CategorySettings,
			Risk:        models.RiskLow,
			Params:      tool.NewSchema(nil),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				s, err := svc.Servers.GetSettings(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				return models.OK("settings fetched", s), nil
			},
		},
		&tool.Def{
			Name:             "settings_update",
			Description:      "Update the organization's platform settings. Owner only.",
			Category:         tool.CategorySettings,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"serverIp":         tool.String("Public IP of the control plane.").Optional(),
				"letsEncryptEmail": tool.String("Email used for certificate issuance.").Optional(),
			}).Refine(tool.AtLeastOneOf("serverIp", "letsEncryptEmail")),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireOwner(ctx, svc, tc); res != nil {
					return res, nil
				}
				s, err := svc.Servers.GetSettings(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				if args.Has("serverIp") {
					s.ServerIP = args.String("serverIp")
				}
				if args.Has("letsEncryptEmail") {
					s.LetsEncrypt = args.String("letsEncryptEmail")
				}
				updated, err := svc.Servers.UpdateSettings(ctx, s)
				if err != nil {
					return nil, err
				}
				return models.OK("settings updated", updated), nil
			},
		},
	)
}
