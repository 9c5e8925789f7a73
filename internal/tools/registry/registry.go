// Package registry registers the docker registry credential tools.
package registry

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmDelete = "CONFIRM_REGISTRY_DELETE"

// Register adds the registry credential tools.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "registry_list",
			Description: "List the docker registries of the organization. Passwords are masked.",
			Category:    tool.CategorySettings,
			Risk:        models.RiskLow,
			Params:      tool.NewSchema(nil),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				regs, err := svc.Credentials.ListRegistries(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				masked := make([]domain.RegistryMasked, 0, len(regs))
				for _, r := range regs {
					masked = append(masked, r.Masked())
				}
				return models.OK("registries listed", masked), nil
			},
		},
		&tool.Def{
			Name:             "registry_create",
			Description:      "Add a docker registry credential.",
			Category:         tool.CategorySettings,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"name":     tool.String("Display name."),
				"url":      tool.String("Registry URL."),
				"username": tool.String("Login user."),
				"password": tool.String("Login password or token."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				r, err := svc.Credentials.CreateRegistry(ctx, &domain.Registry{
					OrganizationID: tc.OrganizationID,
					Name:           args.String("name"),
					URL:            args.String("url"),
					Username:       args.String("username"),
					Password:       args.String("password"),
				})
				if err != nil {
					return nil, err
				}
				return models.OK("registry added", r.Masked()), nil
			},
		},
		&tool.Def{
			Name:             "registry_delete",
			Description:      "Delete a docker registry credential.",
			Category:         tool.CategorySettings,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"registryId": tool.String("Registry credential to delete."),
				"confirm":    tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				regs, err := svc.Credentials.ListRegistries(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				id := args.String("registryId")
				owned := false
				for _, r := range regs {
					if r.RegistryID == id {
						owned = true
						break
					}
				}
				if !owned {
					return models.NotFound("Registry not found"), nil
				}
				if err := svc.Credentials.DeleteRegistry(ctx, id); err != nil {
					return nil, err
				}
				return models.OK("registry deleted", map[string]string{"registryId": id}), nil
			},
		},
	)
}
