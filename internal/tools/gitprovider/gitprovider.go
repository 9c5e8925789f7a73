// Package gitprovider registers the git provider credential tools.
package gitprovider

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmDelete = "CONFIRM_GIT_PROVIDER_DELETE"

// Register adds the git provider tools.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "git_provider_list",
			Description: "List the connected git providers. Tokens are masked.",
			Category:    tool.CategoryGithub,
			Risk:        models.RiskLow,
			Params:      tool.NewSchema(nil),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				providers, err := svc.Credentials.ListGitProviders(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				masked := make([]domain.GitProviderMasked, 0, len(providers))
				for _, p := range providers {
					masked = append(masked, p.Masked())
				}
				return models.OK("git providers listed", masked), nil
			},
		},
		&tool.Def{
			Name:             "git_provider_delete",
			Description:      "Disconnect a git provider. Applications using it lose source access.",
			Category:         tool.CategoryGithub,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"gitProviderId": tool.String("Provider connection to remove."),
				"confirm":       tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				providers, err := svc.Credentials.ListGitProviders(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				id := args.String("gitProviderId")
				owned := false
				for _, p := range providers {
					if p.GitProviderID == id {
						owned = true
						break
					}
				}
				if !owned {
					return models.NotFound("Git provider not found"), nil
				}
				if err := svc.Credentials.DeleteGitProvider(ctx, id); err != nil {
					return nil, err
				}
				return models.OK("git provider removed", map[string]string{"gitProviderId": id}), nil
			},
		},
	)
}
