// Package environment registers the environment tools.
package environment

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmDelete = "CONFIRM_ENVIRONMENT_DELETE"

// Register adds the environment tools to the registry.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "environment_list",
			Description: "List the environments of a project.",
			Category:    tool.CategoryEnvironment,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"projectId": tool.String("Project whose environments to list."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				p, res := guard.ProjectOrg(ctx, svc, tc, args.String("projectId"))
				if res != nil {
					return res, nil
				}
				envs, err := svc.Projects.ListEnvironments(ctx, p.ProjectID)
				if err != nil {
					return nil, err
				}
				return models.OK("environments listed", envs), nil
			},
		},
		&tool.Def{
			Name:             "environment_create",
			Description:      "Create an environment inside a project.",
			Category:         tool.CategoryEnvironment,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"projectId": tool.String("Owning project."),
				"name":      tool.String("Environment name, e.g. production or staging."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				p, res := guard.ProjectOrg(ctx, svc, tc, args.String("projectId"))
				if res != nil {
					return res, nil
				}
				env, err := svc.Projects.CreateEnvironment(ctx, &domain.Environment{
					ProjectID: p.ProjectID,
					Name:      args.String("name"),
				})
				if err != nil {
					return nil, err
				}
				return models.OK("environment created", env), nil
			},
		},
		&tool.Def{
			Name:             "environment_delete",
			Description:      "Delete an environment and its services. Irreversible.",
			Category:         tool.CategoryEnvironment,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"environmentId": tool.String("Environment to delete."),
				"confirm":       tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				env, res := guard.EnvironmentOrg(ctx, svc, tc, args.String("environmentId"))
				if res != nil {
					return res, nil
				}
				if err := svc.Projects.DeleteEnvironment(ctx, env.EnvironmentID); err != nil {
					return nil, err
				}
				return models.OK("environment deleted", map[string]string{"environmentId": env.EnvironmentID}), nil
			},
		},
	)
}
