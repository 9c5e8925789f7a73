// Package compose registers the docker-compose service tools.
package compose

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmDelete = "CONFIRM_COMPOSE_DELETE"

// Register adds the compose tools to the registry.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "compose_list",
			Description: "List the compose services of an environment.",
			Category:    tool.CategoryCompose,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"environmentId": tool.String("Environment whose compose services to list."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				env, res := guard.EnvironmentOrg(ctx, svc, tc, args.String("environmentId"))
				if res != nil {
					return res, nil
				}
				composes, err := svc.Apps.ListComposes(ctx, env.EnvironmentID)
				if err != nil {
					return nil, err
				}
				return models.OK("compose services listed", composes), nil
			},
		},
		&tool.Def{
			Name:        "compose_get",
			Description: "Get one compose service including its compose file.",
			Category:    tool.CategoryCompose,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"composeId": tool.String("Compose service to load."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				c, res := guard.ComposeOrg(ctx, svc, tc, args.String("composeId"))
				if res != nil {
					return res, nil
				}
				return models.OK("compose service "+c.Name, c), nil
			},
		},
		&tool.Def{
			Name:             "compose_create",
			Description:      "Create a compose service in an environment.",
			Category:         tool.CategoryCompose,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"environmentId": tool.String("Owning environment."),
				"name":          tool.String("Service display name."),
				"composeFile":   tool.String("docker-compose.yml content.").Optional(),
				"serverId":      tool.String("Target server, empty for the default.").Optional(),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				env, res := guard.EnvironmentOrg(ctx, svc, tc, args.String("environmentId"))
				if res != nil {
					return res, nil
				}
				if serverID := args.String("serverId"); serverID != "" {
					if _, res := guard.ServerOrg(ctx, svc, tc, serverID); res != nil {
						return res, nil
					}
				}
				c, err := svc.Apps.CreateCompose(ctx, &domain.Compose{
					EnvironmentID: env.EnvironmentID,
					Name:          args.String("name"),
					AppName:       args.String("name"),
					ComposeFile:   args.String("composeFile"),
					ServerID:      args.String("serverId"),
					Status:        domain.StatusIdle,
				})
				if err != nil {
					return nil, err
				}
				return models.OK("compose service created", c), nil
			},
		},
		&tool.Def{
			Name:             "compose_deploy",
			Description:      "Deploy a compose service.",
			Category:         tool.CategoryCompose,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"composeId": tool.String("Compose service to deploy."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				c, res := guard.ComposeOrg(ctx, svc, tc, args.String("composeId"))
				if res != nil {
					return res, nil
				}
				if svc.Deployer == nil {
					return models.Fail("Deployer is not configured", models.ErrCodeBadRequest), nil
				}
				if err := svc.Deployer.Deploy(ctx, "compose", c.ComposeID); err != nil {
					return nil, err
				}
				return models.OK("deploy triggered", map[string]string{"composeId": c.ComposeID, "status": "deploying"}), nil
			},
		},
		&tool.Def{
			Name:             "compose_delete",
			Description:      "Delete a compose service and its containers. Irreversible.",
			Category:         tool.CategoryCompose,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"composeId": tool.String("Compose service to delete."),
				"confirm":   tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				c, res := guard.ComposeOrg(ctx, svc, tc, args.String("composeId"))
				if res != nil {
					return res, nil
				}
				if err := svc.Apps.DeleteCompose(ctx, c.ComposeID); err != nil {
					return nil, err
				}
				return models.OK("compose service deleted", map[string]string{"composeId": c.ComposeID}), nil
			},
		},
	)
}
