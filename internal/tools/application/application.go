// Package application registers the application lifecycle tools.
package application

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const (
	confirmRestart           = "RESTART_CONTAINER"
	confirmDelete            = "CONFIRM_APPLICATION_DELETE"
	confirmDestinationChange = "CONFIRM_DESTINATION_CHANGE"
)

// Register adds the application tools to the registry.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "application_list",
			Description: "List the applications of an environment.",
			Category:    tool.CategoryApplication,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"environmentId": tool.String("Environment whose applications to list."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				env, res := guard.EnvironmentOrg(ctx, svc, tc, args.String("environmentId"))
				if res != nil {
					return res, nil
				}
				apps, err := svc.Apps.ListApplications(ctx, env.EnvironmentID)
				if err != nil {
					return nil, err
				}
				return models.OK("applications listed", apps), nil
			},
		},
		&tool.Def{
			Name:        "application_get",
			Description: "Get one application with its ports and domains.",
			Category:    tool.CategoryApplication,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"applicationId": tool.String("Application to load."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				app, res := guard.ApplicationOrg(ctx, svc, tc, args.String("applicationId"))
				if res != nil {
					return res, nil
				}
				ports, err := svc.Apps.ListPorts(ctx, app.ApplicationID)
				if err != nil {
					return nil, err
				}
				domains, err := svc.Apps.ListDomains(ctx, app.ApplicationID)
				if err != nil {
					return nil, err
				}
				return models.OK("application "+app.Name, map[string]any{
					"application": app,
					"ports":       ports,
					"domains":     domains,
				}), nil
			},
		},
		&tool.Def{
			Name:             "application_create",
			Description:      "Create an application in an environment.",
			Category:         tool.CategoryApplication,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"environmentId": tool.String("Owning environment."),
				"name":          tool.String("Application display name."),
				"appName":       tool.String("Unique app slug used for container names.").Optional(),
				"sourceType":    tool.String("Source kind.").Enum("git", "docker", "github").Optional(),
				"dockerImage":   tool.String("Image when sourceType is docker.").Optional(),
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
				app, err := svc.Apps.CreateApplication(ctx, &domain.Application{
					EnvironmentID: env.EnvironmentID,
					Name:          args.String("name"),
					AppName:       args.StringOr("appName", args.String("name")),
					SourceType:    args.String("sourceType"),
					DockerImage:   args.String("dockerImage"),
					ServerID:      args.String("serverId"),
					Status:        domain.StatusIdle,
				})
				if err != nil {
					return nil, err
				}
				return models.OK("application created", app), nil
			},
		},
		&tool.Def{
			Name:             "application_update",
			Description:      "Update application settings.",
			Category:         tool.CategoryApplication,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"applicationId": tool.String("Application to update."),
				"name":          tool.String("New display name.").Optional(),
				"dockerImage":   tool.String("New docker image.").Optional(),
			}).Refine(tool.AtLeastOneOf("name", "dockerImage")),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				app, res := guard.ApplicationOrg(ctx, svc, tc, args.String("applicationId"))
				if res != nil {
					return res, nil
				}
				if args.Has("name") {
					app.Name = args.String("name")
				}
				if args.Has("dockerImage") {
					app.DockerImage = args.String("dockerImage")
				}
				updated, err := svc.Apps.UpdateApplication(ctx, app)
				if err != nil {
					return nil, err
				}
				return models.OK("application updated", updated), nil
			},
		},
		lifecycleTool(svc, "application_deploy", "Build and deploy the application.", "deploy"),
		lifecycleTool(svc, "application_start", "Start the application's containers.", "start"),
		lifecycleTool(svc, "application_stop", "Stop the application's containers.", "stop"),
		&tool.Def{
			Name:             "application_restart",
			Description:      "Restart the application's containers. Interrupts live traffic.",
			Category:         tool.CategoryApplication,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"applicationId": tool.String("Application to restart."),
				"confirm":       tool.String("Must be exactly " + confirmRestart + ".").Literal(confirmRestart),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				app, res := guard.ApplicationOrg(ctx, svc, tc, args.String("applicationId"))
				if res != nil {
					return res, nil
				}
				if svc.Deployer == nil {
					return models.Fail("Deployer is not configured", models.ErrCodeBadRequest), nil
				}
				if err := svc.Deployer.Restart(ctx, "application", app.ApplicationID); err != nil {
					return nil, err
				}
				return models.OK("restart triggered", map[string]string{"applicationId": app.ApplicationID, "status": "restarting"}), nil
			},
		},
		&tool.Def{
			Name:             "application_destination_change",
			Description:      "Move the application to a different server. The service is redeployed.",
			Category:         tool.CategoryApplication,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"applicationId": tool.String("Application to move."),
				"serverId":      tool.String("Destination server."),
				"confirm":       tool.String("Must be exactly " + confirmDestinationChange + ".").Literal(confirmDestinationChange),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				app, res := guard.ApplicationOrg(ctx, svc, tc, args.String("applicationId"))
				if res != nil {
					return res, nil
				}
				server, res := guard.ServerOrg(ctx, svc, tc, args.String("serverId"))
				if res != nil {
					return res, nil
				}
				app.ServerID = server.ServerID
				if _, err := svc.Apps.UpdateApplication(ctx, app); err != nil {
					return nil, err
				}
				if svc.Deployer != nil {
					if err := svc.Deployer.Deploy(ctx, "application", app.ApplicationID); err != nil {
						return models.Fail("moved but redeploy failed", err.Error()), nil
					}
				}
				return models.OK("application moved", map[string]string{
					"applicationId": app.ApplicationID,
					"serverId":      server.ServerID,
					"status":        "deploying",
				}), nil
			},
		},
		&tool.Def{
			Name:             "application_delete",
			Description:      "Delete an application and its containers. Irreversible.",
			Category:         tool.CategoryApplication,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"applicationId": tool.String("Application to delete."),
				"confirm":       tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				app, res := guard.ApplicationOrg(ctx, svc, tc, args.String("applicationId"))
				if res != nil {
					return res, nil
				}
				if err := svc.Apps.DeleteApplication(ctx, app.ApplicationID); err != nil {
					return nil, err
				}
				return models.OK("application deleted", map[string]string{"applicationId": app.ApplicationID}), nil
			},
		},
	)
}

func lifecycleTool(svc *domain.Services, name, desc, action string) *tool.Def {
	return &tool.Def{
		Name:             name,
		Description:      desc,
		Category:         tool.CategoryApplication,
		Risk:             models.RiskMedium,
		RequiresApproval: true,
		Params: tool.NewSchema(map[string]*tool.Field{
			"applicationId": tool.String("Target application."),
		}),
		Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
			if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
				return res, nil
			}
			app, res := guard.ApplicationOrg(ctx, svc, tc, args.String("applicationId"))
			if res != nil {
				return res, nil
			}
			if svc.Deployer == nil {
				return models.Fail("Deployer is not configured", models.ErrCodeBadRequest), nil
			}
			var err error
			status := ""
			switch action {
			case "deploy":
				err = svc.Deployer.Deploy(ctx, "application", app.ApplicationID)
				status = "deploying"
			case "start":
				err = svc.Deployer.Start(ctx, "application", app.ApplicationID)
				status = "running"
			case "stop":
				err = svc.Deployer.Stop(ctx, "application", app.ApplicationID)
				status = "stopped"
			}
			if err != nil {
				return nil, err
			}
			return models.OK(action+" triggered", map[string]string{
				"applicationId": app.ApplicationID,
				"status":        status,
			}), nil
		},
	}
}
