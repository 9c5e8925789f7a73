// Package project registers the project management tools.
package project

import (
	"context"
	"fmt"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmDelete = "CONFIRM_PROJECT_DELETE"

// Register adds the project tools to the registry.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "project_list",
			Description: "List every project in the organization.",
			Category:    tool.CategoryProject,
			Risk:        models.RiskLow,
			Params:      tool.NewSchema(nil),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				projects, err := svc.Projects.ListProjects(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				return models.OK(countMessage(len(projects), "project"), projects), nil
			},
		},
		&tool.Def{
			Name:        "project_get",
			Description: "Get one project with its environments.",
			Category:    tool.CategoryProject,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"projectId": tool.String("Project to load."),
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
				return models.OK("project "+p.Name, map[string]any{
					"project":      p,
					"environments": envs,
				}), nil
			},
		},
		&tool.Def{
			Name:             "project_create",
			Description:      "Create a project in the organization.",
			Category:         tool.CategoryProject,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"name":        tool.String("Project name."),
				"description": tool.String("Optional description.").Optional(),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				p, err := svc.Projects.CreateProject(ctx, &domain.Project{
					OrganizationID: tc.OrganizationID,
					Name:           args.String("name"),
					Description:    args.String("description"),
				})
				if err != nil {
					return nil, err
				}
				return models.OK("project created", p), nil
			},
		},
		&tool.Def{
			Name:             "project_update",
			Description:      "Update a project's name or description.",
			Category:         tool.CategoryProject,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"projectId":   tool.String("Project to update."),
				"name":        tool.String("New name.").Optional(),
				"description": tool.String("New description.").Optional(),
			}).Refine(tool.AtLeastOneOf("name", "description")),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				p, res := guard.ProjectOrg(ctx, svc, tc, args.String("projectId"))
				if res != nil {
					return res, nil
				}
				if args.Has("name") {
					p.Name = args.String("name")
				}
				if args.Has("description") {
					p.Description = args.String("description")
				}
				updated, err := svc.Projects.UpdateProject(ctx, p)
				if err != nil {
					return nil, err
				}
				return models.OK("project updated", updated), nil
			},
		},
		&tool.Def{
			Name:             "project_delete",
			Description:      "Delete a project and everything inside it. Irreversible.",
			Category:         tool.CategoryProject,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"projectId": tool.String("Project to delete."),
				"confirm":   tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				p, res := guard.ProjectOrg(ctx, svc, tc, args.String("projectId"))
				if res != nil {
					return res, nil
				}
				if err := svc.Projects.DeleteProject(ctx, p.ProjectID); err != nil {
					return nil, err
				}
				return models.OK("project deleted", map[string]string{"projectId": p.ProjectID}), nil
			},
		},
	)
}

func countMessage(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
