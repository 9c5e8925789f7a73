// Package user registers the organization member tools. Listing is
// owner-only.
package user

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

// Register adds the member tools.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "user_list",
			Description: "List the organization's members. Only the owner can list members.",
			Category:    tool.CategoryUser,
			Risk:        models.RiskLow,
			Params:      tool.NewSchema(nil),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireOwner(ctx, svc, tc); res != nil {
					return res, nil
				}
				members, err := svc.Orgs.ListMembers(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				return models.OK("members listed", members), nil
			},
		},
		&tool.Def{
			Name:        "user_get",
			Description: "Get a member of the organization.",
			Category:    tool.CategoryUser,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"userId": tool.String("Member to fetch."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				member, err := svc.Orgs.GetMember(ctx, tc.OrganizationID, args.String("userId"))
				if err != nil {
					return guard.NotFoundResult(err, "User"), nil
				}
				return models.OK("member fetched", member), nil
			},
		},
	)
}
