// Package security registers the basic-auth security record tools.
package security

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const (
	confirmReveal = "REVEAL_SECURITY_PASSWORD"
	confirmDelete = "CONFIRM_SECURITY_DELETE"
)

// Register adds the security record tools.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "security_list",
			Description: "List the basic-auth credentials guarding an application. Passwords are masked.",
			Category:    tool.CategoryApplication,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"applicationId": tool.String("Application whose credentials to list."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				app, res := guard.ApplicationOrg(ctx, svc, tc, args.String("applicationId"))
				if res != nil {
					return res, nil
				}
				records, err := svc.Apps.ListSecurity(ctx, app.ApplicationID)
				if err != nil {
					return nil, err
				}
				masked := make([]domain.SecurityRecordMasked, 0, len(records))
				for _, r := range records {
					masked = append(masked, r.Masked())
				}
				return models.OK("security records listed", masked), nil
			},
		},
		&tool.Def{
			Name:             "security_reveal",
			Description:      "Return the plaintext password of a basic-auth record.",
			Category:         tool.CategoryApplication,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"securityId": tool.String("Record to reveal."),
				"confirm":    tool.String("Must be exactly " + confirmReveal + ".").Literal(confirmReveal),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				r, res := ownedSecurity(ctx, svc, tc, args.String("securityId"))
				if res != nil {
					return res, nil
				}
				return models.OK("password revealed", map[string]string{
					"securityId": r.SecurityID,
					"username":   r.Username,
					"password":   r.Password,
				}), nil
			},
		},
		&tool.Def{
			Name:             "security_delete",
			Description:      "Remove a basic-auth credential from an application.",
			Category:         tool.CategoryApplication,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"securityId": tool.String("Record to delete."),
				"confirm":    tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				r, res := ownedSecurity(ctx, svc, tc, args.String("securityId"))
				if res != nil {
					return res, nil
				}
				if err := svc.Apps.DeleteSecurity(ctx, r.SecurityID); err != nil {
					return nil, err
				}
				return models.OK("security record deleted", map[string]string{"securityId": r.SecurityID}), nil
			},
		},
	)
}

func ownedSecurity(ctx context.Context, svc *domain.Services, tc tool.Context, id string) (*domain.SecurityRecord, *models.ToolResult) {
	r, err := svc.Apps.GetSecurity(ctx, id)
	if err != nil {
		return nil, guard.NotFoundResult(err, "Security record")
	}
	if _, res := guard.ApplicationOrg(ctx, svc, tc, r.ApplicationID); res != nil {
		return nil, res
	}
	return r, nil
}
