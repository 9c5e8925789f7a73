// Package stripe registers the billing session tools. Both are owner-only
// and approval-gated.
package stripe

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/config"
	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmSession = "CONFIRM_BILLING_SESSION"

// Register adds the billing tools.
func Register(reg *tool.Registry, svc *domain.Services, cfg config.StripeConfig) {
	reg.MustRegister(
		&tool.Def{
			Name:             "stripe_checkout_session_create",
			Description:      "Create a hosted checkout session for the base subscription.",
			Category:         tool.CategoryStripe,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"annual":  tool.Bool("Bill annually instead of monthly.").Default(false),
				"confirm": tool.String("Must be exactly " + confirmSession + ".").Literal(confirmSession),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireOwner(ctx, svc, tc); res != nil {
					return res, nil
				}
				if svc.Billing == nil {
					return models.Fail("Billing is not configured", models.ErrCodeBadRequest), nil
				}
				annual := args.Bool("annual")
				priceID := cfg.BasePriceMonthlyID
				if annual {
					priceID = cfg.BaseAnnualPriceID
				}
				if priceID == "" {
					return models.Fail("Billing is not configured", models.ErrCodeBadRequest), nil
				}
				url, sessionID, err := svc.Billing.CreateCheckoutSession(ctx, tc.OrganizationID, priceID, annual)
				if err != nil {
					return models.Fail("Checkout session failed", err.Error()), nil
				}
				return models.OK("checkout session created", map[string]any{
					"url":       url,
					"sessionId": sessionID,
					"annual":    annual,
				}), nil
			},
		},
		&tool.Def{
			Name:             "stripe_portal_session_create",
			Description:      "Create a hosted billing portal session for the organization.",
			Category:         tool.CategoryStripe,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"confirm": tool.String("Must be exactly " + confirmSession + ".").Literal(confirmSession),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireOwner(ctx, svc, tc); res != nil {
					return res, nil
				}
				if svc.Billing == nil {
					return models.Fail("Billing is not configured", models.ErrCodeBadRequest), nil
				}
				url, err := svc.Billing.CreatePortalSession(ctx, tc.OrganizationID)
				if err != nil {
					return models.Fail("Portal session failed", err.Error()), nil
				}
				return models.OK("portal session created", map[string]string{"url": url}), nil
			},
		},
	)
}
