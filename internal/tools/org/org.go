// Package org registers the organization policy tools. The bind-mount
// allowlist update is owner-only.
package org

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/safety"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmAllowlist = "CONFIRM_ALLOWLIST_UPDATE"

// Register adds the organization policy tools.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "org_bind_mount_allowlist_get",
			Description: "Show the host path prefixes allowed for bind mounts.",
			Category:    tool.CategorySettings,
			Risk:        models.RiskLow,
			Params:      tool.NewSchema(nil),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				org, err := svc.Orgs.GetOrganization(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				return models.OK("allowlist fetched", map[string]any{
					"organizationId":         org.OrganizationID,
					"bindMountAllowPrefixes": org.AIPolicies.BindMountAllowPrefixes,
				}), nil
			},
		},
		&tool.Def{
			Name: "org_bind_mount_allowlist_update",
			Description: "Add or remove host path prefixes from the bind-mount allowlist. " +
				"Only the organization owner can change it.",
			Category:         tool.CategorySettings,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"addPrefixes":    tool.StringList("Host path prefixes to allow.").Optional(),
				"removePrefixes": tool.StringList("Host path prefixes to revoke.").Optional(),
				"confirm":        tool.String("Must be exactly " + confirmAllowlist + ".").Literal(confirmAllowlist),
			}).Refine(tool.AtLeastOneOf("addPrefixes", "removePrefixes")),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireOwner(ctx, svc, tc); res != nil {
					return res, nil
				}
				org, err := svc.Orgs.GetOrganization(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				remove := map[string]bool{}
				for _, p := range args.Strings("removePrefixes") {
					remove[safety.NormalizePath(p)] = true
				}
				seen := map[string]bool{}
				var prefixes []string
				for _, p := range org.AIPolicies.BindMountAllowPrefixes {
					n := safety.NormalizePath(p)
					if remove[n] || seen[n] {
						continue
					}
					seen[n] = true
					prefixes = append(prefixes, n)
				}
				for _, p := range args.Strings("addPrefixes") {
					n := safety.NormalizePath(p)
					if remove[n] || seen[n] {
						continue
					}
					seen[n] = true
					prefixes = append(prefixes, n)
				}
				updated, err := svc.Orgs.UpdateBindMountAllowlist(ctx, org.OrganizationID, prefixes)
				if err != nil {
					return nil, err
				}
				return models.OK("allowlist updated", map[string]any{
					"organizationId":         updated.OrganizationID,
					"bindMountAllowPrefixes": updated.AIPolicies.BindMountAllowPrefixes,
				}), nil
			},
		},
	)
}
