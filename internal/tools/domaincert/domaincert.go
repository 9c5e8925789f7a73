// Package domaincert registers the domain and certificate tools.
package domaincert

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmDomainDelete = "CONFIRM_DOMAIN_DELETE"

// Register adds the domain and certificate tools.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "domain_list",
			Description: "List the domains routed to an application.",
			Category:    tool.CategoryDomain,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"applicationId": tool.String("Application whose domains to list."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				app, res := guard.ApplicationOrg(ctx, svc, tc, args.String("applicationId"))
				if res != nil {
					return res, nil
				}
				domains, err := svc.Apps.ListDomains(ctx, app.ApplicationID)
				if err != nil {
					return nil, err
				}
				return models.OK("domains listed", domains), nil
			},
		},
		&tool.Def{
			Name:             "domain_create",
			Description:      "Route a domain to an application.",
			Category:         tool.CategoryDomain,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"applicationId": tool.String("Application to route to."),
				"host":          tool.String("Fully qualified host name."),
				"path":          tool.String("Path prefix to match.").Default("/"),
				"port":          tool.Int("Container port to forward to.").Min(1).Max(65535).Optional(),
				"https":         tool.Bool("Terminate TLS for this host.").Default(true),
				"certificateId": tool.String("Certificate to serve. Empty uses the default issuer.").Optional(),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				app, res := guard.ApplicationOrg(ctx, svc, tc, args.String("applicationId"))
				if res != nil {
					return res, nil
				}
				if certID := args.String("certificateId"); certID != "" {
					if _, cres := ownedCertificate(ctx, svc, tc, certID); cres != nil {
						return cres, nil
					}
				}
				https := true
				if args.Has("https") {
					https = args.Bool("https")
				}
				d, err := svc.Apps.CreateDomain(ctx, &domain.DomainRecord{
					ApplicationID: app.ApplicationID,
					Host:          args.String("host"),
					Path:          args.StringOr("path", "/"),
					Port:          args.Int("port", 0),
					HTTPS:         https,
					CertificateID: args.String("certificateId"),
				})
				if err != nil {
					return nil, err
				}
				return models.OK("domain created", d), nil
			},
		},
		&tool.Def{
			Name:             "domain_delete",
			Description:      "Remove a domain from an application. Traffic to it stops routing.",
			Category:         tool.CategoryDomain,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"applicationId": tool.String("Application the domain belongs to."),
				"domainId":      tool.String("Domain to remove."),
				"confirm":       tool.String("Must be exactly " + confirmDomainDelete + ".").Literal(confirmDomainDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				app, res := guard.ApplicationOrg(ctx, svc, tc, args.String("applicationId"))
				if res != nil {
					return res, nil
				}
				domains, err := svc.Apps.ListDomains(ctx, app.ApplicationID)
				if err != nil {
					return nil, err
				}
				id := args.String("domainId")
				owned := false
				for _, d := range domains {
					if d.DomainID == id {
						owned = true
						break
					}
				}
				if !owned {
					return models.NotFound("Domain not found"), nil
				}
				if err := svc.Apps.DeleteDomain(ctx, id); err != nil {
					return nil, err
				}
				return models.OK("domain deleted", map[string]string{"domainId": id}), nil
			},
		},
		&tool.Def{
			Name:        "certificate_list",
			Description: "List the organization's TLS certificates. Private keys are masked.",
			Category:    tool.CategoryCertificate,
			Risk:        models.RiskLow,
			Params:      tool.NewSchema(nil),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				certs, err := svc.Apps.ListCertificates(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				masked := make([]domain.CertificateMasked, 0, len(certs))
				for _, c := range certs {
					masked = append(masked, c.Masked())
				}
				return models.OK("certificates listed", masked), nil
			},
		},
	)
}

func ownedCertificate(ctx context.Context, svc *domain.Services, tc tool.Context, id string) (*domain.Certificate, *models.ToolResult) {
	certs, err := svc.Apps.ListCertificates(ctx, tc.OrganizationID)
	if err != nil {
		return nil, models.NotFound("Certificate not found")
	}
	for _, c := range certs {
		if c.CertificateID == id {
			return c, nil
		}
	}
	return nil, models.NotFound("Certificate not found")
}
