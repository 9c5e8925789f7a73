// Package port registers the published-port tools.
package port

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmDelete = "CONFIRM_PORT_DELETE"

// Register adds the port tools to the registry.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "port_list",
			Description: "List the published ports of an application.",
			Category:    tool.CategoryApplication,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"applicationId": tool.String("Application whose ports to list."),
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
				return models.OK("ports listed", ports), nil
			},
		},
		&tool.Def{
			Name:             "port_create",
			Description:      "Publish a container port on the host.",
			Category:         tool.CategoryApplication,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"applicationId": tool.String("Owning application."),
				"publishedPort": tool.Int("Host port.").Min(1).Max(65535),
				"targetPort":    tool.Int("Container port.").Min(1).Max(65535),
				"protocol":      tool.String("Transport protocol.").Enum("tcp", "udp").Default("tcp"),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				app, res := guard.ApplicationOrg(ctx, svc, tc, args.String("applicationId"))
				if res != nil {
					return res, nil
				}
				p, err := svc.Apps.CreatePort(ctx, &domain.Port{
					ApplicationID: app.ApplicationID,
					PublishedPort: args.Int("publishedPort", 0),
					TargetPort:    args.Int("targetPort", 0),
					Protocol:      args.StringOr("protocol", "tcp"),
				})
				if err != nil {
					return nil, err
				}
				return models.OK("port published", p), nil
			},
		},
		&tool.Def{
			Name:             "port_delete",
			Description:      "Unpublish a port.",
			Category:         tool.CategoryApplication,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"applicationId": tool.String("Owning application."),
				"portId":        tool.String("Port to remove."),
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
				ports, err := svc.Apps.ListPorts(ctx, app.ApplicationID)
				if err != nil {
					return nil, err
				}
				portID := args.String("portId")
				owned := false
				for _, p := range ports {
					if p.PortID == portID {
						owned = true
						break
					}
				}
				if !owned {
					return models.NotFound("Port not found"), nil
				}
				if err := svc.Apps.DeletePort(ctx, portID); err != nil {
					return nil, err
				}
				return models.OK("port removed", map[string]string{"portId": portID}), nil
			},
		},
	)
}
