// Package server registers the remote server and swarm inspection tools.
package server

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmMonitoring = "SETUP_MONITORING"

// Register adds the server tools.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "server_list",
			Description: "List the organization's servers.",
			Category:    tool.CategoryServer,
			Risk:        models.RiskLow,
			Params:      tool.NewSchema(nil),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				servers, err := svc.Servers.ListServers(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				return models.OK("servers listed", servers), nil
			},
		},
		&tool.Def{
			Name:        "server_get",
			Description: "Get a server's connection details and monitoring state.",
			Category:    tool.CategoryServer,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"serverId": tool.String("Server to fetch."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				s, res := guard.ServerOrg(ctx, svc, tc, args.String("serverId"))
				if res != nil {
					return res, nil
				}
				return models.OK("server fetched", s), nil
			},
		},
		&tool.Def{
			Name:             "server_setup_monitoring",
			Description:      "Install and enable the monitoring agent on a server.",
			Category:         tool.CategoryServer,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"serverId": tool.String("Server to monitor."),
				"confirm":  tool.String("Must be exactly " + confirmMonitoring + ".").Literal(confirmMonitoring),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				s, res := guard.ServerOrg(ctx, svc, tc, args.String("serverId"))
				if res != nil {
					return res, nil
				}
				if err := svc.Servers.SetMonitoring(ctx, s.ServerID, true); err != nil {
					return models.Fail("Monitoring setup failed", err.Error()), nil
				}
				return models.OK("monitoring enabled", map[string]any{
					"serverId":   s.ServerID,
					"monitoring": true,
				}), nil
			},
		},
		&tool.Def{
			Name:        "server_validate",
			Description: "Check that a server is reachable and ready for deployments.",
			Category:    tool.CategoryServer,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"serverId": tool.String("Server to validate."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				s, res := guard.ServerOrg(ctx, svc, tc, args.String("serverId"))
				if res != nil {
					return res, nil
				}
				if svc.Swarm == nil {
					return models.Fail("Cluster inspection is not configured", models.ErrCodeBadRequest), nil
				}
				nodes, err := svc.Swarm.ListNodes(ctx, s.ServerID)
				if err != nil {
					return models.Fail("Server validation failed", err.Error()), nil
				}
				return models.OK("server validated", map[string]any{
					"serverId":  s.ServerID,
					"reachable": true,
					"nodeCount": len(nodes),
				}), nil
			},
		},
		&tool.Def{
			Name:        "server_swarm_nodes_list",
			Description: "List the swarm nodes visible from a server.",
			Category:    tool.CategoryServer,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"serverId": tool.String("Server whose cluster to inspect."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				s, res := guard.ServerOrg(ctx, svc, tc, args.String("serverId"))
				if res != nil {
					return res, nil
				}
				if svc.Swarm == nil {
					return models.Fail("Cluster inspection is not configured", models.ErrCodeBadRequest), nil
				}
				nodes, err := svc.Swarm.ListNodes(ctx, s.ServerID)
				if err != nil {
					return models.Fail("Node listing failed", err.Error()), nil
				}
				return models.OK("swarm nodes listed", nodes), nil
			},
		},
		&tool.Def{
			Name:        "server_swarm_node_inspect",
			Description: "Inspect a single swarm node.",
			Category:    tool.CategoryServer,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"serverId": tool.String("Server whose cluster to inspect."),
				"nodeId":   tool.String("Swarm node id."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				s, res := guard.ServerOrg(ctx, svc, tc, args.String("serverId"))
				if res != nil {
					return res, nil
				}
				if svc.Swarm == nil {
					return models.Fail("Cluster inspection is not configured", models.ErrCodeBadRequest), nil
				}
				node, err := svc.Swarm.InspectNode(ctx, s.ServerID, args.String("nodeId"))
				if err != nil {
					return models.Fail("Node inspection failed", err.Error()), nil
				}
				return models.OK("swarm node inspected", node), nil
			},
		},
	)
}
