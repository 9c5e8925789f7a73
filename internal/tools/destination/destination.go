// Package destination registers the S3 backup destination tools.
package destination

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmDelete = "CONFIRM_DESTINATION_DELETE"

// Register adds the destination tools to the registry.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "destination_list",
			Description: "List the S3 destinations of the organization. Credentials are masked.",
			Category:    tool.CategoryBackup,
			Risk:        models.RiskLow,
			Params:      tool.NewSchema(nil),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				dests, err := svc.Credentials.ListDestinations(ctx, tc.OrganizationID)
				if err != nil {
					return nil, err
				}
				masked := make([]domain.DestinationMasked, 0, len(dests))
				for _, d := range dests {
					masked = append(masked, d.Masked())
				}
				return models.OK("destinations listed", masked), nil
			},
		},
		&tool.Def{
			Name:        "destination_get",
			Description: "Get one S3 destination. Credentials are masked.",
			Category:    tool.CategoryBackup,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"destinationId": tool.String("Destination to load."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				d, res := ownedDestination(ctx, svc, tc, args.String("destinationId"))
				if res != nil {
					return res, nil
				}
				return models.OK("destination "+d.Name, d.Masked()), nil
			},
		},
		&tool.Def{
			Name:             "destination_create",
			Description:      "Add an S3-compatible destination for backups.",
			Category:         tool.CategoryBackup,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"name":        tool.String("Display name."),
				"bucket":      tool.String("Bucket name."),
				"region":      tool.String("Region, e.g. us-east-1."),
				"endpoint":    tool.String("Custom endpoint for non-AWS providers.").Optional(),
				"accessKeyId": tool.String("Access key id."),
				"secretKey":   tool.String("Secret access key."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				d, err := svc.Credentials.CreateDestination(ctx, &domain.Destination{
					OrganizationID: tc.OrganizationID,
					Name:           args.String("name"),
					Bucket:         args.String("bucket"),
					Region:         args.String("region"),
					Endpoint:       args.String("endpoint"),
					AccessKeyID:    args.String("accessKeyId"),
					SecretKey:      args.String("secretKey"),
				})
				if err != nil {
					return nil, err
				}
				return models.OK("destination created", d.Masked()), nil
			},
		},
		&tool.Def{
			Name:        "destination_test_connection",
			Description: "Verify the destination bucket is reachable and list a few backup files.",
			Category:    tool.CategoryBackup,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"destinationId": tool.String("Destination to verify."),
				"prefix":        tool.String("Key prefix to list.").Optional(),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				d, res := ownedDestination(ctx, svc, tc, args.String("destinationId"))
				if res != nil {
					return res, nil
				}
				if svc.Destinations == nil {
					return models.Fail("Destination verification is not configured", models.ErrCodeBadRequest), nil
				}
				if err := svc.Destinations.TestConnection(ctx, d); err != nil {
					return models.Fail("Connection failed", err.Error()), nil
				}
				files, err := svc.Destinations.ListBackupFiles(ctx, d, args.String("prefix"), 10)
				if err != nil {
					return models.Fail("Bucket reachable but listing failed", err.Error()), nil
				}
				return models.OK("connection verified", map[string]any{
					"destinationId": d.DestinationID,
					"files":         files,
				}), nil
			},
		},
		&tool.Def{
			Name:             "destination_delete",
			Description:      "Delete a destination. Backups referencing it stop working.",
			Category:         tool.CategoryBackup,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"destinationId": tool.String("Destination to delete."),
				"confirm":       tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				d, res := ownedDestination(ctx, svc, tc, args.String("destinationId"))
				if res != nil {
					return res, nil
				}
				if err := svc.Credentials.DeleteDestination(ctx, d.DestinationID); err != nil {
					return nil, err
				}
				return models.OK("destination deleted", map[string]string{"destinationId": d.DestinationID}), nil
			},
		},
	)
}

func ownedDestination(ctx context.Context, svc *domain.Services, tc tool.Context, id string) (*domain.Destination, *models.ToolResult) {
	d, err := svc.Credentials.GetDestination(ctx, id)
	if err != nil {
		return nil, guard.NotFoundResult(err, "Destination")
	}
	if res := guard.CheckOrg(d.OrganizationID, tc); res != nil {
		return nil, res
	}
	return d, nil
}
