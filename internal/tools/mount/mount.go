// Package mount registers the service mount tools, including the bind-mount
// allowlist gate with its remediation payload.
package mount

import (
	"context"
	"fmt"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/safety"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const (
	confirmChange          = "CONFIRM_MOUNT_CHANGE"
	confirmDelete          = "CONFIRM_MOUNT_DELETE"
	confirmAllowlistUpdate = "CONFIRM_ALLOWLIST_UPDATE"
)

// Register adds the mount tools to the registry.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "mount_list",
			Description: "List the mounts of a service.",
			Category:    tool.CategoryApplication,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"serviceType": tool.String("Owning service kind.").Enum("application", "compose", "postgres", "mysql", "mariadb", "mongo", "redis"),
				"serviceId":   tool.String("Owning service id."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				if res := guard.ServiceOrg(ctx, svc, tc, args.String("serviceType"), args.String("serviceId")); res != nil {
					return res, nil
				}
				mounts, err := svc.Mounts.ListMounts(ctx, args.String("serviceId"))
				if err != nil {
					return nil, err
				}
				return models.OK("mounts listed", mounts), nil
			},
		},
		&tool.Def{
			Name: "mount_create",
			Description: "Attach a bind, volume or file mount to a service. Bind " +
				"mounts must fall inside the organization's host path allowlist. " +
				"With apply=true the owning service is redeployed.",
			Category:         tool.CategoryApplication,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"serviceType": tool.String("Owning service kind.").Enum("application", "compose", "postgres", "mysql", "mariadb", "mongo", "redis"),
				"serviceId":   tool.String("Owning service id."),
				"type":        tool.String("Mount kind.").Enum("bind", "volume", "file"),
				"mountPath":   tool.String("Path inside the container."),
				"hostPath":    tool.String("Host path for bind mounts.").Optional(),
				"volumeName":  tool.String("Volume name for volume mounts.").Optional(),
				"filePath":    tool.String("File name for file mounts.").Optional(),
				"content":     tool.String("File content for file mounts.").Optional(),
				"apply":       tool.Bool("Redeploy the owning service after creating.").Default(false),
				"confirm":     tool.String("Must be exactly " + confirmChange + ".").Literal(confirmChange),
			}).Refine(func(args tool.Args) error {
				return requireKindFields(args)
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				serviceType := args.String("serviceType")
				serviceID := args.String("serviceId")
				if res := guard.ServiceOrg(ctx, svc, tc, serviceType, serviceID); res != nil {
					return res, nil
				}

				mountType := domain.MountType(args.String("type"))
				if mountType == domain.MountBind {
					org, err := svc.Orgs.GetOrganization(ctx, tc.OrganizationID)
					if err != nil {
						return guard.NotFoundResult(err, "Organization"), nil
					}
					hostPath := safety.NormalizePath(args.String("hostPath"))
					if !safety.PathAllowed(hostPath, org.AIPolicies.BindMountAllowPrefixes) {
						return remediation(hostPath, args), nil
					}
				}

				m, err := svc.Mounts.CreateMount(ctx, &domain.Mount{
					ServiceType: serviceType,
					ServiceID:   serviceID,
					Type:        mountType,
					MountPath:   args.String("mountPath"),
					HostPath:    args.String("hostPath"),
					VolumeName:  args.String("volumeName"),
					FilePath:    args.String("filePath"),
					Content:     args.String("content"),
				})
				if err != nil {
					return nil, err
				}

				if args.Bool("apply") && svc.Deployer != nil {
					if err := svc.Deployer.Deploy(ctx, serviceType, serviceID); err != nil {
						return models.Fail("mount created but redeploy failed", err.Error()), nil
					}
					return models.OK("mount created, service redeploying", map[string]any{
						"mount":  m,
						"status": "deploying",
					}), nil
				}
				return models.OK("mount created", m), nil
			},
		},
		&tool.Def{
			Name:             "mount_delete",
			Description:      "Detach a mount from its service. Data on the host is kept.",
			Category:         tool.CategoryApplication,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"mountId": tool.String("Mount to delete."),
				"confirm": tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				m, err := svc.Mounts.GetMount(ctx, args.String("mountId"))
				if err != nil {
					return guard.NotFoundResult(err, "Mount"), nil
				}
				if res := guard.ServiceOrg(ctx, svc, tc, m.ServiceType, m.ServiceID); res != nil {
					return res, nil
				}
				if err := svc.Mounts.DeleteMount(ctx, m.MountID); err != nil {
					return nil, err
				}
				return models.OK("mount deleted", map[string]string{"mountId": m.MountID}), nil
			},
		},
	)
}

// remediation is the allowlist rejection: no mutation, plus the two-step
// follow-up the agent loop can replay.
func remediation(hostPath string, args tool.Args) *models.ToolResult {
	retry := map[string]any(args)
	res := models.Fail(
		"Host path "+hostPath+" is not in the organization's bind-mount allowlist",
		models.ErrCodeUnauthorized)
	res.SuggestedNextSteps = []models.SuggestedStep{
		{
			Tool: "org_bind_mount_allowlist_update",
			Params: map[string]any{
				"addPrefixes": []string{hostPath},
				"confirm":     confirmAllowlistUpdate,
			},
			Reason: "Allow this host path for bind mounts",
		},
		{
			Tool:   "mount_create",
			Params: retry,
			Reason: "Retry the mount with the same arguments",
		},
	}
	res.Data = map[string]any{"suggestedNextSteps": res.SuggestedNextSteps}
	return res
}

func requireKindFields(args tool.Args) error {
	switch args.String("type") {
	case "bind":
		if args.String("hostPath") == "" {
			return fmt.Errorf("hostPath is required for bind mounts")
		}
	case "volume":
		if args.String("volumeName") == "" {
			return fmt.Errorf("volumeName is required for volume mounts")
		}
	case "file":
		if args.String("filePath") == "" {
			return fmt.Errorf("filePath is required for file mounts")
		}
	}
	return nil
}
