// Package volumebackup registers the docker-volume backup tools. Creation
// registers the cadence with the scheduler; the hosted mode routes that to
// the jobs service.
package volumebackup

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/scheduler"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const (
	confirmChange  = "CONFIRM_VOLUME_BACKUP_CHANGE"
	confirmRestore = "RESTORE"
)

// Register adds the volume backup tools to the registry.
func Register(reg *tool.Registry, svc *domain.Services, sched scheduler.Scheduler) {
	reg.MustRegister(
		&tool.Def{
			Name:        "volume_backup_list",
			Description: "List the volume backups of a service.",
			Category:    tool.CategoryBackup,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"serviceType": tool.String("Owning service kind.").Enum("application", "compose"),
				"serviceId":   tool.String("Owning service id."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				if res := guard.ServiceOrg(ctx, svc, tc, args.String("serviceType"), args.String("serviceId")); res != nil {
					return res, nil
				}
				backups, err := svc.Backups.ListVolumeBackups(ctx, args.String("serviceId"))
				if err != nil {
					return nil, err
				}
				return models.OK("volume backups listed", backups), nil
			},
		},
		&tool.Def{
			Name:             "volume_backup_create",
			Description:      "Configure a scheduled backup of a docker volume to an S3 destination.",
			Category:         tool.CategoryBackup,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"serviceType":    tool.String("Owning service kind.").Enum("application", "compose"),
				"serviceId":      tool.String("Owning service id."),
				"volumeName":     tool.String("Docker volume to back up."),
				"destinationId":  tool.String("S3 destination."),
				"cronExpression": tool.String("Backup cadence, e.g. 0 4 * * *."),
				"confirm":        tool.String("Must be exactly " + confirmChange + ".").Literal(confirmChange),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				if res := guard.ServiceOrg(ctx, svc, tc, args.String("serviceType"), args.String("serviceId")); res != nil {
					return res, nil
				}
				dest, err := svc.Credentials.GetDestination(ctx, args.String("destinationId"))
				if err != nil {
					return guard.NotFoundResult(err, "Destination"), nil
				}
				if res := guard.CheckOrg(dest.OrganizationID, tc); res != nil {
					return res, nil
				}
				if err := scheduler.ValidateCron(args.String("cronExpression")); err != nil {
					return models.Fail("Invalid schedule", err.Error()), nil
				}
				v, err := svc.Backups.CreateVolumeBackup(ctx, &domain.VolumeBackup{
					ServiceType:   args.String("serviceType"),
					ServiceID:     args.String("serviceId"),
					VolumeName:    args.String("volumeName"),
					DestinationID: dest.DestinationID,
					Schedule:      args.String("cronExpression"),
					Enabled:       true,
				})
				if err != nil {
					return nil, err
				}
				if sched != nil {
					if err := sched.Create(ctx, &domain.Schedule{
						ScheduleID:     v.VolumeBackupID,
						OrganizationID: tc.OrganizationID,
						Name:           "volume-backup " + v.VolumeName,
						CronExpression: v.Schedule,
						ServiceType:    "volume_backup",
						ServiceID:      v.VolumeBackupID,
						Enabled:        true,
					}); err != nil {
						return models.Fail("created but scheduling failed", err.Error()), nil
					}
				}
				return models.OK("volume backup configured", v), nil
			},
		},
		&tool.Def{
			Name:             "volume_backup_run",
			Description:      "Run a volume backup immediately.",
			Category:         tool.CategoryBackup,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"volumeBackupId": tool.String("Volume backup to run."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				v, res := ownedVolumeBackup(ctx, svc, tc, args.String("volumeBackupId"))
				if res != nil {
					return res, nil
				}
				if svc.BackupRunner == nil {
					return models.Fail("Backup runner is not configured", models.ErrCodeBadRequest), nil
				}
				if err := svc.BackupRunner.RunVolumeBackup(ctx, v); err != nil {
					return models.Fail("Volume backup failed", err.Error()), nil
				}
				return models.OK("volume backup completed", map[string]string{"volumeBackupId": v.VolumeBackupID}), nil
			},
		},
		&tool.Def{
			Name:             "volume_backup_restore",
			Description:      "Restore a docker volume from a backup archive. Overwrites the volume.",
			Category:         tool.CategoryBackup,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"volumeBackupId": tool.String("Volume backup whose destination holds the archive."),
				"backupFile":     tool.String("Object key of the archive to restore."),
				"confirm":        tool.String("Must be exactly " + confirmRestore + ".").Literal(confirmRestore),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				v, res := ownedVolumeBackup(ctx, svc, tc, args.String("volumeBackupId"))
				if res != nil {
					return res, nil
				}
				if svc.BackupRunner == nil {
					return models.Fail("Backup runner is not configured", models.ErrCodeBadRequest), nil
				}
				dep, err := svc.Deployments.CreateDeployment(ctx, &domain.Deployment{
					ServiceType: v.ServiceType,
					ServiceID:   v.ServiceID,
					Title:       "Restore volume " + v.VolumeName,
					Status:      domain.DeploymentRunning,
				})
				if err != nil {
					return nil, err
				}
				if err := svc.BackupRunner.RestoreVolumeBackup(ctx, v, args.String("backupFile")); err != nil {
					_ = svc.Deployments.FinishDeployment(ctx, dep.DeploymentID, domain.DeploymentError)
					return models.Fail("Restore failed", err.Error()), nil
				}
				if err := svc.Deployments.FinishDeployment(ctx, dep.DeploymentID, domain.DeploymentDone); err != nil {
					return nil, err
				}
				return models.OK("volume restored", map[string]string{
					"volumeBackupId": v.VolumeBackupID,
					"deploymentId":   dep.DeploymentID,
				}), nil
			},
		},
		&tool.Def{
			Name:             "volume_backup_delete",
			Description:      "Delete a volume backup configuration and unschedule it.",
			Category:         tool.CategoryBackup,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"volumeBackupId": tool.String("Volume backup configuration to delete."),
				"confirm":        tool.String("Must be exactly " + confirmChange + ".").Literal(confirmChange),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				v, res := ownedVolumeBackup(ctx, svc, tc, args.String("volumeBackupId"))
				if res != nil {
					return res, nil
				}
				if err := svc.Backups.DeleteVolumeBackup(ctx, v.VolumeBackupID); err != nil {
					return nil, err
				}
				if sched != nil {
					if err := sched.Remove(ctx, v.VolumeBackupID); err != nil {
						return models.Fail("deleted but unscheduling failed", err.Error()), nil
					}
				}
				return models.OK("volume backup deleted", map[string]string{"volumeBackupId": v.VolumeBackupID}), nil
			},
		},
	)
}

func ownedVolumeBackup(ctx context.Context, svc *domain.Services, tc tool.Context, id string) (*domain.VolumeBackup, *models.ToolResult) {
	v, err := svc.Backups.GetVolumeBackup(ctx, id)
	if err != nil {
		return nil, guard.NotFoundResult(err, "Volume backup")
	}
	if res := guard.ServiceOrg(ctx, svc, tc, v.ServiceType, v.ServiceID); res != nil {
		return nil, res
	}
	return v, nil
}
