// Package backup registers the database backup tools.
package backup

import (
	"context"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/scheduler"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const (
	confirmRestore = "RESTORE"
	confirmDelete  = "CONFIRM_BACKUP_DELETE"
)

// Register adds the backup tools to the registry.
func Register(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name:        "backup_list",
			Description: "List the configured backups of a database.",
			Category:    tool.CategoryBackup,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"databaseId": tool.String("Database whose backups to list."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				db, res := guard.DatabaseOrg(ctx, svc, tc, args.String("databaseId"))
				if res != nil {
					return res, nil
				}
				backups, err := svc.Backups.ListBackups(ctx, db.DatabaseID)
				if err != nil {
					return nil, err
				}
				return models.OK("backups listed", backups), nil
			},
		},
		&tool.Def{
			Name:             "backup_create",
			Description:      "Configure a scheduled backup of a database to an S3 destination.",
			Category:         tool.CategoryBackup,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"databaseId":    tool.String("Database to back up."),
				"destinationId": tool.String("S3 destination for the dump files."),
				"schedule":      tool.String("Cron expression, e.g. 0 3 * * *."),
				"prefix":        tool.String("Key prefix inside the bucket.").Optional(),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				db, res := guard.DatabaseOrg(ctx, svc, tc, args.String("databaseId"))
				if res != nil {
					return res, nil
				}
				dest, err := svc.Credentials.GetDestination(ctx, args.String("destinationId"))
				if err != nil {
					return guard.NotFoundResult(err, "Destination"), nil
				}
				if res := guard.CheckOrg(dest.OrganizationID, tc); res != nil {
					return res, nil
				}
				if err := scheduler.ValidateCron(args.String("schedule")); err != nil {
					return models.Fail("Invalid schedule", err.Error()), nil
				}
				b, err := svc.Backups.CreateBackup(ctx, &domain.Backup{
					DatabaseID:    db.DatabaseID,
					DestinationID: dest.DestinationID,
					Schedule:      args.String("schedule"),
					Prefix:        args.String("prefix"),
					Enabled:       true,
				})
				if err != nil {
					return nil, err
				}
				return models.OK("backup configured", b), nil
			},
		},
		&tool.Def{
			Name:             "backup_run",
			Description:      "Run a configured backup immediately.",
			Category:         tool.CategoryBackup,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"backupId": tool.String("Backup to run."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				b, res := ownedBackup(ctx, svc, tc, args.String("backupId"))
				if res != nil {
					return res, nil
				}
				if svc.BackupRunner == nil {
					return models.Fail("Backup runner is not configured", models.ErrCodeBadRequest), nil
				}
				if err := svc.BackupRunner.RunBackup(ctx, b); err != nil {
					return models.Fail("Backup failed", err.Error()), nil
				}
				return models.OK("backup completed", map[string]string{"backupId": b.BackupID}), nil
			},
		},
		&tool.Def{
			Name: "backup_restore",
			Description: "Restore a database from a backup file. Overwrites the " +
				"target database contents.",
			Category:         tool.CategoryBackup,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"backupId":     tool.String("Backup whose destination holds the file."),
				"backupFile":   tool.String("Object key of the dump to restore."),
				"databaseName": tool.String("Target database name, defaults to the original.").Optional(),
				"confirm":      tool.String("Must be exactly " + confirmRestore + ".").Literal(confirmRestore),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				b, res := ownedBackup(ctx, svc, tc, args.String("backupId"))
				if res != nil {
					return res, nil
				}
				if svc.BackupRunner == nil {
					return models.Fail("Backup runner is not configured", models.ErrCodeBadRequest), nil
				}

				// The restore is tracked as a deployment so its log can stream.
				dep, err := svc.Deployments.CreateDeployment(ctx, &domain.Deployment{
					ServiceType: "database",
					ServiceID:   b.DatabaseID,
					Title:       "Restore " + args.String("backupFile"),
					Status:      domain.DeploymentRunning,
				})
				if err != nil {
					return nil, err
				}
				if err := svc.BackupRunner.RestoreBackup(ctx, b, args.String("backupFile"), args.String("databaseName")); err != nil {
					_ = svc.Deployments.FinishDeployment(ctx, dep.DeploymentID, domain.DeploymentError)
					return models.Fail("Restore failed", err.Error()), nil
				}
				if err := svc.Deployments.FinishDeployment(ctx, dep.DeploymentID, domain.DeploymentDone); err != nil {
					return nil, err
				}
				return models.OK("restore completed", map[string]string{
					"backupId":     b.BackupID,
					"deploymentId": dep.DeploymentID,
				}), nil
			},
		},
		&tool.Def{
			Name:             "backup_delete",
			Description:      "Delete a backup configuration. Stored dump files are kept.",
			Category:         tool.CategoryBackup,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"backupId": tool.String("Backup configuration to delete."),
				"confirm":  tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				b, res := ownedBackup(ctx, svc, tc, args.String("backupId"))
				if res != nil {
					return res, nil
				}
				if err := svc.Backups.DeleteBackup(ctx, b.BackupID); err != nil {
					return nil, err
				}
				return models.OK("backup deleted", map[string]string{"backupId": b.BackupID}), nil
			},
		},
	)
}

func ownedBackup(ctx context.Context, svc *domain.Services, tc tool.Context, backupID string) (*domain.Backup, *models.ToolResult) {
	b, err := svc.Backups.GetBackup(ctx, backupID)
	if err != nil {
		return nil, guard.NotFoundResult(err, "Backup")
	}
	if _, res := guard.DatabaseOrg(ctx, svc, tc, b.DatabaseID); res != nil {
		return nil, res
	}
	return b, nil
}
