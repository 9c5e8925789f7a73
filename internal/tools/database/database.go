// Package database registers the managed-database tools for every supported
// engine, plus the SQL execution tools for Postgres.
package database

import (
	"context"
	"fmt"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const confirmDelete = "CONFIRM_DATABASE_DELETE"

var engineCategories = map[domain.Engine]tool.Category{
	domain.EnginePostgres: tool.CategoryPostgres,
	domain.EngineMySQL:    tool.CategoryMySQL,
	domain.EngineMariaDB:  tool.CategoryMariaDB,
	domain.EngineMongo:    tool.CategoryMongo,
	domain.EngineRedis:    tool.CategoryRedis,
}

// Register adds the per-engine lifecycle tools and the Postgres SQL tools.
func Register(reg *tool.Registry, svc *domain.Services) {
	for _, engine := range domain.Engines {
		registerEngine(reg, svc, engine)
	}
	registerSQLTools(reg, svc)
}

func registerEngine(reg *tool.Registry, svc *domain.Services, engine domain.Engine) {
	name := string(engine)
	cat := engineCategories[engine]

	reg.MustRegister(
		&tool.Def{
			Name:        name + "_list",
			Description: fmt.Sprintf("List the %s databases of an environment.", name),
			Category:    cat,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"environmentId": tool.String("Environment whose databases to list."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				env, res := guard.EnvironmentOrg(ctx, svc, tc, args.String("environmentId"))
				if res != nil {
					return res, nil
				}
				dbs, err := svc.Databases.ListDatabases(ctx, env.EnvironmentID, engine)
				if err != nil {
					return nil, err
				}
				masked := make([]domain.DatabaseMasked, 0, len(dbs))
				for _, db := range dbs {
					masked = append(masked, db.Masked())
				}
				return models.OK("databases listed", masked), nil
			},
		},
		&tool.Def{
			Name:        name + "_get",
			Description: fmt.Sprintf("Get one %s database. Credentials are masked.", name),
			Category:    cat,
			Risk:        models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"databaseId": tool.String("Database to load."),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				db, res := requireEngine(ctx, svc, tc, args.String("databaseId"), engine)
				if res != nil {
					return res, nil
				}
				return models.OK("database "+db.Name, db.Masked()), nil
			},
		},
		&tool.Def{
			Name:             name + "_create",
			Description:      fmt.Sprintf("Create a managed %s database.", name),
			Category:         cat,
			Risk:             models.RiskMedium,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"environmentId": tool.String("Owning environment."),
				"name":          tool.String("Database display name."),
				"databaseName":  tool.String("Logical database name.").Optional(),
				"databaseUser":  tool.String("Initial user.").Optional(),
				"serverId":      tool.String("Target server, empty for the default.").Optional(),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				env, res := guard.EnvironmentOrg(ctx, svc, tc, args.String("environmentId"))
				if res != nil {
					return res, nil
				}
				db, err := svc.Databases.CreateDatabase(ctx, &domain.Database{
					EnvironmentID: env.EnvironmentID,
					Engine:        engine,
					Name:          args.String("name"),
					AppName:       args.StringOr("databaseName", args.String("name")),
					DatabaseName:  args.String("databaseName"),
					DatabaseUser:  args.String("databaseUser"),
					ServerID:      args.String("serverId"),
					Status:        domain.StatusIdle,
				})
				if err != nil {
					return nil, err
				}
				return models.OK("database created", db.Masked()), nil
			},
		},
		engineLifecycle(svc, engine, name+"_start", "Start the database container.", "start", domain.StatusRunning),
		engineLifecycle(svc, engine, name+"_stop", "Stop the database container.", "stop", domain.StatusStopped),
		&tool.Def{
			Name:             name + "_delete",
			Description:      fmt.Sprintf("Delete a %s database and its data. Irreversible.", name),
			Category:         cat,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"databaseId": tool.String("Database to delete."),
				"confirm":    tool.String("Must be exactly " + confirmDelete + ".").Literal(confirmDelete),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
					return res, nil
				}
				db, res := requireEngine(ctx, svc, tc, args.String("databaseId"), engine)
				if res != nil {
					return res, nil
				}
				if err := svc.Databases.DeleteDatabase(ctx, db.DatabaseID); err != nil {
					return nil, err
				}
				return models.OK("database deleted", map[string]string{"databaseId": db.DatabaseID}), nil
			},
		},
	)
}

func engineLifecycle(svc *domain.Services, engine domain.Engine, name, desc, action string, status domain.ServiceStatus) *tool.Def {
	return &tool.Def{
		Name:             name,
		Description:      desc,
		Category:         engineCategories[engine],
		Risk:             models.RiskMedium,
		RequiresApproval: true,
		Params: tool.NewSchema(map[string]*tool.Field{
			"databaseId": tool.String("Target database."),
		}),
		Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
			if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
				return res, nil
			}
			db, res := requireEngine(ctx, svc, tc, args.String("databaseId"), engine)
			if res != nil {
				return res, nil
			}
			if svc.Deployer == nil {
				return models.Fail("Deployer is not configured", models.ErrCodeBadRequest), nil
			}
			var err error
			if action == "start" {
				err = svc.Deployer.Start(ctx, string(engine), db.DatabaseID)
			} else {
				err = svc.Deployer.Stop(ctx, string(engine), db.DatabaseID)
			}
			if err != nil {
				return nil, err
			}
			if err := svc.Databases.UpdateDatabaseStatus(ctx, db.DatabaseID, status); err != nil {
				return nil, err
			}
			return models.OK(action+" triggered", map[string]string{
				"databaseId": db.DatabaseID,
				"status":     string(status),
			}), nil
		},
	}
}

func requireEngine(ctx context.Context, svc *domain.Services, tc tool.Context, databaseID string, engine domain.Engine) (*domain.Database, *models.ToolResult) {
	db, res := guard.DatabaseOrg(ctx, svc, tc, databaseID)
	if res != nil {
		return nil, res
	}
	if db.Engine != engine {
		return nil, models.NotFound(fmt.Sprintf("Database is not a %s instance", engine))
	}
	return db, nil
}
