package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/safety"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/guard"
	"github.com/haasonsaas/shipyard/pkg/models"
)

const (
	defaultMaxRows            = 200
	defaultStatementTimeoutMs = 10000
	maxStatementTimeoutMs     = 300000
)

func registerSQLTools(reg *tool.Registry, svc *domain.Services) {
	reg.MustRegister(
		&tool.Def{
			Name: "postgres_sql_query",
			Description: "Run a read-only SQL query against a Postgres database. " +
				"Only SELECT, WITH, EXPLAIN and SHOW statements are accepted; the " +
				"query runs in a read-only transaction that is always rolled back.",
			Category: tool.CategoryPostgres,
			Risk:     models.RiskLow,
			Params: tool.NewSchema(map[string]*tool.Field{
				"postgresId":         tool.String("Postgres database to query."),
				"sql":                tool.String("The SQL to run."),
				"maxRows":            tool.Int("Row cap appended as LIMIT when missing.").Min(1).Max(10000).Default(defaultMaxRows),
				"statementTimeoutMs": tool.Int("Per-statement timeout in milliseconds.").Min(100).Max(maxStatementTimeoutMs).Default(defaultStatementTimeoutMs),
				"maxOutputChars":     tool.Int("Output size cap.").Min(1000).Max(safety.HardMaxOutputChars).Default(safety.DefaultMaxOutputChars),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				db, res := sqlTarget(ctx, svc, tc, args)
				if res != nil {
					return res, nil
				}
				sql := args.String("sql")
				if safety.ContainsMetaCommand(sql) {
					return models.Fail("Query rejected", safety.ErrMetaCommand), nil
				}
				if !safety.IsReadOnly(sql) {
					return models.Fail(
						"Only read-only statements are allowed here; use postgres_sql_execute_dml for writes",
						models.ErrCodeBadRequest), nil
				}
				script := safety.BuildReadOnlyScript(sql,
					args.Int("maxRows", defaultMaxRows),
					args.Int("statementTimeoutMs", defaultStatementTimeoutMs))
				return runScript(ctx, svc, db, script, args)
			},
		},
		&tool.Def{
			Name: "postgres_sql_execute_dml",
			Description: "Run INSERT, UPDATE or DELETE statements against a Postgres " +
				"database inside a transaction with a statement timeout.",
			Category:         tool.CategoryPostgres,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"postgresId":         tool.String("Postgres database to modify."),
				"sql":                tool.String("The DML to run."),
				"commit":             tool.Bool("Commit the transaction; false rolls back after execution.").Default(true),
				"statementTimeoutMs": tool.Int("Per-statement timeout in milliseconds.").Min(100).Max(maxStatementTimeoutMs).Default(defaultStatementTimeoutMs),
				"maxOutputChars":     tool.Int("Output size cap.").Min(1000).Max(safety.HardMaxOutputChars).Default(safety.DefaultMaxOutputChars),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				db, res := sqlTarget(ctx, svc, tc, args)
				if res != nil {
					return res, nil
				}
				sql := args.String("sql")
				if safety.ContainsMetaCommand(sql) {
					return models.Fail("Statement rejected", safety.ErrMetaCommand), nil
				}
				if !safety.IsDml(sql) {
					return models.Fail(
						"Statement is not DML; use postgres_sql_query for reads or postgres_sql_execute_admin for DDL",
						models.ErrCodeBadRequest), nil
				}
				commit := true
				if args.Has("commit") {
					commit = args.Bool("commit")
				}
				script := safety.BuildDMLScript(sql,
					args.Int("statementTimeoutMs", defaultStatementTimeoutMs), commit)
				return runScript(ctx, svc, db, script, args)
			},
		},
		&tool.Def{
			Name: "postgres_sql_execute_admin",
			Description: "Run arbitrary SQL including DDL against a Postgres database " +
				"inside a transaction with a statement timeout. Unclassified and dangerous.",
			Category:         tool.CategoryPostgres,
			Risk:             models.RiskHigh,
			RequiresApproval: true,
			Params: tool.NewSchema(map[string]*tool.Field{
				"postgresId":         tool.String("Postgres database to administer."),
				"sql":                tool.String("The SQL to run."),
				"statementTimeoutMs": tool.Int("Per-statement timeout in milliseconds.").Min(100).Max(maxStatementTimeoutMs).Default(defaultStatementTimeoutMs),
				"maxOutputChars":     tool.Int("Output size cap.").Min(1000).Max(safety.HardMaxOutputChars).Default(safety.DefaultMaxOutputChars),
			}),
			Run: func(ctx context.Context, tc tool.Context, args tool.Args) (*models.ToolResult, error) {
				db, res := sqlTarget(ctx, svc, tc, args)
				if res != nil {
					return res, nil
				}
				sql := args.String("sql")
				if safety.ContainsMetaCommand(sql) {
					return models.Fail("Statement rejected", safety.ErrMetaCommand), nil
				}
				script := safety.BuildAdminScript(sql,
					args.Int("statementTimeoutMs", defaultStatementTimeoutMs))
				return runScript(ctx, svc, db, script, args)
			},
		},
	)
}

func sqlTarget(ctx context.Context, svc *domain.Services, tc tool.Context, args tool.Args) (*domain.Database, *models.ToolResult) {
	if _, res := guard.RequireMember(ctx, svc, tc); res != nil {
		return nil, res
	}
	db, res := requireEngine(ctx, svc, tc, args.String("postgresId"), domain.EnginePostgres)
	if res != nil {
		return nil, res
	}
	if svc.SQLExecutor == nil {
		return nil, models.Fail("SQL execution is not configured", models.ErrCodeBadRequest)
	}
	return db, nil
}

func runScript(ctx context.Context, svc *domain.Services, db *domain.Database, script string, args tool.Args) (*models.ToolResult, error) {
	out, err := svc.SQLExecutor.RunSQL(ctx, db, script)
	if err != nil {
		return models.Fail("SQL execution failed", err.Error()), nil
	}

	limit := safety.ClampOutputLimit(args.Int("maxOutputChars", safety.DefaultMaxOutputChars))
	combined := out.Stdout
	if out.Stderr != "" {
		combined = strings.TrimRight(combined, "\n") + "\n" + out.Stderr
	}
	text, truncated := safety.Truncate(combined, limit)

	msg := "query executed"
	if out.ExitCode != 0 {
		return models.Fail(fmt.Sprintf("SQL exited with code %d", out.ExitCode), text), nil
	}
	if truncated {
		msg = fmt.Sprintf("query executed (output truncated to %d chars)", limit)
	}
	return models.OK(msg, map[string]any{
		"databaseId": db.DatabaseID,
		"output":     text,
		"truncated":  truncated,
	}), nil
}
