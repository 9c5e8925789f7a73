package database

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/safety"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/pkg/models"
)

type scriptRecorder struct {
	scripts []string
	result  *domain.ExecResult
}

func (r *scriptRecorder) RunSQL(ctx context.Context, db *domain.Database, script string) (*domain.ExecResult, error) {
	r.scripts = append(r.scripts, script)
	if r.result != nil {
		return r.result, nil
	}
	return &domain.ExecResult{Stdout: "1 row"}, nil
}

type sqlFixture struct {
	reg     *tool.Registry
	store   *domain.MemoryStore
	exec    *scriptRecorder
	pgID    string
	redisID string
}

func newSQLFixture(t *testing.T) *sqlFixture {
	t.Helper()
	ctx := context.Background()
	store := domain.NewMemoryStore()
	store.SeedOrganization(&domain.Organization{OrganizationID: "org-1"}, &domain.User{UserID: "owner-1"})

	exec := &scriptRecorder{}
	svc := &domain.Services{
		Orgs: store, Projects: store, Apps: store, Databases: store,
		Backups: store, Mounts: store, Credentials: store,
		Schedules: store, Servers: store, Deployments: store,
		SQLExecutor: exec,
	}

	p, err := store.CreateProject(ctx, &domain.Project{OrganizationID: "org-1", Name: "web"})
	if err != nil {
		t.Fatal(err)
	}
	env, err := store.CreateEnvironment(ctx, &domain.Environment{ProjectID: p.ProjectID, Name: "prod"})
	if err != nil {
		t.Fatal(err)
	}
	pg, err := store.CreateDatabase(ctx, &domain.Database{
		EnvironmentID: env.EnvironmentID, Engine: domain.EnginePostgres, Name: "main",
	})
	if err != nil {
		t.Fatal(err)
	}
	redis, err := store.CreateDatabase(ctx, &domain.Database{
		EnvironmentID: env.EnvironmentID, Engine: domain.EngineRedis, Name: "cache",
	})
	if err != nil {
		t.Fatal(err)
	}

	reg := tool.NewRegistry()
	Register(reg, svc)
	return &sqlFixture{reg: reg, store: store, exec: exec, pgID: pg.DatabaseID, redisID: redis.DatabaseID}
}

func (f *sqlFixture) execute(t *testing.T, name string, params map[string]any) *models.ToolResult {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}
	return f.reg.Execute(context.Background(), name, raw,
		tool.Context{UserID: "owner-1", OrganizationID: "org-1"})
}

func TestQueryWrapsReadOnlyScript(t *testing.T) {
	f := newSQLFixture(t)

	res := f.execute(t, "postgres_sql_query", map[string]any{
		"postgresId": f.pgID,
		"sql":        "SELECT * FROM users",
	})
	if !res.Success {
		t.Fatalf("query failed: %s %s", res.Message, res.Error)
	}
	if len(f.exec.scripts) != 1 {
		t.Fatalf("expected 1 script, got %d", len(f.exec.scripts))
	}
	want := "BEGIN READ ONLY; SET LOCAL statement_timeout='10000ms'; SELECT * FROM users LIMIT 200; ROLLBACK;"
	if f.exec.scripts[0] != want {
		t.Errorf("script = %q, want %q", f.exec.scripts[0], want)
	}
}

func TestQueryKeepsExplicitLimit(t *testing.T) {
	f := newSQLFixture(t)

	f.execute(t, "postgres_sql_query", map[string]any{
		"postgresId": f.pgID,
		"sql":        "SELECT id FROM users LIMIT 5",
	})
	if len(f.exec.scripts) != 1 {
		t.Fatal("expected a script")
	}
	if strings.Contains(f.exec.scripts[0], "LIMIT 200") {
		t.Errorf("explicit LIMIT must not be overridden: %q", f.exec.scripts[0])
	}
}

func TestQueryRejectsMetaCommands(t *testing.T) {
	f := newSQLFixture(t)

	res := f.execute(t, "postgres_sql_query", map[string]any{
		"postgresId": f.pgID,
		"sql":        `\copy users TO '/tmp/out.csv'`,
	})
	if res.Success {
		t.Fatal("meta-command must be rejected")
	}
	if res.Error != safety.ErrMetaCommand {
		t.Errorf("error = %q", res.Error)
	}
	if len(f.exec.scripts) != 0 {
		t.Error("rejected statement must never reach the executor")
	}
}

func TestQueryRejectsDML(t *testing.T) {
	f := newSQLFixture(t)

	res := f.execute(t, "postgres_sql_query", map[string]any{
		"postgresId": f.pgID,
		"sql":        "DELETE FROM users",
	})
	if res.Success {
		t.Fatal("DML must be rejected by the read-only tool")
	}
	if res.Error != models.ErrCodeBadRequest {
		t.Errorf("error = %q, want %q", res.Error, models.ErrCodeBadRequest)
	}
	if len(f.exec.scripts) != 0 {
		t.Error("rejected statement must never reach the executor")
	}
}

func TestWithCarryingDMLRoutesToDMLTool(t *testing.T) {
	f := newSQLFixture(t)
	sql := "WITH moved AS (DELETE FROM q RETURNING *) SELECT count(*) FROM moved"

	res := f.execute(t, "postgres_sql_query", map[string]any{
		"postgresId": f.pgID,
		"sql":        sql,
	})
	if res.Success {
		t.Fatal("WITH carrying DML must be rejected by the read-only tool")
	}

	res = f.execute(t, "postgres_sql_execute_dml", map[string]any{
		"postgresId": f.pgID,
		"sql":        sql,
		"commit":     false,
	})
	if !res.Success {
		t.Fatalf("dml tool rejected WITH-DML: %s %s", res.Message, res.Error)
	}
	script := f.exec.scripts[len(f.exec.scripts)-1]
	if !strings.HasSuffix(script, "ROLLBACK;") {
		t.Errorf("commit=false must roll back, got %q", script)
	}
}

func TestDMLRejectsReadOnlyStatements(t *testing.T) {
	f := newSQLFixture(t)

	res := f.execute(t, "postgres_sql_execute_dml", map[string]any{
		"postgresId": f.pgID,
		"sql":        "SELECT 1",
	})
	if res.Success {
		t.Fatal("SELECT must be rejected by the DML tool")
	}
	if res.Error != models.ErrCodeBadRequest {
		t.Errorf("error = %q", res.Error)
	}
}

func TestAdminWrapsCommittedTransaction(t *testing.T) {
	f := newSQLFixture(t)

	res := f.execute(t, "postgres_sql_execute_admin", map[string]any{
		"postgresId": f.pgID,
		"sql":        "DROP TABLE old_events",
	})
	if !res.Success {
		t.Fatalf("admin tool failed: %s %s", res.Message, res.Error)
	}
	want := "BEGIN; SET LOCAL statement_timeout='10000ms'; DROP TABLE old_events; COMMIT;"
	if f.exec.scripts[0] != want {
		t.Errorf("script = %q, want %q", f.exec.scripts[0], want)
	}
}

func TestSQLToolsRejectWrongEngine(t *testing.T) {
	f := newSQLFixture(t)

	res := f.execute(t, "postgres_sql_query", map[string]any{
		"postgresId": f.redisID,
		"sql":        "SELECT 1",
	})
	if res.Success {
		t.Fatal("redis instance must not be queryable as postgres")
	}
	if res.Error != models.ErrCodeNotFound {
		t.Errorf("error = %q, want %q", res.Error, models.ErrCodeNotFound)
	}
}

func TestQueryTruncatesOutput(t *testing.T) {
	f := newSQLFixture(t)
	f.exec.result = &domain.ExecResult{Stdout: strings.Repeat("x", 5000)}

	res := f.execute(t, "postgres_sql_query", map[string]any{
		"postgresId":     f.pgID,
		"sql":            "SELECT * FROM big",
		"maxOutputChars": 1000,
	})
	if !res.Success {
		t.Fatalf("query failed: %s %s", res.Message, res.Error)
	}
	data := res.Data.(map[string]any)
	if data["truncated"] != true {
		t.Error("expected truncated=true")
	}
	out := data["output"].(string)
	if !strings.Contains(out, "truncated to 1000 chars") {
		t.Errorf("output missing truncation marker: %q", out[len(out)-60:])
	}
}

func TestSQLSurfacesNonZeroExit(t *testing.T) {
	f := newSQLFixture(t)
	f.exec.result = &domain.ExecResult{Stderr: "ERROR: relation does not exist", ExitCode: 1}

	res := f.execute(t, "postgres_sql_query", map[string]any{
		"postgresId": f.pgID,
		"sql":        "SELECT * FROM missing",
	})
	if res.Success {
		t.Fatal("non-zero exit must fail the result")
	}
	if !strings.Contains(res.Error, "relation does not exist") {
		t.Errorf("error must carry the captured output, got %q", res.Error)
	}
}
