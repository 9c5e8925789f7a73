package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/haasonsaas/shipyard/internal/config"
	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/pkg/models"
)

type noopScheduler struct{}

func (noopScheduler) Create(ctx context.Context, s *domain.Schedule) error { return nil }
func (noopScheduler) Update(ctx context.Context, s *domain.Schedule) error { return nil }
func (noopScheduler) Remove(ctx context.Context, scheduleID string) error  { return nil }
func (noopScheduler) Run(ctx context.Context, scheduleID string) error     { return nil }

func newCatalog(t *testing.T) *tool.Registry {
	t.Helper()
	store := domain.NewMemoryStore()
	svc := &domain.Services{
		Orgs: store, Projects: store, Apps: store, Databases: store,
		Backups: store, Mounts: store, Credentials: store,
		Schedules: store, Servers: store, Deployments: store,
	}
	reg := tool.NewRegistry()
	RegisterAll(reg, svc, noopScheduler{}, config.StripeConfig{
		BasePriceMonthlyID: "price_monthly",
		BaseAnnualPriceID:  "price_annual",
	})
	return reg
}

func TestCatalogRegistersEveryDomain(t *testing.T) {
	reg := newCatalog(t)

	names := []string{
		"project_list", "project_delete",
		"environment_create",
		"application_deploy", "application_destination_change",
		"compose_deploy",
		"postgres_create", "mysql_start", "mariadb_stop", "mongo_get", "redis_list",
		"postgres_sql_query", "postgres_sql_execute_dml", "postgres_sql_execute_admin",
		"backup_run", "backup_restore",
		"volume_backup_create",
		"mount_create", "mount_delete",
		"port_create",
		"domain_create", "certificate_list",
		"destination_test_connection",
		"registry_create",
		"git_provider_list",
		"notification_test",
		"ssh_key_generate", "ssh_key_reveal",
		"security_reveal",
		"schedule_run_now",
		"server_setup_monitoring", "server_swarm_node_inspect",
		"org_bind_mount_allowlist_update",
		"user_list",
		"stripe_checkout_session_create", "stripe_portal_session_create",
		"settings_update",
	}
	for _, name := range names {
		if _, ok := reg.Get(name); !ok {
			t.Errorf("missing tool %q", name)
		}
	}
}

func TestCatalogApprovalPolicy(t *testing.T) {
	reg := newCatalog(t)

	readOnly := []string{"project_list", "postgres_sql_query", "server_get", "settings_get"}
	for _, name := range readOnly {
		if reg.RequiresApproval(name) {
			t.Errorf("%s must not require approval", name)
		}
	}

	gated := []string{
		"project_delete", "postgres_sql_execute_dml", "ssh_key_reveal",
		"org_bind_mount_allowlist_update", "stripe_checkout_session_create",
	}
	for _, name := range gated {
		if !reg.RequiresApproval(name) {
			t.Errorf("%s must require approval", name)
		}
	}

	if !reg.RequiresApproval("no_such_tool") {
		t.Error("unknown tools must fail closed")
	}
	if reg.RiskLevel("no_such_tool") != models.RiskHigh {
		t.Error("unknown tools must report high risk")
	}
}

func TestCatalogDestructiveToolsAreHighRisk(t *testing.T) {
	reg := newCatalog(t)

	for _, def := range reg.All() {
		destructive := false
		for _, seg := range strings.Split(def.Name, "_") {
			switch seg {
			case "delete", "remove", "destroy", "purge", "uninstall", "reset", "rotate", "revoke", "restore":
				destructive = true
			}
		}
		if destructive && (def.Risk != models.RiskHigh || !def.RequiresApproval) {
			t.Errorf("%s is destructive but not gated", def.Name)
		}
	}
}
