package org

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/pkg/models"
)

func newFixture(t *testing.T) (*tool.Registry, *domain.MemoryStore) {
	t.Helper()
	store := domain.NewMemoryStore()
	store.SeedOrganization(&domain.Organization{
		OrganizationID: "org-1",
		AIPolicies:     domain.AIPolicies{BindMountAllowPrefixes: []string{"/var/lib/dokploy"}},
	}, &domain.User{UserID: "owner-1"})
	store.SeedUser(&domain.User{UserID: "member-1", OrganizationID: "org-1", Role: domain.RoleMember})

	svc := &domain.Services{
		Orgs: store, Projects: store, Apps: store, Databases: store,
		Backups: store, Mounts: store, Credentials: store,
		Schedules: store, Servers: store, Deployments: store,
	}
	reg := tool.NewRegistry()
	Register(reg, svc)
	return reg, store
}

func execute(t *testing.T, reg *tool.Registry, userID, name string, params map[string]any) *models.ToolResult {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}
	return reg.Execute(context.Background(), name, raw,
		tool.Context{UserID: userID, OrganizationID: "org-1"})
}

func TestAllowlistGet(t *testing.T) {
	reg, _ := newFixture(t)

	res := execute(t, reg, "member-1", "org_bind_mount_allowlist_get", nil)
	if !res.Success {
		t.Fatalf("get failed: %s %s", res.Message, res.Error)
	}
	data := res.Data.(map[string]any)
	got := data["bindMountAllowPrefixes"].([]string)
	if !reflect.DeepEqual(got, []string{"/var/lib/dokploy"}) {
		t.Errorf("prefixes = %v", got)
	}
}

func TestAllowlistUpdateIsOwnerOnly(t *testing.T) {
	reg, store := newFixture(t)

	res := execute(t, reg, "member-1", "org_bind_mount_allowlist_update", map[string]any{
		"addPrefixes": []string{"/srv/foo"},
		"confirm":     "CONFIRM_ALLOWLIST_UPDATE",
	})
	if res.Success {
		t.Fatal("member must not update the allowlist")
	}
	if res.Error != models.ErrCodeUnauthorized {
		t.Errorf("error = %q", res.Error)
	}

	org, _ := store.GetOrganization(context.Background(), "org-1")
	if len(org.AIPolicies.BindMountAllowPrefixes) != 1 {
		t.Error("rejected update must not change the allowlist")
	}
}

func TestAllowlistAddNormalizesAndDeduplicates(t *testing.T) {
	reg, store := newFixture(t)

	res := execute(t, reg, "owner-1", "org_bind_mount_allowlist_update", map[string]any{
		"addPrefixes": []string{"/srv/foo", "srv/foo", "/srv/foo/"},
		"confirm":     "CONFIRM_ALLOWLIST_UPDATE",
	})
	if !res.Success {
		t.Fatalf("update failed: %s %s", res.Message, res.Error)
	}

	org, _ := store.GetOrganization(context.Background(), "org-1")
	want := []string{"/var/lib/dokploy", "/srv/foo"}
	if !reflect.DeepEqual(org.AIPolicies.BindMountAllowPrefixes, want) {
		t.Errorf("prefixes = %v, want %v", org.AIPolicies.BindMountAllowPrefixes, want)
	}
}

func TestAllowlistRemove(t *testing.T) {
	reg, store := newFixture(t)

	res := execute(t, reg, "owner-1", "org_bind_mount_allowlist_update", map[string]any{
		"removePrefixes": []string{"/var/lib/dokploy"},
		"confirm":        "CONFIRM_ALLOWLIST_UPDATE",
	})
	if !res.Success {
		t.Fatalf("update failed: %s %s", res.Message, res.Error)
	}

	org, _ := store.GetOrganization(context.Background(), "org-1")
	if len(org.AIPolicies.BindMountAllowPrefixes) != 0 {
		t.Errorf("prefixes = %v, want empty", org.AIPolicies.BindMountAllowPrefixes)
	}
}

func TestAllowlistUpdateRequiresConfirmLiteral(t *testing.T) {
	reg, _ := newFixture(t)

	res := execute(t, reg, "owner-1", "org_bind_mount_allowlist_update", map[string]any{
		"addPrefixes": []string{"/srv/foo"},
		"confirm":     "sure",
	})
	if res.Success {
		t.Fatal("wrong confirm literal must be rejected")
	}
	if res.Message != "Invalid parameters" {
		t.Errorf("expected schema rejection, got %q", res.Message)
	}
}

func TestAllowlistUpdateRequiresAChange(t *testing.T) {
	reg, _ := newFixture(t)

	res := execute(t, reg, "owner-1", "org_bind_mount_allowlist_update", map[string]any{
		"confirm": "CONFIRM_ALLOWLIST_UPDATE",
	})
	if res.Success {
		t.Fatal("update without add or remove must be rejected")
	}
}
