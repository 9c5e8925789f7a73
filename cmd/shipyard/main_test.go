package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/haasonsaas/shipyard/internal/auth"
	"github.com/haasonsaas/shipyard/internal/config"
)

func TestCatalogIsPopulated(t *testing.T) {
	registry := catalog()
	if len(registry.All()) == 0 {
		t.Fatal("catalog registered no tools")
	}
	for _, name := range []string{"project_list", "application_deploy", "postgres_sql_query"} {
		if _, ok := registry.Get(name); !ok {
			t.Errorf("expected tool %q in catalog", name)
		}
	}
}

func TestToolsCommandOutput(t *testing.T) {
	cmd := buildToolsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--category", "project"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("tools command: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "NAME") {
		t.Errorf("missing table header in output:\n%s", got)
	}
	if !strings.Contains(got, "project_delete") {
		t.Errorf("missing project_delete in output:\n%s", got)
	}
	if strings.Contains(got, "application_deploy") {
		t.Errorf("category filter leaked other categories:\n%s", got)
	}
}

func TestTokenCommandRoundTrip(t *testing.T) {
	cmd := buildTokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--user", "u-1", "--org", "org-1", "--secret", "test-secret"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("token command: %v", err)
	}

	token := strings.TrimSpace(out.String())
	sess, err := auth.NewService("test-secret", sessionExpiry).Verify(token)
	if err != nil {
		t.Fatalf("verify minted token: %v", err)
	}
	if sess.UserID != "u-1" || sess.OrganizationID != "org-1" {
		t.Errorf("unexpected session %+v", sess)
	}
}

func TestOpenStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, err := openStore(&config.Config{Database: config.DatabaseConfig{Driver: "memory"}})
		if err != nil {
			t.Fatalf("open memory store: %v", err)
		}
		defer store.Close()
	})

	t.Run("sqlite", func(t *testing.T) {
		path := t.TempDir() + "/shipyard.db"
		store, err := openStore(&config.Config{Database: config.DatabaseConfig{Driver: "sqlite", Path: path}})
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		defer store.Close()
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, err := openStore(&config.Config{Database: config.DatabaseConfig{Driver: "oracle"}}); err == nil {
			t.Fatal("expected error for unknown driver")
		}
	})
}
