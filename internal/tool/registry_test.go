package tool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/haasonsaas/shipyard/pkg/models"
)

func okTool(name string, cat Category) *Def {
	return &Def{
		Name:        name,
		Description: "test tool",
		Category:    cat,
		Risk:        models.RiskLow,
		Params:      NewSchema(nil),
		Run: func(ctx context.Context, tc Context, args Args) (*models.ToolResult, error) {
			return models.OK("ok", nil), nil
		},
	}
}

func TestRegistryDuplicateName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(okTool("project_list", CategoryProject)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(okTool("project_list", CategoryProject)); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()
	invoked := false
	def := okTool("project_list", CategoryProject)
	def.Run = func(ctx context.Context, tc Context, args Args) (*models.ToolResult, error) {
		invoked = true
		return models.OK("ok", nil), nil
	}
	r.MustRegister(def)

	res := r.Execute(context.Background(), "nope", nil, Context{})
	if res.Success {
		t.Fatal("unknown tool must fail")
	}
	if res.Error != "Unknown tool: nope" {
		t.Errorf("unexpected error %q", res.Error)
	}
	if invoked {
		t.Error("registered tool must not run for unknown name")
	}
}

func TestRegistryValidationIsolation(t *testing.T) {
	r := NewRegistry()
	invoked := false
	def := &Def{
		Name:     "application_deploy",
		Category: CategoryApplication,
		Risk:     models.RiskMedium,
		Params: NewSchema(map[string]*Field{
			"applicationId": String("Application to deploy."),
		}),
		Run: func(ctx context.Context, tc Context, args Args) (*models.ToolResult, error) {
			invoked = true
			return models.OK("deploying", nil), nil
		},
	}
	r.MustRegister(def)

	res := r.Execute(context.Background(), "application_deploy", json.RawMessage(`{}`), Context{})
	if res.Success {
		t.Fatal("expected validation failure")
	}
	if res.Message != "Invalid parameters" {
		t.Errorf("unexpected message %q", res.Message)
	}
	if invoked {
		t.Error("execute must not be entered on validation failure")
	}

	res = r.Execute(context.Background(), "application_deploy", json.RawMessage(`{"applicationId":"a-1"}`), Context{})
	if !res.Success {
		t.Fatalf("expected success, got %q / %q", res.Message, res.Error)
	}
	if !invoked {
		t.Error("execute should run on valid params")
	}
}

func TestRegistryFailClosedDefaults(t *testing.T) {
	r := NewRegistry()
	if !r.RequiresApproval("missing") {
		t.Error("unknown tool must require approval")
	}
	if r.RiskLevel("missing") != models.RiskHigh {
		t.Error("unknown tool must be high risk")
	}
}

func TestRegistryDestructiveVerbRule(t *testing.T) {
	r := NewRegistry()
	def := okTool("destination_delete", CategoryProject)
	if err := r.Register(def); err == nil {
		t.Fatal("destructive tool without high risk must be rejected")
	}

	def = okTool("backup_restore", CategoryBackup)
	def.Risk = models.RiskHigh
	def.RequiresApproval = true
	if err := r.Register(def); err != nil {
		t.Fatalf("properly declared destructive tool rejected: %v", err)
	}
}

func TestRegistryTrapsPanics(t *testing.T) {
	r := NewRegistry()
	def := okTool("project_get", CategoryProject)
	def.Run = func(ctx context.Context, tc Context, args Args) (*models.ToolResult, error) {
		panic("boom")
	}
	r.MustRegister(def)

	res := r.Execute(context.Background(), "project_get", nil, Context{})
	if res.Success {
		t.Fatal("panicking tool must yield a failed result")
	}
	if !strings.Contains(res.Error, "boom") {
		t.Errorf("panic text not surfaced: %q", res.Error)
	}
}

func TestRegistrySuccessStripsError(t *testing.T) {
	r := NewRegistry()
	def := okTool("project_create", CategoryProject)
	def.Run = func(ctx context.Context, tc Context, args Args) (*models.ToolResult, error) {
		return &models.ToolResult{Success: true, Error: "leftover"}, nil
	}
	r.MustRegister(def)

	res := r.Execute(context.Background(), "project_create", nil, Context{})
	if res.Error != "" {
		t.Errorf("success result must not carry an error, got %q", res.Error)
	}
}
