package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/haasonsaas/shipyard/internal/metrics"
	"github.com/haasonsaas/shipyard/pkg/models"
)

// destructiveVerbs force riskLevel=high and requiresApproval=true on any tool
// whose name carries one of them as a segment.
var destructiveVerbs = map[string]struct{}{
	"delete": {}, "remove": {}, "destroy": {}, "purge": {},
	"uninstall": {}, "reset": {}, "rotate": {}, "revoke": {}, "restore": {},
}

// Registry is the process-wide catalog of tools. It is populated once at
// startup by per-domain registration functions and read-only afterwards.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Def
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]*Def),
		logger: slog.Default().With("component", "tool_registry"),
	}
}

// Register inserts a tool definition. Duplicate names, invalid schemas and
// destructive tools that are not declared high-risk are boot errors.
func (r *Registry) Register(def *Def) error {
	if def == nil || strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("tool definition requires a name")
	}
	if def.Run == nil {
		return fmt.Errorf("tool %q has no run function", def.Name)
	}
	if def.Params == nil {
		def.Params = NewSchema(nil)
	}
	if err := def.Params.Compile(def.Name); err != nil {
		return fmt.Errorf("tool %q: %w", def.Name, err)
	}
	if hasDestructiveVerb(def.Name) {
		if def.Risk != models.RiskHigh || !def.RequiresApproval {
			return fmt.Errorf("tool %q is destructive and must declare riskLevel=high with approval", def.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("duplicate tool name %q", def.Name)
	}
	r.tools[def.Name] = def
	return nil
}

// MustRegister registers definitions and panics on any boot error. Used by
// the per-domain registration functions at startup.
func (r *Registry) MustRegister(defs ...*Def) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic("tool registration: " + err.Error())
		}
	}
}

// Get returns a tool definition by name.
func (r *Registry) Get(name string) (*Def, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// All returns every registered tool sorted by name.
func (r *Registry) All() []*Def {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Def, 0, len(r.tools))
	for _, def := range r.tools {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByCategory returns the tools of one category sorted by name.
func (r *Registry) ByCategory(cat Category) []*Def {
	var out []*Def
	for _, def := range r.All() {
		if def.Category == cat {
			out = append(out, def)
		}
	}
	return out
}

// RequiresApproval reports whether the named tool needs human approval.
// Unknown tools fail closed.
func (r *Registry) RequiresApproval(name string) bool {
	def, ok := r.Get(name)
	if !ok {
		return true
	}
	return def.RequiresApproval
}

// RiskLevel reports the named tool's risk. Unknown tools fail closed.
func (r *Registry) RiskLevel(name string) models.RiskLevel {
	def, ok := r.Get(name)
	if !ok {
		return models.RiskHigh
	}
	return def.Risk
}

// Execute validates raw arguments and dispatches to the tool. It never
// propagates errors or panics from tool bodies; every outcome is a
// ToolResult.
func (r *Registry) Execute(ctx context.Context, name string, raw json.RawMessage, tc Context) *models.ToolResult {
	def, ok := r.Get(name)
	if !ok {
		metrics.ToolExecutions.WithLabelValues(name, metrics.OutcomeUnknown).Inc()
		return &models.ToolResult{Success: false, Error: "Unknown tool: " + name}
	}

	args, problems := def.Params.Validate(raw)
	if len(problems) > 0 {
		metrics.ToolExecutions.WithLabelValues(name, metrics.OutcomeInvalid).Inc()
		return &models.ToolResult{
			Success: false,
			Message: "Invalid parameters",
			Error:   strings.Join(problems, "; "),
		}
	}

	result := r.run(ctx, def, tc, args)
	outcome := metrics.OutcomeSuccess
	if !result.Success {
		outcome = metrics.OutcomeFailure
	}
	metrics.ToolExecutions.WithLabelValues(name, outcome).Inc()
	return result
}

func (r *Registry) run(ctx context.Context, def *Def, tc Context, args Args) (result *models.ToolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", "tool", def.Name, "panic", rec)
			metrics.ToolExecutions.WithLabelValues(def.Name, metrics.OutcomeRecovered).Inc()
			result = &models.ToolResult{
				Success: false,
				Message: "Tool execution failed",
				Error:   fmt.Sprintf("panic: %v", rec),
			}
		}
	}()

	res, err := def.Run(ctx, tc, args)
	if err != nil {
		return &models.ToolResult{
			Success: false,
			Message: "Tool execution failed",
			Error:   err.Error(),
		}
	}
	if res == nil {
		return &models.ToolResult{Success: false, Error: "tool returned no result"}
	}
	if res.Success {
		// Transport must never carry an error alongside success.
		res.Error = ""
	}
	return res
}

func hasDestructiveVerb(name string) bool {
	for _, segment := range strings.Split(name, "_") {
		if _, ok := destructiveVerbs[segment]; ok {
			return true
		}
	}
	return false
}
