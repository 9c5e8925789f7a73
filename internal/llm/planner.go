package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/haasonsaas/shipyard/pkg/models"
)

// PlanStep is one planned tool invocation.
type PlanStep struct {
	Description string         `json:"description" jsonschema:"description=What this step accomplishes"`
	Tool        string         `json:"tool" jsonschema:"description=Registered tool name to invoke"`
	Params      map[string]any `json:"params,omitempty" jsonschema:"description=Arguments for the tool"`
}

// Plan is the structured output the planner asks the model for.
type Plan struct {
	Goal  string     `json:"goal" jsonschema:"description=Restatement of the user goal"`
	Steps []PlanStep `json:"steps" jsonschema:"description=Ordered tool invocations"`
}

// PlanSchema is the reflected JSON schema advertised in the planning prompt.
func PlanSchema() json.RawMessage {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&Plan{})
	raw, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return raw
}

// Planner turns a goal plus the tool catalog into an ordered plan.
type Planner struct {
	provider Provider
	model    string
}

// NewPlanner creates a planner over the provider.
func NewPlanner(provider Provider, model string) *Planner {
	return &Planner{provider: provider, model: model}
}

// Plan asks the model for a JSON plan and parses it. Responses wrapped in
// markdown fences are unwrapped first.
func (p *Planner) Plan(ctx context.Context, goal string, tools []ToolSpec) (*Plan, error) {
	var catalog strings.Builder
	for _, t := range tools {
		fmt.Fprintf(&catalog, "- %s: %s\n", t.Name, t.Description)
	}

	system := fmt.Sprintf(
		"You are a planning assistant for an infrastructure platform. "+
			"Produce a JSON object matching this schema, nothing else:\n%s\n"+
			"Available tools:\n%s", PlanSchema(), catalog.String())

	chunks, err := p.provider.Stream(ctx, &Request{
		Model:  p.model,
		System: system,
		Messages: []*models.Message{
			{Role: models.RoleUser, Content: goal},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("plan request: %w", err)
	}

	var text strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			return nil, fmt.Errorf("plan stream: %w", chunk.Err)
		}
		text.WriteString(chunk.Text)
	}

	plan, err := ParsePlan(text.String())
	if err != nil {
		return nil, err
	}
	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("model returned an empty plan")
	}
	return plan, nil
}

// ParsePlan decodes a plan from model output, tolerating code fences and
// surrounding prose.
func ParsePlan(raw string) (*Plan, error) {
	text := strings.TrimSpace(raw)
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		text = strings.TrimPrefix(text, "json")
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}
	if start := strings.Index(text, "{"); start > 0 {
		text = text[start:]
	}
	var plan Plan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &plan, nil
}
