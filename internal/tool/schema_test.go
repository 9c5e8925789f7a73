package tool

import (
	"encoding/json"
	"strings"
	"testing"
)

func compiled(t *testing.T, s *Schema) *Schema {
	t.Helper()
	if err := s.Compile("test"); err != nil {
		t.Fatalf("compile: %v", err)
	}
	return s
}

func TestSchemaLiteralGate(t *testing.T) {
	s := compiled(t, NewSchema(map[string]*Field{
		"destinationId": String("Destination to delete."),
		"confirm":       String("Type CONFIRM_DESTINATION_CHANGE to proceed.").Literal("CONFIRM_DESTINATION_CHANGE"),
	}))

	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"exact literal", `{"destinationId":"d-1","confirm":"CONFIRM_DESTINATION_CHANGE"}`, true},
		{"missing confirm", `{"destinationId":"d-1"}`, false},
		{"wrong literal", `{"destinationId":"d-1","confirm":"yes"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, problems := s.Validate(json.RawMessage(tt.raw))
			if (len(problems) == 0) != tt.ok {
				t.Errorf("ok=%v, problems=%v", tt.ok, problems)
			}
		})
	}
}

func TestSchemaRangesAndEnums(t *testing.T) {
	s := compiled(t, NewSchema(map[string]*Field{
		"maxRows":  Int("Row cap.").Min(1).Max(10000).Default(200),
		"engine":   String("Database engine.").Enum("postgres", "mysql", "redis"),
		"hostPath": String("Host path.").Optional(),
	}))

	if _, problems := s.Validate(json.RawMessage(`{"engine":"postgres"}`)); len(problems) != 0 {
		t.Fatalf("defaults should be optional: %v", problems)
	}
	if _, problems := s.Validate(json.RawMessage(`{"engine":"sqlite"}`)); len(problems) == 0 {
		t.Fatal("enum violation accepted")
	}
	if _, problems := s.Validate(json.RawMessage(`{"engine":"redis","maxRows":0}`)); len(problems) == 0 {
		t.Fatal("range violation accepted")
	}
}

func TestSchemaRefine(t *testing.T) {
	s := compiled(t, NewSchema(map[string]*Field{
		"name":        String("New name.").Optional(),
		"description": String("New description.").Optional(),
	}).Refine(AtLeastOneOf("name", "description")))

	if _, problems := s.Validate(json.RawMessage(`{}`)); len(problems) == 0 {
		t.Fatal("refine should reject empty update")
	}
	if _, problems := s.Validate(json.RawMessage(`{"name":"web"}`)); len(problems) != 0 {
		t.Fatalf("valid update rejected: %v", problems)
	}
}

func TestSchemaAggregatesFieldMessages(t *testing.T) {
	s := compiled(t, NewSchema(map[string]*Field{
		"a": String("a"),
		"b": Int("b").Min(1),
	}))
	_, problems := s.Validate(json.RawMessage(`{"b":0}`))
	if len(problems) == 0 {
		t.Fatal("expected problems")
	}
	joined := strings.Join(problems, "; ")
	if !strings.Contains(joined, "a") || !strings.Contains(joined, "b") {
		t.Errorf("messages should mention both fields: %q", joined)
	}
}

func TestSchemaEmptyArguments(t *testing.T) {
	s := compiled(t, NewSchema(nil))
	if _, problems := s.Validate(nil); len(problems) != 0 {
		t.Fatalf("nil raw should validate for empty schema: %v", problems)
	}
	if _, problems := s.Validate(json.RawMessage(`[]`)); len(problems) == 0 {
		t.Fatal("non-object arguments accepted")
	}
}
