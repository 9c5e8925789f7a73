package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Field describes one schema property. Fields are required unless marked
// Optional. Descriptions are preserved verbatim because the language model
// reads them as documentation.
type Field struct {
	spec     map[string]any
	optional bool
}

// String declares a required string property.
func String(desc string) *Field {
	return &Field{spec: map[string]any{"type": "string", "description": desc}}
}

// Int declares a required integer property.
func Int(desc string) *Field {
	return &Field{spec: map[string]any{"type": "integer", "description": desc}}
}

// Bool declares a required boolean property.
func Bool(desc string) *Field {
	return &Field{spec: map[string]any{"type": "boolean", "description": desc}}
}

// StringList declares a required array-of-strings property.
func StringList(desc string) *Field {
	return &Field{spec: map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": desc,
	}}
}

// Object declares a free-form object property.
func Object(desc string) *Field {
	return &Field{spec: map[string]any{"type": "object", "description": desc}}
}

// Optional marks the field as not required.
func (f *Field) Optional() *Field {
	f.optional = true
	return f
}

// Nullable widens the type to accept JSON null.
func (f *Field) Nullable() *Field {
	if t, ok := f.spec["type"].(string); ok {
		f.spec["type"] = []string{t, "null"}
	}
	return f
}

// Enum restricts a string field to the given values.
func (f *Field) Enum(values ...string) *Field {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	f.spec["enum"] = vals
	return f
}

// Literal constrains the field to an exact value. Used for confirm literals:
// a mismatch is a schema-level rejection before the tool body runs.
func (f *Field) Literal(value string) *Field {
	f.spec["const"] = value
	return f
}

// Min sets the numeric lower bound.
func (f *Field) Min(n int) *Field {
	f.spec["minimum"] = n
	return f
}

// Max sets the numeric upper bound.
func (f *Field) Max(n int) *Field {
	f.spec["maximum"] = n
	return f
}

// Default records the documented default. Informational only; validation does
// not inject it.
func (f *Field) Default(v any) *Field {
	f.spec["default"] = v
	f.optional = true
	return f
}

// RefineFunc is a cross-field predicate run after schema validation.
// A non-nil error rejects the arguments with the error text.
type RefineFunc func(args Args) error

// Schema is a compiled parameter schema for one tool.
type Schema struct {
	fields   map[string]*Field
	refines  []RefineFunc
	doc      json.RawMessage
	compiled *jsonschema.Schema
}

// NewSchema builds a parameter schema from named fields.
func NewSchema(fields map[string]*Field) *Schema {
	if fields == nil {
		fields = map[string]*Field{}
	}
	return &Schema{fields: fields}
}

// Refine appends a cross-field predicate (e.g. "at least one updatable field
// present").
func (s *Schema) Refine(fn RefineFunc) *Schema {
	if fn != nil {
		s.refines = append(s.refines, fn)
	}
	return s
}

// AtLeastOneOf is a common refinement requiring any of the listed keys.
func AtLeastOneOf(keys ...string) RefineFunc {
	return func(args Args) error {
		for _, key := range keys {
			if args.Has(key) {
				return nil
			}
		}
		return fmt.Errorf("at least one of %s must be provided", strings.Join(keys, ", "))
	}
}

// Doc returns the JSON Schema document advertised to the language model.
func (s *Schema) Doc() json.RawMessage {
	if s.doc == nil {
		s.doc = s.buildDoc()
	}
	return s.doc
}

func (s *Schema) buildDoc() json.RawMessage {
	props := make(map[string]any, len(s.fields))
	var required []string
	for name, f := range s.fields {
		props[name] = f.spec
		if !f.optional {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return raw
}

// Compile validates the schema document itself. Called once at registration.
func (s *Schema) Compile(name string) error {
	if s.compiled != nil {
		return nil
	}
	compiler := jsonschema.NewCompiler()
	url := "tool://" + name + ".schema.json"
	if err := compiler.AddResource(url, bytes.NewReader(s.Doc())); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	s.compiled = compiled
	return nil
}

// Validate checks raw JSON arguments against the schema and refinements.
// On success it returns the decoded arguments; on failure, the per-field
// messages.
func (s *Schema) Validate(raw json.RawMessage) (Args, []string) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, []string{"arguments are not valid JSON: " + err.Error()}
	}

	if s.compiled != nil {
		if err := s.compiled.Validate(decoded); err != nil {
			return nil, flattenValidationError(err)
		}
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, []string{"arguments must be a JSON object"}
	}
	args := Args(obj)

	for _, refine := range s.refines {
		if err := refine(args); err != nil {
			return nil, []string{err.Error()}
		}
	}
	return args, nil
}

func flattenValidationError(err error) []string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	var msgs []string
	for _, basic := range ve.BasicOutput().Errors {
		// Skip aggregate nodes; keep leaf messages tied to a location.
		if strings.HasPrefix(basic.Error, "doesn't validate with") {
			continue
		}
		loc := strings.TrimPrefix(basic.InstanceLocation, "/")
		if loc == "" {
			msgs = append(msgs, basic.Error)
		} else {
			msgs = append(msgs, loc+": "+basic.Error)
		}
	}
	if len(msgs) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}
