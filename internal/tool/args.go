package tool

import "encoding/json"

// Args holds validated tool arguments decoded from JSON.
type Args map[string]any

// Has reports whether the key was provided (including explicit null).
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns the string value for key, or "" when absent or not a string.
func (a Args) String(key string) string {
	v, _ := a[key].(string)
	return v
}

// StringOr returns the string value for key or def when absent or empty.
func (a Args) StringOr(key, def string) string {
	if v := a.String(key); v != "" {
		return v
	}
	return def
}

// Int returns the integer value for key or def when absent.
// JSON numbers decode as float64; the fraction is discarded.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}

// Bool returns the boolean value for key, or false when absent.
func (a Args) Bool(key string) bool {
	v, _ := a[key].(bool)
	return v
}

// Strings returns the string-array value for key.
func (a Args) Strings(key string) []string {
	raw, ok := a[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Raw re-encodes the arguments as JSON, for previews and persistence.
func (a Args) Raw() json.RawMessage {
	if a == nil {
		return json.RawMessage("{}")
	}
	raw, err := json.Marshal(map[string]any(a))
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}
