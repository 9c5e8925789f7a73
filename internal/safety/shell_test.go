package safety

import "testing"

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"", "''"},
		{"two words", "'two words'"},
		{"it's", `'it'\''s'`},
		{"$(rm -rf /)", "'$(rm -rf /)'"},
		{"`whoami`", "'`whoami`'"},
		{`a"b`, `'a"b'`},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestQuoteAll(t *testing.T) {
	got := QuoteAll("psql", "-c", "SELECT 'x'")
	want := `'psql' '-c' 'SELECT '\''x'\'''`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
