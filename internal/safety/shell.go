package safety

import "strings"

// Quote single-quotes a user-derived string for interpolation into a shell
// command. Embedded single quotes become '\'' so the value can never close
// the quoting context.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteAll quotes every argument and joins them with spaces.
func QuoteAll(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, " ")
}
