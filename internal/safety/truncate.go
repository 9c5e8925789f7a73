package safety

import "fmt"

// Output caps for tool results that echo command stdout/stderr.
const (
	DefaultMaxOutputChars = 20000
	HardMaxOutputChars    = 200000
)

// ClampOutputLimit folds a tool-declared or caller-supplied limit into the
// permitted range.
func ClampOutputLimit(n int) int {
	if n <= 0 {
		return DefaultMaxOutputChars
	}
	if n > HardMaxOutputChars {
		return HardMaxOutputChars
	}
	return n
}

// Truncate caps s at max characters. The second return reports whether
// truncation happened; callers use it to flag the result message.
func Truncate(s string, max int) (string, bool) {
	max = ClampOutputLimit(max)
	if len(s) <= max {
		return s, false
	}
	return s[:max] + fmt.Sprintf("…(truncated to %d chars)", max), true
}
