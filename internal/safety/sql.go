// Package safety holds the reusable policy gates composed into tool bodies:
// SQL classification and script wrapping, bind-mount path admission, shell
// quoting and output truncation.
package safety

import (
	"fmt"
	"strings"
)

var readOnlyLeaders = map[string]struct{}{
	"SELECT": {}, "WITH": {}, "EXPLAIN": {}, "SHOW": {},
}

var dmlLeaders = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {},
}

func firstToken(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimLeft(fields[0], "("))
}

// IsReadOnly reports whether the statement begins with a read-only leader.
// A WITH-statement whose body carries DML keywords is classified as DML,
// not read-only, so the two classifiers partition accepted statements.
func IsReadOnly(sql string) bool {
	tok := firstToken(sql)
	if _, ok := readOnlyLeaders[tok]; !ok {
		return false
	}
	if tok == "WITH" && withCarriesDML(sql) {
		return false
	}
	return true
}

// IsDml reports whether the statement is INSERT/UPDATE/DELETE, or a
// WITH-statement whose text carries one of those keywords.
func IsDml(sql string) bool {
	tok := firstToken(sql)
	if _, ok := dmlLeaders[tok]; ok {
		return true
	}
	return tok == "WITH" && withCarriesDML(sql)
}

func withCarriesDML(sql string) bool {
	upper := strings.ToUpper(sql)
	for kw := range dmlLeaders {
		if containsWord(upper, kw) {
			return true
		}
	}
	return false
}

func containsWord(haystack, word string) bool {
	for start := 0; ; {
		i := strings.Index(haystack[start:], word)
		if i < 0 {
			return false
		}
		i += start
		before := i == 0 || !isWordChar(haystack[i-1])
		afterIdx := i + len(word)
		after := afterIdx >= len(haystack) || !isWordChar(haystack[afterIdx])
		if before && after {
			return true
		}
		start = i + len(word)
	}
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// ContainsMetaCommand reports whether any line starts with a psql backslash
// meta-command. Meta-commands never reach the server and are disallowed.
func ContainsMetaCommand(sql string) bool {
	for _, line := range strings.Split(sql, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), `\`) {
			return true
		}
	}
	return false
}

// ErrMetaCommand is the user-facing rejection text for backslash commands.
const ErrMetaCommand = `psql meta-commands (\…) are not allowed`

// singleStatement reports whether sql holds exactly one statement. Trailing
// semicolons do not count as a second statement.
func singleStatement(sql string) bool {
	trimmed := strings.TrimRight(strings.TrimSpace(sql), "; \t\n")
	return !strings.Contains(trimmed, ";")
}

func hasLimit(sql string) bool {
	return containsWord(strings.ToUpper(sql), "LIMIT")
}

func stripTrailingSemicolon(sql string) string {
	return strings.TrimRight(strings.TrimSpace(sql), "; \t\n")
}

// BuildReadOnlyScript wraps a read-only query in a read-only transaction with
// a per-statement timeout and a terminal ROLLBACK. Single statements without
// an explicit LIMIT get one appended at maxRows.
func BuildReadOnlyScript(sql string, maxRows, statementTimeoutMs int) string {
	body := stripTrailingSemicolon(sql)
	if singleStatement(sql) && !hasLimit(sql) {
		body = fmt.Sprintf("%s LIMIT %d", body, maxRows)
	}
	return fmt.Sprintf("BEGIN READ ONLY; SET LOCAL statement_timeout='%dms'; %s; ROLLBACK;", statementTimeoutMs, body)
}

// BuildDMLScript wraps DML in a transaction with a per-statement timeout.
// When commit is false the transaction rolls back, giving a dry run.
func BuildDMLScript(sql string, statementTimeoutMs int, commit bool) string {
	terminal := "COMMIT"
	if !commit {
		terminal = "ROLLBACK"
	}
	return fmt.Sprintf("BEGIN; SET LOCAL statement_timeout='%dms'; %s; %s;", statementTimeoutMs, stripTrailingSemicolon(sql), terminal)
}

// BuildAdminScript wraps arbitrary admin SQL (DDL included) in a committed
// transaction with a per-statement timeout. No classification is applied.
func BuildAdminScript(sql string, statementTimeoutMs int) string {
	return fmt.Sprintf("BEGIN; SET LOCAL statement_timeout='%dms'; %s; COMMIT;", statementTimeoutMs, stripTrailingSemicolon(sql))
}
