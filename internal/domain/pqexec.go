package domain

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// PQExecutor runs SQL scripts over a direct connection for databases that
// expose an external URL. Scripts arrive pre-wrapped (transaction, timeout,
// terminal COMMIT/ROLLBACK), so the whole text goes through the simple query
// protocol in one round trip.
type PQExecutor struct{}

// NewPQExecutor creates the executor.
func NewPQExecutor() *PQExecutor {
	return &PQExecutor{}
}

func (e *PQExecutor) RunSQL(ctx context.Context, db *Database, script string) (*ExecResult, error) {
	if db.ExternalURL == "" {
		return nil, fmt.Errorf("database %s has no external connection url", db.DatabaseID)
	}
	conn, err := sql.Open("postgres", db.ExternalURL)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, script)
	if err != nil {
		return &ExecResult{Stderr: err.Error(), ExitCode: 1}, nil
	}
	defer rows.Close()

	var out strings.Builder
	for {
		if err := formatResultSet(rows, &out); err != nil {
			return &ExecResult{Stdout: out.String(), Stderr: err.Error(), ExitCode: 1}, nil
		}
		if !rows.NextResultSet() {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return &ExecResult{Stdout: out.String(), Stderr: err.Error(), ExitCode: 1}, nil
	}
	return &ExecResult{Stdout: out.String()}, nil
}

func formatResultSet(rows *sql.Rows, out *strings.Builder) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}
	out.WriteString(strings.Join(cols, "\t"))
	out.WriteByte('\n')

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		fields := make([]string, len(cols))
		for i, v := range values {
			fields[i] = renderValue(v)
		}
		out.WriteString(strings.Join(fields, "\t"))
		out.WriteByte('\n')
	}
	return nil
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
