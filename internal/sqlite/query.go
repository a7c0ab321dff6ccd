package sqlite

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Result holds the rows returned by one statement. Columns preserves the
// result order; Rows maps column names to driver values.
type Result struct {
	SQL     string
	Columns []string
	Rows    []map[string]any
}

// Query runs a single ad-hoc statement and returns its rows. A failing
// statement returns no rows at all. Engine errors come back as a QueryError
// with a hint where one can be derived.
func (s *Source) Query(ctx context.Context, sqlText string) (*Result, error) {
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, s.queryError(ctx, sqlText, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, s.queryError(ctx, sqlText, err)
	}

	res := &Result{SQL: sqlText, Columns: columns, Rows: []map[string]any{}}

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, s.queryError(ctx, sqlText, err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError(ctx, sqlText, err)
	}

	s.logger.Debug("query complete",
		zap.String("sql", sqlText),
		zap.Int("rows", len(res.Rows)))

	return res, nil
}

// QueryMulti runs a semicolon-separated script statement by statement,
// stopping at the first failure.
func (s *Source) QueryMulti(ctx context.Context, script string) ([]*Result, error) {
	statements := SplitStatements(script)
	if len(statements) == 0 {
		return nil, &QueryError{SQL: script, Err: fmt.Errorf("no statements to run")}
	}

	results := make([]*Result, 0, len(statements))
	for _, stmt := range statements {
		res, err := s.Query(ctx, stmt)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// SplitStatements splits a script on semicolons, dropping empty fragments.
func SplitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func (s *Source) queryError(ctx context.Context, sqlText string, err error) error {
	qe := &QueryError{SQL: sqlText, Err: err}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such table"):
		if tables, lerr := s.ListTables(ctx); lerr == nil && len(tables) > 0 {
			qe.Hint = "available tables: " + strings.Join(tables, ", ")
		}
	case strings.Contains(msg, "no such column"):
		qe.Hint = "tip: use --schema <table> to see available columns"
	}

	return qe
}
