package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"bkeilman/dbprobe/internal/schema"
)

// Source is a read-only connection to a single SQLite database file.
type Source struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens the database file read-only. If logger is nil, a no-op logger
// is used.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := os.Stat(path); err != nil {
		return nil, &ConnectionError{Path: path, Err: err}
	}

	dsn := "file:" + path + "?mode=ro&_pragma=query_only(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &ConnectionError{Path: path, Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{Path: path, Err: err}
	}

	logger.Debug("opened database", zap.String("path", path))

	return &Source{db: db, path: path, logger: logger}, nil
}

// Path returns the database file path the source was opened with.
func (s *Source) Path() string { return s.path }

func (s *Source) Close() error {
	return s.db.Close()
}

// ListTables returns the user table names in the schema catalog, sorted
// alphabetically with no duplicates. Internal sqlite_* tables are excluded.
func (s *Source) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY name`)
	if err != nil {
		return nil, &SchemaError{Err: fmt.Errorf("could not list tables: %w", err)}
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &SchemaError{Err: fmt.Errorf("could not list tables: %w", err)}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &SchemaError{Err: fmt.Errorf("could not list tables: %w", err)}
	}

	return names, nil
}

// DescribeTable returns the table's columns, classification, primary key,
// index names and current row count. An unknown table yields a SchemaError
// carrying the nearest matching table name as a hint.
func (s *Source) DescribeTable(ctx context.Context, name string) (schema.Table, error) {
	tbl := schema.Table{Name: name}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", pk FROM pragma_table_info(?) ORDER BY cid`, name)
	if err != nil {
		return tbl, &SchemaError{Table: name, Err: fmt.Errorf("could not describe table %s: %w", name, err)}
	}
	defer rows.Close()

	pk := map[int]string{}
	for rows.Next() {
		var cid, notNull, pkRank int
		var colName, colType string
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &pkRank); err != nil {
			return tbl, &SchemaError{Table: name, Err: fmt.Errorf("could not describe table %s: %w", name, err)}
		}
		tbl.Columns = append(tbl.Columns, schema.Column{
			ColumnID:   cid,
			Name:       colName,
			Type:       colType,
			Class:      schema.Classify(colName, colType),
			IsNullable: notNull == 0,
			IsPrimary:  pkRank > 0,
		})
		if pkRank > 0 {
			pk[pkRank] = colName
		}
	}
	if err := rows.Err(); err != nil {
		return tbl, &SchemaError{Table: name, Err: fmt.Errorf("could not describe table %s: %w", name, err)}
	}

	// pragma_table_info returns no rows for a missing table rather than
	// an error.
	if len(tbl.Columns) == 0 {
		return tbl, s.unknownTableError(ctx, name)
	}

	ranks := make([]int, 0, len(pk))
	for r := range pk {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	for _, r := range ranks {
		tbl.PrimaryKey = append(tbl.PrimaryKey, pk[r])
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+quoteIdent(name)).Scan(&tbl.RowCount); err != nil {
		return tbl, &SchemaError{Table: name, Err: fmt.Errorf("could not count rows in %s: %w", name, err)}
	}

	indexes, err := s.indexNames(ctx, name)
	if err != nil {
		return tbl, err
	}
	tbl.Indexes = indexes

	s.logger.Debug("described table",
		zap.String("table", name),
		zap.Int64("rows", tbl.RowCount),
		zap.Int("columns", len(tbl.Columns)))

	return tbl, nil
}

// Analyze describes every table in the database, ordered by name.
func (s *Source) Analyze(ctx context.Context) ([]schema.Table, error) {
	names, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]schema.Table, 0, len(names))
	for _, name := range names {
		tbl, err := s.DescribeTable(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, tbl)
	}

	return tables, nil
}

func (s *Source) indexNames(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM pragma_index_list(?) ORDER BY seq`, table)
	if err != nil {
		return nil, &SchemaError{Table: table, Err: fmt.Errorf("could not list indexes for %s: %w", table, err)}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &SchemaError{Table: table, Err: fmt.Errorf("could not list indexes for %s: %w", table, err)}
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Source) unknownTableError(ctx context.Context, name string) error {
	e := &SchemaError{Table: name}
	if tables, err := s.ListTables(ctx); err == nil {
		if nearest := nearestName(name, tables); nearest != "" {
			e.Hint = "did you mean " + nearest + "?"
		} else if len(tables) > 0 {
			e.Hint = "available tables: " + strings.Join(tables, ", ")
		}
	}
	return e
}

// quoteIdent wraps an identifier in double quotes so that reserved words
// and odd characters survive interpolation into metadata queries.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
