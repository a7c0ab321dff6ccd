package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bkeilman/dbprobe/internal/schema"
	"bkeilman/dbprobe/internal/sqlite"
	"bkeilman/dbprobe/internal/suggest"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestFormatResult(t *testing.T) {
	res := &sqlite.Result{
		Columns: []string{"id", "name"},
		Rows: []map[string]any{
			{"id": int64(1), "name": "alice"},
			{"id": int64(2), "name": "bob"},
		},
	}

	got := FormatResult(res)
	lines := strings.Split(got, "\n")

	assert.Equal(t, "id | name ", lines[0])
	assert.Equal(t, strings.Repeat("-", len(lines[0])), lines[1])
	assert.Equal(t, "1  | alice", lines[2])
	assert.Contains(t, got, "Rows returned: 2")
}

func TestFormatResultEmpty(t *testing.T) {
	res := &sqlite.Result{Columns: []string{"id"}, Rows: []map[string]any{}}
	assert.Equal(t, "No results returned", FormatResult(res))
}

func TestFormatResultTruncatesWideValues(t *testing.T) {
	res := &sqlite.Result{
		Columns: []string{"v"},
		Rows:    []map[string]any{{"v": strings.Repeat("x", 100)}},
	}

	got := FormatResult(res)
	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, len(line), 30)
	}
}

func TestFormatResultNullValue(t *testing.T) {
	res := &sqlite.Result{
		Columns: []string{"v"},
		Rows:    []map[string]any{{"v": nil}},
	}
	assert.Contains(t, FormatResult(res), "Rows returned: 1")
}

func TestFormatResults(t *testing.T) {
	a := &sqlite.Result{SQL: "SELECT 1 AS x", Columns: []string{"x"}, Rows: []map[string]any{{"x": int64(1)}}}
	b := &sqlite.Result{SQL: "SELECT 2 AS y", Columns: []string{"y"}, Rows: []map[string]any{{"y": int64(2)}}}

	got := FormatResults([]*sqlite.Result{a, b})
	assert.Contains(t, got, "Query 1: SELECT 1 AS x")
	assert.Contains(t, got, "Query 2: SELECT 2 AS y")
	assert.Contains(t, got, separator)
}

func TestResultJSON(t *testing.T) {
	res := &sqlite.Result{
		Columns: []string{"id", "name"},
		Rows:    []map[string]any{{"id": int64(1), "name": "alice"}},
	}

	s, err := ResultJSON(res)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0]["name"])
}

func TestWriteCSV(t *testing.T) {
	// Equivalent of exporting SELECT 1 AS x.
	res := &sqlite.Result{
		Columns: []string{"x"},
		Rows:    []map[string]any{{"x": int64(1)}},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	n, err := WriteCSV(res, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x\n1\n", string(data))
}

func TestRenderSchema(t *testing.T) {
	tbl := schema.Table{
		Name:     "users",
		RowCount: 3,
		Columns: []schema.Column{
			{Name: "id", Type: "INTEGER", Class: schema.ClassNumeric, IsPrimary: true},
			{Name: "name", Type: "TEXT", Class: schema.ClassText, IsNullable: true},
		},
		Indexes: []string{"idx_users_name"},
	}

	var buf bytes.Buffer
	RenderSchema(&buf, tbl)
	got := buf.String()

	assert.Contains(t, got, "Table: users")
	assert.Contains(t, got, "Rows: 3")
	assert.Contains(t, got, "id - INTEGER NOT NULL (PRIMARY KEY) [numeric]")
	assert.Contains(t, got, "name - TEXT [text]")
	assert.Contains(t, got, "Indexes: idx_users_name")
}

func TestRenderAnalysis(t *testing.T) {
	tables := []schema.Table{{
		Name:     "users",
		RowCount: 3,
		Columns: []schema.Column{
			{Name: "signup_date", Type: "TEXT", Class: schema.ClassDate},
			{Name: "name", Type: "TEXT", Class: schema.ClassText},
		},
	}}

	var buf bytes.Buffer
	RenderAnalysis(&buf, "test.db", tables, []string{"Database contains 1 tables with 3 total rows"})
	got := buf.String()

	assert.Contains(t, got, "Database: test.db")
	assert.Contains(t, got, "- Database contains 1 tables")
	assert.Contains(t, got, "users (3 rows)")
	assert.Contains(t, got, "Date columns: signup_date")
	assert.Contains(t, got, "Text columns: name")
}

func TestRenderSuggestions(t *testing.T) {
	suggestions := []suggest.Suggestion{{
		Name:      "count_users",
		Rationale: "Total rows in users",
		SQL:       `SELECT COUNT(*) AS total_rows FROM "users"`,
		Table:     "users",
	}}

	var buf bytes.Buffer
	RenderSuggestions(&buf, suggestions)
	got := buf.String()

	assert.Contains(t, got, "1. count_users - Total rows in users")
	assert.Contains(t, got, `SQL: SELECT COUNT(*) AS total_rows FROM "users"`)
}

func TestRenderSuggestionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderSuggestions(&buf, nil)
	assert.Contains(t, buf.String(), "No queries suggested")
}
