package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bkeilman/dbprobe/internal/schema"
)

func newTestDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	statements := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, signup_date TEXT, name TEXT NOT NULL)`,
		`CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER, title TEXT, score REAL, created_at TEXT)`,
		`CREATE INDEX idx_posts_user ON posts (user_id)`,
		`INSERT INTO users VALUES (1, '2024-01-05', 'alice'), (2, '2024-02-10', 'bob'), (3, '2024-03-15', 'carol')`,
		`INSERT INTO posts VALUES
			(1, 1, 'hello', 0.5, '2024-01-06'),
			(2, 1, 'again', 0.9, '2024-01-07'),
			(3, 2, 'hi', 0.1, '2024-02-11'),
			(4, 3, 'hey', 0.7, '2024-03-16'),
			(5, 3, 'hello', 0.3, '2024-03-17')`,
	}
	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	return path
}

func openTestDB(t *testing.T) *Source {
	t.Helper()

	src, err := Open(context.Background(), newTestDB(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.db"), nil)
	require.Error(t, err)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, connErr.Path, "missing.db")
}

func TestListTables(t *testing.T) {
	src := openTestDB(t)

	names, err := src.ListTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"posts", "users"}, names)
}

func TestDescribeTable(t *testing.T) {
	src := openTestDB(t)

	tbl, err := src.DescribeTable(context.Background(), "users")
	require.NoError(t, err)

	assert.Equal(t, "users", tbl.Name)
	assert.Equal(t, int64(3), tbl.RowCount)
	assert.Equal(t, []string{"id"}, tbl.PrimaryKey)

	require.Len(t, tbl.Columns, 3)

	id := tbl.Columns[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, schema.ClassNumeric, id.Class)
	assert.True(t, id.IsPrimary)

	signup := tbl.Columns[1]
	assert.Equal(t, "signup_date", signup.Name)
	assert.Equal(t, "TEXT", signup.Type)
	assert.Equal(t, schema.ClassDate, signup.Class)
	assert.True(t, signup.IsNullable)

	name := tbl.Columns[2]
	assert.Equal(t, schema.ClassText, name.Class)
	assert.False(t, name.IsNullable)
}

func TestDescribeTableIndexes(t *testing.T) {
	src := openTestDB(t)

	tbl, err := src.DescribeTable(context.Background(), "posts")
	require.NoError(t, err)
	assert.Contains(t, tbl.Indexes, "idx_posts_user")
}

func TestDescribeTableRowCountMatchesCountQuery(t *testing.T) {
	src := openTestDB(t)
	ctx := context.Background()

	tbl, err := src.DescribeTable(ctx, "posts")
	require.NoError(t, err)

	res, err := src.Query(ctx, "SELECT COUNT(*) AS n FROM posts")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, tbl.RowCount, res.Rows[0]["n"])
}

func TestDescribeTableUnknown(t *testing.T) {
	src := openTestDB(t)

	_, err := src.DescribeTable(context.Background(), "user")
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "user", schemaErr.Table)
	assert.Contains(t, schemaErr.Hint, "users")
}

func TestAnalyzeDeterministic(t *testing.T) {
	src := openTestDB(t)
	ctx := context.Background()

	first, err := src.Analyze(ctx)
	require.NoError(t, err)
	second, err := src.Analyze(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "posts", first[0].Name)
	assert.Equal(t, "users", first[1].Name)
}

func TestQuery(t *testing.T) {
	src := openTestDB(t)

	res, err := src.Query(context.Background(), "SELECT id, name FROM users ORDER BY id")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, res.Columns)
	require.Len(t, res.Rows, 3)
	assert.EqualValues(t, 1, res.Rows[0]["id"])
	assert.Equal(t, "alice", res.Rows[0]["name"])
}

func TestQueryUnknownTable(t *testing.T) {
	src := openTestDB(t)

	_, err := src.Query(context.Background(), "SELECT * FROM missing")
	require.Error(t, err)

	var queryErr *QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.Contains(t, queryErr.Hint, "users")
	assert.Contains(t, queryErr.Hint, "posts")
}

func TestQueryMalformed(t *testing.T) {
	src := openTestDB(t)

	_, err := src.Query(context.Background(), "SELEC nope")
	require.Error(t, err)
	assert.True(t, errors.As(err, new(*QueryError)))
}

func TestQueryRejectsWrites(t *testing.T) {
	src := openTestDB(t)

	_, err := src.Query(context.Background(), "INSERT INTO users VALUES (4, '2024-04-01', 'dave')")
	require.Error(t, err)

	// The write must not have happened.
	res, err := src.Query(context.Background(), "SELECT COUNT(*) AS n FROM users")
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Rows[0]["n"])
}

func TestQueryMulti(t *testing.T) {
	src := openTestDB(t)

	results, err := src.QueryMulti(context.Background(),
		"SELECT COUNT(*) AS n FROM users; SELECT MAX(created_at) AS latest FROM posts")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.EqualValues(t, 3, results[0].Rows[0]["n"])
	assert.Equal(t, "2024-03-17", results[1].Rows[0]["latest"])
}

func TestSplitStatements(t *testing.T) {
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, SplitStatements(" SELECT 1 ;; SELECT 2 ; "))
	assert.Nil(t, SplitStatements(" ; ; "))
}

func TestNearestName(t *testing.T) {
	assert.Equal(t, "users", nearestName("user", []string{"posts", "users"}))
	assert.Equal(t, "", nearestName("zzzzzz", []string{"posts", "users"}))
}
