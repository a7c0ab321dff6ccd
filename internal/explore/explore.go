package explore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"bkeilman/dbprobe/internal/output"
	"bkeilman/dbprobe/internal/schema"
	"bkeilman/dbprobe/internal/sqlite"
	"bkeilman/dbprobe/internal/suggest"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Explorer runs one exploration action against a SQLite database file.
type Explorer struct {
	dbPath      string
	format      string
	listTables  bool
	schemaTable string
	analyze     bool
	suggest     bool
	sqlText     string
	multiText   string
	csvQuery    string
	csvFile     string
	sampleLimit int
	stdout      io.Writer
	logger      *zap.Logger
}

type Option func(*Explorer)

func New(opts ...Option) (*Explorer, error) {
	e := Explorer{
		format:      FormatTable,
		csvFile:     "query_results.csv",
		sampleLimit: suggest.DefaultSampleLimit,
		stdout:      os.Stdout,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&e)
	}

	if e.dbPath == "" {
		return nil, fmt.Errorf("missing database path")
	}

	switch e.format {
	case FormatTable, FormatJSON:
		break
	default:
		return nil, fmt.Errorf("invalid output format: %s", e.format)
	}

	if e.sampleLimit <= 0 {
		return nil, fmt.Errorf("sample limit must be positive: %d", e.sampleLimit)
	}

	return &e, nil
}

func WithDatabase(path string) Option {
	return func(e *Explorer) {
		e.dbPath = path
	}
}
func WithFormat(f string) Option {
	return func(e *Explorer) {
		e.format = f
	}
}
func WithListTables(v bool) Option {
	return func(e *Explorer) {
		e.listTables = v
	}
}
func WithSchemaTable(name string) Option {
	return func(e *Explorer) {
		e.schemaTable = name
	}
}
func WithAnalyze(v bool) Option {
	return func(e *Explorer) {
		e.analyze = v
	}
}
func WithSuggest(v bool) Option {
	return func(e *Explorer) {
		e.suggest = v
	}
}
func WithSQL(q string) Option {
	return func(e *Explorer) {
		e.sqlText = q
	}
}
func WithMulti(q string) Option {
	return func(e *Explorer) {
		e.multiText = q
	}
}
func WithCSVQuery(q string) Option {
	return func(e *Explorer) {
		e.csvQuery = q
	}
}
func WithCSVFile(path string) Option {
	return func(e *Explorer) {
		e.csvFile = path
	}
}
func WithSampleLimit(n int) Option {
	return func(e *Explorer) {
		e.sampleLimit = n
	}
}
func WithStdout(w io.Writer) Option {
	return func(e *Explorer) {
		e.stdout = w
	}
}
func WithLogger(l *zap.Logger) Option {
	return func(e *Explorer) {
		e.logger = l
	}
}

// HasAction reports whether any action was requested.
func (e *Explorer) HasAction() bool {
	return e.sqlText != "" || e.schemaTable != "" || e.listTables ||
		e.multiText != "" || e.analyze || e.suggest || e.csvQuery != ""
}

// Run opens the database read-only, performs the requested action and
// writes the result to stdout. The connection is closed on every exit path.
func (e *Explorer) Run(ctx context.Context) error {
	src, err := sqlite.Open(ctx, e.dbPath, e.logger)
	if err != nil {
		return err
	}
	defer src.Close()

	switch {
	case e.sqlText != "":
		return e.runSQL(ctx, src)
	case e.schemaTable != "":
		return e.runSchema(ctx, src)
	case e.listTables:
		return e.runTables(ctx, src)
	case e.multiText != "":
		return e.runMulti(ctx, src)
	case e.analyze:
		return e.runAnalyze(ctx, src)
	case e.suggest:
		return e.runSuggest(ctx, src)
	case e.csvQuery != "":
		return e.runCSV(ctx, src)
	}

	return fmt.Errorf("no action requested")
}

func (e *Explorer) runSQL(ctx context.Context, src *sqlite.Source) error {
	res, err := src.Query(ctx, e.sqlText)
	if err != nil {
		return err
	}
	if e.format == FormatJSON {
		s, err := output.ResultJSON(res)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, s)
		return nil
	}
	fmt.Fprintln(e.stdout, output.FormatResult(res))
	return nil
}

func (e *Explorer) runSchema(ctx context.Context, src *sqlite.Source) error {
	tbl, err := src.DescribeTable(ctx, e.schemaTable)
	if err != nil {
		return err
	}
	if e.format == FormatJSON {
		return e.printJSON(tbl)
	}
	output.RenderSchema(e.stdout, tbl)
	return nil
}

func (e *Explorer) runTables(ctx context.Context, src *sqlite.Source) error {
	names, err := src.ListTables(ctx)
	if err != nil {
		return err
	}
	if e.format == FormatJSON {
		return e.printJSON(map[string][]string{"tables": names})
	}
	output.RenderTables(e.stdout, names)
	return nil
}

func (e *Explorer) runMulti(ctx context.Context, src *sqlite.Source) error {
	results, err := src.QueryMulti(ctx, e.multiText)
	if err != nil {
		return err
	}
	if e.format == FormatJSON {
		s, err := output.ResultsJSON(results)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, s)
		return nil
	}
	fmt.Fprintln(e.stdout, output.FormatResults(results))
	return nil
}

// Report is the machine-readable payload for the analyze action.
type Report struct {
	DatabasePath     string               `json:"database_path"`
	Tables           []schema.Table       `json:"tables"`
	Insights         []string             `json:"insights"`
	SuggestedQueries []suggest.Suggestion `json:"suggested_queries"`
}

func (e *Explorer) runAnalyze(ctx context.Context, src *sqlite.Source) error {
	tables, err := src.Analyze(ctx)
	if err != nil {
		return err
	}
	insights := suggest.Insights(tables)

	if e.format == FormatJSON {
		return e.printJSON(Report{
			DatabasePath:     e.dbPath,
			Tables:           tables,
			Insights:         insights,
			SuggestedQueries: suggest.Generate(tables, e.sampleLimit),
		})
	}

	output.RenderAnalysis(e.stdout, e.dbPath, tables, insights)
	return nil
}

func (e *Explorer) runSuggest(ctx context.Context, src *sqlite.Source) error {
	tables, err := src.Analyze(ctx)
	if err != nil {
		return err
	}
	suggestions := suggest.Generate(tables, e.sampleLimit)

	if e.format == FormatJSON {
		return e.printJSON(suggestions)
	}
	output.RenderSuggestions(e.stdout, suggestions)
	return nil
}

func (e *Explorer) runCSV(ctx context.Context, src *sqlite.Source) error {
	res, err := src.Query(ctx, e.csvQuery)
	if err != nil {
		return err
	}
	if len(res.Rows) == 0 {
		return fmt.Errorf("no results to export")
	}

	rows, err := output.WriteCSV(res, e.csvFile)
	if err != nil {
		return err
	}

	e.logger.Debug("csv export complete",
		zap.String("file", e.csvFile),
		zap.Int("rows", rows))

	fmt.Fprintf(e.stdout, "Data exported to %s\n", e.csvFile)
	fmt.Fprintf(e.stdout, "Rows exported: %d\n", rows)
	return nil
}

func (e *Explorer) printJSON(v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(e.stdout, string(buf))
	return nil
}
