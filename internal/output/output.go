package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"bkeilman/dbprobe/internal/schema"
	"bkeilman/dbprobe/internal/sqlite"
	"bkeilman/dbprobe/internal/suggest"
)

const (
	maxColumnWidth  = 30
	widthSampleRows = 20
	separator       = "============================================================"
)

// FormatResult renders one result set as an aligned text table. Column
// widths are derived from the header and the first few rows, capped so a
// single long value cannot blow up the layout.
func FormatResult(res *sqlite.Result) string {
	if len(res.Rows) == 0 {
		return "No results returned"
	}

	widths := make([]int, len(res.Columns))
	for i, col := range res.Columns {
		widths[i] = len(col)
	}
	for n, row := range res.Rows {
		if n == widthSampleRows {
			break
		}
		for i, col := range res.Columns {
			if w := len(formatValue(row[col])); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] > maxColumnWidth {
			widths[i] = maxColumnWidth
		}
	}

	var b strings.Builder
	cells := make([]string, len(res.Columns))
	for i, col := range res.Columns {
		cells[i] = pad(col, widths[i])
	}
	header := strings.Join(cells, " | ")
	b.WriteString(header)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("-", len(header)))

	for _, row := range res.Rows {
		for i, col := range res.Columns {
			cells[i] = pad(formatValue(row[col]), widths[i])
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(cells, " | "))
	}

	fmt.Fprintf(&b, "\n\nRows returned: %d", len(res.Rows))
	return b.String()
}

// FormatResults renders multiple result sets, each under a header naming the
// statement that produced it.
func FormatResults(results []*sqlite.Result) string {
	parts := make([]string, len(results))
	for i, res := range results {
		header := fmt.Sprintf("Query %d: %s\n%s\n", i+1, res.SQL, strings.Repeat("-", 40))
		parts[i] = header + FormatResult(res)
	}
	return strings.Join(parts, "\n\n"+separator+"\n\n")
}

// ResultJSON renders a result set as a JSON array of row objects.
func ResultJSON(res *sqlite.Result) (string, error) {
	return marshalIndent(res.Rows)
}

// ResultsJSON renders multiple result sets as an array of row-object arrays.
func ResultsJSON(results []*sqlite.Result) (string, error) {
	all := make([][]map[string]any, len(results))
	for i, res := range results {
		all[i] = res.Rows
	}
	return marshalIndent(all)
}

// WriteCSV writes a result set to path with a header row matching the result
// column names. It returns the number of data rows written.
func WriteCSV(res *sqlite.Result, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(res.Columns); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(res.Columns))
	for _, row := range res.Rows {
		for i, col := range res.Columns {
			record[i] = formatValue(row[col])
		}
		if err := w.Write(record); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(res.Rows), nil
}

// RenderTables prints the table list.
func RenderTables(w io.Writer, names []string) {
	fmt.Fprintln(w, "Tables in database:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

// RenderSchema prints one table description.
func RenderSchema(w io.Writer, tbl schema.Table) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintf(w, "Table: %s\n", tbl.Name)
	fmt.Fprintf(w, "Rows: %s\n", humanize.Comma(tbl.RowCount))
	fmt.Fprintln(w, "\nColumns:")
	for _, col := range tbl.Columns {
		var attrs string
		if !col.IsNullable {
			attrs += " NOT NULL"
		}
		if col.IsPrimary {
			attrs += " (PRIMARY KEY)"
		}
		fmt.Fprintf(w, "  %s - %s%s [%s]\n", col.Name, col.Type, attrs, col.Class)
	}
	if len(tbl.Indexes) > 0 {
		fmt.Fprintf(w, "\nIndexes: %s\n", strings.Join(tbl.Indexes, ", "))
	}
}

// RenderAnalysis prints the whole-database analysis.
func RenderAnalysis(w io.Writer, path string, tables []schema.Table, insights []string) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintln(w, "Database Analysis")
	fmt.Fprintln(w, separator[:50])
	fmt.Fprintf(w, "Database: %s\n", path)

	for _, insight := range insights {
		fmt.Fprintf(w, "- %s\n", insight)
	}

	fmt.Fprintln(w, "\nTable Details:")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	for _, tbl := range tables {
		fmt.Fprintf(w, "\n%s (%s rows)\n", tbl.Name, humanize.Comma(tbl.RowCount))
		printColumnGroup(w, "Date columns", tbl.DateColumns())
		printColumnGroup(w, "Numeric columns", tbl.NumericColumns())
		printColumnGroup(w, "Text columns", tbl.TextColumns())
	}
}

func printColumnGroup(w io.Writer, label string, cols []schema.Column) {
	if len(cols) == 0 {
		return
	}
	if len(cols) > 5 {
		cols = cols[:5]
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	fmt.Fprintf(w, "  %s: %s\n", label, strings.Join(names, ", "))
}

// RenderSuggestions prints the generated queries with their rationale.
func RenderSuggestions(w io.Writer, suggestions []suggest.Suggestion) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintln(w, "Suggested Queries")
	fmt.Fprintln(w, separator[:50])

	if len(suggestions) == 0 {
		fmt.Fprintln(w, "No queries suggested. Database may be empty.")
		return
	}

	for i, s := range suggestions {
		fmt.Fprintf(w, "\n%d. %s - %s\n", i+1, s.Name, s.Rationale)
		fmt.Fprintf(w, "   SQL: %s\n", s.SQL)
	}

	fmt.Fprintln(w, "\nTo execute a query, use:")
	fmt.Fprintln(w, `  dbprobe --sql "QUERY_HERE"`)
}

func marshalIndent(v any) (string, error) {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(buf), nil
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func pad(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}
