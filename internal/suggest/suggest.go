package suggest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"bkeilman/dbprobe/internal/schema"
)

const (
	// DefaultSampleLimit bounds sample queries so a suggestion never dumps
	// a whole table.
	DefaultSampleLimit = 5

	recentLimit       = 10
	topValuesLimit    = 10
	maxNumericColumns = 3
	maxTextColumns    = 2
	maxRelationships  = 3
)

// Suggestion is one generated example statement. Suggestions are computed
// fresh on every run and never persisted.
type Suggestion struct {
	Name      string `json:"name"`
	Rationale string `json:"description"`
	SQL       string `json:"sql"`
	Table     string `json:"table"`
}

// Column names that identify a text column worth a top-values query.
var labelNameTokens = []string{"title", "name", "description", "summary"}

// Generate produces example queries for the given tables. Tables are visited
// in descending row count order (ties broken by name) so the most useful
// suggestions come first; within a table the order is count, sample, recent,
// date ranges, numeric aggregates, top text values. The output is stable for
// a given input.
func Generate(tables []schema.Table, sampleLimit int) []Suggestion {
	if sampleLimit <= 0 {
		sampleLimit = DefaultSampleLimit
	}

	ordered := make([]schema.Table, len(tables))
	copy(ordered, tables)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].RowCount != ordered[j].RowCount {
			return ordered[i].RowCount > ordered[j].RowCount
		}
		return ordered[i].Name < ordered[j].Name
	})

	suggestions := []Suggestion{}
	for _, tbl := range ordered {
		suggestions = append(suggestions, forTable(tbl, sampleLimit)...)
	}
	return suggestions
}

func forTable(tbl schema.Table, sampleLimit int) []Suggestion {
	q := quoteIdent(tbl.Name)
	out := []Suggestion{{
		Name:      "count_" + tbl.Name,
		Rationale: fmt.Sprintf("Total rows in %s", tbl.Name),
		SQL:       fmt.Sprintf("SELECT COUNT(*) AS total_rows FROM %s", q),
		Table:     tbl.Name,
	}}

	if tbl.RowCount > 0 {
		out = append(out, Suggestion{
			Name:      "sample_" + tbl.Name,
			Rationale: fmt.Sprintf("Sample data from %s", tbl.Name),
			SQL:       fmt.Sprintf("SELECT * FROM %s LIMIT %d", q, sampleLimit),
			Table:     tbl.Name,
		})
	}

	dates := tbl.DateColumns()
	if len(dates) > 0 {
		col := dates[0]
		out = append(out, Suggestion{
			Name:      "recent_" + tbl.Name,
			Rationale: fmt.Sprintf("Most recent rows in %s by %s", tbl.Name, col.Name),
			SQL:       fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC LIMIT %d", q, quoteIdent(col.Name), recentLimit),
			Table:     tbl.Name,
		})
	}
	for _, col := range dates {
		out = append(out, Suggestion{
			Name:      "date_range_" + tbl.Name + "_" + col.Name,
			Rationale: fmt.Sprintf("Date range of %s in %s", col.Name, tbl.Name),
			SQL: fmt.Sprintf("SELECT MIN(%[1]s) AS earliest, MAX(%[1]s) AS latest FROM %[2]s",
				quoteIdent(col.Name), q),
			Table: tbl.Name,
		})
	}

	n := 0
	for _, col := range tbl.NumericColumns() {
		// Keys are counters, not measurements.
		if strings.Contains(strings.ToLower(col.Name), "id") {
			continue
		}
		if n++; n > maxNumericColumns {
			break
		}
		out = append(out, Suggestion{
			Name:      "stats_" + tbl.Name + "_" + col.Name,
			Rationale: fmt.Sprintf("Statistics for %s in %s", col.Name, tbl.Name),
			SQL: fmt.Sprintf("SELECT MIN(%[1]s) AS min_%[3]s, AVG(%[1]s) AS avg_%[3]s, MAX(%[1]s) AS max_%[3]s FROM %[2]s",
				quoteIdent(col.Name), q, col.Name),
			Table: tbl.Name,
		})
	}

	n = 0
	for _, col := range tbl.TextColumns() {
		if !containsAny(strings.ToLower(col.Name), labelNameTokens) {
			continue
		}
		if n++; n > maxTextColumns {
			break
		}
		out = append(out, Suggestion{
			Name:      "popular_" + col.Name + "_" + tbl.Name,
			Rationale: fmt.Sprintf("Most common values of %s in %s", col.Name, tbl.Name),
			SQL: fmt.Sprintf("SELECT %[1]s, COUNT(*) AS frequency FROM %[2]s GROUP BY %[1]s ORDER BY frequency DESC LIMIT %[3]d",
				quoteIdent(col.Name), q, topValuesLimit),
			Table: tbl.Name,
		})
	}

	return out
}

// Insights summarises the whole database: size, the largest tables and
// possible relationships guessed from column names.
func Insights(tables []schema.Table) []string {
	if len(tables) == 0 {
		return nil
	}

	var totalRows int64
	for _, t := range tables {
		totalRows += t.RowCount
	}

	insights := []string{fmt.Sprintf("Database contains %d tables with %s total rows",
		len(tables), humanize.Comma(totalRows))}

	largest := make([]schema.Table, len(tables))
	copy(largest, tables)
	sort.SliceStable(largest, func(i, j int) bool {
		if largest[i].RowCount != largest[j].RowCount {
			return largest[i].RowCount > largest[j].RowCount
		}
		return largest[i].Name < largest[j].Name
	})
	var parts []string
	for i, t := range largest {
		if i == 3 || t.RowCount == 0 {
			break
		}
		parts = append(parts, fmt.Sprintf("%s (%s rows)", t.Name, humanize.Comma(t.RowCount)))
	}
	if len(parts) > 0 {
		insights = append(insights, "Largest tables: "+strings.Join(parts, ", "))
	}

	if rels := Relationships(tables); len(rels) > 0 {
		insights = append(insights, "Potential relationships: "+strings.Join(rels, ", "))
	}

	return insights
}

// Relationships guesses foreign key links by matching column names against
// other table names (plural or singular form) and by shared column names.
// This is best effort only: the match is purely textual and can report
// relationships that do not exist.
func Relationships(tables []schema.Table) []string {
	var rels []string
	for _, tbl := range tables {
		for _, col := range tbl.Columns {
			name := strings.ToLower(col.Name)
			for _, other := range tables {
				if other.Name == tbl.Name {
					continue
				}
				target := strings.ToLower(other.Name)
				if matchesTarget(name, target) ||
					matchesTarget(name, strings.TrimSuffix(target, "s")) {
					rels = append(rels, fmt.Sprintf("%s.%s -> %s", tbl.Name, col.Name, other.Name))
					continue
				}
				if name != "id" && hasColumn(other, name) {
					rels = append(rels, fmt.Sprintf("%s.%s -> %s.%s", tbl.Name, col.Name, other.Name, col.Name))
				}
			}
		}
	}
	if len(rels) > maxRelationships {
		rels = rels[:maxRelationships]
	}
	return rels
}

func matchesTarget(column, target string) bool {
	return target != "" && strings.Contains(column, target)
}

func hasColumn(tbl schema.Table, name string) bool {
	for _, c := range tbl.Columns {
		if strings.ToLower(c.Name) == name {
			return true
		}
	}
	return false
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
