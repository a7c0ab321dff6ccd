package schema

import "strings"

type SemanticClass string

const (
	ClassDate    SemanticClass = "date"
	ClassNumeric SemanticClass = "numeric"
	ClassText    SemanticClass = "text"
	ClassOther   SemanticClass = "other"
)

type Column struct {
	ColumnID   int           `json:"cid"`
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	Class      SemanticClass `json:"class"`
	IsNullable bool          `json:"nullable"`
	IsPrimary  bool          `json:"primary_key"`
}

type Table struct {
	Name       string   `json:"table"`
	RowCount   int64    `json:"row_count"`
	Columns    []Column `json:"columns"`
	PrimaryKey []string `json:"primary_key,omitempty"`
	Indexes    []string `json:"indexes,omitempty"`
}

// DateColumns returns the columns classified as date, in declaration order.
func (t Table) DateColumns() []Column {
	return t.columnsOf(ClassDate)
}

// NumericColumns returns the columns classified as numeric, in declaration order.
func (t Table) NumericColumns() []Column {
	return t.columnsOf(ClassNumeric)
}

// TextColumns returns the columns classified as text, in declaration order.
func (t Table) TextColumns() []Column {
	return t.columnsOf(ClassText)
}

func (t Table) columnsOf(class SemanticClass) []Column {
	cols := []Column{}
	for _, c := range t.Columns {
		if c.Class == class {
			cols = append(cols, c)
		}
	}
	return cols
}

var (
	dateTypeTokens    = []string{"DATE", "TIME"}
	numericTypeTokens = []string{"INT", "REAL", "FLOA", "DOUB", "NUMERIC", "DECIMAL", "BOOL"}
	textTypeTokens    = []string{"TEXT", "CHAR", "CLOB"}

	// Column names that usually hold timestamps regardless of the declared
	// type. SQLite schemas commonly store dates in TEXT or INTEGER columns.
	dateNameTokens = []string{"created", "updated", "modified", "time", "date"}

	// Names that contain a date token but describe a measurement, e.g.
	// response_time_score. These must not be promoted to date.
	dateNameExclusions = []string{"score", "label", "amount", "value"}
)

// Classify assigns exactly one semantic class to a column based on its name
// and declared type. The mapping is deterministic: the same inputs always
// produce the same class.
func Classify(name, declaredType string) SemanticClass {
	t := strings.ToUpper(declaredType)

	if containsAny(t, dateTypeTokens) {
		return ClassDate
	}
	if isDateName(name) {
		return ClassDate
	}
	if containsAny(t, numericTypeTokens) {
		return ClassNumeric
	}
	if containsAny(t, textTypeTokens) {
		return ClassText
	}
	return ClassOther
}

func isDateName(name string) bool {
	n := strings.ToLower(name)
	if !containsAny(n, dateNameTokens) {
		return false
	}
	return !containsAny(n, dateNameExclusions)
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
