package sqlite

import (
	"fmt"
	"strings"
)

// ConnectionError reports a database file that could not be opened.
type ConnectionError struct {
	Path string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot open database %s: %v", e.Path, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SchemaError reports a reference to a table or column that does not exist.
// Hint, when set, names the closest matching object.
type SchemaError struct {
	Table string
	Hint  string
	Err   error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("no such table: %s", e.Table)
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *SchemaError) Unwrap() error { return e.Err }

// QueryError reports a statement the engine rejected or failed to run.
type QueryError struct {
	SQL  string
	Hint string
	Err  error
}

func (e *QueryError) Error() string {
	msg := fmt.Sprintf("query failed: %v", e.Err)
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

func (e *QueryError) Unwrap() error { return e.Err }

// nearestName returns the candidate most similar to name, or "" when nothing
// is close enough to be a plausible typo.
func nearestName(name string, candidates []string) string {
	best := ""
	bestDist := len(name)/2 + 1
	for _, c := range candidates {
		d := editDistance(strings.ToLower(name), strings.ToLower(c))
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
