package scan

import (
	"fmt"

	"github.com/leengari/postddl/internal/domain/data"
)

type FilterKind string

const (
	// FilterColumnExists keeps rows that have a visible cell for the column
	FilterColumnExists FilterKind = "column_exists"
	// FilterColumnMissing keeps rows without a visible cell for the column
	FilterColumnMissing FilterKind = "column_missing"
)

// Filter is one link of a scan's filter chain
type Filter struct {
	Kind      FilterKind `json:"kind"`
	Family    []byte     `json:"family"`
	Qualifier []byte     `json:"qualifier"`
}

// Match evaluates the filter against the visible cells of a row
func (f Filter) Match(row *data.Tuple) bool {
	_, found := row.GetValue(f.Family, f.Qualifier)
	switch f.Kind {
	case FilterColumnExists:
		return found
	case FilterColumnMissing:
		return !found
	default:
		return false
	}
}

func (f Filter) String() string {
	return fmt.Sprintf("%s(%s.%s)", f.Kind, f.Family, f.Qualifier)
}

// MatchAll reports whether row passes every filter of the chain
func MatchAll(filters []Filter, row *data.Tuple) bool {
	for _, f := range filters {
		if !f.Match(row) {
			return false
		}
	}
	return true
}
