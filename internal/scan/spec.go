package scan

import (
	"bytes"
	"math"
)

// MinTableTimestamp is the lower bound of every scan time range
const MinTableTimestamp int64 = 0

// TimeRange is the half open interval [Min, Max) of visible cell timestamps
type TimeRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// AllTime makes every cell visible
var AllTime = TimeRange{Min: MinTableTimestamp, Max: math.MaxInt64}

// Contains reports whether ts is visible in the range
func (r TimeRange) Contains(ts int64) bool {
	return ts >= r.Min && ts < r.Max
}

// FamilyProjection selects a column family, either whole (no qualifiers)
// or restricted to the listed qualifiers
type FamilyProjection struct {
	Family     []byte   `json:"family"`
	Qualifiers [][]byte `json:"qualifiers,omitempty"`
}

// Whole reports whether every column of the family is projected
func (p FamilyProjection) Whole() bool {
	return len(p.Qualifiers) == 0
}

// Spec is the scan being compiled for one table.
// It is append-only while the compilers run and is snapshotted into a
// Request when the plan executes.
type Spec struct {
	timeRange TimeRange
	families  []FamilyProjection
	intents   []Intent
	filters   []Filter
}

// New creates an empty scan that sees every cell of every family
func New() *Spec {
	return &Spec{timeRange: AllTime}
}

// SetTimeRange makes the scan see the table as of timestamp
func (s *Spec) SetTimeRange(timestamp int64) {
	s.timeRange = TimeRange{Min: MinTableTimestamp, Max: timestamp}
}

// TimeRange returns the visible time range
func (s *Spec) TimeRange() TimeRange {
	return s.timeRange
}

// AddFamily projects every column of family
func (s *Spec) AddFamily(family []byte) {
	if i := s.familyIndex(family); i >= 0 {
		s.families[i].Qualifiers = nil
		return
	}
	s.families = append(s.families, FamilyProjection{Family: bytes.Clone(family)})
}

// AddColumn projects a single column.
// A family projected whole is narrowed to its explicitly added columns.
func (s *Spec) AddColumn(family, qualifier []byte) {
	i := s.familyIndex(family)
	if i < 0 {
		s.families = append(s.families, FamilyProjection{Family: bytes.Clone(family)})
		i = len(s.families) - 1
	}
	for _, q := range s.families[i].Qualifiers {
		if bytes.Equal(q, qualifier) {
			return
		}
	}
	s.families[i].Qualifiers = append(s.families[i].Qualifiers, bytes.Clone(qualifier))
}

// ClearFamilies removes every family and column projection
func (s *Spec) ClearFamilies() {
	s.families = nil
}

// Families returns the projected families in the order they were added
func (s *Spec) Families() []FamilyProjection {
	out := make([]FamilyProjection, len(s.families))
	for i, f := range s.families {
		out[i] = FamilyProjection{Family: bytes.Clone(f.Family)}
		for _, q := range f.Qualifiers {
			out[i].Qualifiers = append(out[i].Qualifiers, bytes.Clone(q))
		}
	}
	return out
}

// HasFamilies reports whether any family was projected explicitly
func (s *Spec) HasFamilies() bool {
	return len(s.families) > 0
}

// AddIntent records a requested side effect or execution mode
func (s *Spec) AddIntent(intent Intent) {
	s.intents = append(s.intents, intent)
}

// Intents returns the recorded intents in the order they were added
func (s *Spec) Intents() []Intent {
	out := make([]Intent, len(s.intents))
	copy(out, s.intents)
	return out
}

// AddFilter appends a filter to the scan's filter chain
func (s *Spec) AddFilter(f Filter) {
	s.filters = append(s.filters, f)
}

// Filters returns the filter chain
func (s *Spec) Filters() []Filter {
	out := make([]Filter, len(s.filters))
	copy(out, s.filters)
	return out
}

// Attributes serializes the intents into the attribute map sent on the wire
func (s *Spec) Attributes() map[string][]byte {
	attrs := make(map[string][]byte, len(s.intents)+1)
	for _, intent := range s.intents {
		intent.apply(attrs)
	}
	return attrs
}

// Attribute returns the wire payload of one attribute
func (s *Spec) Attribute(name string) ([]byte, bool) {
	v, ok := s.Attributes()[name]
	return v, ok
}

// Request snapshots the scan into the wire request for table
func (s *Spec) Request(table string) *Request {
	return &Request{
		Table:      table,
		TimeRange:  s.timeRange,
		Families:   s.Families(),
		Attributes: s.Attributes(),
		Filters:    s.Filters(),
	}
}

func (s *Spec) familyIndex(family []byte) int {
	for i, f := range s.families {
		if bytes.Equal(f.Family, family) {
			return i
		}
	}
	return -1
}
