package scan

import "bytes"

// Request is the wire form of a scan
type Request struct {
	Table      string             `json:"table"`
	TimeRange  TimeRange          `json:"time_range"`
	Families   []FamilyProjection `json:"families,omitempty"`
	Attributes map[string][]byte  `json:"attributes,omitempty"`
	Filters    []Filter           `json:"filters,omitempty"`
}

// ProjectsFamily reports whether any column of family is projected.
// A request without family projections projects everything.
func (r *Request) ProjectsFamily(family []byte) bool {
	if len(r.Families) == 0 {
		return true
	}
	for _, f := range r.Families {
		if bytes.Equal(f.Family, family) {
			return true
		}
	}
	return false
}

// Projects reports whether the column family:qualifier is projected
func (r *Request) Projects(family, qualifier []byte) bool {
	if len(r.Families) == 0 {
		return true
	}
	for _, f := range r.Families {
		if !bytes.Equal(f.Family, family) {
			continue
		}
		if f.Whole() {
			return true
		}
		for _, q := range f.Qualifiers {
			if bytes.Equal(q, qualifier) {
				return true
			}
		}
		return false
	}
	return false
}

// Intents decodes the request's attributes
func (r *Request) Intents() ([]Intent, error) {
	return ParseIntents(r.Attributes)
}
