package schema

// TableRef identifies one physical table together with the schema
// snapshot it was compiled against
type TableRef struct {
	Table *Table
	Alias string

	// LowerBoundTimestamp is the earliest time the referenced snapshot is valid at
	LowerBoundTimestamp int64
}

// NewTableRef wraps a table snapshot
func NewTableRef(t *Table) TableRef {
	return TableRef{Table: t, LowerBoundTimestamp: t.Timestamp}
}

// Name returns the qualified name of the referenced table
func (r TableRef) Name() string {
	if r.Table == nil {
		return ""
	}
	return r.Table.FullName()
}
