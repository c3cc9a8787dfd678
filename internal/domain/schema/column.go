package schema

type ColumnType string

const (
	ColumnTypeInt     ColumnType = "INT"
	ColumnTypeBigInt  ColumnType = "BIGINT"
	ColumnTypeFloat   ColumnType = "FLOAT"
	ColumnTypeText    ColumnType = "TEXT"
	ColumnTypeBool    ColumnType = "BOOL"
	ColumnTypeDate    ColumnType = "DATE"
	ColumnTypeTime    ColumnType = "TIME"
	ColumnTypeVarchar ColumnType = "VARCHAR"
)

// Column is one column of a table snapshot.
// Primary key columns live in the row key and have no family.
type Column struct {
	Name       string     `json:"name"`
	Family     string     `json:"family,omitempty"`
	Type       ColumnType `json:"type"`
	Position   int        `json:"position"`
	PrimaryKey bool       `json:"primary_key"`
	NotNull    bool       `json:"not_null"`
}

// FamilyBytes returns the column family name as bytes (nil for key columns)
func (c Column) FamilyBytes() []byte {
	if c.Family == "" {
		return nil
	}
	return []byte(c.Family)
}

// NameBytes returns the column qualifier as bytes
func (c Column) NameBytes() []byte {
	return []byte(c.Name)
}

// ColumnFamily groups the non key columns stored under one family
type ColumnFamily struct {
	Name    string
	Columns []Column
}

// NameBytes returns the family name as bytes
func (f *ColumnFamily) NameBytes() []byte {
	return []byte(f.Name)
}
