package schema

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/domain/errors"
)

// Table is an immutable snapshot of a table's schema taken at compile time
type Table struct {
	mu sync.RWMutex

	SchemaName string
	Name       string
	Columns    []Column
	Families   []*ColumnFamily

	// EmptyFamily holds the liveness marker column of every row
	EmptyFamily string

	// IndexMetadata is the serialized form of the table's index maintainers
	// (empty when the table has no mutable secondary indexes)
	IndexMetadata []byte

	// Timestamp is the time the snapshot was taken at
	Timestamp int64

	columnsByName  map[string]int
	familiesByName map[string]int
}

// NewTable builds a table snapshot from its columns.
// Positions are assigned in declaration order and families are derived from
// the columns; columns without a family (and not part of the key) go into
// the default family.
func NewTable(schemaName, name string, columns []Column) (*Table, error) {
	t := &Table{
		SchemaName:     schemaName,
		Name:           name,
		Columns:        make([]Column, 0, len(columns)),
		columnsByName:  make(map[string]int, len(columns)),
		familiesByName: make(map[string]int),
	}

	for i, col := range columns {
		if _, exists := t.columnsByName[col.Name]; exists {
			return nil, fmt.Errorf("table %s: duplicate column %s", name, col.Name)
		}
		col.Position = i
		if !col.PrimaryKey && col.Family == "" {
			col.Family = string(data.DefaultColumnFamily)
		}
		if col.PrimaryKey {
			col.Family = ""
		}

		t.columnsByName[col.Name] = i
		t.Columns = append(t.Columns, col)

		if col.Family == "" {
			continue
		}
		idx, ok := t.familiesByName[col.Family]
		if !ok {
			idx = len(t.Families)
			t.familiesByName[col.Family] = idx
			t.Families = append(t.Families, &ColumnFamily{Name: col.Family})
		}
		t.Families[idx].Columns = append(t.Families[idx].Columns, col)
	}

	t.EmptyFamily = string(data.DefaultColumnFamily)
	if len(t.Families) > 0 {
		t.EmptyFamily = t.Families[0].Name
	}

	slog.Debug("table snapshot built",
		"table", t.FullName(),
		"columns", len(t.Columns),
		"families", len(t.Families),
	)

	return t, nil
}

// FullName returns the schema qualified table name
func (t *Table) FullName() string {
	if t.SchemaName == "" {
		return t.Name
	}
	return t.SchemaName + "." + t.Name
}

// GetColumn looks a column up in the flat column namespace of the table
func (t *Table) GetColumn(name string) (Column, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, ok := t.columnsByName[name]
	if !ok {
		return Column{}, errors.NewUnresolvedColumn(t.SchemaName, t.Name, "", name)
	}
	return t.Columns[idx], nil
}

// GetColumnFamily returns the column family with the given name
func (t *Table) GetColumnFamily(name string) (*ColumnFamily, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, ok := t.familiesByName[name]
	if !ok {
		return nil, &errors.ColumnFamilyNotFoundError{Table: t.FullName(), Family: name}
	}
	return t.Families[idx], nil
}

// GetColumn looks a column up inside the family
func (f *ColumnFamily) GetColumn(name string) (Column, bool) {
	for _, col := range f.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// EmptyFamilyBytes returns the family holding the empty key value column
func (t *Table) EmptyFamilyBytes() []byte {
	return []byte(t.EmptyFamily)
}

// FamilyNames returns the name of every column family in declaration order
func (t *Table) FamilyNames() [][]byte {
	names := make([][]byte, 0, len(t.Families))
	for _, f := range t.Families {
		names = append(names, f.NameBytes())
	}
	return names
}

// IndexMaintainers points ptr at the serialized index maintainers of the table.
// ptr is left empty when the table has none.
func (t *Table) IndexMaintainers(ptr *data.Ptr) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.IndexMetadata) == 0 {
		ptr.Reset()
		return
	}
	ptr.Set(t.IndexMetadata)
}

// PrimaryKeyColumns returns the columns making up the row key
func (t *Table) PrimaryKeyColumns() []Column {
	var pk []Column
	for _, col := range t.Columns {
		if col.PrimaryKey {
			pk = append(pk, col)
		}
	}
	return pk
}
