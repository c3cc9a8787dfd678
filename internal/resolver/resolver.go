package resolver

import (
	"github.com/leengari/postddl/internal/domain/errors"
	"github.com/leengari/postddl/internal/domain/schema"
)

// ColumnRef is a column resolved against a table reference
type ColumnRef struct {
	TableRef schema.TableRef
	Position int
}

// Column returns the schema column the reference points at
func (r ColumnRef) Column() schema.Column {
	return r.TableRef.Table.Columns[r.Position]
}

// ColumnResolver maps symbolic column references to resolved columns
type ColumnResolver interface {
	// Tables returns the tables references are resolved against
	Tables() []schema.TableRef

	// ResolveColumn resolves (schemaName, tableName, columnName).
	// A non-empty tableName is looked up as a column family of the table.
	ResolveColumn(schemaName, tableName, columnName string) (ColumnRef, error)
}

// singleTableResolver resolves every reference against exactly one table
type singleTableResolver struct {
	tableRef schema.TableRef
}

// NewSingleTable creates a resolver scoped to tableRef
func NewSingleTable(tableRef schema.TableRef) ColumnResolver {
	return &singleTableResolver{tableRef: tableRef}
}

func (r *singleTableResolver) Tables() []schema.TableRef {
	return []schema.TableRef{r.tableRef}
}

func (r *singleTableResolver) ResolveColumn(schemaName, tableName, columnName string) (ColumnRef, error) {
	table := r.tableRef.Table

	if tableName == "" {
		col, err := table.GetColumn(columnName)
		if err != nil {
			return ColumnRef{}, err
		}
		return ColumnRef{TableRef: r.tableRef, Position: col.Position}, nil
	}

	family, err := table.GetColumnFamily(tableName)
	if err != nil {
		return ColumnRef{}, errors.NewUnresolvedColumn(schemaName, table.Name, tableName, columnName)
	}
	col, ok := family.GetColumn(columnName)
	if !ok {
		return ColumnRef{}, errors.NewUnresolvedColumn(schemaName, table.Name, tableName, columnName)
	}
	return ColumnRef{TableRef: r.tableRef, Position: col.Position}, nil
}
