package schema

import (
	stderrors "errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/domain/errors"
)

func newOrdersTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable("SALES", "ORDERS", []Column{
		{Name: "ID", Type: ColumnTypeBigInt, PrimaryKey: true, NotNull: true},
		{Name: "PRODUCT", Type: ColumnTypeVarchar},
		{Name: "AMOUNT", Family: "B", Type: ColumnTypeFloat},
		{Name: "NOTE", Family: "B", Type: ColumnTypeText},
	})
	assert.NilError(t, err)
	return table
}

func TestNewTable_DerivesFamiliesAndPositions(t *testing.T) {
	table := newOrdersTable(t)

	assert.Equal(t, table.FullName(), "SALES.ORDERS")
	assert.Equal(t, len(table.Families), 2)
	assert.Equal(t, table.Families[0].Name, "0")
	assert.Equal(t, table.Families[1].Name, "B")
	assert.Equal(t, len(table.Families[1].Columns), 2)
	assert.Equal(t, table.EmptyFamily, "0")

	for i, col := range table.Columns {
		assert.Equal(t, col.Position, i)
	}

	id, err := table.GetColumn("ID")
	assert.NilError(t, err)
	assert.Equal(t, id.Family, "")
	assert.Assert(t, id.FamilyBytes() == nil)
	assert.Equal(t, len(table.PrimaryKeyColumns()), 1)
}

func TestNewTable_DuplicateColumn(t *testing.T) {
	_, err := NewTable("", "T", []Column{{Name: "A"}, {Name: "A"}})
	assert.ErrorContains(t, err, "duplicate column A")
}

func TestTable_Lookups(t *testing.T) {
	table := newOrdersTable(t)

	_, err := table.GetColumn("MISSING")
	var unresolved *errors.UnresolvedColumnError
	assert.Assert(t, stderrors.As(err, &unresolved))
	assert.Equal(t, unresolved.Column, "MISSING")

	family, err := table.GetColumnFamily("B")
	assert.NilError(t, err)
	col, ok := family.GetColumn("NOTE")
	assert.Assert(t, ok)
	assert.Equal(t, col.Position, 3)

	_, err = table.GetColumnFamily("Z")
	var notFound *errors.ColumnFamilyNotFoundError
	assert.Assert(t, stderrors.As(err, &notFound))
}

func TestTable_IndexMaintainers(t *testing.T) {
	table := newOrdersTable(t)
	var ptr data.Ptr

	table.IndexMaintainers(&ptr)
	assert.Equal(t, ptr.Len(), 0)

	table.IndexMetadata = []byte("idx")
	table.IndexMaintainers(&ptr)
	assert.Equal(t, string(ptr.Get()), "idx")
}
