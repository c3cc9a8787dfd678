package testutil

import (
	"testing"

	"github.com/leengari/postddl/internal/domain/schema"
)

// CreateTestTable creates a table with a key column, two columns in the
// default family and one column in family B
func CreateTestTable(t *testing.T, name string) *schema.Table {
	t.Helper()
	table, err := schema.NewTable("", name, []schema.Column{
		{Name: "ID", Type: schema.ColumnTypeBigInt, PrimaryKey: true, NotNull: true},
		{Name: "NAME", Type: schema.ColumnTypeText, NotNull: true},
		{Name: "EMAIL", Type: schema.ColumnTypeText},
		{Name: "AGE", Family: "B", Type: schema.ColumnTypeInt},
	})
	if err != nil {
		t.Fatalf("create table %s: %v", name, err)
	}
	return table
}

// CreateSingleFamilyTable creates a table whose columns all live in the default family
func CreateSingleFamilyTable(t *testing.T, name string) *schema.Table {
	t.Helper()
	table, err := schema.NewTable("", name, []schema.Column{
		{Name: "ID", Type: schema.ColumnTypeBigInt, PrimaryKey: true, NotNull: true},
		{Name: "V", Type: schema.ColumnTypeText},
	})
	if err != nil {
		t.Fatalf("create table %s: %v", name, err)
	}
	return table
}

// CreateKeyOnlyTable creates a table without any column family
func CreateKeyOnlyTable(t *testing.T, name string) *schema.Table {
	t.Helper()
	table, err := schema.NewTable("", name, []schema.Column{
		{Name: "ID", Type: schema.ColumnTypeBigInt, PrimaryKey: true, NotNull: true},
	})
	if err != nil {
		t.Fatalf("create table %s: %v", name, err)
	}
	return table
}
