package errors

import (
	"fmt"
	"strings"
)

// UnresolvedColumnError is returned when a column reference does not
// match any column of the table (or of the named column family)
type UnresolvedColumnError struct {
	Schema string // schema name (may be empty)
	Table  string // table the resolver is scoped to
	Family string // column family the lookup went through (empty for flat lookups)
	Column string // column name that failed to resolve
}

func (e *UnresolvedColumnError) Error() string {
	var parts []string

	name := e.Column
	if e.Family != "" {
		name = e.Family + "." + e.Column
	}
	parts = append(parts, fmt.Sprintf("undefined column %s", name))

	table := e.Table
	if e.Schema != "" {
		table = e.Schema + "." + e.Table
	}
	if table != "" {
		parts = append(parts, fmt.Sprintf("in table %s", table))
	}

	return strings.Join(parts, " ")
}

// ColumnFamilyNotFoundError is returned when a table has no family of the given name
type ColumnFamilyNotFoundError struct {
	Table  string
	Family string
}

func (e *ColumnFamilyNotFoundError) Error() string {
	return fmt.Sprintf("column family %s not found in table %s", e.Family, e.Table)
}

// StoragePhase identifies where a storage tier call failed
type StoragePhase string

const (
	PhaseOpen    StoragePhase = "open"
	PhaseFetch   StoragePhase = "fetch"
	PhaseClose   StoragePhase = "close"
	PhaseCache   StoragePhase = "cache"
	PhaseRelease StoragePhase = "release"
)

// StorageExecutionError wraps any failure raised while opening, reading
// or closing a scan against the storage tier
type StorageExecutionError struct {
	Table string
	Phase StoragePhase
	Err   error
}

func (e *StorageExecutionError) Error() string {
	return fmt.Sprintf("storage %s failed for table %s: %v", e.Phase, e.Table, e.Err)
}

func (e *StorageExecutionError) Unwrap() error {
	return e.Err
}

func NewUnresolvedColumn(schema, table, family, column string) *UnresolvedColumnError {
	return &UnresolvedColumnError{
		Schema: schema,
		Table:  table,
		Family: family,
		Column: column,
	}
}

func NewStorageError(table string, phase StoragePhase, err error) *StorageExecutionError {
	return &StorageExecutionError{
		Table: table,
		Phase: phase,
		Err:   err,
	}
}
