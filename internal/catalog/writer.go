package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leengari/postddl/internal/domain/schema"
)

// SaveTable persists meta.json (and data.json when rows is non-nil)
// atomically into the table's directory
func SaveTable(t *Table) error {
	if t == nil || t.Schema == nil || t.Path == "" {
		return fmt.Errorf("cannot save table: nil or missing path")
	}
	table := t.Schema
	tableName := table.FullName()

	meta := TableMeta{
		Schema:        table.SchemaName,
		Name:          table.Name,
		Columns:       make([]ColumnMeta, len(table.Columns)),
		IndexMetadata: table.IndexMetadata,
		Timestamp:     table.Timestamp,
	}
	for i, col := range table.Columns {
		meta.Columns[i] = ColumnMeta{
			Name:       col.Name,
			Type:       string(col.Type),
			Family:     col.Family,
			PrimaryKey: col.PrimaryKey,
			NotNull:    col.NotNull,
		}
	}
	for _, k := range t.SplitKeys {
		meta.SplitKeys = append(meta.SplitKeys, string(k))
	}

	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal table meta for %s: %w", tableName, err)
	}

	files := []struct {
		path string
		data []byte
		name string
	}{
		{filepath.Join(t.Path, "meta.json"), metaBytes, "meta.json"},
	}

	if t.Rows != nil {
		dataBytes, err := json.MarshalIndent(t.Rows, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal rows for %s: %w", tableName, err)
		}
		files = append(files, struct {
			path string
			data []byte
			name string
		}{filepath.Join(t.Path, "data.json"), dataBytes, "data.json"})
	}

	if err := os.MkdirAll(t.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create table directory for %s: %w", tableName, err)
	}

	for _, f := range files {
		tmpPath := f.path + ".tmp"

		// Write to temp
		if err := os.WriteFile(tmpPath, f.data, 0644); err != nil {
			return fmt.Errorf("failed to write temp file %s for table %s: %w", f.name, tableName, err)
		}

		// Atomic replace
		if err := os.Rename(tmpPath, f.path); err != nil {
			return fmt.Errorf("failed to rename temp → %s for table %s: %w", f.name, tableName, err)
		}
	}

	slog.Info("Table saved successfully",
		slog.String("table", tableName),
		slog.String("path", t.Path),
		slog.Int("columns", len(table.Columns)),
	)
	return nil
}

// DropColumn rebuilds the table schema without the named column and saves it.
// It is applied once the column's values were deleted from the storage tier.
func DropColumn(t *Table, column string, timestamp int64) error {
	old := t.Schema
	col, err := old.GetColumn(column)
	if err != nil {
		return err
	}
	if col.PrimaryKey {
		return fmt.Errorf("cannot drop key column %s of table %s", column, old.FullName())
	}

	columns := make([]schema.Column, 0, len(old.Columns)-1)
	for _, col := range old.Columns {
		if col.Name != column {
			columns = append(columns, col)
		}
	}

	rebuilt, err := schema.NewTable(old.SchemaName, old.Name, columns)
	if err != nil {
		return err
	}
	rebuilt.IndexMetadata = old.IndexMetadata
	rebuilt.Timestamp = timestamp

	t.Schema = rebuilt
	return SaveTable(t)
}
