package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/domain/schema"
	"github.com/leengari/postddl/internal/storage/memstore"
)

// Table is a table schema together with its region layout and seed rows
type Table struct {
	Schema    *schema.Table
	Path      string
	SplitKeys [][]byte
	Rows      []RowMeta
}

// Catalog is every table found under a catalog directory
type Catalog struct {
	Name   string
	Path   string
	Tables map[string]*Table
}

// Table returns the named table
func (c *Catalog) Table(name string) (*Table, error) {
	t, ok := c.Tables[name]
	if !ok {
		return nil, fmt.Errorf("table %s not found in catalog %s", name, c.Name)
	}
	return t, nil
}

// TableNames returns the table names in sorted order
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.Tables))
	for name := range c.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadTable reads <path>/meta.json and, when present, <path>/data.json
func LoadTable(path string, logger *slog.Logger) (*Table, error) {
	metaPath := filepath.Join(path, "meta.json")
	dataPath := filepath.Join(path, "data.json")

	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta TableMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", metaPath, err)
	}

	columns := make([]schema.Column, 0, len(meta.Columns))
	for _, c := range meta.Columns {
		columns = append(columns, schema.Column{
			Name:       c.Name,
			Type:       schema.ColumnType(c.Type),
			Family:     c.Family,
			PrimaryKey: c.PrimaryKey,
			NotNull:    c.NotNull,
		})
	}

	table, err := schema.NewTable(meta.Schema, meta.Name, columns)
	if err != nil {
		return nil, err
	}
	table.IndexMetadata = meta.IndexMetadata
	table.Timestamp = meta.Timestamp

	rows := []RowMeta{}
	if _, err := os.Stat(dataPath); err == nil {
		dataBytes, err := os.ReadFile(dataPath)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(dataBytes, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", dataPath, err)
		}
	}

	splitKeys := make([][]byte, 0, len(meta.SplitKeys))
	for _, k := range meta.SplitKeys {
		splitKeys = append(splitKeys, []byte(k))
	}

	logger.Info("table loaded",
		slog.String("table", table.FullName()),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", len(rows)),
	)

	return &Table{Schema: table, Path: path, SplitKeys: splitKeys, Rows: rows}, nil
}

// Load loads the catalog from the given directory path
func Load(dir string, logger *slog.Logger) (*Catalog, error) {
	metaPath := filepath.Join(dir, "meta.json")

	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog meta: %w", err)
	}

	var meta CatalogMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse catalog meta: %w", err)
	}

	c := &Catalog{
		Name:   meta.Name,
		Path:   dir,
		Tables: make(map[string]*Table),
	}

	// Read all entries in the catalog directory
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		tablePath := filepath.Join(dir, entry.Name())
		table, err := LoadTable(tablePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load table %s: %w", entry.Name(), err)
		}

		c.Tables[table.Schema.FullName()] = table
	}

	logger.Info("Catalog loaded successfully",
		slog.String("name", c.Name),
		slog.String("path", dir),
		slog.Int("table_count", len(c.Tables)),
	)

	return c, nil
}

// Seed creates every table of the catalog in store and writes its seed rows
func Seed(c *Catalog, store *memstore.Store) error {
	for _, name := range c.TableNames() {
		t := c.Tables[name]
		if err := store.CreateTable(name, t.SplitKeys...); err != nil {
			return err
		}
		for _, r := range t.Rows {
			cells := make([]data.Cell, 0, len(r.Cells))
			for _, cm := range r.Cells {
				cells = append(cells, data.Cell{
					Family:    []byte(cm.Family),
					Qualifier: []byte(cm.Qualifier),
					Timestamp: cm.Timestamp,
					Value:     []byte(cm.Value),
				})
			}
			if err := store.Put(name, []byte(r.Key), cells...); err != nil {
				return fmt.Errorf("failed to seed table %s: %w", name, err)
			}
		}
	}
	return nil
}
