package catalog

type CatalogMeta struct {
	Name    string   `json:"name"`
	Version int      `json:"version"`
	Tables  []string `json:"tables,omitempty"`
}

type TableMeta struct {
	Schema        string       `json:"schema,omitempty"`
	Name          string       `json:"name"`
	Columns       []ColumnMeta `json:"columns"`
	SplitKeys     []string     `json:"split_keys,omitempty"`
	IndexMetadata []byte       `json:"index_metadata,omitempty"`
	Timestamp     int64        `json:"timestamp,omitempty"`
}

type ColumnMeta struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Family     string `json:"family,omitempty"`
	PrimaryKey bool   `json:"primary_key"`
	NotNull    bool   `json:"not_null"`
}

// RowMeta is one seed row of data.json
type RowMeta struct {
	Key   string     `json:"key"`
	Cells []CellMeta `json:"cells"`
}

type CellMeta struct {
	Family    string `json:"family"`
	Qualifier string `json:"qualifier"`
	Timestamp int64  `json:"ts"`
	Value     string `json:"value,omitempty"`
}
