package data

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Cell is a single versioned value stored under a column family and qualifier
type Cell struct {
	Family    []byte `json:"family"`
	Qualifier []byte `json:"qualifier"`
	Timestamp int64  `json:"ts"`
	Value     []byte `json:"value,omitempty"`
}

// Matches reports whether the cell lives at the given family/qualifier
func (c Cell) Matches(family, qualifier []byte) bool {
	return bytes.Equal(c.Family, family) && bytes.Equal(c.Qualifier, qualifier)
}

// Tuple is one row returned by the storage tier.
// Key = row key, Cells = the visible cells of that row
type Tuple struct {
	Key   []byte `json:"key"`
	Cells []Cell `json:"cells"`
}

// NewTuple creates a tuple with the cells ordered by family, then qualifier
func NewTuple(key []byte, cells ...Cell) *Tuple {
	t := &Tuple{Key: key, Cells: cells}
	t.sortCells()
	return t
}

// Size returns the number of cells in the tuple
func (t *Tuple) Size() int {
	if t == nil {
		return 0
	}
	return len(t.Cells)
}

// GetValue looks up the newest cell at family/qualifier
// Returns the value and true if found, nil and false otherwise
func (t *Tuple) GetValue(family, qualifier []byte) ([]byte, bool) {
	if t == nil {
		return nil, false
	}

	var (
		found  bool
		newest Cell
	)
	for _, c := range t.Cells {
		if !c.Matches(family, qualifier) {
			continue
		}
		if !found || c.Timestamp > newest.Timestamp {
			newest = c
			found = true
		}
	}
	return newest.Value, found
}

// Copy creates a deep copy of the tuple to prevent mutation
func (t *Tuple) Copy() *Tuple {
	cells := make([]Cell, len(t.Cells))
	for i, c := range t.Cells {
		cells[i] = Cell{
			Family:    bytes.Clone(c.Family),
			Qualifier: bytes.Clone(c.Qualifier),
			Timestamp: c.Timestamp,
			Value:     bytes.Clone(c.Value),
		}
	}
	return &Tuple{Key: bytes.Clone(t.Key), Cells: cells}
}

// ToJSON serializes the tuple to json.RawMessage for the wire
func (t *Tuple) ToJSON() (json.RawMessage, error) {
	return json.Marshal(t)
}

// FromJSON creates a Tuple from json.RawMessage
func FromJSON(raw json.RawMessage) (*Tuple, error) {
	var t Tuple
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Tuple) sortCells() {
	sort.SliceStable(t.Cells, func(i, j int) bool {
		if c := bytes.Compare(t.Cells[i].Family, t.Cells[j].Family); c != 0 {
			return c < 0
		}
		if c := bytes.Compare(t.Cells[i].Qualifier, t.Cells[j].Qualifier); c != 0 {
			return c < 0
		}
		// newest first
		return t.Cells[i].Timestamp > t.Cells[j].Timestamp
	})
}
