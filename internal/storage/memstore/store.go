package memstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leengari/postddl/internal/cache"
	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/scan"
	"github.com/leengari/postddl/internal/storage"
)

// Store is an in-memory storage tier. Tables are split into regions by
// split keys and every cell is versioned by timestamp. Aggregate scans are
// executed region by region and return one partial row per region.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table

	// caches holds the server caches scans may refer to
	caches cache.Store
	logger *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithCacheStore sets the store server cache ids are looked up in
func WithCacheStore(c cache.Store) Option {
	return func(s *Store) { s.caches = c }
}

// WithLogger sets the store logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		tables: make(map[string]*table),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TableStats summarizes one table
type TableStats struct {
	Name    string `json:"name"`
	Regions int    `json:"regions"`
	Rows    int    `json:"rows"`
	Cells   int    `json:"cells"`
}

// CreateTable creates a table split into len(splitKeys)+1 regions
func (s *Store) CreateTable(name string, splitKeys ...[]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tables[name]; exists {
		return fmt.Errorf("table %s already exists", name)
	}

	keys := make([][]byte, 0, len(splitKeys))
	for _, k := range splitKeys {
		if len(k) == 0 {
			return fmt.Errorf("table %s: empty split key", name)
		}
		keys = append(keys, bytes.Clone(k))
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })

	t := &table{name: name}
	t.regions = append(t.regions, newRegion(nil))
	for i, k := range keys {
		if i > 0 && bytes.Equal(k, keys[i-1]) {
			return fmt.Errorf("table %s: duplicate split key %q", name, k)
		}
		t.regions = append(t.regions, newRegion(k))
	}
	s.tables[name] = t

	s.logger.Debug("table created", "table", name, "regions", len(t.regions))
	return nil
}

// DropTable removes a table and all of its data
func (s *Store) DropTable(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; !ok {
		return fmt.Errorf("table %s not found", name)
	}
	delete(s.tables, name)
	return nil
}

// HasTable reports whether the table exists
func (s *Store) HasTable(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tables[name]
	return ok
}

// Put writes cells into the row at key
func (s *Store) Put(tableName string, key []byte, cells ...data.Cell) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(tableName)
	if err != nil {
		return err
	}
	if len(key) == 0 {
		return fmt.Errorf("table %s: empty row key", tableName)
	}
	t.regionFor(key).put(key, cells)
	return nil
}

// Get returns the cells of the row at key visible in tr (nil if none)
func (s *Store) Get(tableName string, key []byte, tr scan.TimeRange) (*data.Tuple, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	r, ok := t.regionFor(key).rows[string(key)]
	if !ok {
		return nil, nil
	}
	var cells []data.Cell
	for _, c := range r.cells {
		if tr.Contains(c.Timestamp) {
			cells = append(cells, c)
		}
	}
	if len(cells) == 0 {
		return nil, nil
	}
	return data.NewTuple(bytes.Clone(key), cells...).Copy(), nil
}

// Stats returns row and cell counts of a table
func (s *Store) Stats(tableName string) (TableStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(tableName)
	if err != nil {
		return TableStats{}, err
	}
	stats := TableStats{Name: tableName, Regions: len(t.regions)}
	for _, reg := range t.regions {
		stats.Rows += len(reg.rows)
		for _, r := range reg.rows {
			stats.Cells += len(r.cells)
		}
	}
	return stats, nil
}

// Tables returns the table names in sorted order
func (s *Store) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scan implements storage.Client.
// An ungrouped aggregate scan applies its side effects and returns one
// count row per region; any other scan returns the visible cells of the
// matching rows.
func (s *Store) Scan(ctx context.Context, req *scan.Request) (storage.ResultStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	intents, err := req.Intents()
	if err != nil {
		return nil, fmt.Errorf("invalid scan of table %s: %w", req.Table, err)
	}
	plan := newRegionPlan(intents)

	if plan.indexCacheID != nil {
		if err := s.checkCache(ctx, plan.indexCacheID); err != nil {
			return nil, err
		}
	}

	if plan.aggregate {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		if plan.mutates() {
			return nil, fmt.Errorf("scan of table %s requests mutations without %s", req.Table, scan.AttrUngroupedAgg)
		}
		s.mu.RLock()
		defer s.mu.RUnlock()
	}

	t, err := s.table(req.Table)
	if err != nil {
		return nil, err
	}

	var rows []*data.Tuple
	for _, reg := range t.regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if plan.aggregate {
			count := reg.aggregate(req, plan)
			rows = append(rows, countRow(reg.startKey, count))
			continue
		}
		rows = append(rows, reg.scan(req)...)
	}

	s.logger.Debug("scan executed",
		"table", req.Table,
		"aggregate", plan.aggregate,
		"regions", len(t.regions),
		"rows", len(rows),
	)
	return storage.NewSliceStream(rows), nil
}

func (s *Store) checkCache(ctx context.Context, id []byte) error {
	if s.caches == nil {
		return fmt.Errorf("scan refers to server cache %x but no cache store is configured", id)
	}
	if _, err := s.caches.Get(ctx, cache.Key(id)); err != nil {
		return fmt.Errorf("server cache %s: %w", cache.Key(id), err)
	}
	return nil
}

func (s *Store) table(name string) (*table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %s not found", name)
	}
	return t, nil
}

func countRow(regionKey []byte, n int64) *data.Tuple {
	return data.NewTuple(bytes.Clone(regionKey), data.Cell{
		Family:    data.SingleColumnFamily,
		Qualifier: data.SingleColumn,
		Value:     data.EncodeLong(n),
	})
}
