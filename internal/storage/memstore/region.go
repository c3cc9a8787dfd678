package memstore

import (
	"bytes"
	"sort"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/scan"
)

type table struct {
	name    string
	regions []*region
}

// regionFor returns the region whose key range holds key
func (t *table) regionFor(key []byte) *region {
	i := sort.Search(len(t.regions), func(i int) bool {
		return bytes.Compare(t.regions[i].startKey, key) > 0
	})
	return t.regions[i-1]
}

type row struct {
	key   []byte
	cells []data.Cell
}

// region holds the rows with keys in [startKey, next region's startKey)
type region struct {
	startKey []byte
	rows     map[string]*row
}

func newRegion(startKey []byte) *region {
	return &region{startKey: startKey, rows: make(map[string]*row)}
}

func (r *region) put(key []byte, cells []data.Cell) {
	rw, ok := r.rows[string(key)]
	if !ok {
		rw = &row{key: bytes.Clone(key)}
		r.rows[string(key)] = rw
	}
	for _, c := range cells {
		rw.upsert(data.Cell{
			Family:    bytes.Clone(c.Family),
			Qualifier: bytes.Clone(c.Qualifier),
			Timestamp: c.Timestamp,
			Value:     bytes.Clone(c.Value),
		})
	}
}

// upsert replaces the cell at the same coordinates and timestamp
func (rw *row) upsert(cell data.Cell) {
	for i, c := range rw.cells {
		if c.Matches(cell.Family, cell.Qualifier) && c.Timestamp == cell.Timestamp {
			rw.cells[i] = cell
			return
		}
	}
	rw.cells = append(rw.cells, cell)
}

// removeIf drops every cell drop reports true for
func (rw *row) removeIf(drop func(data.Cell) bool) {
	kept := rw.cells[:0]
	for _, c := range rw.cells {
		if !drop(c) {
			kept = append(kept, c)
		}
	}
	rw.cells = kept
}

// sortedRows returns the rows in key order
func (r *region) sortedRows() []*row {
	rows := make([]*row, 0, len(r.rows))
	for _, rw := range r.rows {
		rows = append(rows, rw)
	}
	sort.Slice(rows, func(i, j int) bool { return bytes.Compare(rows[i].key, rows[j].key) < 0 })
	return rows
}

// visible returns the cells of rw the request sees, or nil when the row
// does not pass the request's filters
func visible(rw *row, req *scan.Request) *data.Tuple {
	var cells []data.Cell
	for _, c := range rw.cells {
		if req.TimeRange.Contains(c.Timestamp) && req.Projects(c.Family, c.Qualifier) {
			cells = append(cells, c)
		}
	}
	if len(cells) == 0 {
		return nil
	}
	tuple := data.NewTuple(rw.key, cells...)
	if !scan.MatchAll(req.Filters, tuple) {
		return nil
	}
	return tuple
}

func (r *region) scan(req *scan.Request) []*data.Tuple {
	var out []*data.Tuple
	for _, rw := range r.sortedRows() {
		if t := visible(rw, req); t != nil {
			out = append(out, t.Copy())
		}
	}
	return out
}

// aggregate counts the rows of the region matching req and applies the
// requested side effects to each of them
func (r *region) aggregate(req *scan.Request, plan regionPlan) int64 {
	var count int64
	for _, rw := range r.sortedRows() {
		if visible(rw, req) == nil {
			continue
		}
		count++
		plan.apply(rw, req)
		if len(rw.cells) == 0 {
			delete(r.rows, string(rw.key))
		}
	}
	return count
}

// regionPlan is the decoded form of a scan's intents
type regionPlan struct {
	aggregate    bool
	deleteAll    bool
	deleteColumn *scan.DeleteColumn
	backfill     []byte
	indexCacheID []byte
}

func newRegionPlan(intents []scan.Intent) regionPlan {
	var p regionPlan
	for _, intent := range intents {
		switch i := intent.(type) {
		case scan.UngroupedAggregate:
			p.aggregate = true
		case scan.DeleteAll:
			p.deleteAll = true
		case scan.DeleteColumn:
			dc := i
			p.deleteColumn = &dc
		case scan.BackfillEmpty:
			p.backfill = i.Family
		case scan.WithIndexMetadata:
			p.indexCacheID = i.CacheID
		}
	}
	return p
}

func (p regionPlan) mutates() bool {
	return p.deleteAll || p.deleteColumn != nil || p.backfill != nil
}

func (p regionPlan) apply(rw *row, req *scan.Request) {
	if p.deleteAll {
		rw.removeIf(func(c data.Cell) bool {
			return req.TimeRange.Contains(c.Timestamp) && req.ProjectsFamily(c.Family)
		})
	}
	if p.deleteColumn != nil {
		rw.removeIf(func(c data.Cell) bool {
			return req.TimeRange.Contains(c.Timestamp) && c.Matches(p.deleteColumn.Family, p.deleteColumn.Qualifier)
		})
	}
	if p.backfill != nil {
		rw.upsert(data.Cell{
			Family:    bytes.Clone(p.backfill),
			Qualifier: bytes.Clone(data.EmptyColumn),
			Timestamp: req.TimeRange.Max,
		})
	}
}
