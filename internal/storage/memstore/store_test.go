package memstore

import (
	"context"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/leengari/postddl/internal/cache"
	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/scan"
	"github.com/leengari/postddl/internal/storage"
)

func cell(family, qualifier string, ts int64, value string) data.Cell {
	return data.Cell{Family: []byte(family), Qualifier: []byte(qualifier), Timestamp: ts, Value: []byte(value)}
}

// newUsers creates USERS split into regions [-, "m") and ["m", -)
func newUsers(t *testing.T) *Store {
	t.Helper()
	s := New()
	assert.NilError(t, s.CreateTable("USERS", []byte("m")))

	assert.NilError(t, s.Put("USERS", []byte("alice"),
		cell("0", "_0", 10, ""), cell("0", "NAME", 10, "Alice"), cell("B", "AGE", 10, "30")))
	assert.NilError(t, s.Put("USERS", []byte("bob"),
		cell("0", "NAME", 20, "Bob")))
	assert.NilError(t, s.Put("USERS", []byte("zed"),
		cell("0", "_0", 30, ""), cell("B", "AGE", 30, "41")))
	// written after the DDL timestamp used by the tests
	assert.NilError(t, s.Put("USERS", []byte("yan"),
		cell("0", "NAME", 500, "Yan")))
	return s
}

func aggregate(families ...string) *scan.Spec {
	s := scan.New()
	s.AddIntent(scan.UngroupedAggregate{})
	s.SetTimeRange(100)
	for _, f := range families {
		s.AddFamily([]byte(f))
	}
	return s
}

func drain(t *testing.T, stream storage.ResultStream) []*data.Tuple {
	t.Helper()
	var rows []*data.Tuple
	for {
		row, err := stream.Next(context.Background())
		assert.NilError(t, err)
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	assert.NilError(t, stream.Close())
	return rows
}

func counts(t *testing.T, rows []*data.Tuple) []int64 {
	t.Helper()
	out := make([]int64, len(rows))
	for i, r := range rows {
		v, ok := r.GetValue(data.SingleColumnFamily, data.SingleColumn)
		assert.Assert(t, ok)
		n, err := data.DecodeLong(v)
		assert.NilError(t, err)
		out[i] = n
	}
	return out
}

func TestScan_CountsPerRegion(t *testing.T) {
	s := newUsers(t)

	stream, err := s.Scan(context.Background(), aggregate("0", "B").Request("USERS"))
	assert.NilError(t, err)

	// yan is invisible at timestamp 100
	assert.DeepEqual(t, counts(t, drain(t, stream)), []int64{2, 1})
}

func TestScan_ProjectionLimitsMatches(t *testing.T) {
	s := newUsers(t)

	spec := aggregate()
	spec.AddColumn([]byte("B"), []byte("AGE"))
	stream, err := s.Scan(context.Background(), spec.Request("USERS"))
	assert.NilError(t, err)

	assert.DeepEqual(t, counts(t, drain(t, stream)), []int64{1, 1})
}

func TestScan_BackfillEmpty(t *testing.T) {
	s := newUsers(t)
	spec := aggregate("0", "B")
	spec.AddIntent(scan.BackfillEmpty{Family: []byte("0")})

	stream, err := s.Scan(context.Background(), spec.Request("USERS"))
	assert.NilError(t, err)
	assert.DeepEqual(t, counts(t, drain(t, stream)), []int64{2, 1})

	// the marker is written at the upper bound of the time range
	row, err := s.Get("USERS", []byte("bob"), scan.TimeRange{Min: 100, Max: 101})
	assert.NilError(t, err)
	_, ok := row.GetValue([]byte("0"), data.EmptyColumn)
	assert.Assert(t, ok)

	// rows outside the time range are left alone
	row, err = s.Get("USERS", []byte("yan"), scan.AllTime)
	assert.NilError(t, err)
	_, ok = row.GetValue([]byte("0"), data.EmptyColumn)
	assert.Assert(t, !ok)
}

func TestScan_DeleteAll(t *testing.T) {
	s := newUsers(t)
	spec := aggregate("0", "B")
	spec.AddIntent(scan.DeleteAll{})

	stream, err := s.Scan(context.Background(), spec.Request("USERS"))
	assert.NilError(t, err)
	assert.DeepEqual(t, counts(t, drain(t, stream)), []int64{2, 1})

	stats, err := s.Stats("USERS")
	assert.NilError(t, err)
	// only yan, written after the timestamp, survives
	assert.Equal(t, stats.Rows, 1)
	assert.Equal(t, stats.Cells, 1)
	assert.Equal(t, stats.Regions, 2)
}

func TestScan_DeleteColumn(t *testing.T) {
	s := newUsers(t)
	spec := aggregate()
	spec.AddColumn([]byte("B"), []byte("AGE"))
	spec.AddIntent(scan.DeleteColumn{Family: []byte("B"), Qualifier: []byte("AGE")})

	stream, err := s.Scan(context.Background(), spec.Request("USERS"))
	assert.NilError(t, err)
	assert.DeepEqual(t, counts(t, drain(t, stream)), []int64{1, 1})

	for _, key := range []string{"alice", "zed"} {
		row, err := s.Get("USERS", []byte(key), scan.AllTime)
		assert.NilError(t, err)
		_, ok := row.GetValue([]byte("B"), []byte("AGE"))
		assert.Assert(t, !ok, key)
		_, ok = row.GetValue([]byte("0"), data.EmptyColumn)
		assert.Assert(t, ok, key)
	}

	// a second pass finds nothing left to delete
	stream, err = s.Scan(context.Background(), spec.Request("USERS"))
	assert.NilError(t, err)
	assert.DeepEqual(t, counts(t, drain(t, stream)), []int64{0, 0})
}

func TestScan_Filters(t *testing.T) {
	s := newUsers(t)
	spec := aggregate("0", "B")
	spec.AddFilter(scan.Filter{Kind: scan.FilterColumnMissing, Family: []byte("B"), Qualifier: []byte("AGE")})

	stream, err := s.Scan(context.Background(), spec.Request("USERS"))
	assert.NilError(t, err)
	assert.DeepEqual(t, counts(t, drain(t, stream)), []int64{1, 0})
}

func TestScan_PlainScanReturnsVisibleCells(t *testing.T) {
	s := newUsers(t)
	spec := scan.New()
	spec.SetTimeRange(100)
	spec.AddColumn([]byte("0"), []byte("NAME"))

	stream, err := s.Scan(context.Background(), spec.Request("USERS"))
	assert.NilError(t, err)
	rows := drain(t, stream)

	assert.Equal(t, len(rows), 2)
	assert.Equal(t, string(rows[0].Key), "alice")
	assert.Equal(t, string(rows[1].Key), "bob")
	assert.Equal(t, rows[0].Size(), 1)
}

func TestScan_IndexMetadataCache(t *testing.T) {
	ctx := context.Background()
	caches := cache.NewMemoryStore()
	s := New(WithCacheStore(caches))
	assert.NilError(t, s.CreateTable("T1"))

	id := make([]byte, 16)
	id[15] = 7
	spec := aggregate("0")
	spec.AddIntent(scan.DeleteAll{})
	spec.AddIntent(scan.WithIndexMetadata{CacheID: id})

	_, err := s.Scan(ctx, spec.Request("T1"))
	assert.ErrorIs(t, err, cache.ErrNotFound)

	assert.NilError(t, caches.Put(ctx, cache.Key(id), []byte("maintainers"), time.Minute))
	stream, err := s.Scan(ctx, spec.Request("T1"))
	assert.NilError(t, err)
	assert.DeepEqual(t, counts(t, drain(t, stream)), []int64{0})
}

func TestScan_Failures(t *testing.T) {
	s := newUsers(t)

	t.Run("unknown table", func(t *testing.T) {
		_, err := s.Scan(context.Background(), aggregate().Request("MISSING"))
		assert.ErrorContains(t, err, "table MISSING not found")
	})

	t.Run("mutation without aggregation", func(t *testing.T) {
		spec := scan.New()
		spec.AddIntent(scan.DeleteAll{})
		_, err := s.Scan(context.Background(), spec.Request("USERS"))
		assert.ErrorContains(t, err, "requests mutations")
	})

	t.Run("malformed attributes", func(t *testing.T) {
		req := aggregate().Request("USERS")
		req.Attributes[scan.AttrDeleteCF] = []byte("B")
		_, err := s.Scan(context.Background(), req)
		assert.ErrorContains(t, err, "must be set together")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Scan(ctx, aggregate().Request("USERS"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCreateTable(t *testing.T) {
	s := New()
	assert.NilError(t, s.CreateTable("T1", []byte("k"), []byte("c")))
	assert.ErrorContains(t, s.CreateTable("T1"), "already exists")
	assert.ErrorContains(t, s.CreateTable("T2", []byte("a"), []byte("a")), "duplicate split key")
	assert.DeepEqual(t, s.Tables(), []string{"T1"})

	assert.NilError(t, s.Put("T1", []byte("d"), cell("0", "_0", 1, "")))
	stats, err := s.Stats("T1")
	assert.NilError(t, err)
	assert.Equal(t, stats.Regions, 3)

	assert.NilError(t, s.DropTable("T1"))
	assert.Assert(t, !s.HasTable("T1"))
}

func TestStore_ImplementsStorageClient(t *testing.T) {
	var _ storage.Client = New()
}
