package postddl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/UltimateTournament/backoff/v4"

	"github.com/leengari/postddl/internal/cache"
	"github.com/leengari/postddl/internal/config"
	"github.com/leengari/postddl/internal/connection"
	"github.com/leengari/postddl/internal/domain/schema"
	"github.com/leengari/postddl/internal/testutil"
)

// MockObserver is a test observer that records events
type MockObserver struct {
	mu     sync.Mutex
	Events []Event
}

func (m *MockObserver) OnEvent(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// Types returns the recorded event types of table (or of the plan when table is empty)
func (m *MockObserver) Types(table string) []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EventType
	for _, e := range m.Events {
		if e.Table == table {
			out = append(out, e.Type)
		}
	}
	return out
}

// countingStore counts cache deletes and can be told to fail them
type countingStore struct {
	*cache.MemoryStore
	mu        sync.Mutex
	puts      int
	deletes   int
	deleteErr error
}

func (s *countingStore) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.puts++
	s.mu.Unlock()
	return s.MemoryStore.Put(ctx, key, payload, ttl)
}

func (s *countingStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	s.deletes++
	failure := s.deleteErr
	s.mu.Unlock()
	if failure != nil {
		return failure
	}
	return s.MemoryStore.Delete(ctx, key)
}

type fixture struct {
	storage  *testutil.FakeStorage
	store    *countingStore
	conn     *connection.Connection
	observer *MockObserver
	compiler *Compiler
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	autoCommit    bool
	propagateMeta bool
}

func withAutoCommit(on bool) fixtureOption {
	return func(c *fixtureConfig) { c.autoCommit = on }
}

func withIndexMetadata() fixtureOption {
	return func(c *fixtureConfig) { c.propagateMeta = true }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	var fc fixtureConfig
	for _, opt := range opts {
		opt(&fc)
	}

	fake := testutil.NewFakeStorage()
	store := &countingStore{MemoryStore: cache.NewMemoryStore()}
	cacheClient := cache.NewClient(store,
		cache.WithMaxRetries(0),
		cache.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	)

	conn := connection.New(fake,
		connection.WithCache(cacheClient),
		connection.WithAutoCommitMode(fc.autoCommit),
		connection.WithExecutionConfig(&config.ExecutionConfig{PropagateIndexMetadata: fc.propagateMeta}),
	)

	observer := &MockObserver{}
	return &fixture{
		storage:  fake,
		store:    store,
		conn:     conn,
		observer: observer,
		compiler: NewCompiler(conn, WithObserver(observer)),
	}
}

func (f *fixture) compile(t *testing.T, tables []schema.TableRef, emptyCF, projectCF []byte, deleteList []schema.Column, ts int64) *Plan {
	t.Helper()
	mp, err := f.compiler.Compile(tables, emptyCF, projectCF, deleteList, ts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return mp.(*Plan)
}

func refs(tables ...*schema.Table) []schema.TableRef {
	out := make([]schema.TableRef, len(tables))
	for i, table := range tables {
		out[i] = schema.NewTableRef(table)
	}
	return out
}

func column(t *testing.T, table *schema.Table, name string) schema.Column {
	t.Helper()
	col, err := table.GetColumn(name)
	if err != nil {
		t.Fatalf("column %s: %v", name, err)
	}
	return col
}

var errRegion = errors.New("region server aborted")
