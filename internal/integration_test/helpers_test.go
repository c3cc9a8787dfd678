package integration

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"gotest.tools/v3/assert"

	"github.com/leengari/postddl/internal/cache"
	"github.com/leengari/postddl/internal/catalog"
	"github.com/leengari/postddl/internal/config"
	"github.com/leengari/postddl/internal/connection"
	"github.com/leengari/postddl/internal/domain/schema"
	"github.com/leengari/postddl/internal/network"
	"github.com/leengari/postddl/internal/postddl"
	"github.com/leengari/postddl/internal/storage/memstore"
)

const ddlTimestamp = 100

// cluster is one region server serving a seeded catalog plus a client
// connection to it
type cluster struct {
	dir     string
	catalog *catalog.Catalog
	store   *memstore.Store
	caches  *cache.MemoryStore
	server  *network.Server
	conn    *connection.Connection
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	assert.NilError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeCatalog lays out USERS (split at "m", families 0 and B) and ORDERS
// (single family, with index maintainers)
func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "meta.json"), `{"name": "shop", "version": 1}`)

	writeFile(t, filepath.Join(dir, "users", "meta.json"), `{
  "name": "USERS",
  "columns": [
    {"name": "ID", "type": "TEXT", "primary_key": true, "not_null": true},
    {"name": "NAME", "type": "TEXT", "family": "0"},
    {"name": "AGE", "type": "INT", "family": "B"}
  ],
  "split_keys": ["m"]
}`)
	writeFile(t, filepath.Join(dir, "users", "data.json"), `[
  {"key": "alice", "cells": [
    {"family": "0", "qualifier": "_0", "ts": 10},
    {"family": "0", "qualifier": "NAME", "ts": 10, "value": "Alice"},
    {"family": "B", "qualifier": "AGE", "ts": 10, "value": "30"}
  ]},
  {"key": "bob", "cells": [{"family": "0", "qualifier": "NAME", "ts": 20, "value": "Bob"}]},
  {"key": "zed", "cells": [
    {"family": "0", "qualifier": "_0", "ts": 30},
    {"family": "B", "qualifier": "AGE", "ts": 30, "value": "41"}
  ]},
  {"key": "yan", "cells": [{"family": "0", "qualifier": "NAME", "ts": 500, "value": "Yan"}]}
]`)

	maintainers := base64.StdEncoding.EncodeToString([]byte("IDX_ORDERS_TOTAL"))
	writeFile(t, filepath.Join(dir, "orders", "meta.json"), fmt.Sprintf(`{
  "name": "ORDERS",
  "columns": [
    {"name": "ID", "type": "TEXT", "primary_key": true},
    {"name": "TOTAL", "type": "BIGINT", "family": "0"}
  ],
  "index_metadata": %q
}`, maintainers))
	writeFile(t, filepath.Join(dir, "orders", "data.json"), `[
  {"key": "o1", "cells": [{"family": "0", "qualifier": "_0", "ts": 5}, {"family": "0", "qualifier": "TOTAL", "ts": 5, "value": "10"}]},
  {"key": "o2", "cells": [{"family": "0", "qualifier": "_0", "ts": 6}]}
]`)
	return dir
}

func newCluster(t *testing.T, exec *config.ExecutionConfig) *cluster {
	t.Helper()
	logger := discard()
	dir := writeCatalog(t)

	cat, err := catalog.Load(dir, logger)
	assert.NilError(t, err)

	caches := cache.NewMemoryStore()
	store := memstore.New(memstore.WithCacheStore(caches), memstore.WithLogger(logger))
	assert.NilError(t, catalog.Seed(cat, store))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NilError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	server := network.NewServer(store, logger)
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, listener) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NilError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("region server did not stop")
		}
	})

	client := network.NewClient(listener.Addr().String(),
		network.WithDialTimeout(time.Second),
		network.WithDialRetries(2),
		network.WithDialBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
		network.WithClientLogger(logger),
	)

	conn := connection.New(client,
		connection.WithCache(cache.NewClient(caches, cache.WithLogger(logger))),
		connection.WithExecutionConfig(exec),
		connection.WithLogger(logger),
	)

	return &cluster{dir: dir, catalog: cat, store: store, caches: caches, server: server, conn: conn}
}

func (c *cluster) table(t *testing.T, name string) *schema.Table {
	t.Helper()
	tbl, err := c.catalog.Table(name)
	assert.NilError(t, err)
	return tbl.Schema
}

func (c *cluster) run(t *testing.T, tables []*schema.Table, emptyCF, projectCF []byte, deleteList []schema.Column) (int64, error) {
	t.Helper()
	refs := make([]schema.TableRef, len(tables))
	for i, tbl := range tables {
		refs[i] = schema.NewTableRef(tbl)
	}

	plan, err := postddl.NewCompiler(c.conn).Compile(refs, emptyCF, projectCF, deleteList, ddlTimestamp)
	assert.NilError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, err := plan.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return state.UpdateCount(), nil
}
