package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/leengari/postddl/internal/cache"
	"github.com/leengari/postddl/internal/catalog"
	"github.com/leengari/postddl/internal/config"
	"github.com/leengari/postddl/internal/connection"
	"github.com/leengari/postddl/internal/domain/schema"
	"github.com/leengari/postddl/internal/logging"
	"github.com/leengari/postddl/internal/network"
	"github.com/leengari/postddl/internal/postddl"
	"github.com/leengari/postddl/internal/storage"
	"github.com/leengari/postddl/internal/storage/memstore"
)

type options struct {
	tables       []string
	emptyCF      string
	projectCF    string
	deleteAll    bool
	deleteColumn string
	timestamp    int64
	local        bool
	persist      bool
}

func parseFlags() options {
	var o options
	tables := flag.String("table", "", "Comma separated tables to process")
	flag.StringVar(&o.emptyCF, "empty-cf", "", "Backfill the empty key value under this column family")
	flag.StringVar(&o.projectCF, "project-cf", "", "Restrict the scan to this column family")
	flag.BoolVar(&o.deleteAll, "delete-all", false, "Delete every row of the tables")
	flag.StringVar(&o.deleteColumn, "delete-column", "", "Delete the values of this column")
	flag.Int64Var(&o.timestamp, "ts", time.Now().UnixMilli(), "DDL timestamp; rows written at or after it are untouched")
	flag.BoolVar(&o.local, "local", false, "Run against an in-process region seeded from the catalog")
	flag.BoolVar(&o.persist, "persist", false, "Remove the deleted column from the catalog afterwards")
	flag.Parse()

	for _, t := range strings.Split(*tables, ",") {
		if t = strings.TrimSpace(t); t != "" {
			o.tables = append(o.tables, t)
		}
	}
	return o
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, closeFn := logging.SetupLogger(cfg.LogLevel, cfg.SeqURL)
	defer closeFn()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("post-DDL execution failed", "error", err)
		closeFn()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) error {
	if len(opts.tables) == 0 {
		return fmt.Errorf("no table given, use -table")
	}
	if opts.deleteAll && opts.deleteColumn != "" {
		return fmt.Errorf("-delete-all and -delete-column are exclusive")
	}

	cat, err := catalog.Load(cfg.CatalogDir, logger)
	if err != nil {
		return err
	}

	caches, closeCaches, err := cacheStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCaches()

	var client storage.Client
	if opts.local {
		store := memstore.New(memstore.WithCacheStore(caches), memstore.WithLogger(logger))
		if err := catalog.Seed(cat, store); err != nil {
			return err
		}
		client = store
	} else {
		client = network.NewClient(cfg.RegionAddr,
			network.WithDialTimeout(cfg.DialTimeout),
			network.WithDialRetries(uint64(cfg.MaxRetries)),
			network.WithClientLogger(logger),
		)
	}

	conn := connection.New(client,
		connection.WithCache(cache.NewClient(caches,
			cache.WithTTL(cfg.CacheTTL),
			cache.WithMaxRetries(uint64(cfg.MaxRetries)),
			cache.WithLogger(logger),
		)),
		connection.WithExecutionConfig(cfg.Execution),
		connection.WithLogger(logger),
	)

	var (
		refs       []schema.TableRef
		deleteList []schema.Column
		touched    []*catalog.Table
	)
	if opts.deleteAll {
		deleteList = []schema.Column{}
	}
	for _, name := range opts.tables {
		t, err := cat.Table(name)
		if err != nil {
			return err
		}
		refs = append(refs, schema.NewTableRef(t.Schema))
		touched = append(touched, t)

		if opts.deleteColumn != "" && deleteList == nil {
			col, err := t.Schema.GetColumn(opts.deleteColumn)
			if err != nil {
				return err
			}
			deleteList = []schema.Column{col}
		}
	}

	compiler := postddl.NewCompiler(conn, postddl.WithObserver(postddl.NewLoggingObserver(logger)))
	plan, err := compiler.Compile(refs, bytesOrNil(opts.emptyCF), bytesOrNil(opts.projectCF), deleteList, opts.timestamp)
	if err != nil {
		return err
	}

	state, err := plan.Execute(ctx)
	if err != nil {
		return err
	}

	var count int64
	if state != nil {
		count = state.UpdateCount()
	}
	logger.Info("post-DDL execution finished", "tables", len(refs), "rows", count)
	fmt.Println(count)

	if opts.persist && opts.deleteColumn != "" {
		for _, t := range touched {
			if err := catalog.DropColumn(t, opts.deleteColumn, opts.timestamp); err != nil {
				return err
			}
		}
	}
	return nil
}

func cacheStore(ctx context.Context, cfg *config.Config) (cache.Store, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryStore(), func() {}, nil
	}
	rs, err := cache.NewRedisStore(ctx, cache.RedisOptions{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DialTimeout: cfg.DialTimeout,
		PingTest:    true,
	})
	if err != nil {
		return nil, nil, err
	}
	return rs, func() { _ = rs.Close() }, nil
}

func bytesOrNil(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}
