package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leengari/postddl/internal/cache"
	"github.com/leengari/postddl/internal/catalog"
	"github.com/leengari/postddl/internal/config"
	"github.com/leengari/postddl/internal/httpserver"
	"github.com/leengari/postddl/internal/logging"
	"github.com/leengari/postddl/internal/network"
	"github.com/leengari/postddl/internal/storage/memstore"
)

func main() {
	catalogDir := flag.String("catalog", "", "Catalog directory to seed the region from (overrides POSTDDL_CATALOG_DIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *catalogDir != "" {
		cfg.CatalogDir = *catalogDir
	}

	logger, closeFn := logging.SetupLogger(cfg.LogLevel, cfg.SeqURL)
	defer closeFn()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Server caches must be visible to the clients shipping them
	var caches cache.Store = cache.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rs, err := cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DialTimeout: cfg.DialTimeout,
			PingTest:    true,
		})
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			closeFn()
			os.Exit(1)
		}
		defer rs.Close()
		caches = rs
	}

	store := memstore.New(memstore.WithCacheStore(caches), memstore.WithLogger(logger))

	cat, err := catalog.Load(cfg.CatalogDir, logger)
	if err != nil {
		logger.Error("failed to load catalog", "error", err)
		closeFn()
		os.Exit(1)
	}
	if err := catalog.Seed(cat, store); err != nil {
		logger.Error("failed to seed region", "error", err)
		closeFn()
		os.Exit(1)
	}

	if cfg.DebugHTTPAddr != "" {
		listener, err := net.Listen("tcp", cfg.DebugHTTPAddr)
		if err != nil {
			logger.Error("error creating tcp listener, exiting", "error", err)
			closeFn()
			os.Exit(1)
		}
		debug := httpserver.New(store, logger)
		errCh := debug.Start(listener)
		go func() {
			if err, ok := <-errCh; ok && err != nil {
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := debug.Shutdown(shutdownCtx); err != nil {
				logger.Error("debug server shutdown failed", "error", err)
			}
		}()
	}

	server := network.NewServer(store, logger)
	if err := server.ListenAndServe(ctx, cfg.RegionAddr); err != nil {
		logger.Error("region server failed", "error", err)
		closeFn()
		os.Exit(1)
	}

	logger.Info("Region server stopped")
}
