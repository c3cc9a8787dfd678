package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/google/uuid"
)

const (
	DefaultTTL        = 30 * time.Second
	DefaultMaxRetries = 3
)

// Client distributes server caches to the storage tier
type Client struct {
	store      Store
	ttl        time.Duration
	maxRetries uint64
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTTL bounds how long a blob outlives a client that never released it
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// WithMaxRetries sets how often a failed release is retried
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBackOff replaces the exponential backoff used between release attempts
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = newBackOff }
}

// WithLogger sets the logger used for cache lifecycle messages
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a server cache client backed by store
func NewClient(store Store, opts ...Option) *Client {
	c := &Client{
		store:      store,
		ttl:        DefaultTTL,
		maxRetries: DefaultMaxRetries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the backing store
func (c *Client) Store() Store {
	return c.store
}

// AddServerCache stores payload under a fresh id for table
func (c *Client) AddServerCache(ctx context.Context, table string, payload []byte) (*ServerCache, error) {
	id := uuid.New()
	key := Key(id[:])

	if err := c.store.Put(ctx, key, payload, c.ttl); err != nil {
		return nil, fmt.Errorf("failed to add server cache for table %s: %w", table, err)
	}

	c.logger.Debug("server cache added", "table", table, "cache_id", id.String(), "bytes", len(payload))

	return &ServerCache{
		id:     id[:],
		table:  table,
		client: c,
	}, nil
}

// ServerCache is a blob held by the storage tier on behalf of one plan.
// It must be closed once the plan no longer needs it.
type ServerCache struct {
	id     []byte
	table  string
	client *Client

	once sync.Once
	err  error
}

// ID returns the id scans refer to the cache by
func (sc *ServerCache) ID() []byte {
	return sc.id
}

// Table returns the table the cache was created for
func (sc *ServerCache) Table() string {
	return sc.table
}

// Close removes the blob from the store. Only the first call does any work;
// later calls return the first call's result.
func (sc *ServerCache) Close(ctx context.Context) error {
	sc.once.Do(func() {
		sc.err = sc.client.remove(ctx, sc)
	})
	return sc.err
}

func (c *Client) remove(ctx context.Context, sc *ServerCache) error {
	key := Key(sc.id)

	operation := func() error {
		err := c.store.Delete(ctx, key)
		if errors.Is(err, ErrNotFound) {
			// expired or already removed by the store
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		c.logger.Warn("failed to remove server cache", "table", sc.table, "key", key, "error", err)
		return fmt.Errorf("failed to remove server cache %s: %w", key, err)
	}

	c.logger.Debug("server cache removed", "table", sc.table, "key", key)
	return nil
}
