package connection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leengari/postddl/internal/cache"
	"github.com/leengari/postddl/internal/config"
	"github.com/leengari/postddl/internal/storage"
)

// Connection is the client session post-DDL plans execute on.
// It owns the auto-commit mode and the handles to the storage tier and
// the server cache.
type Connection struct {
	ID        string
	StartTime time.Time

	mu         sync.Mutex
	autoCommit bool

	storage storage.Client
	cache   *cache.Client
	config  *config.ExecutionConfig
	logger  *slog.Logger
}

// Option configures a Connection
type Option func(*Connection)

// WithCache sets the server cache client used for index metadata
func WithCache(c *cache.Client) Option {
	return func(conn *Connection) { conn.cache = c }
}

// WithExecutionConfig overrides DefaultExecutionConfig
func WithExecutionConfig(cfg *config.ExecutionConfig) Option {
	return func(conn *Connection) { conn.config = cfg }
}

// WithLogger sets the connection logger
func WithLogger(logger *slog.Logger) Option {
	return func(conn *Connection) { conn.logger = logger }
}

// WithAutoCommitMode sets the initial auto-commit mode (off by default)
func WithAutoCommitMode(on bool) Option {
	return func(conn *Connection) { conn.autoCommit = on }
}

// New opens a connection over the storage client
func New(client storage.Client, opts ...Option) *Connection {
	conn := &Connection{
		ID:        uuid.New().String(),
		StartTime: time.Now(),
		storage:   client,
		config:    config.DefaultExecutionConfig(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(conn)
	}
	if conn.cache == nil {
		conn.cache = cache.NewClient(cache.NewMemoryStore(), cache.WithLogger(conn.logger))
	}
	conn.logger = conn.logger.With("conn_id", conn.ID)
	return conn
}

// AutoCommit returns the current auto-commit mode
func (c *Connection) AutoCommit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoCommit
}

// SetAutoCommit changes the auto-commit mode
func (c *Connection) SetAutoCommit(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoCommit = on
}

// WithAutoCommit runs fn with auto-commit set to on and restores the
// previous mode afterwards, also when fn fails or panics
func (c *Connection) WithAutoCommit(on bool, fn func() error) error {
	previous := c.AutoCommit()
	c.SetAutoCommit(on)
	defer c.SetAutoCommit(previous)

	c.logger.Debug("auto-commit scoped", "mode", on, "previous", previous)
	return fn()
}

func (c *Connection) Storage() storage.Client         { return c.storage }
func (c *Connection) Cache() *cache.Client            { return c.cache }
func (c *Connection) Config() *config.ExecutionConfig { return c.config }
func (c *Connection) Logger() *slog.Logger            { return c.logger }
