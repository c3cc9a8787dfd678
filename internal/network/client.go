package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/UltimateTournament/backoff/v4"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/scan"
	"github.com/leengari/postddl/internal/storage"
)

// RemoteError is a failure reported by the region server
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "region server: " + e.Message
}

// Client is a storage.Client talking to a region server.
// Every scan runs on its own connection.
type Client struct {
	addr        string
	dialTimeout time.Duration
	maxRetries  uint64
	newBackOff  func() backoff.BackOff
	logger      *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithDialTimeout bounds each connection attempt
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.dialTimeout = d }
}

// WithDialRetries sets how often a failed dial is retried
func WithDialRetries(n uint64) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// WithDialBackOff replaces the exponential backoff between dial attempts
func WithDialBackOff(newBackOff func() backoff.BackOff) ClientOption {
	return func(c *Client) { c.newBackOff = newBackOff }
}

// WithClientLogger sets the client logger
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the region server at addr
func NewClient(addr string, opts ...ClientOption) *Client {
	c := &Client{
		addr:        addr,
		dialTimeout: 3 * time.Second,
		maxRetries:  3,
		newBackOff:  func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping checks that the region server answers
func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	setDeadline(ctx, conn)
	if err := json.NewEncoder(conn).Encode(Request{Op: OpPing}); err != nil {
		return err
	}
	var frame Frame
	if err := json.NewDecoder(conn).Decode(&frame); err != nil {
		return err
	}
	if frame.Error != "" {
		return &RemoteError{Message: frame.Error}
	}
	return nil
}

// Scan sends req and returns a stream decoding the rows lazily
func (c *Client) Scan(ctx context.Context, req *scan.Request) (storage.ResultStream, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	setDeadline(ctx, conn)
	decoder := json.NewDecoder(conn)
	if err := json.NewEncoder(conn).Encode(Request{Op: OpScan, Scan: req}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send scan of table %s: %w", req.Table, err)
	}

	var frame Frame
	if err := decodeFrame(ctx, conn, decoder, &frame); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open scan of table %s: %w", req.Table, err)
	}
	if frame.Error != "" {
		conn.Close()
		return nil, &RemoteError{Message: frame.Error}
	}
	if !frame.Opened {
		conn.Close()
		return nil, fmt.Errorf("open scan of table %s: unexpected frame", req.Table)
	}

	return &remoteStream{conn: conn, decoder: decoder}, nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: c.dialTimeout}

	var conn net.Conn
	operation := func() error {
		var err error
		conn, err = dialer.DialContext(ctx, "tcp", c.addr)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("dial failed, retrying", "addr", c.addr, "wait", wait, "error", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, fmt.Errorf("dial region server %s: %w", c.addr, err)
	}
	return conn, nil
}

func setDeadline(ctx context.Context, conn net.Conn) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
}

// decodeFrame reads one frame. Cancelling ctx unblocks a pending read by
// expiring the connection deadline; the cancellation is then returned.
func decodeFrame(ctx context.Context, conn net.Conn, decoder *json.Decoder, frame *Frame) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	err := decoder.Decode(frame)
	if !stop() {
		return ctx.Err()
	}
	return err
}

// remoteStream decodes row frames as they are requested
type remoteStream struct {
	conn    net.Conn
	decoder *json.Decoder
	done    bool
	closed  bool
}

func (s *remoteStream) Next(ctx context.Context) (*data.Tuple, error) {
	if s.done {
		return nil, nil
	}
	if s.closed {
		return nil, errors.New("stream is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	setDeadline(ctx, s.conn)

	var frame Frame
	if err := decodeFrame(ctx, s.conn, s.decoder, &frame); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	switch {
	case frame.Error != "":
		s.done = true
		return nil, &RemoteError{Message: frame.Error}
	case frame.Done:
		s.done = true
		return nil, nil
	case frame.Row != nil:
		return frame.Row, nil
	default:
		return nil, errors.New("read frame: empty frame")
	}
}

func (s *remoteStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
