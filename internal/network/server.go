package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/scan"
	"github.com/leengari/postddl/internal/storage"
)

const (
	OpScan = "scan"
	OpPing = "ping"
	OpExit = "exit"
)

// Request is one client request on the wire
type Request struct {
	Op   string        `json:"op"`
	Scan *scan.Request `json:"scan,omitempty"`
}

// Frame is one server response on the wire.
// A scan is answered by an Opened frame (or an Error frame), then one
// frame per row, then a Done or Error frame.
type Frame struct {
	Opened bool        `json:"opened,omitempty"`
	Row    *data.Tuple `json:"row,omitempty"`
	Done   bool        `json:"done,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Server serves scans of a storage backend over TCP with JSON frames
type Server struct {
	backend storage.Client
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// NewServer creates a server for backend
func NewServer(backend storage.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{backend: backend, logger: logger, conns: make(map[net.Conn]struct{})}
}

// ListenAndServe binds addr and serves until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.logger.Error("Failed to bind", "addr", addr, "error", err)
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done or Close is called
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	s.logger.Info("Region server listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.closeConnections()
				s.wg.Wait()
				return nil
			}
			s.logger.Error("Failed to accept connection", "error", err)
			continue
		}
		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.handleConnection(ctx, conn)
		}()
	}
}

// Addr returns the bound address once serving
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting connections
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
		return
	}
	delete(s.conns, conn)
}

// closeConnections unblocks handlers waiting on idle clients
func (s *Server) closeConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Use Decoder instead of Scanner for network streams
	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if err == io.EOF {
				return // Connection closed gracefully
			}
			s.logger.Error("decode error", "error", err)
			_ = encoder.Encode(Frame{Error: fmt.Sprintf("invalid request format: %v", err)})
			return
		}

		switch req.Op {
		case OpExit:
			return
		case OpPing:
			if err := encoder.Encode(Frame{Done: true}); err != nil {
				s.logger.Error("encode error", "error", err)
				return
			}
		case OpScan:
			if err := s.serveScan(ctx, encoder, req.Scan); err != nil {
				s.logger.Error("encode error", "error", err)
				return
			}
		default:
			if err := encoder.Encode(Frame{Error: fmt.Sprintf("unknown op %q", req.Op)}); err != nil {
				return
			}
		}
	}
}

// serveScan streams the result of one scan. Only encode failures are
// returned; scan failures are sent to the client.
func (s *Server) serveScan(ctx context.Context, encoder *json.Encoder, req *scan.Request) error {
	if req == nil {
		return encoder.Encode(Frame{Error: "scan request without scan"})
	}

	stream, err := s.backend.Scan(ctx, req)
	if err != nil {
		s.logger.Warn("scan failed", "table", req.Table, "error", err)
		return encoder.Encode(Frame{Error: err.Error()})
	}
	closed := false
	defer func() {
		if !closed {
			_ = stream.Close()
		}
	}()

	if err := encoder.Encode(Frame{Opened: true}); err != nil {
		return err
	}

	rows := 0
	for {
		row, err := stream.Next(ctx)
		if err != nil {
			return encoder.Encode(Frame{Error: err.Error()})
		}
		if row == nil {
			break
		}
		if err := encoder.Encode(Frame{Row: row}); err != nil {
			return err
		}
		rows++
	}

	closed = true
	if err := stream.Close(); err != nil {
		return encoder.Encode(Frame{Error: err.Error()})
	}
	s.logger.Debug("scan served", "table", req.Table, "rows", rows)
	return encoder.Encode(Frame{Done: true})
}
