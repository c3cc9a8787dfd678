package testutil

import (
	"context"
	"sync"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/scan"
	"github.com/leengari/postddl/internal/storage"
)

// CountRow builds the partial aggregate row a region returns for n matched rows
func CountRow(n int64) *data.Tuple {
	return data.NewTuple(nil, data.Cell{
		Family:    data.SingleColumnFamily,
		Qualifier: data.SingleColumn,
		Value:     data.EncodeLong(n),
	})
}

// TableBehavior configures how FakeStorage answers scans of one table
type TableBehavior struct {
	// Partials are the per region counts returned by the scan
	Partials []int64
	// Rows are served as is after the partials
	Rows     []*data.Tuple
	OpenErr  error
	NextErr  error
	CloseErr error
	// NextFunc runs on every Next; a non-nil error is returned from it
	NextFunc func(ctx context.Context) error
}

// FakeStorage is a storage.Client that records every request and answers
// from per table behaviors. Tables without a behavior return no rows.
type FakeStorage struct {
	mu        sync.Mutex
	behaviors map[string]TableBehavior
	requests  []*scan.Request
	streams   []*FakeStream
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{behaviors: make(map[string]TableBehavior)}
}

// On sets the behavior for table and returns the fake for chaining
func (f *FakeStorage) On(table string, b TableBehavior) *FakeStorage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.behaviors[table] = b
	return f
}

func (f *FakeStorage) Scan(ctx context.Context, req *scan.Request) (storage.ResultStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	b := f.behaviors[req.Table]
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}

	rows := make([]*data.Tuple, 0, len(b.Partials))
	for _, n := range b.Partials {
		rows = append(rows, CountRow(n))
	}
	rows = append(rows, b.Rows...)
	stream := &FakeStream{table: req.Table, rows: rows, nextErr: b.NextErr, closeErr: b.CloseErr, nextFunc: b.NextFunc}
	f.streams = append(f.streams, stream)
	return stream, nil
}

// Requests returns every scan received so far, in order
func (f *FakeStorage) Requests() []*scan.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*scan.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// Streams returns every stream opened so far, in order
func (f *FakeStorage) Streams() []*FakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeStream, len(f.streams))
	copy(out, f.streams)
	return out
}

// FakeStream serves canned rows and counts how often it was closed
type FakeStream struct {
	table    string
	rows     []*data.Tuple
	pos      int
	nextErr  error
	closeErr error
	nextFunc func(ctx context.Context) error
	closes   int
}

func (s *FakeStream) Next(ctx context.Context) (*data.Tuple, error) {
	if s.nextFunc != nil {
		if err := s.nextFunc(ctx); err != nil {
			return nil, err
		}
	}
	if s.nextErr != nil {
		return nil, s.nextErr
	}
	if s.pos >= len(s.rows) {
		return nil, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

func (s *FakeStream) Close() error {
	s.closes++
	return s.closeErr
}

// Table returns the table the stream was opened for
func (s *FakeStream) Table() string { return s.table }

// Closes returns how many times Close was called
func (s *FakeStream) Closes() int { return s.closes }
