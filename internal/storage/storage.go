package storage

import (
	"context"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/scan"
)

// ResultStream is a lazy, single use sequence of rows returned by a scan.
// Next returns nil, nil once the stream is exhausted. Close must always be
// called, even after a failed Next.
type ResultStream interface {
	Next(ctx context.Context) (*data.Tuple, error)
	Close() error
}

// Client executes scans against the storage tier
type Client interface {
	Scan(ctx context.Context, req *scan.Request) (ResultStream, error)
}

// SliceStream serves rows that are already materialized
type SliceStream struct {
	rows   []*data.Tuple
	pos    int
	closed bool
}

// NewSliceStream creates a stream over rows
func NewSliceStream(rows []*data.Tuple) *SliceStream {
	return &SliceStream{rows: rows}
}

func (s *SliceStream) Next(ctx context.Context) (*data.Tuple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed || s.pos >= len(s.rows) {
		return nil, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}
