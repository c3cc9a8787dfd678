package execute

import (
	"context"
	"fmt"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/domain/errors"
	"github.com/leengari/postddl/internal/storage"
)

// ResultIterator is a lazy, single use sequence of result rows.
// Next returns nil, nil once exhausted. Close must always be called.
type ResultIterator interface {
	Next(ctx context.Context) (*data.Tuple, error)
	Close() error
}

// ungroupedAggregateIterator folds the partial count rows returned by
// every region into exactly one row
type ungroupedAggregateIterator struct {
	table  string
	stream storage.ResultStream

	done   bool
	closed bool
}

func newUngroupedAggregateIterator(table string, stream storage.ResultStream) *ungroupedAggregateIterator {
	return &ungroupedAggregateIterator{table: table, stream: stream}
}

func (it *ungroupedAggregateIterator) Next(ctx context.Context) (*data.Tuple, error) {
	if it.done {
		return nil, nil
	}
	if it.closed {
		return nil, fmt.Errorf("iterator for table %s is closed", it.table)
	}
	it.done = true

	var total int64
	for {
		row, err := it.stream.Next(ctx)
		if err != nil {
			return nil, errors.NewStorageError(it.table, errors.PhaseFetch, err)
		}
		if row == nil {
			break
		}
		v, ok := row.GetValue(data.SingleColumnFamily, data.SingleColumn)
		if !ok {
			return nil, errors.NewStorageError(it.table, errors.PhaseFetch,
				fmt.Errorf("partial row %q without count", row.Key))
		}
		n, err := data.DecodeLong(v)
		if err != nil {
			return nil, errors.NewStorageError(it.table, errors.PhaseFetch, err)
		}
		total += n
	}

	return data.NewTuple(nil, data.Cell{
		Family:    data.SingleColumnFamily,
		Qualifier: data.SingleColumn,
		Value:     data.EncodeLong(total),
	}), nil
}

func (it *ungroupedAggregateIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	if err := it.stream.Close(); err != nil {
		return errors.NewStorageError(it.table, errors.PhaseClose, err)
	}
	return nil
}

// emptyAggregateIterator is the iterator of a plan that can never match:
// it yields a single zero count without contacting the storage tier
type emptyAggregateIterator struct {
	done bool
}

func (it *emptyAggregateIterator) Next(ctx context.Context) (*data.Tuple, error) {
	if it.done {
		return nil, nil
	}
	it.done = true
	return data.NewTuple(nil, data.Cell{
		Family:    data.SingleColumnFamily,
		Qualifier: data.SingleColumn,
		Value:     data.EncodeLong(0),
	}), nil
}

func (it *emptyAggregateIterator) Close() error { return nil }
