package network

import (
	"context"
	stderrors "errors"
	"net"
	"testing"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"gotest.tools/v3/assert"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/scan"
	"github.com/leengari/postddl/internal/storage"
	"github.com/leengari/postddl/internal/storage/memstore"
)

func noWait() backoff.BackOff { return &backoff.ZeroBackOff{} }

func startServer(t *testing.T, backend storage.Client) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NilError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	server := NewServer(backend, nil)
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, listener) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NilError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return listener.Addr().String()
}

func newBackend(t *testing.T) *memstore.Store {
	t.Helper()
	store := memstore.New()
	assert.NilError(t, store.CreateTable("T1", []byte("m")))
	for _, key := range []string{"a", "b", "x"} {
		assert.NilError(t, store.Put("T1", []byte(key), data.Cell{
			Family: []byte("0"), Qualifier: data.EmptyColumn, Timestamp: 1,
		}))
	}
	return store
}

func collect(t *testing.T, stream storage.ResultStream) []*data.Tuple {
	t.Helper()
	var rows []*data.Tuple
	for {
		row, err := stream.Next(context.Background())
		assert.NilError(t, err)
		if row == nil {
			return rows
		}
		rows = append(rows, row)
	}
}

func TestClient_AggregateScanRoundTrip(t *testing.T) {
	addr := startServer(t, newBackend(t))
	client := NewClient(addr, WithDialBackOff(noWait))

	spec := scan.New()
	spec.AddIntent(scan.UngroupedAggregate{})
	spec.AddFamily([]byte("0"))
	spec.SetTimeRange(10)

	stream, err := client.Scan(context.Background(), spec.Request("T1"))
	assert.NilError(t, err)
	rows := collect(t, stream)
	assert.NilError(t, stream.Close())

	assert.Equal(t, len(rows), 2)
	var total int64
	for _, row := range rows {
		v, ok := row.GetValue(data.SingleColumnFamily, data.SingleColumn)
		assert.Assert(t, ok)
		n, err := data.DecodeLong(v)
		assert.NilError(t, err)
		total += n
	}
	assert.Equal(t, total, int64(3))

	// exhausted streams keep returning nil
	row, err := stream.Next(context.Background())
	assert.NilError(t, err)
	assert.Assert(t, row == nil)
}

func TestClient_PlainScanRoundTrip(t *testing.T) {
	addr := startServer(t, newBackend(t))
	client := NewClient(addr, WithDialBackOff(noWait))

	stream, err := client.Scan(context.Background(), scan.New().Request("T1"))
	assert.NilError(t, err)
	defer stream.Close()

	rows := collect(t, stream)
	assert.Equal(t, len(rows), 3)
	assert.Equal(t, string(rows[2].Key), "x")
	_, ok := rows[2].GetValue([]byte("0"), data.EmptyColumn)
	assert.Assert(t, ok)
}

func TestClient_OpenFailureIsReported(t *testing.T) {
	addr := startServer(t, newBackend(t))
	client := NewClient(addr, WithDialBackOff(noWait))

	_, err := client.Scan(context.Background(), scan.New().Request("MISSING"))

	var remote *RemoteError
	assert.Assert(t, stderrors.As(err, &remote))
	assert.ErrorContains(t, err, "table MISSING not found")
}

func TestClient_Ping(t *testing.T) {
	addr := startServer(t, newBackend(t))
	assert.NilError(t, NewClient(addr).Ping(context.Background()))
}

func TestClient_DialGivesUp(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NilError(t, err)
	addr := listener.Addr().String()
	assert.NilError(t, listener.Close())

	client := NewClient(addr, WithDialRetries(1), WithDialBackOff(noWait), WithDialTimeout(time.Second))
	_, err = client.Scan(context.Background(), scan.New().Request("T1"))
	assert.ErrorContains(t, err, "dial region server")
}

// stallingBackend opens scans whose rows never arrive
type stallingBackend struct{}

func (stallingBackend) Scan(ctx context.Context, req *scan.Request) (storage.ResultStream, error) {
	return stallingStream{}, nil
}

type stallingStream struct{}

func (stallingStream) Next(ctx context.Context) (*data.Tuple, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stallingStream) Close() error { return nil }

func TestClient_NextHonoursCancellation(t *testing.T) {
	addr := startServer(t, stallingBackend{})
	client := NewClient(addr, WithDialBackOff(noWait))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := client.Scan(ctx, &scan.Request{Table: "T1"})
	assert.NilError(t, err)
	defer stream.Close()

	result := make(chan error, 1)
	go func() {
		_, err := stream.Next(ctx)
		result <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after cancellation")
	}
}
