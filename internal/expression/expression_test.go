package expression

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/domain/schema"
)

func TestCountAggregate_ReadsAggregateCell(t *testing.T) {
	var ptr data.Ptr
	count := &CountAggregate{Arg: NewLongLiteral(1)}

	row := data.NewTuple(nil, data.Cell{
		Family:    data.SingleColumnFamily,
		Qualifier: data.SingleColumn,
		Value:     data.EncodeLong(42),
	})

	assert.Assert(t, count.Evaluate(row, &ptr))
	v, err := data.DecodeLong(ptr.Get())
	assert.NilError(t, err)
	assert.Equal(t, v, int64(42))
	assert.Equal(t, count.DataType(), schema.ColumnTypeBigInt)
	assert.Equal(t, count.String(), "COUNT(1)")
}

func TestCountAggregate_MissingCell(t *testing.T) {
	var ptr data.Ptr
	ptr.Set([]byte("stale"))

	count := &CountAggregate{}
	assert.Assert(t, !count.Evaluate(data.NewTuple([]byte("k")), &ptr))
	assert.Equal(t, ptr.Len(), 0)
	assert.Equal(t, count.String(), "COUNT(*)")
}

func TestKeyValueColumn_NewestVersion(t *testing.T) {
	var ptr data.Ptr
	col := NewKeyValueColumn(schema.Column{Name: "V", Family: "0", Type: schema.ColumnTypeText})

	row := data.NewTuple([]byte("r1"),
		data.Cell{Family: []byte("0"), Qualifier: []byte("V"), Timestamp: 1, Value: []byte("old")},
		data.Cell{Family: []byte("0"), Qualifier: []byte("V"), Timestamp: 5, Value: []byte("new")},
	)

	assert.Assert(t, col.Evaluate(row, &ptr))
	assert.Equal(t, string(ptr.Get()), "new")
	assert.Equal(t, col.String(), "0.V")
}
