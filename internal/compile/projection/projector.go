package projection

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/domain/schema"
	"github.com/leengari/postddl/internal/expression"
)

// ColumnProjector produces one output column from a returned row
type ColumnProjector struct {
	Name       string
	TableName  string
	Expression expression.Expression
}

// Value evaluates the projector against row and decodes the result as
// targetType. A missing value decodes to nil.
func (p *ColumnProjector) Value(row *data.Tuple, targetType schema.ColumnType, ptr *data.Ptr) (interface{}, error) {
	if !p.Expression.Evaluate(row, ptr) {
		return nil, nil
	}
	v, err := decodeValue(ptr.Get(), p.Expression.DataType(), targetType)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", p.Name, err)
	}
	return v, nil
}

// RowProjector is the ordered list of column projectors of a statement
type RowProjector struct {
	columns              []*ColumnProjector
	projectEmptyKeyValue bool
}

// NewRowProjector creates a projector. projectEmptyKeyValue records that
// the empty key value column was added to the scan to keep rows visible.
func NewRowProjector(columns []*ColumnProjector, projectEmptyKeyValue bool) *RowProjector {
	return &RowProjector{columns: columns, projectEmptyKeyValue: projectEmptyKeyValue}
}

// WithEmptyKeyValue re-derives the projector with the empty key value
// projection switched on or off. The column projectors are shared.
func (p *RowProjector) WithEmptyKeyValue(on bool) *RowProjector {
	return &RowProjector{columns: p.columns, projectEmptyKeyValue: on}
}

func (p *RowProjector) ColumnProjector(i int) *ColumnProjector { return p.columns[i] }
func (p *RowProjector) ColumnCount() int                       { return len(p.columns) }
func (p *RowProjector) ProjectsEmptyKeyValue() bool            { return p.projectEmptyKeyValue }

// Project evaluates every column projector against row
func (p *RowProjector) Project(row *data.Tuple, ptr *data.Ptr) ([]interface{}, error) {
	out := make([]interface{}, len(p.columns))
	for i, col := range p.columns {
		v, err := col.Value(row, col.Expression.DataType(), ptr)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// decodeValue converts the stored bytes of sourceType into a Go value of targetType
func decodeValue(b []byte, sourceType, targetType schema.ColumnType) (interface{}, error) {
	switch sourceType {
	case schema.ColumnTypeBigInt, schema.ColumnTypeInt:
		n, err := data.DecodeLong(b)
		if err != nil {
			return nil, err
		}
		return convertLong(n, targetType)

	case schema.ColumnTypeFloat:
		if len(b) != data.LongSize {
			return nil, fmt.Errorf("expected %d bytes for FLOAT, got %d", data.LongSize, len(b))
		}
		f := math.Float64frombits(binary.BigEndian.Uint64(b))
		if targetType != schema.ColumnTypeFloat {
			return nil, fmt.Errorf("cannot convert FLOAT to %s", targetType)
		}
		return f, nil

	case schema.ColumnTypeBool:
		if targetType != schema.ColumnTypeBool {
			return nil, fmt.Errorf("cannot convert BOOL to %s", targetType)
		}
		return len(b) == 1 && b[0] != 0, nil

	default:
		// TEXT, VARCHAR, DATE and TIME are stored as their string form
		if targetType != sourceType && targetType != schema.ColumnTypeText {
			return nil, fmt.Errorf("cannot convert %s to %s", sourceType, targetType)
		}
		return string(b), nil
	}
}

func convertLong(n int64, targetType schema.ColumnType) (interface{}, error) {
	switch targetType {
	case schema.ColumnTypeBigInt:
		return n, nil
	case schema.ColumnTypeInt:
		if n > math.MaxInt32 || n < math.MinInt32 {
			return nil, fmt.Errorf("value %d overflows INT", n)
		}
		return int32(n), nil
	case schema.ColumnTypeFloat:
		return float64(n), nil
	case schema.ColumnTypeText:
		return fmt.Sprint(n), nil
	default:
		return nil, fmt.Errorf("cannot convert BIGINT to %s", targetType)
	}
}
