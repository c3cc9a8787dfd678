package expression

import (
	"fmt"

	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/domain/schema"
)

// Expression is evaluated against one row returned by the storage tier.
// Evaluate points ptr at the value and reports whether one was found;
// ptr must not be retained past the next call.
type Expression interface {
	Evaluate(row *data.Tuple, ptr *data.Ptr) bool
	DataType() schema.ColumnType
	String() string
}

// Literal evaluates to a constant
type Literal struct {
	Value []byte
	Type  schema.ColumnType
	Text  string
}

// NewLongLiteral creates a BIGINT literal
func NewLongLiteral(v int64) *Literal {
	return &Literal{Value: data.EncodeLong(v), Type: schema.ColumnTypeBigInt, Text: fmt.Sprint(v)}
}

func (l *Literal) Evaluate(row *data.Tuple, ptr *data.Ptr) bool {
	ptr.Set(l.Value)
	return true
}

func (l *Literal) DataType() schema.ColumnType { return l.Type }
func (l *Literal) String() string              { return l.Text }

// KeyValueColumn reads the newest visible cell of one column
type KeyValueColumn struct {
	Family    []byte
	Qualifier []byte
	Type      schema.ColumnType
}

// NewKeyValueColumn creates the expression reading col
func NewKeyValueColumn(col schema.Column) *KeyValueColumn {
	return &KeyValueColumn{Family: col.FamilyBytes(), Qualifier: col.NameBytes(), Type: col.Type}
}

func (c *KeyValueColumn) Evaluate(row *data.Tuple, ptr *data.Ptr) bool {
	v, ok := row.GetValue(c.Family, c.Qualifier)
	if !ok {
		ptr.Reset()
		return false
	}
	ptr.Set(v)
	return true
}

func (c *KeyValueColumn) DataType() schema.ColumnType { return c.Type }
func (c *KeyValueColumn) String() string              { return fmt.Sprintf("%s.%s", c.Family, c.Qualifier) }

// CountAggregate is COUNT(arg). Regions compute the count; client side the
// expression reads the summed result out of the single aggregate cell.
type CountAggregate struct {
	Arg Expression
}

func (c *CountAggregate) Evaluate(row *data.Tuple, ptr *data.Ptr) bool {
	v, ok := row.GetValue(data.SingleColumnFamily, data.SingleColumn)
	if !ok {
		ptr.Reset()
		return false
	}
	ptr.Set(v)
	return true
}

func (c *CountAggregate) DataType() schema.ColumnType { return schema.ColumnTypeBigInt }

func (c *CountAggregate) String() string {
	if c.Arg == nil {
		return "COUNT(*)"
	}
	return fmt.Sprintf("COUNT(%s)", c.Arg.String())
}
