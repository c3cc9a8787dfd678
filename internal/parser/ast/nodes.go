package ast

import (
	"bytes"
	"fmt"
	"strings"
)

// Node is the base interface for all parse nodes
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement represents a standalone statement
type Statement interface {
	Node
	statementNode()
}

// Expression represents a value or operation
type Expression interface {
	Node
	expressionNode()
}

type LiteralKind int

const (
	LiteralNull LiteralKind = iota
	LiteralInt
	LiteralString
	LiteralBool
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralInt:
		return "INT"
	case LiteralString:
		return "STRING"
	case LiteralBool:
		return "BOOL"
	default:
		return "NULL"
	}
}

// Literal represents a fixed value (int64, string, bool or nil)
type Literal struct {
	TokenLiteralValue string
	Value             interface{}
	Kind              LiteralKind
}

func (l *Literal) expressionNode()      {}
func (l *Literal) TokenLiteral() string { return l.TokenLiteralValue }
func (l *Literal) String() string       { return l.TokenLiteralValue }

// IsTrue reports whether the literal is the boolean TRUE
func (l *Literal) IsTrue() bool {
	b, ok := l.Value.(bool)
	return ok && l.Kind == LiteralBool && b
}

// IsFalse reports whether the literal is the boolean FALSE
func (l *Literal) IsFalse() bool {
	b, ok := l.Value.(bool)
	return ok && l.Kind == LiteralBool && !b
}

// TrueLiteral is the always matching predicate
func TrueLiteral() *Literal {
	return &Literal{TokenLiteralValue: "TRUE", Value: true, Kind: LiteralBool}
}

// FalseLiteral is the never matching predicate
func FalseLiteral() *Literal {
	return &Literal{TokenLiteralValue: "FALSE", Value: false, Kind: LiteralBool}
}

// OneLiteral is the integer literal 1
func OneLiteral() *Literal {
	return &Literal{TokenLiteralValue: "1", Value: int64(1), Kind: LiteralInt}
}

// ColumnExpression references a column, optionally through a column family
// (Family) and a schema
type ColumnExpression struct {
	Schema string
	Family string
	Name   string
}

func (c *ColumnExpression) expressionNode()      {}
func (c *ColumnExpression) TokenLiteral() string { return c.Name }
func (c *ColumnExpression) String() string {
	parts := make([]string, 0, 3)
	if c.Schema != "" {
		parts = append(parts, c.Schema)
	}
	if c.Family != "" {
		parts = append(parts, c.Family)
	}
	parts = append(parts, c.Name)
	return strings.Join(parts, ".")
}

// IsNullExpression: Column IS [NOT] NULL
type IsNullExpression struct {
	Column *ColumnExpression
	Negate bool
}

func (e *IsNullExpression) expressionNode()      {}
func (e *IsNullExpression) TokenLiteral() string { return "IS" }
func (e *IsNullExpression) String() string {
	if e.Negate {
		return fmt.Sprintf("%s IS NOT NULL", e.Column.String())
	}
	return fmt.Sprintf("%s IS NULL", e.Column.String())
}

// BinaryExpression: Left Operator Right (e.g. A IS NULL AND B IS NOT NULL)
type BinaryExpression struct {
	Left     Expression
	Operator string
	Right    Expression
}

func (e *BinaryExpression) expressionNode()      {}
func (e *BinaryExpression) TokenLiteral() string { return e.Operator }
func (e *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left.String(), e.Operator, e.Right.String())
}

// FunctionCall: Name(Args...) or Name(*)
type FunctionCall struct {
	Name string
	Args []Expression
	Star bool
}

func (f *FunctionCall) expressionNode()      {}
func (f *FunctionCall) TokenLiteral() string { return f.Name }
func (f *FunctionCall) String() string {
	if f.Star {
		return f.Name + "(*)"
	}
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Name, strings.Join(args, ", "))
}

// AliasedNode is one entry of a select list
type AliasedNode struct {
	Alias string
	Node  Expression
}

func (a *AliasedNode) String() string {
	if a.Alias == "" {
		return a.Node.String()
	}
	return a.Node.String() + " AS " + a.Alias
}

// SelectStatement: SELECT expr, ... [WHERE ...] [GROUP BY ...]
// The table is implied by the resolver the statement is compiled against.
type SelectStatement struct {
	Select    []*AliasedNode
	Where     Expression
	GroupBy   []Expression
	Aggregate bool
}

func (s *SelectStatement) statementNode()       {}
func (s *SelectStatement) TokenLiteral() string { return "SELECT" }
func (s *SelectStatement) String() string {
	var out bytes.Buffer
	out.WriteString("SELECT ")
	for i, f := range s.Select {
		out.WriteString(f.String())
		if i < len(s.Select)-1 {
			out.WriteString(", ")
		}
	}
	if s.Where != nil {
		out.WriteString(" WHERE ")
		out.WriteString(s.Where.String())
	}
	if len(s.GroupBy) > 0 {
		out.WriteString(" GROUP BY ")
		for i, g := range s.GroupBy {
			out.WriteString(g.String())
			if i < len(s.GroupBy)-1 {
				out.WriteString(", ")
			}
		}
	}
	return out.String()
}

// CountOne builds SELECT COUNT(1) WHERE TRUE, the statement every post-DDL
// table scan is compiled from
func CountOne() *SelectStatement {
	return &SelectStatement{
		Select: []*AliasedNode{{
			Node: &FunctionCall{Name: "COUNT", Args: []Expression{OneLiteral()}},
		}},
		Where:     TrueLiteral(),
		Aggregate: true,
	}
}
