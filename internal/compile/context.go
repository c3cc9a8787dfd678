package compile

import (
	"github.com/leengari/postddl/internal/connection"
	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/resolver"
	"github.com/leengari/postddl/internal/scan"
)

// StatementContext is the state shared by the compilers of one statement.
// It is created per table and discarded once the plan for that table has run.
type StatementContext struct {
	conn     *connection.Connection
	resolver resolver.ColumnResolver
	binds    []interface{}
	scan     *scan.Spec
	tempPtr  data.Ptr

	// degenerate is set when the predicate can never match
	degenerate bool
}

// NewStatementContext creates a context with no bind values
func NewStatementContext(conn *connection.Connection, r resolver.ColumnResolver, s *scan.Spec) *StatementContext {
	return &StatementContext{
		conn:     conn,
		resolver: r,
		binds:    []interface{}{},
		scan:     s,
	}
}

func (c *StatementContext) Connection() *connection.Connection { return c.conn }
func (c *StatementContext) Resolver() resolver.ColumnResolver  { return c.resolver }
func (c *StatementContext) Scan() *scan.Spec                   { return c.scan }

// Binds returns the ordered bind values of the statement
func (c *StatementContext) Binds() []interface{} {
	return c.binds
}

// TempPtr returns the scratch pointer reused across evaluations
func (c *StatementContext) TempPtr() *data.Ptr {
	return &c.tempPtr
}

// SetDegenerate marks the statement as unable to match any row
func (c *StatementContext) SetDegenerate() {
	c.degenerate = true
}

func (c *StatementContext) IsDegenerate() bool {
	return c.degenerate
}
