package execute

import "github.com/leengari/postddl/internal/connection"

// MutationState is the outcome of a mutation plan.
// It is immutable once returned.
type MutationState struct {
	units       int
	updateCount int64
	conn        *connection.Connection
}

// NewMutationState creates a state of units mutation units that changed updateCount rows
func NewMutationState(units int, updateCount int64, conn *connection.Connection) *MutationState {
	return &MutationState{units: units, updateCount: updateCount, conn: conn}
}

// ZeroEffect is the state of a plan that had nothing to do
func ZeroEffect(conn *connection.Connection) *MutationState {
	return NewMutationState(0, 0, conn)
}

// Units returns the number of mutation units (0 or 1)
func (s *MutationState) Units() int { return s.units }

// UpdateCount returns the number of rows affected across every table
func (s *MutationState) UpdateCount() int64 { return s.updateCount }

// Connection returns the connection the mutation ran on
func (s *MutationState) Connection() *connection.Connection { return s.conn }

// IsZeroEffect reports whether nothing was mutated
func (s *MutationState) IsZeroEffect() bool { return s.units == 0 }
