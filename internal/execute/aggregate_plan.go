package execute

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leengari/postddl/internal/compile"
	"github.com/leengari/postddl/internal/compile/projection"
	"github.com/leengari/postddl/internal/domain/errors"
	"github.com/leengari/postddl/internal/domain/schema"
	"github.com/leengari/postddl/internal/parser/ast"
	"github.com/leengari/postddl/internal/scan"
)

// QueryPlan is an executable query over one table
type QueryPlan interface {
	Iterator(ctx context.Context) (ResultIterator, error)
	Projector() *projection.RowProjector
	TableRef() schema.TableRef
	ExplainPlan() compile.ExplainPlan
}

// AggregatePlan runs an ungrouped aggregate statement as one scan whose
// aggregation happens in the regions
type AggregatePlan struct {
	context   *compile.StatementContext
	statement *ast.SelectStatement
	tableRef  schema.TableRef
	projector *projection.RowProjector
	groupBy   compile.GroupBy
	orderBy   compile.OrderBy
}

// NewAggregatePlan binds a compiled statement to its table
func NewAggregatePlan(
	ctx *compile.StatementContext,
	stmt *ast.SelectStatement,
	tableRef schema.TableRef,
	projector *projection.RowProjector,
	orderBy compile.OrderBy,
	groupBy compile.GroupBy,
) (*AggregatePlan, error) {
	if !groupBy.IsEmpty() {
		return nil, fmt.Errorf("grouped aggregation is not supported")
	}
	return &AggregatePlan{
		context:   ctx,
		statement: stmt,
		tableRef:  tableRef,
		projector: projector,
		groupBy:   groupBy,
		orderBy:   orderBy,
	}, nil
}

func (p *AggregatePlan) Projector() *projection.RowProjector { return p.projector }
func (p *AggregatePlan) TableRef() schema.TableRef           { return p.tableRef }
func (p *AggregatePlan) Context() *compile.StatementContext  { return p.context }

// ExplainPlan describes the scan the plan issues
func (p *AggregatePlan) ExplainPlan() compile.ExplainPlan {
	steps := []string{fmt.Sprintf("FULL SCAN OVER %s", p.tableRef.Name())}
	for _, intent := range p.context.Scan().Intents() {
		steps = append(steps, "    SERVER "+intent.String())
	}
	for _, f := range p.context.Scan().Filters() {
		steps = append(steps, "    SERVER FILTER "+f.String())
	}
	steps = append(steps, "CLIENT AGGREGATE INTO SINGLE ROW")
	return compile.ExplainPlan{Steps: steps}
}

// Iterator snapshots the scan and opens it against the storage tier.
// The scan must not be modified afterwards.
func (p *AggregatePlan) Iterator(ctx context.Context) (ResultIterator, error) {
	table := p.tableRef.Name()
	if p.context.IsDegenerate() {
		slog.Debug("degenerate scan skipped", "table", table)
		return &emptyAggregateIterator{}, nil
	}

	req := p.context.Scan().Request(table)
	if _, ok := req.Attributes[scan.AttrUngroupedAgg]; !ok {
		return nil, fmt.Errorf("scan of table %s is not an ungrouped aggregate", table)
	}

	conn := p.context.Connection()
	if conn == nil || conn.Storage() == nil {
		return nil, fmt.Errorf("no storage client bound to the statement for table %s", table)
	}

	stream, err := conn.Storage().Scan(ctx, req)
	if err != nil {
		return nil, errors.NewStorageError(table, errors.PhaseOpen, err)
	}

	slog.Debug("scan opened",
		"table", table,
		"families", len(req.Families),
		"attributes", len(req.Attributes),
		"filters", len(req.Filters),
	)
	return newUngroupedAggregateIterator(table, stream), nil
}
