package postddl

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/leengari/postddl/internal/cache"
	"github.com/leengari/postddl/internal/compile"
	"github.com/leengari/postddl/internal/compile/projection"
	"github.com/leengari/postddl/internal/compile/where"
	"github.com/leengari/postddl/internal/connection"
	"github.com/leengari/postddl/internal/domain/errors"
	"github.com/leengari/postddl/internal/domain/schema"
	"github.com/leengari/postddl/internal/execute"
	"github.com/leengari/postddl/internal/parser/ast"
	"github.com/leengari/postddl/internal/resolver"
	"github.com/leengari/postddl/internal/scan"
)

// MutationPlan is a compiled statement that mutates the storage tier
type MutationPlan interface {
	Connection() *connection.Connection
	ParameterMetaData() compile.ParameterMetaData
	ExplainPlan() compile.ExplainPlan
	Execute(ctx context.Context) (*execute.MutationState, error)
}

// State is the lifecycle position of a plan
type State int

const (
	StateUncompiled State = iota
	StateCompiled
	StateExecuting
	StateExecuted
)

func (s State) String() string {
	switch s {
	case StateCompiled:
		return "COMPILED"
	case StateExecuting:
		return "EXECUTING"
	case StateExecuted:
		return "EXECUTED"
	default:
		return "UNCOMPILED"
	}
}

// Plan is the post-DDL mutation plan. It owns its inputs and runs at most
// once; later calls to Execute return the outcome of the first one.
type Plan struct {
	id         string
	conn       *connection.Connection
	tables     []schema.TableRef
	emptyCF    []byte
	projectCF  []byte
	deleteList []schema.Column
	timestamp  int64

	observers []Observer
	telemetry *telemetry
	logger    *slog.Logger

	run    sync.Once
	mu     sync.Mutex
	state  State
	result *execute.MutationState
	err    error
}

const cacheReleaseTimeout = 10 * time.Second

func newPlanID() string {
	return ksuid.New().String()
}

// ID identifies the plan in logs, events and traces
func (p *Plan) ID() string { return p.id }

func (p *Plan) Connection() *connection.Connection { return p.conn }

// ParameterMetaData reports that the plan takes no bind parameters
func (p *Plan) ParameterMetaData() compile.ParameterMetaData {
	return compile.EmptyParameterMetaData
}

// ExplainPlan is empty: the scans are only built while executing
func (p *Plan) ExplainPlan() compile.ExplainPlan {
	return compile.EmptyExplainPlan
}

// State returns where the plan is in its lifecycle
func (p *Plan) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Execute runs the plan.
// It returns nil, nil when there is no table, the zero effect state when
// there is neither a delete list nor an empty family, and otherwise one
// mutation unit whose update count is the sum over every table.
// Concurrent callers wait for the first run. Observers may read the plan's
// State while it runs but must not call Execute from OnEvent.
func (p *Plan) Execute(ctx context.Context) (*execute.MutationState, error) {
	p.run.Do(func() {
		p.setState(StateExecuting)
		result, err := p.execute(ctx)

		p.mu.Lock()
		p.result, p.err, p.state = result, err, StateExecuted
		p.mu.Unlock()
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result, p.err
}

func (p *Plan) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

func (p *Plan) execute(ctx context.Context) (*execute.MutationState, error) {
	if len(p.tables) == 0 {
		return nil, nil
	}
	if p.deleteList == nil && p.emptyCF == nil {
		return execute.ZeroEffect(p.conn), nil
	}

	ctx, span := p.telemetry.tracer.Start(ctx, "postddl.execute",
		trace.WithAttributes(
			attribute.String("postddl.plan_id", p.id),
			attribute.Int("postddl.tables", len(p.tables)),
		))
	defer span.End()

	p.notify(Event{Type: EventExecStart, Data: len(p.tables)})

	var total int64
	err := p.conn.WithAutoCommit(true, func() error {
		for _, ref := range p.tables {
			count, err := p.executeTable(ctx, ref)
			if err != nil {
				return err
			}
			total += count
		}
		return nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.telemetry.failure.Add(ctx, 1)
		p.notify(Event{Type: EventExecEnd, Data: err})
		p.logger.Error("post-DDL plan failed", "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("postddl.update_count", total))
	p.notify(Event{Type: EventExecEnd, Data: total})
	p.logger.Debug("post-DDL plan executed", "count", total)
	return execute.NewMutationState(1, total, p.conn), nil
}

// executeTable builds, runs and drains the scan of one table.
// The iterator is closed before the server cache is released; a close
// failure is chained after the fetch failure and a release failure after both.
func (p *Plan) executeTable(ctx context.Context, ref schema.TableRef) (count int64, err error) {
	table := ref.Name()

	ctx, span := p.telemetry.tracer.Start(ctx, "postddl.table",
		trace.WithAttributes(attribute.String("postddl.table", table)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int64("postddl.count", count))
		}
		span.End()
	}()

	p.notify(Event{Type: EventTableStart, Table: table})
	defer func() {
		if err != nil {
			p.notify(Event{Type: EventTableEnd, Table: table, Data: err})
			return
		}
		p.notify(Event{Type: EventTableEnd, Table: table, Data: count})
	}()

	s := scan.New()
	s.AddIntent(scan.UngroupedAggregate{})
	stmt := ast.CountOne()
	sctx := compile.NewStatementContext(p.conn, resolver.NewSingleTable(ref), s)
	s.SetTimeRange(p.timestamp)
	if p.emptyCF != nil {
		s.AddIntent(scan.BackfillEmpty{Family: p.emptyCF})
	}

	var serverCache *cache.ServerCache
	defer func() {
		if serverCache == nil {
			return
		}
		// the release must outlive a cancelled scan or the blob stays until its TTL
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheReleaseTimeout)
		defer cancel()
		if cerr := serverCache.Close(releaseCtx); cerr != nil {
			p.logger.Warn("server cache release failed", "table", table, "error", cerr)
			err = errors.Chain(err, errors.NewStorageError(table, errors.PhaseRelease, cerr))
			return
		}
		p.notify(Event{Type: EventCacheFreed, Table: table, Data: cache.Key(serverCache.ID())})
	}()

	var restrictTo *schema.Column
	if p.deleteList != nil {
		if len(p.deleteList) == 0 {
			s.AddIntent(scan.DeleteAll{})
			serverCache, err = p.attachIndexMetadata(ctx, sctx, ref)
			if err != nil {
				return 0, err
			}
		} else {
			// only the first entry is deleted per plan
			col := p.deleteList[0]
			s.AddIntent(scan.DeleteColumn{Family: col.FamilyBytes(), Qualifier: col.NameBytes()})
			if p.emptyCF == nil {
				restrictTo = &col
			}
		}
	}

	families := ref.Table.FamilyNames()
	if p.projectCF != nil {
		families = [][]byte{p.projectCF}
	}

	projector, err := projection.Compile(sctx, stmt, compile.EmptyGroupBy)
	if err != nil {
		return 0, fmt.Errorf("table %s: %w", table, err)
	}

	// The empty key value may not exist yet, so every family is projected
	// instead of it.
	s.ClearFamilies()
	for _, family := range families {
		s.AddFamily(family)
	}
	projector = projector.WithEmptyKeyValue(false)

	if restrictTo != nil {
		s.ClearFamilies()
		s.AddColumn(restrictTo.FamilyBytes(), restrictTo.NameBytes())
	}

	if err := where.Compile(sctx, stmt.Where); err != nil {
		return 0, fmt.Errorf("table %s: %w", table, err)
	}

	plan, err := execute.NewAggregatePlan(sctx, stmt, ref, projector, compile.EmptyOrderBy, compile.EmptyGroupBy)
	if err != nil {
		return 0, fmt.Errorf("table %s: %w", table, err)
	}

	iterator, err := plan.Iterator(ctx)
	if err != nil {
		return 0, err
	}

	count, fetchErr := p.drain(ctx, sctx, iterator, projector)
	if closeErr := iterator.Close(); closeErr != nil {
		return 0, errors.Chain(fetchErr, closeErr)
	}
	if fetchErr != nil {
		return 0, fetchErr
	}

	p.telemetry.rows.Add(ctx, count, metric.WithAttributes(attribute.String("table", table)))
	p.telemetry.tables.Add(ctx, 1)
	p.logger.Debug("post-DDL table done", "table", table, "count", count)
	return count, nil
}

func (p *Plan) drain(ctx context.Context, sctx *compile.StatementContext, iterator execute.ResultIterator, projector *projection.RowProjector) (int64, error) {
	row, err := iterator.Next(ctx)
	if err != nil {
		return 0, err
	}
	v, err := projector.ColumnProjector(0).Value(row, schema.ColumnTypeBigInt, sctx.TempPtr())
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("aggregate returned no count")
	}
	return n, nil
}

// attachIndexMetadata ships the table's index maintainers to the regions
// through a server cache. It only runs when the connection opts in.
func (p *Plan) attachIndexMetadata(ctx context.Context, sctx *compile.StatementContext, ref schema.TableRef) (*cache.ServerCache, error) {
	if !p.conn.Config().PropagateIndexMetadata {
		return nil, nil
	}

	ptr := sctx.TempPtr()
	ref.Table.IndexMaintainers(ptr)
	if ptr.Len() == 0 {
		return nil, nil
	}

	sc, err := p.conn.Cache().AddServerCache(ctx, ref.Name(), bytes.Clone(ptr.Get()))
	if err != nil {
		return nil, errors.NewStorageError(ref.Name(), errors.PhaseCache, err)
	}
	sctx.Scan().AddIntent(scan.WithIndexMetadata{CacheID: sc.ID()})
	p.notify(Event{Type: EventCacheAdded, Table: ref.Name(), Data: cache.Key(sc.ID())})
	return sc, nil
}
