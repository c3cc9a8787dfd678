package postddl

import (
	"bytes"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/leengari/postddl/internal/connection"
	"github.com/leengari/postddl/internal/domain/schema"
)

// Compiler builds the mutation plans that finish a DDL statement on the
// storage tier: deleting the rows of a dropped table or index, deleting
// the values of a dropped column, and backfilling the empty key value
// after the empty column family changed.
type Compiler struct {
	conn      *connection.Connection
	observers []Observer
	tp        trace.TracerProvider
	mp        metric.MeterProvider
}

// Option configures a Compiler
type Option func(*Compiler)

// WithObserver registers an observer on every plan the compiler builds
func WithObserver(o Observer) Option {
	return func(c *Compiler) { c.observers = append(c.observers, o) }
}

// WithTracerProvider overrides the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Compiler) { c.tp = tp }
}

// WithMeterProvider overrides the global meter provider
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Compiler) { c.mp = mp }
}

// NewCompiler creates a compiler for plans running on conn
func NewCompiler(conn *connection.Connection, opts ...Option) *Compiler {
	c := &Compiler{conn: conn, observers: make([]Observer, 0)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddObserver registers an observer
func (c *Compiler) AddObserver(observer Observer) {
	c.observers = append(c.observers, observer)
}

// RemoveObserver unregisters an observer
func (c *Compiler) RemoveObserver(observer Observer) {
	for i, o := range c.observers {
		if o == observer {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return
		}
	}
}

// Compile builds the plan for tables. No remote resource is touched.
//
// deleteList distinguishes three cases: nil deletes nothing, an empty
// non-nil slice deletes every row, otherwise the values of deleteList[0]
// are deleted. emptyCF, when set, backfills the empty key value under that
// family; projectCF, when set, restricts the scan to that family.
// Rows are seen as of timestamp (exclusive).
func (c *Compiler) Compile(
	tables []schema.TableRef,
	emptyCF []byte,
	projectCF []byte,
	deleteList []schema.Column,
	timestamp int64,
) (MutationPlan, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("post-DDL compiler has no connection")
	}
	for i, ref := range tables {
		if ref.Table == nil {
			return nil, fmt.Errorf("table reference %d has no table", i)
		}
	}
	if len(deleteList) > 0 {
		if deleteList[0].PrimaryKey {
			return nil, fmt.Errorf("cannot delete key column %s", deleteList[0].Name)
		}
		if deleteList[0].Family == "" {
			return nil, fmt.Errorf("column %s has no column family", deleteList[0].Name)
		}
	}

	tel, err := newTelemetry(c.tp, c.mp)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	p := &Plan{
		id:         newPlanID(),
		conn:       c.conn,
		tables:     append([]schema.TableRef(nil), tables...),
		emptyCF:    cloneOptional(emptyCF),
		projectCF:  cloneOptional(projectCF),
		deleteList: cloneDeleteList(deleteList),
		timestamp:  timestamp,
		observers:  append([]Observer(nil), c.observers...),
		telemetry:  tel,
		state:      StateCompiled,
		logger:     c.conn.Logger(),
	}
	p.logger = p.logger.With("plan_id", p.id)
	p.notify(Event{Type: EventCompiled, Data: len(tables)})

	p.logger.Debug("post-DDL plan compiled",
		"tables", len(tables),
		"delete_all", deleteList != nil && len(deleteList) == 0,
		"delete_columns", len(deleteList),
		"empty_cf", string(emptyCF),
		"project_cf", string(projectCF),
		"timestamp", timestamp,
	)
	return p, nil
}

func (p *Plan) notify(event Event) {
	event.PlanID = p.id
	event.Timestamp = time.Now()
	for _, observer := range p.observers {
		observer.OnEvent(event)
	}
}

func cloneOptional(b []byte) []byte {
	if b == nil {
		return nil
	}
	return bytes.Clone(b)
}

// cloneDeleteList keeps the nil / empty distinction of the delete list
func cloneDeleteList(cols []schema.Column) []schema.Column {
	if cols == nil {
		return nil
	}
	return append(make([]schema.Column, 0, len(cols)), cols...)
}
