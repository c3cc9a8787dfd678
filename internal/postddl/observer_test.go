package postddl

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/postddl/internal/testutil"
)

func TestAddObserver(t *testing.T) {
	compiler := NewCompiler(nil)
	observer := &MockObserver{}

	compiler.AddObserver(observer)

	assert.Equal(t, len(compiler.observers), 1)
}

func TestRemoveObserver(t *testing.T) {
	compiler := NewCompiler(nil)
	observer := &MockObserver{}

	compiler.AddObserver(observer)
	compiler.RemoveObserver(observer)

	assert.Equal(t, len(compiler.observers), 0)
}

func TestNotifyWithMultipleObservers(t *testing.T) {
	f := newFixture(t)
	second := &MockObserver{}
	f.compiler.AddObserver(second)

	plan := f.compile(t, refs(testutil.CreateTestTable(t, "T1")), nil, nil, nil, 1)

	for _, o := range []*MockObserver{f.observer, second} {
		assert.Equal(t, len(o.Events), 1)
		assert.Equal(t, o.Events[0].Type, EventCompiled)
		assert.Equal(t, o.Events[0].PlanID, plan.ID())
		assert.Assert(t, !o.Events[0].Timestamp.IsZero())
	}
}

func TestEventsFollowTableOrder(t *testing.T) {
	f := newFixture(t)
	f.storage.
		On("T1", testutil.TableBehavior{Partials: []int64{1}}).
		On("T2", testutil.TableBehavior{Partials: []int64{2}})

	plan := f.compile(t,
		refs(testutil.CreateTestTable(t, "T1"), testutil.CreateTestTable(t, "T2")),
		[]byte("0"), nil, nil, 100)
	_, err := plan.Execute(context.Background())
	assert.NilError(t, err)

	var sequence []string
	for _, e := range f.observer.Events {
		sequence = append(sequence, string(e.Type)+":"+e.Table)
	}
	assert.DeepEqual(t, sequence, []string{
		"compiled:",
		"exec_start:",
		"table_start:T1",
		"table_end:T1",
		"table_start:T2",
		"table_end:T2",
		"exec_end:",
	})

	last := f.observer.Events[len(f.observer.Events)-1]
	assert.Equal(t, last.Data, int64(3))
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	observer := NewLoggingObserver(slog.New(slog.NewTextHandler(&buf, nil)))

	observer.OnEvent(Event{Type: EventTableEnd, PlanID: "p1", Table: "T1", Data: int64(4)})

	out := buf.String()
	assert.Assert(t, strings.Contains(out, "postddl_lifecycle"))
	assert.Assert(t, strings.Contains(out, "event=table_end"))
	assert.Assert(t, strings.Contains(out, "table=T1"))
	assert.Assert(t, strings.Contains(out, "data=4"))
}
