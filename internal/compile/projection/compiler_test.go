package projection_test

import (
	stderrors "errors"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/postddl/internal/compile"
	"github.com/leengari/postddl/internal/compile/projection"
	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/domain/errors"
	"github.com/leengari/postddl/internal/domain/schema"
	"github.com/leengari/postddl/internal/parser/ast"
	"github.com/leengari/postddl/internal/resolver"
	"github.com/leengari/postddl/internal/scan"
	"github.com/leengari/postddl/internal/testutil"
)

func newContext(t *testing.T) *compile.StatementContext {
	t.Helper()
	table := testutil.CreateTestTable(t, "USERS")
	r := resolver.NewSingleTable(schema.NewTableRef(table))
	return compile.NewStatementContext(nil, r, scan.New())
}

func countOf(arg ast.Expression) *ast.SelectStatement {
	return &ast.SelectStatement{
		Select:    []*ast.AliasedNode{{Node: &ast.FunctionCall{Name: "COUNT", Args: []ast.Expression{arg}}}},
		Aggregate: true,
	}
}

func TestCompile_CountOneProjectsEmptyKeyValue(t *testing.T) {
	ctx := newContext(t)

	projector, err := projection.Compile(ctx, ast.CountOne(), compile.EmptyGroupBy)
	assert.NilError(t, err)

	assert.Equal(t, projector.ColumnCount(), 1)
	assert.Assert(t, projector.ProjectsEmptyKeyValue())
	assert.Equal(t, projector.ColumnProjector(0).Expression.DataType(), schema.ColumnTypeBigInt)
	assert.Equal(t, projector.ColumnProjector(0).Name, "COUNT(1)")
	assert.Equal(t, projector.ColumnProjector(0).TableName, "USERS")

	families := ctx.Scan().Families()
	assert.Equal(t, len(families), 1)
	assert.Equal(t, string(families[0].Family), "0")
	assert.Equal(t, len(families[0].Qualifiers), 1)
	assert.Equal(t, string(families[0].Qualifiers[0]), string(data.EmptyColumn))
}

func TestCompile_ExistingProjectionIsKept(t *testing.T) {
	ctx := newContext(t)
	ctx.Scan().AddFamily([]byte("B"))

	projector, err := projection.Compile(ctx, ast.CountOne(), compile.EmptyGroupBy)
	assert.NilError(t, err)

	assert.Assert(t, !projector.ProjectsEmptyKeyValue())
	families := ctx.Scan().Families()
	assert.Equal(t, len(families), 1)
	assert.Assert(t, families[0].Whole())
}

func TestCompile_CountColumn(t *testing.T) {
	ctx := newContext(t)

	projector, err := projection.Compile(ctx, countOf(&ast.ColumnExpression{Family: "B", Name: "AGE"}), compile.EmptyGroupBy)
	assert.NilError(t, err)

	assert.Assert(t, !projector.ProjectsEmptyKeyValue())
	assert.Equal(t, projector.ColumnProjector(0).Name, "COUNT(B.AGE)")

	req := ctx.Scan().Request("USERS")
	assert.Assert(t, req.Projects([]byte("B"), []byte("AGE")))
	assert.Assert(t, !req.Projects([]byte("0"), []byte("NAME")))
	assert.Equal(t, len(req.Filters), 1)
	assert.Equal(t, req.Filters[0].Kind, scan.FilterColumnExists)
}

func TestCompile_CountKeyColumnReadsNothing(t *testing.T) {
	ctx := newContext(t)

	projector, err := projection.Compile(ctx, countOf(&ast.ColumnExpression{Name: "ID"}), compile.EmptyGroupBy)
	assert.NilError(t, err)
	assert.Assert(t, projector.ProjectsEmptyKeyValue())
	assert.Equal(t, len(ctx.Scan().Filters()), 0)
}

func TestCompile_Failures(t *testing.T) {
	tests := []struct {
		name    string
		stmt    *ast.SelectStatement
		groupBy compile.GroupBy
		errMsg  string
	}{
		{"group by", ast.CountOne(), compile.GroupBy{Expressions: []string{"NAME"}}, "GROUP BY"},
		{"empty select", &ast.SelectStatement{}, compile.EmptyGroupBy, "empty select list"},
		{
			"bare column",
			&ast.SelectStatement{Select: []*ast.AliasedNode{{Node: &ast.ColumnExpression{Name: "NAME"}}}},
			compile.EmptyGroupBy,
			"only COUNT is allowed",
		},
		{"count null", countOf(&ast.Literal{TokenLiteralValue: "NULL"}), compile.EmptyGroupBy, "COUNT(NULL)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := projection.Compile(newContext(t), tt.stmt, tt.groupBy)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestCompile_UnresolvedColumn(t *testing.T) {
	_, err := projection.Compile(newContext(t), countOf(&ast.ColumnExpression{Name: "MISSING"}), compile.EmptyGroupBy)

	var unresolved *errors.UnresolvedColumnError
	assert.Assert(t, stderrors.As(err, &unresolved))
}

func TestRowProjector_WithEmptyKeyValue(t *testing.T) {
	ctx := newContext(t)
	projector, err := projection.Compile(ctx, ast.CountOne(), compile.EmptyGroupBy)
	assert.NilError(t, err)

	derived := projector.WithEmptyKeyValue(false)
	assert.Assert(t, !derived.ProjectsEmptyKeyValue())
	assert.Assert(t, projector.ProjectsEmptyKeyValue())
	assert.Equal(t, derived.ColumnProjector(0), projector.ColumnProjector(0))
}

func TestColumnProjector_Value(t *testing.T) {
	ctx := newContext(t)
	projector, err := projection.Compile(ctx, ast.CountOne(), compile.EmptyGroupBy)
	assert.NilError(t, err)

	row := testutil.CountRow(7)
	col := projector.ColumnProjector(0)

	v, err := col.Value(row, schema.ColumnTypeBigInt, ctx.TempPtr())
	assert.NilError(t, err)
	assert.Equal(t, v, int64(7))

	v, err = col.Value(row, schema.ColumnTypeInt, ctx.TempPtr())
	assert.NilError(t, err)
	assert.Equal(t, v, int32(7))

	_, err = col.Value(testutil.CountRow(1<<40), schema.ColumnTypeInt, ctx.TempPtr())
	assert.ErrorContains(t, err, "overflows INT")

	values, err := projector.Project(row, ctx.TempPtr())
	assert.NilError(t, err)
	assert.DeepEqual(t, values, []interface{}{int64(7)})

	v, err = col.Value(data.NewTuple([]byte("k")), schema.ColumnTypeBigInt, ctx.TempPtr())
	assert.NilError(t, err)
	assert.Assert(t, v == nil)
}
