package projection

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leengari/postddl/internal/compile"
	"github.com/leengari/postddl/internal/domain/data"
	"github.com/leengari/postddl/internal/domain/schema"
	"github.com/leengari/postddl/internal/expression"
	"github.com/leengari/postddl/internal/parser/ast"
	"github.com/leengari/postddl/internal/scan"
)

// Compile turns the select list of an aggregate statement into a row
// projector, adding the columns it reads to the statement's scan.
// When the statement reads no column at all the table's empty key value
// column is projected so that every live row is still seen by the regions.
func Compile(ctx *compile.StatementContext, stmt *ast.SelectStatement, groupBy compile.GroupBy) (*RowProjector, error) {
	if !groupBy.IsEmpty() || len(stmt.GroupBy) > 0 {
		return nil, fmt.Errorf("GROUP BY is not supported in post-DDL statements")
	}
	if len(stmt.Select) == 0 {
		return nil, fmt.Errorf("empty select list")
	}

	tables := ctx.Resolver().Tables()
	tableRef := tables[0]

	columns := make([]*ColumnProjector, 0, len(stmt.Select))
	for _, node := range stmt.Select {
		expr, err := compileSelectNode(ctx, node.Node)
		if err != nil {
			return nil, err
		}
		name := node.Alias
		if name == "" {
			name = node.Node.String()
		}
		columns = append(columns, &ColumnProjector{
			Name:       name,
			TableName:  tableRef.Name(),
			Expression: expr,
		})
	}

	projectEmptyKeyValue := false
	if !ctx.Scan().HasFamilies() {
		ctx.Scan().AddColumn(tableRef.Table.EmptyFamilyBytes(), data.EmptyColumn)
		projectEmptyKeyValue = true
	}

	slog.Debug("projection compiled",
		"table", tableRef.Name(),
		"columns", len(columns),
		"empty_kv", projectEmptyKeyValue,
	)

	return NewRowProjector(columns, projectEmptyKeyValue), nil
}

func compileSelectNode(ctx *compile.StatementContext, node ast.Expression) (expression.Expression, error) {
	call, ok := node.(*ast.FunctionCall)
	if !ok || !strings.EqualFold(call.Name, "COUNT") {
		return nil, fmt.Errorf("unsupported select expression %s: only COUNT is allowed", node.String())
	}

	if call.Star {
		return &expression.CountAggregate{}, nil
	}
	if len(call.Args) != 1 {
		return nil, fmt.Errorf("COUNT expects exactly one argument, got %d", len(call.Args))
	}

	switch arg := call.Args[0].(type) {
	case *ast.Literal:
		if arg.Kind == ast.LiteralNull {
			return nil, fmt.Errorf("COUNT(NULL) is not supported")
		}
		return &expression.CountAggregate{Arg: literalExpression(arg)}, nil

	case *ast.ColumnExpression:
		ref, err := ctx.Resolver().ResolveColumn(arg.Schema, arg.Family, arg.Name)
		if err != nil {
			return nil, err
		}
		col := ref.Column()
		if col.PrimaryKey {
			// the row key is never null
			return &expression.CountAggregate{Arg: expression.NewKeyValueColumn(col)}, nil
		}
		ctx.Scan().AddColumn(col.FamilyBytes(), col.NameBytes())
		ctx.Scan().AddFilter(scan.Filter{
			Kind:      scan.FilterColumnExists,
			Family:    col.FamilyBytes(),
			Qualifier: col.NameBytes(),
		})
		return &expression.CountAggregate{Arg: expression.NewKeyValueColumn(col)}, nil

	default:
		return nil, fmt.Errorf("unsupported COUNT argument %s", arg.String())
	}
}

func literalExpression(lit *ast.Literal) expression.Expression {
	if n, ok := lit.Value.(int64); ok {
		return expression.NewLongLiteral(n)
	}
	return &expression.Literal{Value: []byte(lit.TokenLiteralValue), Type: schema.ColumnTypeText, Text: lit.TokenLiteralValue}
}
