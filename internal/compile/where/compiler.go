package where

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leengari/postddl/internal/compile"
	"github.com/leengari/postddl/internal/parser/ast"
	"github.com/leengari/postddl/internal/scan"
)

// Compile pushes the predicate of a statement into its scan.
// nil and TRUE match every row and push nothing; FALSE marks the statement
// degenerate so that no scan is issued.
// Supports:
//   - column IS [NOT] NULL
//   - conjunctions of the above with AND
func Compile(ctx *compile.StatementContext, where ast.Expression) error {
	if where == nil {
		return nil
	}

	filters, err := build(ctx, where)
	if err != nil {
		return err
	}
	for _, f := range filters {
		ctx.Scan().AddFilter(f)
	}

	slog.Debug("predicate pushed",
		"where", where.String(),
		"filters", len(filters),
		"degenerate", ctx.IsDegenerate(),
	)
	return nil
}

func build(ctx *compile.StatementContext, expr ast.Expression) ([]scan.Filter, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		switch {
		case e.IsTrue():
			return nil, nil
		case e.IsFalse():
			ctx.SetDegenerate()
			return nil, nil
		default:
			return nil, fmt.Errorf("non boolean literal %s in WHERE clause", e.String())
		}

	case *ast.IsNullExpression:
		return buildIsNull(ctx, e)

	case *ast.BinaryExpression:
		if !strings.EqualFold(e.Operator, "AND") {
			return nil, fmt.Errorf("unsupported operator %s in WHERE clause", e.Operator)
		}
		left, err := build(ctx, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := build(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil

	default:
		return nil, fmt.Errorf("unsupported expression type in WHERE clause: %T", expr)
	}
}

func buildIsNull(ctx *compile.StatementContext, e *ast.IsNullExpression) ([]scan.Filter, error) {
	ref, err := ctx.Resolver().ResolveColumn(e.Column.Schema, e.Column.Family, e.Column.Name)
	if err != nil {
		return nil, err
	}
	col := ref.Column()

	// key columns are never null
	if col.PrimaryKey {
		if !e.Negate {
			ctx.SetDegenerate()
		}
		return nil, nil
	}

	kind := scan.FilterColumnMissing
	if e.Negate {
		kind = scan.FilterColumnExists
	}
	return []scan.Filter{{
		Kind:      kind,
		Family:    col.FamilyBytes(),
		Qualifier: col.NameBytes(),
	}}, nil
}
