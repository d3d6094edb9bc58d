package optimizer

import "github.com/stanford-oval/thingtalk-go/thingtalk/ast"

// OptimizeExpression normalizes e's algebra: it
// recurses bottom-up (so an inner Filter/Filter fusion is visible to an
// enclosing combinator), optimizes every Filter it carries, fuses
// stacked FilterExpr nodes into one, and pushes a Projection through a
// Sort/Index/Slice when the sort key survives the projection.
func OptimizeExpression(e ast.Expression) ast.Expression {
	switch n := e.(type) {
	case *ast.Invocation:
		return n

	case *ast.FilterExpr:
		input := OptimizeExpression(n.Input)
		filter := OptimizeFilter(n.Filter)
		// "Fuse stacked Filter(Filter(x, f), g) into Filter(x,
		// optimize(And[f,g]))".
		if inner, ok := input.(*ast.FilterExpr); ok {
			fused := OptimizeFilter(&ast.And{Operands: []ast.Filter{inner.Filter, filter}})
			result := &ast.FilterExpr{Input: inner.Input, Filter: fused}
			result.SetSchema(n.Schema())
			return result
		}
		result := &ast.FilterExpr{Input: input, Filter: filter}
		result.SetSchema(n.Schema())
		return result

	case *ast.Projection:
		input := OptimizeExpression(n.Input)
		return pushProjection(n.Fields, input, n.Schema())

	case *ast.Sort:
		n.Input = OptimizeExpression(n.Input)
		return n

	case *ast.Index:
		n.Input = OptimizeExpression(n.Input)
		return n

	case *ast.Slice:
		n.Input = OptimizeExpression(n.Input)
		return n

	case *ast.Join:
		n.LHS = OptimizeExpression(n.LHS)
		n.RHS = OptimizeExpression(n.RHS)
		return n

	case *ast.Aggregation:
		n.Input = OptimizeExpression(n.Input)
		return n

	case *ast.ArgMinMax:
		n.Input = OptimizeExpression(n.Input)
		return n

	case *ast.Monitor:
		n.Table = OptimizeExpression(n.Table)
		return n

	default:
		return e
	}
}

// pushProjection implements "push Projection through Sort/Index/Slice
// when the sort key remains in scope": a Projection directly over a
// Sort/Index/Slice is rewritten to project first, then re-apply the
// outer combinator, provided the combinator's own key/field argument
// (which the projection must not drop) survives. Index/Slice carry no
// named field so they always qualify; Sort only qualifies when its
// Field is one of the kept fields.
func pushProjection(fields []string, input ast.Expression, schema *ast.FunctionDef) ast.Expression {
	keep := func(name string) bool {
		for _, f := range fields {
			if f == name {
				return true
			}
		}
		return false
	}

	switch n := input.(type) {
	case *ast.Sort:
		if !keep(n.Field) {
			break // the sort key would be dropped; don't push
		}
		inner := &ast.Projection{Input: n.Input, Fields: withField(fields, n.Field)}
		inner.SetSchema(projectedSchema(n.Input.Schema(), inner.Fields))
		outer := &ast.Sort{Input: inner, Field: n.Field, Direction: n.Direction}
		outer.SetSchema(schema)
		return outer
	case *ast.Index:
		inner := &ast.Projection{Input: n.Input, Fields: fields}
		inner.SetSchema(projectedSchema(n.Input.Schema(), fields))
		outer := &ast.Index{Input: inner, Indices: n.Indices}
		outer.SetSchema(schema)
		return outer
	case *ast.Slice:
		inner := &ast.Projection{Input: n.Input, Fields: fields}
		inner.SetSchema(projectedSchema(n.Input.Schema(), fields))
		outer := &ast.Slice{Input: inner, Base: n.Base, Limit: n.Limit}
		outer.SetSchema(schema)
		return outer
	}

	result := &ast.Projection{Input: input, Fields: fields}
	result.SetSchema(schema)
	return result
}

func withField(fields []string, field string) []string {
	for _, f := range fields {
		if f == field {
			return fields
		}
	}
	return append(append([]string(nil), fields...), field)
}

// projectedSchema narrows base's output args to fields, mirroring
// thingtalk/typecheck's projectSchema without importing that package —
// the optimizer runs after type checking and stays a leaf in the
// dependency graph.
func projectedSchema(base *ast.FunctionDef, fields []string) *ast.FunctionDef {
	if base == nil {
		return nil
	}
	cp := *base
	keep := map[string]bool{}
	for _, f := range fields {
		keep[f] = true
	}
	var args []ast.FunctionArgument
	for _, a := range base.Args {
		if a.Direction != ast.Out || keep[a.Name] {
			args = append(args, a)
		}
	}
	cp.Args = args
	return &cp
}
