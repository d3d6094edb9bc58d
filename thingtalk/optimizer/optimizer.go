// Package optimizer implements AST-to-AST rewrites over boolean filters
// and the query/stream algebra. OptimizeFilter and OptimizeProgram (which
// rewrites a clone) leave their input unchanged; OptimizeExpression
// builds new Filter and Projection nodes but updates the child fields of
// Sort, Index, Slice, Join, Aggregation, ArgMinMax and Monitor nodes of
// its input in place. Every entry point is idempotent —
// optimize(optimize(p)) is structurally identical to optimize(p) — and
// runs once between type checking and rule compilation rather than
// interleaved with either.
package optimizer

import "github.com/stanford-oval/thingtalk-go/thingtalk/ast"

// OptimizeFilter normalizes f: flattens nested And/Or of the same
// operator, folds True/False constants, collapses 0/1-arity And/Or,
// and eliminates double negation.
func OptimizeFilter(f ast.Filter) ast.Filter {
	switch n := f.(type) {
	case *ast.And:
		return optimizeAnd(n)
	case *ast.Or:
		return optimizeOr(n)
	case *ast.Not:
		inner := OptimizeFilter(n.Operand)
		if inv, ok := inner.(*ast.Not); ok {
			return inv.Operand
		}
		if ast.IsTrue(inner) {
			return ast.False
		}
		if ast.IsFalse(inner) {
			return ast.True
		}
		return &ast.Not{Operand: inner}
	case *ast.ExternalFilter:
		return &ast.ExternalFilter{Invocation: n.Invocation, Filter: OptimizeFilter(n.Filter)}
	default:
		// True, False, AtomFilter, ComputeFilter have no sub-filters to
		// optimize.
		return f
	}
}

// optimizeAnd implements "optimize(And[])" → True, "optimize(And[a])" →
// optimize(a), and flattening of nested And operands of the same
// operator with neutral constant folding.
func optimizeAnd(n *ast.And) ast.Filter {
	var flat []ast.Filter
	for _, o := range n.Operands {
		opt := OptimizeFilter(o)
		if ast.IsFalse(opt) {
			return ast.False
		}
		if ast.IsTrue(opt) {
			continue // True is the neutral element of And
		}
		if inner, ok := opt.(*ast.And); ok {
			flat = append(flat, inner.Operands...)
		} else {
			flat = append(flat, opt)
		}
	}
	switch len(flat) {
	case 0:
		return ast.True
	case 1:
		return flat[0]
	default:
		return &ast.And{Operands: flat}
	}
}

// optimizeOr mirrors optimizeAnd with the dual identities: "optimize(Or[])"
// → False, False is Or's neutral element, any True operand short-circuits
// the whole disjunction to True.
func optimizeOr(n *ast.Or) ast.Filter {
	var flat []ast.Filter
	for _, o := range n.Operands {
		opt := OptimizeFilter(o)
		if ast.IsTrue(opt) {
			return ast.True
		}
		if ast.IsFalse(opt) {
			continue
		}
		if inner, ok := opt.(*ast.Or); ok {
			flat = append(flat, inner.Operands...)
		} else {
			flat = append(flat, opt)
		}
	}
	switch len(flat) {
	case 0:
		return ast.False
	case 1:
		return flat[0]
	default:
		return &ast.Or{Operands: flat}
	}
}
