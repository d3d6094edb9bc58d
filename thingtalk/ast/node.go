package ast

import "github.com/stanford-oval/thingtalk-go/thingtalk"

// Node is implemented by every AST category: expressions, filters,
// statements, function/class definitions and the program itself. It is
// the shared surface the three traversal protocols (Visit, slot
// iteration, Clone) are defined against.
//
// This uses a closed, tagged-variant style rather than a
// prototype/inheritance node hierarchy: each concrete node type
// implements Node directly, with no shared base class and no
// back-pointers — a FunctionDef never points back at its owning
// ClassDef; instead the schema resolver computes and stores
// qualified_name once, up front (see thingtalk/schema).
type Node interface {
	// String renders the node in the canonical pretty-printed surface
	// form; see pretty.go. Parsing String() must reproduce a
	// structurally equal node.
	String() string
}

// Visitor receives one callback per Node it visits during a post-order
// walk: a node's children are walked first, and the callback then sees
// the node rebuilt over the visited children; it does not run before
// the children. A callback may return a replacement node; returning nil
// keeps the rebuilt node. Missing callbacks (a nil field) leave every
// node as the walk rebuilt it.
type Visitor struct {
	Expression func(Expression) Expression
	Filter     func(Filter) Filter
	Value      func(Value) Value
	Statement  func(Statement) Statement
}

// VisitExpression runs a post-order walk over e, applying v's callbacks
// at every level and rebuilding the tree bottom-up so a replacement
// lower in the tree is visible to enclosing combinators.
func VisitExpression(e Expression, v *Visitor) Expression {
	if e == nil {
		return nil
	}
	e = visitExpressionChildren(e, v)
	if v.Expression != nil {
		if r := v.Expression(e); r != nil {
			return r
		}
	}
	return e
}

func visitExpressionChildren(e Expression, v *Visitor) Expression {
	switch n := e.(type) {
	case *Invocation:
		cp := *n
		args := make(map[string]Value, len(n.InArgs))
		for k, val := range n.InArgs {
			args[k] = VisitValue(val, v)
		}
		cp.InArgs = args
		return &cp
	case *FilterExpr:
		cp := *n
		cp.Input = VisitExpression(n.Input, v)
		cp.Filter = VisitFilter(n.Filter, v)
		return &cp
	case *Projection:
		cp := *n
		cp.Input = VisitExpression(n.Input, v)
		return &cp
	case *Sort:
		cp := *n
		cp.Input = VisitExpression(n.Input, v)
		return &cp
	case *Index:
		cp := *n
		cp.Input = VisitExpression(n.Input, v)
		return &cp
	case *Slice:
		cp := *n
		cp.Input = VisitExpression(n.Input, v)
		return &cp
	case *Join:
		cp := *n
		cp.LHS = VisitExpression(n.LHS, v)
		cp.RHS = VisitExpression(n.RHS, v)
		return &cp
	case *Aggregation:
		cp := *n
		cp.Input = VisitExpression(n.Input, v)
		return &cp
	case *ArgMinMax:
		cp := *n
		cp.Input = VisitExpression(n.Input, v)
		return &cp
	case *Monitor:
		cp := *n
		cp.Table = VisitExpression(n.Table, v)
		return &cp
	case *AtTimer, *Timer:
		return e // no sub-expressions
	default:
		return e
	}
}

// VisitFilter runs a post-order walk over f, like VisitExpression.
func VisitFilter(f Filter, v *Visitor) Filter {
	if f == nil {
		return nil
	}
	f = visitFilterChildren(f, v)
	if v.Filter != nil {
		if r := v.Filter(f); r != nil {
			return r
		}
	}
	return f
}

func visitFilterChildren(f Filter, v *Visitor) Filter {
	switch n := f.(type) {
	case *And:
		cp := make([]Filter, len(n.Operands))
		for i, o := range n.Operands {
			cp[i] = VisitFilter(o, v)
		}
		return &And{Operands: cp}
	case *Or:
		cp := make([]Filter, len(n.Operands))
		for i, o := range n.Operands {
			cp[i] = VisitFilter(o, v)
		}
		return &Or{Operands: cp}
	case *Not:
		return &Not{Operand: VisitFilter(n.Operand, v)}
	case *AtomFilter:
		cp := *n
		cp.Value = VisitValue(n.Value, v)
		return &cp
	case *ComputeFilter:
		cp := *n
		cp.Expr = VisitValue(n.Expr, v)
		cp.Value = VisitValue(n.Value, v)
		return &cp
	case *ExternalFilter:
		cp := *n
		cp.Invocation = VisitExpression(n.Invocation, v).(*Invocation)
		cp.Filter = VisitFilter(n.Filter, v)
		return &cp
	default:
		// True, False have no children
		return f
	}
}

// Value is anything that can appear as an invocation argument, a filter
// RHS, or a filter-function expression. It is the same closed variant
// thingtalk.Value defines (literals, VarRefs, Computations, Undefined
// slots, ...) — the AST doesn't wrap it in a second parallel variant,
// it carries thingtalk.Value values directly through the tree without
// an intermediate AST-specific box.
type Value = thingtalk.Value

// VisitValue runs a pre-order walk over a Value leaf/subtree.
func VisitValue(val Value, v *Visitor) Value {
	if val == nil {
		return nil
	}
	if v.Value != nil {
		if r := v.Value(val); r != nil {
			return r
		}
	}
	return val
}
