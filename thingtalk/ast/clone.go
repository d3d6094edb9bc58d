package ast

import "github.com/stanford-oval/thingtalk-go/thingtalk"

// CloneExpression returns a deep structural copy of e: every reachable
// node is a distinct Go value, so mutating the clone (in place, via a
// slot Set or a Visitor replacement) never touches e. Two values cloned
// from the same source compare equal under String() but never under ==.
func CloneExpression(e Expression) Expression {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *Invocation:
		cp := &Invocation{
			Selector: n.Selector,
			Channel:  n.Channel,
			InArgs:   make(map[string]Value, len(n.InArgs)),
			schema:   n.schema,
		}
		for k, v := range n.InArgs {
			cp.InArgs[k] = cloneValue(v)
		}
		return cp
	case *FilterExpr:
		return &FilterExpr{
			Input:  CloneExpression(n.Input),
			Filter: CloneFilter(n.Filter),
			schema: n.schema,
		}
	case *Projection:
		fields := append([]string(nil), n.Fields...)
		return &Projection{Input: CloneExpression(n.Input), Fields: fields, schema: n.schema}
	case *Sort:
		return &Sort{Input: CloneExpression(n.Input), Field: n.Field, Direction: n.Direction, schema: n.schema}
	case *Index:
		idx := make([]Value, len(n.Indices))
		for i, v := range n.Indices {
			idx[i] = cloneValue(v)
		}
		return &Index{Input: CloneExpression(n.Input), Indices: idx, schema: n.schema}
	case *Slice:
		return &Slice{
			Input:  CloneExpression(n.Input),
			Base:   cloneValue(n.Base),
			Limit:  cloneValue(n.Limit),
			schema: n.schema,
		}
	case *Join:
		on := make(map[string]string, len(n.On))
		for k, v := range n.On {
			on[k] = v
		}
		return &Join{LHS: CloneExpression(n.LHS), RHS: CloneExpression(n.RHS), On: on, schema: n.schema}
	case *Aggregation:
		return &Aggregation{Input: CloneExpression(n.Input), Op: n.Op, Field: n.Field, schema: n.schema}
	case *ArgMinMax:
		return &ArgMinMax{
			Input:  CloneExpression(n.Input),
			Op:     n.Op,
			Field:  n.Field,
			Base:   cloneValue(n.Base),
			Limit:  cloneValue(n.Limit),
			schema: n.schema,
		}
	case *Monitor:
		fields := append([]string(nil), n.Fields...)
		return &Monitor{Table: CloneExpression(n.Table), Fields: fields, schema: n.schema}
	case *AtTimer:
		times := append([]thingtalk.TimeValue(nil), n.Times...)
		var expiry Value
		if n.Expiry != nil {
			expiry = cloneValue(n.Expiry)
		}
		return &AtTimer{Times: times, Expiry: expiry, schema: n.schema}
	case *Timer:
		return &Timer{
			Base:     cloneValue(n.Base),
			Interval: cloneValue(n.Interval),
			Freq:     clonePtrValue(n.Freq),
			schema:   n.schema,
		}
	default:
		return e
	}
}

// CloneFilter returns a deep structural copy of f.
func CloneFilter(f Filter) Filter {
	if f == nil {
		return nil
	}
	switch n := f.(type) {
	case trueFilter:
		return True
	case falseFilter:
		return False
	case *And:
		ops := make([]Filter, len(n.Operands))
		for i, o := range n.Operands {
			ops[i] = CloneFilter(o)
		}
		return &And{Operands: ops}
	case *Or:
		ops := make([]Filter, len(n.Operands))
		for i, o := range n.Operands {
			ops[i] = CloneFilter(o)
		}
		return &Or{Operands: ops}
	case *Not:
		return &Not{Operand: CloneFilter(n.Operand)}
	case *AtomFilter:
		return &AtomFilter{Arg: n.Arg, Op: n.Op, Value: cloneValue(n.Value)}
	case *ComputeFilter:
		return &ComputeFilter{Expr: cloneValue(n.Expr), Op: n.Op, Value: cloneValue(n.Value)}
	case *ExternalFilter:
		inv, _ := CloneExpression(n.Invocation).(*Invocation)
		return &ExternalFilter{Invocation: inv, Filter: CloneFilter(n.Filter)}
	default:
		return f
	}
}

// CloneStatement returns a deep structural copy of s.
func CloneStatement(s Statement) Statement {
	switch n := s.(type) {
	case *ClassDefStatement:
		return &ClassDefStatement{Class: n.Class}
	case *Declaration:
		cp := &Declaration{Name: n.Name, Kind: n.Kind, Params: append([]FunctionArgument(nil), n.Params...)}
		cp.Body = CloneExpression(n.Body)
		for _, st := range n.Stmts {
			cp.Stmts = append(cp.Stmts, CloneStatement(st))
		}
		return cp
	case *Rule:
		cp := &Rule{Head: n.Head, Trigger: CloneExpression(n.Trigger), Action: CloneExpression(n.Action)}
		for _, q := range n.Queries {
			cp.Queries = append(cp.Queries, CloneExpression(q))
		}
		if n.Executor != nil {
			cp.Executor = cloneValue(n.Executor)
		}
		return cp
	default:
		return s
	}
}

// CloneProgram returns a deep structural copy of p.
func CloneProgram(p *Program) *Program {
	cp := &Program{Statements: make([]Statement, len(p.Statements))}
	for i, s := range p.Statements {
		cp.Statements[i] = CloneStatement(s)
	}
	return cp
}

// cloneValue deep-copies the mutable container Values (Array,
// Computation, Location's embedded VarRef, Date's VarExpr); every other
// Value variant
// is an immutable struct of scalars and is safe to return as-is.
func cloneValue(v Value) Value {
	switch val := v.(type) {
	case thingtalk.ArrayValue:
		elems := make([]Value, len(val.Elems))
		for i, e := range val.Elems {
			elems[i] = cloneValue(e)
		}
		return thingtalk.ArrayValue{Elems: elems}
	case thingtalk.ComputationValue:
		args := make([]Value, len(val.Args))
		for i, a := range val.Args {
			args[i] = cloneValue(a)
		}
		return thingtalk.ComputationValue{Op: val.Op, Args: args, ResolvedType: val.ResolvedType}
	case thingtalk.LocationValue:
		if val.Var == nil {
			return val
		}
		v := *val.Var
		val.Var = &v
		return val
	case thingtalk.DateValue:
		if val.Kind == thingtalk.DateVarExpr && val.VarExpr != nil {
			val.VarExpr = cloneValue(val.VarExpr)
		}
		return val
	default:
		return v
	}
}

func clonePtrValue(v Value) Value {
	if v == nil {
		return nil
	}
	return cloneValue(v)
}
