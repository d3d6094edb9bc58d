package ast

import "github.com/stanford-oval/thingtalk-go/thingtalk"

// Scope is the set of names bound by tables upstream of the current
// position in the tree, each mapped to its resolved type: scope
// accumulates the outputs of upstream tables as a query pipeline is
// walked left to right.
type Scope map[string]thingtalk.Type

// Clone returns an independent copy of s.
func (s Scope) Clone() Scope {
	cp := make(Scope, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// Slot is one settable parameter, filter RHS, or invocation input
// reachable from the tree, paired with the scope visible at that point
//.
type Slot struct {
	// Holder is the node that owns this slot: an *Invocation (for an
	// input argument), an *AtomFilter (for its Value), or a
	// *ComputeFilter (for its Value) — never a Go pointer into a
	// shared global, so replacing a slot never aliases another node.
	Holder       interface{}
	Name         string // the argument/parameter name; "" for a bare filter value
	ExpectedType thingtalk.Type
	Scope        Scope
	Get          func() Value
	Set          func(Value)
}

// IterateSlots walks e's tree, invoking yield once per settable
// parameter, filter RHS, and invocation input — including those nested
// inside sub-filters — in tree order, each combinator's input before its
// own filter; an invocation's input arguments come in Go map iteration
// order, which is not fixed. yield returning false stops the walk early.
func IterateSlots(e Expression, scope Scope, yield func(Slot) bool) bool {
	if e == nil {
		return true
	}
	switch n := e.(type) {
	case *Invocation:
		for name, v := range n.InArgs {
			var expected thingtalk.Type
			if n.schema != nil {
				if arg, ok := n.schema.Arg(name); ok {
					expected = arg.Type
				}
			}
			name := name
			slot := Slot{
				Holder:       n,
				Name:         name,
				ExpectedType: expected,
				Scope:        scope,
				Get:          func() Value { return n.InArgs[name] },
				Set:          func(val Value) { n.InArgs[name] = val },
			}
			if !yield(slot) {
				return false
			}
			if !iterateValueSlots(v, n, name, scope, yield) {
				return false
			}
		}
		return true
	case *FilterExpr:
		if !IterateSlots(n.Input, scope, yield) {
			return false
		}
		innerScope := scopeWithOutputs(scope, n.Input)
		return iterateFilterSlots(n.Filter, innerScope, yield)
	case *Projection:
		return IterateSlots(n.Input, scope, yield)
	case *Sort:
		return IterateSlots(n.Input, scope, yield)
	case *Index:
		return IterateSlots(n.Input, scope, yield)
	case *Slice:
		return IterateSlots(n.Input, scope, yield)
	case *Join:
		if !IterateSlots(n.LHS, scope, yield) {
			return false
		}
		joined := scopeWithOutputs(scope, n.LHS)
		return IterateSlots(n.RHS, joined, yield)
	case *Aggregation:
		return IterateSlots(n.Input, scope, yield)
	case *ArgMinMax:
		return IterateSlots(n.Input, scope, yield)
	case *Monitor:
		return IterateSlots(n.Table, scope, yield)
	default:
		return true
	}
}

func iterateFilterSlots(f Filter, scope Scope, yield func(Slot) bool) bool {
	switch n := f.(type) {
	case *And:
		for _, o := range n.Operands {
			if !iterateFilterSlots(o, scope, yield) {
				return false
			}
		}
		return true
	case *Or:
		for _, o := range n.Operands {
			if !iterateFilterSlots(o, scope, yield) {
				return false
			}
		}
		return true
	case *Not:
		return iterateFilterSlots(n.Operand, scope, yield)
	case *AtomFilter:
		slot := Slot{
			Holder: n,
			Name:   n.Arg,
			Scope:  scope,
			Get:    func() Value { return n.Value },
			Set:    func(v Value) { n.Value = v },
		}
		return yield(slot)
	case *ComputeFilter:
		slot := Slot{
			Holder: n,
			Scope:  scope,
			Get:    func() Value { return n.Value },
			Set:    func(v Value) { n.Value = v },
		}
		return yield(slot)
	case *ExternalFilter:
		if !IterateSlots(n.Invocation, scope, yield) {
			return false
		}
		return iterateFilterSlots(n.Filter, scope, yield)
	default:
		return true
	}
}

// iterateValueSlots descends into a nested Computation/Array value so
// array elements and computation arguments that are themselves settable
// (e.g. a VarRef or Undefined inside an array literal) are reachable.
func iterateValueSlots(v Value, holder interface{}, name string, scope Scope, yield func(Slot) bool) bool {
	switch val := v.(type) {
	case thingtalk.ArrayValue:
		for i := range val.Elems {
			i := i
			slot := Slot{
				Holder: holder,
				Name:   name,
				Scope:  scope,
				Get:    func() Value { return val.Elems[i] },
				Set:    func(nv Value) { val.Elems[i] = nv },
			}
			if !yield(slot) {
				return false
			}
		}
	case thingtalk.ComputationValue:
		for i := range val.Args {
			i := i
			slot := Slot{
				Holder: holder,
				Name:   name,
				Scope:  scope,
				Get:    func() Value { return val.Args[i] },
				Set:    func(nv Value) { val.Args[i] = nv },
			}
			if !yield(slot) {
				return false
			}
		}
	}
	return true
}

// scopeWithOutputs returns a copy of scope extended with the output
// argument names of e's schema, bound to their declared types — "after
// a query, its out arguments enter scope".
func scopeWithOutputs(scope Scope, e Expression) Scope {
	next := scope.Clone()
	s := e.Schema()
	if s == nil {
		return next
	}
	for _, a := range s.Args {
		if a.Direction == Out {
			next[a.Name] = a.Type
		}
	}
	return next
}
