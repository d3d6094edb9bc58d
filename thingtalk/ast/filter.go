package ast

import (
	"fmt"
	"strings"
)

// Filter is the boolean algebra over predicates: True, False, And/Or of
// arbitrary arity, Not, atomic comparisons, subquery predicates
// (External) and computed comparisons (Compute). Optimizer invariants
// (no 0/1-arity And/Or, no double negation, folded constants, flattened
// And/Or) are established by thingtalk/optimizer, not by this package —
// the AST itself admits any shape a parser might produce.
type Filter interface {
	Node
	isFilter()
}

// trueFilter and falseFilter (exposed as True and False) are the two
// boolean constants. They are
// singletons (like thingtalk's base Types) so the optimizer can compare
// against them by identity.
type (
	trueFilter  struct{}
	falseFilter struct{}
)

func (trueFilter) isFilter()    {}
func (falseFilter) isFilter()   {}
func (trueFilter) String() string  { return "true" }
func (falseFilter) String() string { return "false" }

var (
	True  Filter = trueFilter{}
	False Filter = falseFilter{}
)

// IsTrue and IsFalse test for the boolean constants.
func IsTrue(f Filter) bool  { _, ok := f.(trueFilter); return ok }
func IsFalse(f Filter) bool { _, ok := f.(falseFilter); return ok }

// And is the conjunction of Operands. A well-formed (post-optimization)
// And never has 0 or 1 operands; the parser and transforms may produce
// those shapes, which thingtalk/optimizer then normalizes away.
type And struct{ Operands []Filter }

func (a *And) isFilter() {}
func (a *And) String() string {
	parts := make([]string, len(a.Operands))
	for i, o := range a.Operands {
		parts[i] = o.String()
	}
	return "(" + strings.Join(parts, " && ") + ")"
}

// Or is the disjunction of Operands.
type Or struct{ Operands []Filter }

func (o *Or) isFilter() {}
func (o *Or) String() string {
	parts := make([]string, len(o.Operands))
	for i, x := range o.Operands {
		parts[i] = x.String()
	}
	return "(" + strings.Join(parts, " || ") + ")"
}

// Not is logical negation.
type Not struct{ Operand Filter }

func (n *Not) isFilter()        {}
func (n *Not) String() string   { return "!(" + n.Operand.String() + ")" }

// CompareOp is one of the atomic filter operators: numeric comparison,
// fuzzy/substring string match, array membership, and prefix/suffix
// checks.
type CompareOp string

const (
	OpEQ         CompareOp = "=="
	OpNE         CompareOp = "!="
	OpLT         CompareOp = "<"
	OpLE         CompareOp = "<="
	OpGT         CompareOp = ">"
	OpGE         CompareOp = ">="
	OpFuzzyEQ    CompareOp = "=~"  // fuzzy string match
	OpSubstring  CompareOp = "=~s" // substring
	OpContains   CompareOp = "contains"
	OpStartsWith CompareOp = "starts_with"
	OpEndsWith   CompareOp = "ends_with"
)

// AtomFilter is a single atomic predicate: Arg Op Value, where Arg
// resolves either to an output of the enclosing table or to a scope
// variable.
type AtomFilter struct {
	Arg   string
	Op    CompareOp
	Value Value
}

func (a *AtomFilter) isFilter() {}
func (a *AtomFilter) String() string {
	return fmt.Sprintf("%s %s %s", a.Arg, a.Op, a.Value)
}

// ExternalFilter is a get-predicate: a subquery Invocation whose inner
// Filter is attached to it; the enclosing filter is satisfied if at
// least one row of Invocation (restricted by Filter) exists.
type ExternalFilter struct {
	Invocation *Invocation
	Filter     Filter
}

func (e *ExternalFilter) isFilter() {}
func (e *ExternalFilter) String() string {
	return fmt.Sprintf("any(%s, %s)", e.Invocation, e.Filter)
}

// ComputeOp mirrors CompareOp but for filters whose LHS is itself a
// computed expression rather than a bare argument name.
type ComputeOp = CompareOp

// ComputeFilter is "Compute(expr, op, value)": a comparison whose LHS
// is an arbitrary computed Value (e.g. distance(...) > 1km) rather than
// a plain argument reference.
type ComputeFilter struct {
	Expr  Value
	Op    ComputeOp
	Value Value
}

func (c *ComputeFilter) isFilter() {}
func (c *ComputeFilter) String() string {
	return fmt.Sprintf("%s %s %s", c.Expr, c.Op, c.Value)
}
