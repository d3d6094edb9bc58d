package ast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
)

// Expression is the algebra over invocations: a primitive Invocation
// composed through Filter/Projection/Sort/Index/Slice/Join/
// Aggregation/ArgMinMax/Monitor/AtTimer/Timer.
type Expression interface {
	Node
	// Schema is non-nil once the type checker has run: every expression
	// carries a non-null schema after type checking.
	Schema() *FunctionDef
	isExpression()
}

// Invocation is the only primitive expression: a call to a selector's
// channel with named input arguments.
type Invocation struct {
	Selector Selector
	Channel  string
	InArgs   map[string]Value
	schema   *FunctionDef
}

func NewInvocation(sel Selector, channel string, inArgs map[string]Value) *Invocation {
	return &Invocation{Selector: sel, Channel: channel, InArgs: inArgs}
}

func (i *Invocation) isExpression()       {}
func (i *Invocation) Schema() *FunctionDef { return i.schema }
func (i *Invocation) SetSchema(f *FunctionDef) { i.schema = f }
func (i *Invocation) String() string {
	names := make([]string, 0, len(i.InArgs))
	for name := range i.InArgs {
		names = append(names, name)
	}
	sort.Strings(names) // canonical form is argument-name order
	parts := make([]string, len(names))
	for idx, name := range names {
		parts[idx] = fmt.Sprintf("%s=%s", name, i.InArgs[name].String())
	}
	return fmt.Sprintf("%s.%s(%s)", i.Selector, i.Channel, strings.Join(parts, ", "))
}

// FilterExpr applies a boolean Filter over an input table. Named
// FilterExpr (not Filter) to avoid colliding with the Filter algebra
// type defined in filter.go.
type FilterExpr struct {
	Input  Expression
	Filter Filter
	schema *FunctionDef
}

func (f *FilterExpr) isExpression()        {}
func (f *FilterExpr) Schema() *FunctionDef  { return f.schema }
func (f *FilterExpr) SetSchema(s *FunctionDef) { f.schema = s }
func (f *FilterExpr) String() string {
	return fmt.Sprintf("%s, %s", f.Input, f.Filter)
}

// Projection narrows the columns of Input to Fields, a subset of
// Input.Schema().out.
type Projection struct {
	Input  Expression
	Fields []string
	schema *FunctionDef
}

func (p *Projection) isExpression()       {}
func (p *Projection) Schema() *FunctionDef { return p.schema }
func (p *Projection) SetSchema(s *FunctionDef) { p.schema = s }
func (p *Projection) String() string {
	return fmt.Sprintf("[%s] of (%s)", strings.Join(p.Fields, ", "), p.Input)
}

// SortDirection is ascending or descending.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

func (d SortDirection) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Sort orders Input by Field.
type Sort struct {
	Input     Expression
	Field     string
	Direction SortDirection
	schema    *FunctionDef
}

func (s *Sort) isExpression()        {}
func (s *Sort) Schema() *FunctionDef  { return s.schema }
func (s *Sort) SetSchema(f *FunctionDef) { s.schema = f }
func (s *Sort) String() string {
	return fmt.Sprintf("sort(%s %s of (%s))", s.Field, s.Direction, s.Input)
}

// Index selects specific elements (possibly negative, counting from the
// end) from Input.
type Index struct {
	Input   Expression
	Indices []Value
	schema  *FunctionDef
}

func (ix *Index) isExpression()        {}
func (ix *Index) Schema() *FunctionDef  { return ix.schema }
func (ix *Index) SetSchema(f *FunctionDef) { ix.schema = f }
func (ix *Index) String() string {
	parts := make([]string, len(ix.Indices))
	for i, v := range ix.Indices {
		parts[i] = v.String()
	}
	return fmt.Sprintf("(%s)[%s]", ix.Input, strings.Join(parts, ", "))
}

// Slice takes Limit elements of Input starting at Base.
type Slice struct {
	Input  Expression
	Base   Value
	Limit  Value
	schema *FunctionDef
}

func (s *Slice) isExpression()        {}
func (s *Slice) Schema() *FunctionDef  { return s.schema }
func (s *Slice) SetSchema(f *FunctionDef) { s.schema = f }
func (s *Slice) String() string {
	return fmt.Sprintf("(%s)[%s:%s]", s.Input, s.Base, s.Limit)
}

// Join combines LHS and RHS, optionally with an "on" binding (On maps
// an RHS input argument name to an LHS output symbol).
type Join struct {
	LHS, RHS Expression
	On       map[string]string
	schema   *FunctionDef
}

func (j *Join) isExpression()        {}
func (j *Join) Schema() *FunctionDef  { return j.schema }
func (j *Join) SetSchema(f *FunctionDef) { j.schema = f }
func (j *Join) String() string {
	s := fmt.Sprintf("(%s) join (%s)", j.LHS, j.RHS)
	if len(j.On) > 0 {
		keys := make([]string, 0, len(j.On))
		for k := range j.On {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%s", k, j.On[k])
		}
		s += " on (" + strings.Join(parts, ", ") + ")"
	}
	return s
}

// AggregationOp is one of count/min/max/sum/avg.
type AggregationOp string

const (
	AggCount AggregationOp = "count"
	AggMin   AggregationOp = "min"
	AggMax   AggregationOp = "max"
	AggSum   AggregationOp = "sum"
	AggAvg   AggregationOp = "avg"
)

// Aggregation reduces Input to a single scalar via Op over Field
// (Field is empty/unused for count).
type Aggregation struct {
	Input  Expression
	Op     AggregationOp
	Field  string
	schema *FunctionDef
}

func (a *Aggregation) isExpression()        {}
func (a *Aggregation) Schema() *FunctionDef  { return a.schema }
func (a *Aggregation) SetSchema(f *FunctionDef) { a.schema = f }
func (a *Aggregation) String() string {
	if a.Field == "" {
		return fmt.Sprintf("%s(%s)", a.Op, a.Input)
	}
	return fmt.Sprintf("%s(%s of (%s))", a.Op, a.Field, a.Input)
}

// ArgMinMax is a bounded top-k selection: argmin/argmax over Field,
// taking Limit results starting at Base.
type ArgMinMax struct {
	Input  Expression
	Op     AggregationOp // AggMin or AggMax
	Field  string
	Base   Value
	Limit  Value
	schema *FunctionDef
}

func (a *ArgMinMax) isExpression()        {}
func (a *ArgMinMax) Schema() *FunctionDef  { return a.schema }
func (a *ArgMinMax) SetSchema(f *FunctionDef) { a.schema = f }
func (a *ArgMinMax) String() string {
	return fmt.Sprintf("arg%s(%s of (%s))[%s:%s]", a.Op, a.Field, a.Input, a.Base, a.Limit)
}

// Monitor wraps a monitorable Table and emits a change event whenever
// Fields (or all fields, if empty) differ from the last observed tuple.
type Monitor struct {
	Table  Expression
	Fields []string // empty means "all output fields"
	schema *FunctionDef
}

func (m *Monitor) isExpression()        {}
func (m *Monitor) Schema() *FunctionDef  { return m.schema }
func (m *Monitor) SetSchema(f *FunctionDef) { m.schema = f }
func (m *Monitor) String() string {
	if len(m.Fields) == 0 {
		return fmt.Sprintf("monitor(%s)", m.Table)
	}
	return fmt.Sprintf("monitor([%s] of %s)", strings.Join(m.Fields, ", "), m.Table)
}

// AtTimer fires once at each of Times (wall-clock times-of-day),
// optionally expiring after Expiry.
type AtTimer struct {
	Times  []thingtalk.TimeValue
	Expiry thingtalk.Value // nil if no expiry
	schema *FunctionDef
}

func (a *AtTimer) isExpression()        {}
func (a *AtTimer) Schema() *FunctionDef  { return a.schema }
func (a *AtTimer) SetSchema(f *FunctionDef) { a.schema = f }
func (a *AtTimer) String() string {
	parts := make([]string, len(a.Times))
	for i, t := range a.Times {
		parts[i] = t.String()
	}
	s := fmt.Sprintf("at_timer(time=[%s])", strings.Join(parts, ", "))
	if a.Expiry != nil {
		s += fmt.Sprintf(", expiry=%s", a.Expiry)
	}
	return s
}

// Timer fires every Interval starting at Base, optionally for Freq
// total occurrences.
type Timer struct {
	Base     thingtalk.Value
	Interval thingtalk.Value
	Freq     thingtalk.Value // nil if unbounded
	schema   *FunctionDef
}

func (t *Timer) isExpression()        {}
func (t *Timer) Schema() *FunctionDef  { return t.schema }
func (t *Timer) SetSchema(f *FunctionDef) { t.schema = f }
func (t *Timer) String() string {
	s := fmt.Sprintf("timer(base=%s, interval=%s", t.Base, t.Interval)
	if t.Freq != nil {
		s += fmt.Sprintf(", frequency=%s", t.Freq)
	}
	return s + ")"
}

// IsAction reports whether e's schema (once assigned) is an action,
// used by the type checker to enforce "an action never appears in a
// query position".
func IsAction(e Expression) bool {
	s := e.Schema()
	return s != nil && s.FunctionKind == ActionFunction
}
