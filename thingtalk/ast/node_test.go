package ast

import (
	"testing"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weatherInvocation(temp float64) *Invocation {
	return NewInvocation(
		Selector{Kind: "com.weather"},
		"current",
		map[string]Value{"location": thingtalk.LocationValue{Lat: 1, Lon: 2}},
	)
}

func TestVisitExpressionReplacesBottomUp(t *testing.T) {
	inv := weatherInvocation(0)
	proj := &Projection{Input: inv, Fields: []string{"temperature"}}

	var sawInvocation, sawProjection bool
	result := VisitExpression(proj, &Visitor{
		Expression: func(e Expression) Expression {
			switch e.(type) {
			case *Invocation:
				sawInvocation = true
			case *Projection:
				sawProjection = true
			}
			return nil
		},
	})

	assert.True(t, sawInvocation, "should visit the nested invocation")
	assert.True(t, sawProjection, "should visit the outer projection")
	assert.Same(t, proj, result, "no replacement means the original node comes back")
}

func TestVisitExpressionReplacementPropagates(t *testing.T) {
	inv := weatherInvocation(0)
	sort := &Sort{Input: inv, Field: "temperature", Direction: Descending}

	replacement := &Slice{Input: inv, Base: thingtalk.NumberValue{Value: 0}, Limit: thingtalk.NumberValue{Value: 1}}
	result := VisitExpression(sort, &Visitor{
		Expression: func(e Expression) Expression {
			if s, ok := e.(*Sort); ok {
				_ = s
				return replacement
			}
			return nil
		},
	})
	assert.Same(t, replacement, result)
}

func TestVisitFilterFlattensNothingButDescends(t *testing.T) {
	f := &And{Operands: []Filter{
		&AtomFilter{Arg: "temperature", Op: OpGT, Value: thingtalk.NumberValue{Value: 70}},
		&Not{Operand: &AtomFilter{Arg: "humidity", Op: OpLT, Value: thingtalk.NumberValue{Value: 50}}},
	}}
	var atoms int
	VisitFilter(f, &Visitor{
		Filter: func(inner Filter) Filter {
			if _, ok := inner.(*AtomFilter); ok {
				atoms++
			}
			return nil
		},
	})
	assert.Equal(t, 2, atoms)
}

func TestIterateSlotsVisitsInvocationArgsAndFilterAtoms(t *testing.T) {
	inv := NewInvocation(Selector{Kind: "com.weather"}, "current", map[string]Value{
		"location": thingtalk.LocationValue{Lat: 1, Lon: 2},
	})
	fe := &FilterExpr{
		Input: inv,
		Filter: &And{Operands: []Filter{
			&AtomFilter{Arg: "temperature", Op: OpGT, Value: thingtalk.Undefined},
		}},
	}

	var names []string
	ok := IterateSlots(fe, Scope{}, func(s Slot) bool {
		names = append(names, s.Name)
		return true
	})
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"location", "temperature"}, names)
}

func TestIterateSlotsShortCircuits(t *testing.T) {
	inv := NewInvocation(Selector{Kind: "com.weather"}, "current", map[string]Value{
		"a": thingtalk.NumberValue{Value: 1},
		"b": thingtalk.NumberValue{Value: 2},
	})
	count := 0
	ok := IterateSlots(inv, Scope{}, func(s Slot) bool {
		count++
		return false
	})
	assert.False(t, ok)
	assert.Equal(t, 1, count)
}

func TestIterateSlotsSetMutatesInPlace(t *testing.T) {
	inv := NewInvocation(Selector{Kind: "com.weather"}, "current", map[string]Value{
		"location": thingtalk.Undefined,
	})
	IterateSlots(inv, Scope{}, func(s Slot) bool {
		if s.Name == "location" {
			s.Set(thingtalk.LocationValue{Lat: 37, Lon: -122})
		}
		return true
	})
	assert.Equal(t, thingtalk.LocationValue{Lat: 37, Lon: -122}, inv.InArgs["location"])
}

func TestCloneExpressionIsIndependent(t *testing.T) {
	inv := NewInvocation(Selector{Kind: "com.weather"}, "current", map[string]Value{
		"location": thingtalk.LocationValue{Lat: 1, Lon: 2},
	})
	proj := &Projection{Input: inv, Fields: []string{"temperature"}}

	clone := CloneExpression(proj).(*Projection)
	assert.Equal(t, proj.String(), clone.String())
	assert.NotSame(t, proj, clone)
	assert.NotSame(t, proj.Input, clone.Input)

	clone.Fields[0] = "humidity"
	assert.Equal(t, "temperature", proj.Fields[0], "mutating the clone must not affect the source")
}

func TestCloneFilterDeepCopiesOperands(t *testing.T) {
	f := &And{Operands: []Filter{
		&AtomFilter{Arg: "x", Op: OpEQ, Value: thingtalk.NumberValue{Value: 1}},
	}}
	clone := CloneFilter(f).(*And)
	atom := clone.Operands[0].(*AtomFilter)
	atom.Value = thingtalk.NumberValue{Value: 2}

	orig := f.Operands[0].(*AtomFilter)
	assert.Equal(t, thingtalk.NumberValue{Value: 1}, orig.Value)
}

func TestCloneProgramRoundTripsThroughPrettyPrint(t *testing.T) {
	p := &Program{Statements: []Statement{
		&Rule{
			Head:    HeadNow,
			Queries: []Expression{weatherInvocation(0)},
			Action:  nil,
		},
	}}
	clone := CloneProgram(p)
	assert.Equal(t, PrettyPrint(p), PrettyPrint(clone))
	assert.NotSame(t, p.Statements[0], clone.Statements[0])
}

func TestPrettyPrintProducesOneStatementPerLine(t *testing.T) {
	p := &Program{Statements: []Statement{
		&Rule{Head: HeadNow, Queries: []Expression{weatherInvocation(0)}},
	}}
	out := PrettyPrint(p)
	assert.Contains(t, out, "now")
	assert.Contains(t, out, "notify")
	assert.Contains(t, out, ";\n")
}
