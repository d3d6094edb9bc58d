package compiler

import (
	"testing"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weatherInvocation() *ast.Invocation {
	loc := thingtalk.LocationValue{Lat: 1, Lon: 3, Display: "Somewhere"}
	inv := ast.NewInvocation(ast.Selector{Kind: "com.weather"}, "current", map[string]ast.Value{"location": loc})
	inv.SetSchema(&ast.FunctionDef{
		QualifiedName: "com.weather.current",
		FunctionKind:  ast.QueryFunction,
		IsMonitorable: true,
		Args: []ast.FunctionArgument{
			{Name: "location", Direction: ast.InRequired, Type: thingtalk.Location},
			{Name: "temperature", Direction: ast.Out, Type: thingtalk.NewMeasure("C")},
		},
	})
	return inv
}

// "monitor(@com.weather.current(location=...)) => notify" lowers to
// exactly one state slot (the monitor gate's), and the compiled rule is
// well-parenthesized.
func TestCompileRule_MonitorLowering(t *testing.T) {
	rule := &ast.Rule{
		Head:    ast.HeadMonitor,
		Trigger: &ast.Monitor{Table: weatherInvocation()},
	}

	cr, err := CompileRule(rule, CompilerOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, cr.StateSlotCount)
	require.Len(t, cr.Steps, 2) // monitor gate, then notify emit
	gate := cr.Steps[0]
	assert.Equal(t, StepMonitorGate, gate.Kind)
	// Change detection keys on the output fields plus the input binding,
	// so the same table polled at a different location gets fresh state.
	assert.Equal(t, []string{"temperature", "location"}, gate.MinimalProjection)
	require.Len(t, gate.Children, 2)
	assert.Equal(t, StepInvokeQuery, gate.Children[0].Kind)
	assert.Equal(t, StepSaveState, gate.Children[1].Kind)
	assert.Equal(t, gate.StateSlot, gate.Children[1].StateSlot)
	assert.Equal(t, StepEmit, cr.Steps[1].Kind)

	assert.True(t, WellParenthesized(cr))
}

// Compiling the same rule twice (a stand-in for "re-running with
// identical input") produces structurally identical rules: recompiling
// is deterministic and carries no accumulated state across calls.
func TestCompileRule_DeterministicAcrossRuns(t *testing.T) {
	rule := &ast.Rule{
		Head:    ast.HeadMonitor,
		Trigger: &ast.Monitor{Table: weatherInvocation()},
	}

	first, err := CompileRule(rule, CompilerOptions{})
	require.NoError(t, err)
	second, err := CompileRule(rule, CompilerOptions{})
	require.NoError(t, err)

	assert.True(t, StructurallyEqual(first, second))
}

// now => @com.twitter.post(status=...) has no head steps and a single
// action step, with no state slots.
func TestCompileRule_Now(t *testing.T) {
	action := ast.NewInvocation(ast.Selector{Kind: "com.twitter"}, "post", map[string]ast.Value{"status": thingtalk.StringValue{Value: "hi"}})
	action.SetSchema(&ast.FunctionDef{QualifiedName: "com.twitter.post", FunctionKind: ast.ActionFunction})
	rule := &ast.Rule{Head: ast.HeadNow, Action: action}

	cr, err := CompileRule(rule, CompilerOptions{})
	require.NoError(t, err)
	require.Len(t, cr.Steps, 1)
	assert.Equal(t, StepInvokeAction, cr.Steps[0].Kind)
	assert.Equal(t, ScopeAction, cr.Steps[0].Scope)
	assert.Equal(t, 0, cr.StateSlotCount)
}

// An executor= rule appends a send_end_of_flow step
// scoped to the action boundary, carrying a fresh flow ID.
func TestCompileRule_ExecutorLowering(t *testing.T) {
	rule := &ast.Rule{
		Head:     ast.HeadNow,
		Executor: thingtalk.EntityValue{Value: "bob@example.com", Type: "tt:contact"},
	}

	cr, err := CompileRule(rule, CompilerOptions{})
	require.NoError(t, err)
	require.NotNil(t, cr.Remote)
	assert.NotEmpty(t, cr.Remote.FlowID)

	last := cr.Steps[len(cr.Steps)-1]
	assert.Equal(t, StepSendEndOfFlow, last.Kind)
	assert.Equal(t, cr.Remote.FlowID, last.FlowID)
}

// A get-predicate inside a filter lowers to its own scoped subquery
// step alongside the filter's plain predicate evaluation.
func TestCompileRule_GetPredicateLowering(t *testing.T) {
	inv := weatherInvocation()
	sub := ast.NewInvocation(ast.Selector{Kind: "com.calendar"}, "next_event", map[string]ast.Value{})
	filter := &ast.And{Operands: []ast.Filter{
		&ast.AtomFilter{Arg: "temperature", Op: ast.OpGT, Value: thingtalk.NumberValue{Value: 30}},
		&ast.ExternalFilter{Invocation: sub, Filter: ast.True},
	}}
	expr := &ast.FilterExpr{Input: inv, Filter: filter}
	expr.SetSchema(inv.Schema())

	rule := &ast.Rule{Head: ast.HeadNow, Queries: []ast.Expression{expr}}
	cr, err := CompileRule(rule, CompilerOptions{})
	require.NoError(t, err)

	fstep := cr.Steps[0]
	assert.Equal(t, StepFilter, fstep.Kind)
	require.Len(t, fstep.Children, 2)
	gp := fstep.Children[1]
	assert.Equal(t, StepGetPredicate, gp.Kind)
	assert.Equal(t, ScopeGetPredicate, gp.Scope)
	assert.Same(t, sub, gp.Invocation)
	assert.True(t, WellParenthesized(cr))
}

func TestCompileRule_FilterAndProjectionNest(t *testing.T) {
	inv := weatherInvocation()
	expr := &ast.Projection{
		Input:  &ast.FilterExpr{Input: inv, Filter: &ast.AtomFilter{Arg: "temperature", Op: ast.OpGT, Value: thingtalk.NumberValue{Value: 20}}},
		Fields: []string{"temperature"},
	}
	expr.SetSchema(inv.Schema())

	rule := &ast.Rule{Head: ast.HeadNow, Queries: []ast.Expression{expr}}
	cr, err := CompileRule(rule, CompilerOptions{})
	require.NoError(t, err)

	require.Len(t, cr.Steps, 2) // projection stage, then notify emit
	proj := cr.Steps[0]
	assert.Equal(t, StepProjection, proj.Kind)
	require.Len(t, proj.Children, 1)
	assert.Equal(t, StepFilter, proj.Children[0].Kind)
	assert.True(t, WellParenthesized(cr))
}
