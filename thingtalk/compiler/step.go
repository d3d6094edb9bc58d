// Package compiler implements the rule compiler: lowering a
// type-checked, optimized program into an ordered list of Rule
// descriptors, each an explicit Step DAG a runtime interpreter can
// schedule. thingtalk/typecheck + thingtalk/optimizer play the
// planner's role; CompiledRule is the static plan the runtime consumes.
package compiler

import (
	"fmt"
	"strings"

	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
)

// StepKind enumerates the dataflow node shapes a compiled rule's body
// is built from: invoke, get-predicate, filter, emit, save, aggregate,
// sort, index/slice, send-end-of-flow.
type StepKind int

const (
	StepInvokeTrigger StepKind = iota
	StepInvokeMonitor
	StepInvokeQuery
	StepInvokeAction
	StepInvokeTimer
	StepInvokeAtTimer
	StepFilter
	StepGetPredicate
	StepProjection
	StepSort
	StepIndex
	StepSlice
	StepJoinStream
	StepJoinScalar
	StepAggregate
	StepArgMinMax
	StepMonitorGate
	StepSaveState
	StepEmit
	StepSendEndOfFlow
)

func (k StepKind) String() string {
	switch k {
	case StepInvokeTrigger:
		return "invoke_trigger"
	case StepInvokeMonitor:
		return "invoke_monitor"
	case StepInvokeQuery:
		return "invoke_query"
	case StepInvokeAction:
		return "invoke_action"
	case StepInvokeTimer:
		return "invoke_timer"
	case StepInvokeAtTimer:
		return "invoke_at_timer"
	case StepFilter:
		return "filter"
	case StepGetPredicate:
		return "get_predicate"
	case StepProjection:
		return "projection"
	case StepSort:
		return "sort"
	case StepIndex:
		return "index"
	case StepSlice:
		return "slice"
	case StepJoinStream:
		return "join_stream"
	case StepJoinScalar:
		return "join_scalar"
	case StepAggregate:
		return "aggregate"
	case StepArgMinMax:
		return "argminmax"
	case StepMonitorGate:
		return "monitor_gate"
	case StepSaveState:
		return "save_state"
	case StepEmit:
		return "emit"
	case StepSendEndOfFlow:
		return "send_end_of_flow"
	default:
		return "?"
	}
}

// ErrorScope names a recovery boundary. Each invocation/emission sits
// inside one; a failure inside a boundary is reported via the runtime's
// report_error and does not abort sibling steps, while a failure
// outside any boundary aborts the rule.
type ErrorScope string

const (
	ScopeNone         ErrorScope = ""
	ScopeTrigger      ErrorScope = "trigger"
	ScopeTimer        ErrorScope = "timer"
	ScopeAtTimer      ErrorScope = "at_timer"
	ScopeQuery        ErrorScope = "query"
	ScopeGetPredicate ErrorScope = "get_predicate"
	ScopeAction       ErrorScope = "action"
)

// Step is one node of a compiled rule's dataflow. Not every field is
// meaningful for every Kind; see the Compile* functions in rule.go for
// which fields a given Kind populates.
type Step struct {
	Kind  StepKind
	Scope ErrorScope

	Invocation *ast.Invocation // StepInvoke*
	Filter     ast.Filter      // StepFilter, StepGetPredicate
	Fields     []string        // StepProjection; join steps' on-fields
	SortField  string          // StepSort
	SortDir    ast.SortDirection
	Indices    []ast.Value // StepIndex
	Base       ast.Value   // StepSlice, StepArgMinMax, StepInvokeTimer, StepInvokeAtTimer (expiry)
	Limit      ast.Value   // StepSlice, StepArgMinMax, StepInvokeTimer (frequency)
	AggOp      ast.AggregationOp
	AggField   string

	StateSlot         int      // StepMonitorGate, StepSaveState, StepArgMinMax accumulator
	MinimalProjection []string // StepMonitorGate's is_new_tuple key set

	Principal string // StepSendEndOfFlow
	FlowID    string // StepSendEndOfFlow

	// Children holds a step's nested sub-DAG: the input pipeline of a
	// filter, projection, sort, index, slice, aggregate or argminmax step;
	// a StepMonitorGate's monitored pipeline and StepSaveState; or a
	// StepJoinStream/StepJoinScalar's two branches (Children[0] is LHS,
	// Children[1] is RHS). A StepGetPredicate carries its subquery in
	// Invocation and Filter instead.
	Children []*Step
}

func (s *Step) String() string {
	var b strings.Builder
	writeStep(&b, s, 0)
	return b.String()
}

func writeStep(b *strings.Builder, s *Step, depth int) {
	fmt.Fprintf(b, "%s%s", strings.Repeat("  ", depth), s.Kind)
	if s.Scope != ScopeNone {
		fmt.Fprintf(b, "[%s]", s.Scope)
	}
	switch s.Kind {
	case StepInvokeTrigger, StepInvokeMonitor, StepInvokeQuery, StepInvokeAction:
		if s.Invocation != nil {
			fmt.Fprintf(b, " %s", s.Invocation)
		}
	case StepFilter, StepGetPredicate:
		if s.Filter != nil {
			fmt.Fprintf(b, " %s", s.Filter)
		}
	case StepProjection:
		fmt.Fprintf(b, " %v", s.Fields)
	case StepSort:
		fmt.Fprintf(b, " %s %s", s.SortField, s.SortDir)
	case StepAggregate, StepArgMinMax:
		fmt.Fprintf(b, " %s(%s)", s.AggOp, s.AggField)
	case StepMonitorGate:
		fmt.Fprintf(b, " keys=%v slot=%d", s.MinimalProjection, s.StateSlot)
	case StepSendEndOfFlow:
		fmt.Fprintf(b, " principal=%s flow=%s", s.Principal, s.FlowID)
	}
	b.WriteString("\n")
	for _, c := range s.Children {
		writeStep(b, c, depth+1)
	}
}
