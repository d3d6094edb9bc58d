package compiler

import "github.com/stanford-oval/thingtalk-go/thingtalk/ast"

// StructurallyEqual reports whether a and b have the same Step DAG
// shape up to state-slot numbering: two rules with identical step DAGs
// modulo slot numbers compare equal.
// Slot numbers are assigned in a fixed traversal order during
// compilation, so two structurally identical rules always number their
// slots identically too; this function still ignores StateSlot
// explicitly so the property holds even if a future compiler revision
// changes the numbering scheme.
func StructurallyEqual(a, b *CompiledRule) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Head != b.Head || len(a.Steps) != len(b.Steps) {
		return false
	}
	for i := range a.Steps {
		if !stepsEqual(a.Steps[i], b.Steps[i]) {
			return false
		}
	}
	return true
}

func stepsEqual(a, b *Step) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Scope != b.Scope {
		return false
	}
	switch a.Kind {
	case StepInvokeTrigger, StepInvokeMonitor, StepInvokeQuery, StepInvokeAction:
		if invString(a.Invocation) != invString(b.Invocation) {
			return false
		}
	case StepFilter, StepGetPredicate:
		if filterString(a.Filter) != filterString(b.Filter) || invString(a.Invocation) != invString(b.Invocation) {
			return false
		}
	case StepSendEndOfFlow:
		// Principal/FlowID deliberately excluded: a flow ID is random per
		// compilation and a principal value differs per deployment, not
		// per rule shape.
	case StepProjection:
		if !stringsEqual(a.Fields, b.Fields) {
			return false
		}
	case StepSort:
		if a.SortField != b.SortField || a.SortDir != b.SortDir {
			return false
		}
	case StepAggregate, StepArgMinMax:
		if a.AggOp != b.AggOp || a.AggField != b.AggField {
			return false
		}
	case StepMonitorGate:
		if !stringsEqual(a.MinimalProjection, b.MinimalProjection) {
			return false
		}
	case StepJoinStream, StepJoinScalar:
		if !stringsEqual(a.Fields, b.Fields) {
			return false
		}
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !stepsEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func invString(i *ast.Invocation) string {
	if i == nil {
		return ""
	}
	return i.String()
}

func filterString(f ast.Filter) string {
	if f == nil {
		return ""
	}
	return f.String()
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
