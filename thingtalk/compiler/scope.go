package compiler

// WellParenthesized verifies the error-recovery invariant: recovery
// boundaries form a properly nested tree, like balanced parentheses.
// A step carrying its own Scope opens a boundary over its subtree; a
// descendant may open a further boundary of a different scope inside
// it (a query boundary nests inside a trigger boundary, a
// get-predicate boundary inside a query's filter) — that is nesting,
// not a violation. Since a Step's boundary is exactly its subtree,
// the shape that would break parenthesization is an invocation or
// emission sitting outside every boundary: its failure would abort
// the whole rule instead of being reported and contained.
func WellParenthesized(r *CompiledRule) bool {
	for _, s := range r.Steps {
		if !scopeNests(s, ScopeNone) {
			return false
		}
	}
	return true
}

func scopeNests(s *Step, enclosing ErrorScope) bool {
	scope := s.Scope
	if scope == ScopeNone {
		// Unscoped steps sit inside whatever boundary encloses them; a
		// differing non-None scope opens its own nested boundary instead.
		scope = enclosing
	}
	if scope == ScopeNone && isEffectful(s.Kind) {
		return false
	}
	for _, c := range s.Children {
		if !scopeNests(c, scope) {
			return false
		}
	}
	return true
}

// isEffectful reports whether a step invokes an external device or
// emits downstream — the steps whose failures must be caught at a
// recovery boundary rather than aborting the rule.
func isEffectful(k StepKind) bool {
	switch k {
	case StepInvokeTrigger, StepInvokeMonitor, StepInvokeQuery, StepInvokeAction,
		StepInvokeTimer, StepInvokeAtTimer, StepGetPredicate, StepEmit, StepSendEndOfFlow:
		return true
	default:
		return false
	}
}
