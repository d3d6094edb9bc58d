// Package transform implements the whole-program rewrites:
// program-to-policy, example-to-program, declaration-to-program, and
// executor= lowering into a send/receive program pair. Every entry
// point here is a pure tree rewrite from one already-parsed Program (or
// sub-tree) to another. Transforms sit between the type checker and
// the rule compiler in the pipeline, so every function here takes and
// returns type-checked trees and performs no schema lookups of its own.
package transform

import (
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
)

// PermissionRule is one derived permission entry: a precondition under
// which Query may be read and Action invoked. A nil Query or Action
// means "any query"/"any action" — the entry imposes no restriction on
// that half of the rule.
type PermissionRule struct {
	Precondition ast.Filter
	Query        ast.Expression
	Action       ast.Expression
}

// Policy is an ordered list of permission entries.
type Policy struct {
	Rules []*PermissionRule
}

// ProgramToPolicy converts every "now => q* => a" rule in p into a
// permission entry with a true precondition. Rules
// with a non-Now head (monitor/timer/at_timer) describe a standing
// trigger, not a one-shot permission grant, and are skipped — a policy
// constrains what a program may query and do, not when it runs.
func ProgramToPolicy(p *ast.Program) *Policy {
	policy := &Policy{}
	for _, stmt := range p.Statements {
		rule, ok := stmt.(*ast.Rule)
		if !ok || rule.Head != ast.HeadNow {
			continue
		}
		policy.Rules = append(policy.Rules, &PermissionRule{
			Precondition: ast.True,
			Query:        foldQueryChain(rule.Queries),
			Action:       rule.Action,
		})
	}
	return policy
}

// foldQueryChain combines a rule's sequential query stages into the
// single Expression a permission entry's Query field names: stages
// compose left-to-right the same way a Join's LHS/RHS compose, so
// chaining n stages lowers to n-1 nested Joins with no "on" binding
// (each stage only narrows what may be read, it does not correlate
// fields across stages).
func foldQueryChain(queries []ast.Expression) ast.Expression {
	if len(queries) == 0 {
		return nil
	}
	result := queries[0]
	for _, q := range queries[1:] {
		result = &ast.Join{LHS: result, RHS: q}
	}
	return result
}
