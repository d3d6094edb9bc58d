package typecheck

import (
	"fmt"
	"strings"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
)

// IsExecutable reports whether every required input of inv is
// concretely bound — no required Undefined slot, no empty
// require_either group, and every required_if condition that fires has
// its dependent argument bound. The first violation's reason comes back
// as a plain string; NonExecutableErr (thingtalk/errors.go) wraps it
// for callers that need a typed error.
func IsExecutable(inv *ast.Invocation) (bool, string) {
	fn := inv.Schema()
	if fn == nil {
		return false, "invocation has no resolved schema"
	}

	for _, arg := range fn.Args {
		if arg.Direction == ast.InRequired {
			if isUnboundRequired(inv.InArgs[arg.Name]) {
				return false, fmt.Sprintf("%s is required but unbound", arg.Name)
			}
		}
	}

	seenEitherGroups := map[string]bool{}
	for _, arg := range fn.Args {
		for _, group := range arg.Annotations.RequiredEither {
			key := strings.Join(group, ",")
			if seenEitherGroups[key] {
				continue
			}
			seenEitherGroups[key] = true
			if !anyBound(inv, group) {
				return false, fmt.Sprintf("require_either group [%s] has no bound member", key)
			}
		}
		for _, cond := range arg.Annotations.RequiredIf {
			name, val, ok := splitCondition(cond)
			if !ok {
				continue
			}
			if conditionHolds(inv, name, val) && isUnboundRequired(inv.InArgs[arg.Name]) {
				return false, fmt.Sprintf("%s is required when %s but unbound", arg.Name, cond)
			}
		}
	}
	return true, ""
}

// IsProgramExecutable walks every invocation in p and reports the first
// non-executable one found, if any.
func IsProgramExecutable(p *ast.Program) (bool, string) {
	ok := true
	reason := ""
	for _, stmt := range p.Statements {
		rule, isRule := stmt.(*ast.Rule)
		if !isRule {
			continue
		}
		exprs := rule.Queries
		if rule.Trigger != nil {
			exprs = append([]ast.Expression{rule.Trigger}, exprs...)
		}
		if rule.Action != nil {
			exprs = append(exprs, rule.Action)
		}
		for _, e := range exprs {
			if !forEachInvocation(e, func(inv *ast.Invocation) bool {
				executable, why := IsExecutable(inv)
				if !executable {
					ok = false
					reason = why
				}
				return executable
			}) {
				return false, reason
			}
		}
	}
	return ok, reason
}

// forEachInvocation visits every Invocation reachable from e, stopping
// early (and returning false) the first time visit returns false — the
// same short-circuiting convention ast.IterateSlots uses.
func forEachInvocation(e ast.Expression, visit func(*ast.Invocation) bool) bool {
	switch n := e.(type) {
	case *ast.Invocation:
		return visit(n)
	case *ast.FilterExpr:
		if !forEachInvocation(n.Input, visit) {
			return false
		}
		return forEachFilterInvocation(n.Filter, visit)
	case *ast.Projection:
		return forEachInvocation(n.Input, visit)
	case *ast.Sort:
		return forEachInvocation(n.Input, visit)
	case *ast.Index:
		return forEachInvocation(n.Input, visit)
	case *ast.Slice:
		return forEachInvocation(n.Input, visit)
	case *ast.Join:
		return forEachInvocation(n.LHS, visit) && forEachInvocation(n.RHS, visit)
	case *ast.Aggregation:
		return forEachInvocation(n.Input, visit)
	case *ast.ArgMinMax:
		return forEachInvocation(n.Input, visit)
	case *ast.Monitor:
		return forEachInvocation(n.Table, visit)
	default:
		return true
	}
}

func forEachFilterInvocation(f ast.Filter, visit func(*ast.Invocation) bool) bool {
	switch n := f.(type) {
	case *ast.And:
		for _, o := range n.Operands {
			if !forEachFilterInvocation(o, visit) {
				return false
			}
		}
		return true
	case *ast.Or:
		for _, o := range n.Operands {
			if !forEachFilterInvocation(o, visit) {
				return false
			}
		}
		return true
	case *ast.Not:
		return forEachFilterInvocation(n.Operand, visit)
	case *ast.ExternalFilter:
		if !visit(n.Invocation) {
			return false
		}
		return forEachFilterInvocation(n.Filter, visit)
	default:
		return true
	}
}

func isUnboundRequired(v thingtalk.Value) bool {
	if v == nil {
		return true
	}
	u, ok := v.(thingtalk.UndefinedValue)
	return ok && u.Required
}

func anyBound(inv *ast.Invocation, names []string) bool {
	for _, n := range names {
		if !isUnboundRequired(inv.InArgs[n]) {
			return true
		}
	}
	return false
}

// splitCondition parses a "param=value" required_if entry.
func splitCondition(cond string) (name, value string, ok bool) {
	parts := strings.SplitN(cond, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func conditionHolds(inv *ast.Invocation, name, value string) bool {
	v, bound := inv.InArgs[name]
	if !bound {
		return false
	}
	switch val := v.(type) {
	case thingtalk.EnumValue:
		return val.Label == value
	case thingtalk.StringValue:
		return val.Value == value
	default:
		return v.String() == value
	}
}
