package typecheck

import (
	"context"
	"fmt"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
)

// admissibleOps lists the CompareOps each declared Type category
// admits: numeric comparison for ordered scalar types,
// fuzzy/substring/prefix/suffix for strings, array containment for
// arrays, and equality/inequality for anything.
func admissibleOps(t thingtalk.Type) map[ast.CompareOp]bool {
	base := map[ast.CompareOp]bool{ast.OpEQ: true, ast.OpNE: true}
	switch t.(type) {
	case thingtalk.NumberType, thingtalk.MeasureType, thingtalk.CurrencyType, thingtalk.DateType, thingtalk.TimeType:
		base[ast.OpLT] = true
		base[ast.OpLE] = true
		base[ast.OpGT] = true
		base[ast.OpGE] = true
	case thingtalk.StringType:
		base[ast.OpFuzzyEQ] = true
		base[ast.OpSubstring] = true
		base[ast.OpStartsWith] = true
		base[ast.OpEndsWith] = true
	case thingtalk.ArrayType:
		base[ast.OpContains] = true
	}
	return base
}

// checkFilter type-checks f against scope: every atom's LHS resolves in
// scope, the operator must be admissible for the resolved type, and the
// RHS must unify with it. External filters recurse as standalone
// queries, with their inner filter checked against the subquery's own
// output scope.
func (c *Checker) checkFilter(ctx context.Context, f ast.Filter, scope ast.Scope) error {
	switch n := f.(type) {
	case *ast.And:
		for _, o := range n.Operands {
			if err := c.checkFilter(ctx, o, scope); err != nil {
				return err
			}
		}
		return nil
	case *ast.Or:
		for _, o := range n.Operands {
			if err := c.checkFilter(ctx, o, scope); err != nil {
				return err
			}
		}
		return nil
	case *ast.Not:
		return c.checkFilter(ctx, n.Operand, scope)
	case *ast.AtomFilter:
		declared, ok := scope[n.Arg]
		if !ok {
			return &thingtalk.UndeclaredNameErr{Name: n.Arg, Scope: scopeNames(scope)}
		}
		if !admissibleOps(declared)[n.Op] {
			return fmt.Errorf("typecheck: operator %s is not admissible for %s (arg %q)", n.Op, declared, n.Arg)
		}
		checked, err := c.checkValue(ctx, n.Value, declared, scope)
		if err != nil {
			return err
		}
		n.Value = checked
		return nil
	case *ast.ComputeFilter:
		exprType, err := c.inferType(n.Expr, thingtalk.Any, scope)
		if err != nil {
			return err
		}
		if exprType == nil {
			exprType = thingtalk.Any
		}
		if !admissibleOps(exprType)[n.Op] {
			return fmt.Errorf("typecheck: operator %s is not admissible for computed type %s", n.Op, exprType)
		}
		checked, err := c.checkValue(ctx, n.Value, exprType, scope)
		if err != nil {
			return err
		}
		n.Value = checked
		return nil
	case *ast.ExternalFilter:
		if err := c.checkInvocation(ctx, n.Invocation, scope, []ast.FunctionKind{ast.QueryFunction}); err != nil {
			return err
		}
		innerScope := scopeWithOutputs(scope, n.Invocation)
		return c.checkFilter(ctx, n.Filter, innerScope)
	default:
		// True/False need no checking.
		return nil
	}
}
