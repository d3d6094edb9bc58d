// Package typecheck implements the type checker: a single pass over a
// cloned AST that resolves selectors against the schema resolver,
// infers and unifies argument types, validates direction rules, and
// propagates scope through a query pipeline. The walk carries an
// ast.Scope environment forward and raises a typed error the instant a
// node fails to resolve — the first failure terminates checking, there
// is no batched diagnostics mode.
package typecheck

import (
	"context"
	"fmt"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
	"github.com/stanford-oval/thingtalk-go/thingtalk/schema"
	"go.uber.org/zap"
)

// Checker runs the single-pass type check.
// It is a thin stateless wrapper over a Resolver; callers construct one
// per compilation (or reuse one across programs sharing a resolver —
// Checker itself holds no per-program state).
type Checker struct {
	resolver *schema.Resolver
	logger   *zap.Logger
}

// NewChecker builds a Checker backed by resolver. A nil logger falls
// back to zap.NewNop(), matching thingtalk/schema.NewResolver's
// convention.
func NewChecker(resolver *schema.Resolver, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{resolver: resolver, logger: logger}
}

// CheckProgram type-checks a clone of p and returns the checked clone.
// Per the AST's immutability invariant ("AST nodes are immutable after
// a successful type check — subsequent passes produce new trees"), p
// itself is never mutated.
func (c *Checker) CheckProgram(ctx context.Context, p *ast.Program) (*ast.Program, error) {
	cp := ast.CloneProgram(p)
	for _, stmt := range cp.Statements {
		if err := c.checkStatement(ctx, stmt); err != nil {
			return nil, err
		}
	}
	return cp, nil
}

func (c *Checker) checkStatement(ctx context.Context, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ClassDefStatement:
		// A program-local class definition is injected into the resolver
		// so later statements (and this one's own members) see it without
		// a provider round trip.
		c.resolver.InjectClass(s.Class)
		return nil
	case *ast.Declaration:
		return c.checkDeclaration(ctx, s)
	case *ast.Rule:
		return c.checkRule(ctx, s)
	default:
		return fmt.Errorf("typecheck: unknown statement type %T", stmt)
	}
}

func (c *Checker) checkDeclaration(ctx context.Context, d *ast.Declaration) error {
	scope := ast.Scope{}
	for _, p := range d.Params {
		scope[p.Name] = p.Type
	}
	if d.Body != nil {
		checked, _, err := c.checkExpression(ctx, d.Body, scope, functionKindsFor(d.Kind))
		if err != nil {
			return err
		}
		d.Body = checked
		return nil
	}
	for _, st := range d.Stmts {
		if err := c.checkStatement(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func functionKindsFor(k ast.DeclarationKind) []ast.FunctionKind {
	switch k {
	case ast.DeclQuery:
		return []ast.FunctionKind{ast.QueryFunction}
	case ast.DeclStream:
		return []ast.FunctionKind{ast.StreamFunction}
	case ast.DeclAction:
		return []ast.FunctionKind{ast.ActionFunction}
	default:
		return []ast.FunctionKind{ast.QueryFunction, ast.StreamFunction, ast.ActionFunction}
	}
}

// checkRule type-checks a rule's trigger, query chain, and action in
// sequence, threading scope left to right: after a query, its out
// arguments enter scope for everything downstream of it.
func (c *Checker) checkRule(ctx context.Context, r *ast.Rule) error {
	scope := ast.Scope{}

	if r.Head != ast.HeadNow {
		checked, triggerScope, err := c.checkTrigger(ctx, r.Trigger)
		if err != nil {
			return err
		}
		r.Trigger = checked
		scope = triggerScope
	}

	for i, q := range r.Queries {
		checked, nextScope, err := c.checkExpression(ctx, q, scope, []ast.FunctionKind{ast.QueryFunction})
		if err != nil {
			return err
		}
		r.Queries[i] = checked
		scope = nextScope
	}

	if r.Action == nil {
		return nil // "=> notify"
	}
	checked, _, err := c.checkExpression(ctx, r.Action, scope, []ast.FunctionKind{ast.ActionFunction})
	if err != nil {
		return err
	}
	if !ast.IsAction(checked) {
		return &thingtalk.DirectionViolationErr{Function: describe(checked), Arg: "(action position)"}
	}
	r.Action = checked
	return nil
}

// checkTrigger handles the four shapes a rule head's Trigger may take:
// a raw stream Invocation, a Monitor wrapping a query/stream table, an
// AtTimer, or a Timer. AtTimer/Timer carry no invocations to resolve.
func (c *Checker) checkTrigger(ctx context.Context, e ast.Expression) (ast.Expression, ast.Scope, error) {
	switch e.(type) {
	case *ast.AtTimer, *ast.Timer:
		return c.checkExpression(ctx, e, ast.Scope{}, nil)
	case *ast.Monitor:
		return c.checkExpression(ctx, e, ast.Scope{}, []ast.FunctionKind{ast.QueryFunction, ast.StreamFunction})
	default:
		return c.checkExpression(ctx, e, ast.Scope{}, []ast.FunctionKind{ast.StreamFunction})
	}
}

// checkExpression type-checks e bottom-up, returning the checked node
// (schema attached) and the scope visible to anything composed on top
// of e. kinds lists the FunctionKind candidates an Invocation directly
// inside e may resolve against, tried in order; nil/empty means "this
// position has no invocation to resolve" (AtTimer/Timer bases).
func (c *Checker) checkExpression(ctx context.Context, e ast.Expression, scope ast.Scope, kinds []ast.FunctionKind) (ast.Expression, ast.Scope, error) {
	switch n := e.(type) {
	case *ast.Invocation:
		if err := c.checkInvocation(ctx, n, scope, kinds); err != nil {
			return nil, nil, err
		}
		return n, scopeWithOutputs(scope, n), nil

	case *ast.FilterExpr:
		checkedInput, innerScope, err := c.checkExpression(ctx, n.Input, scope, kinds)
		if err != nil {
			return nil, nil, err
		}
		n.Input = checkedInput
		if err := c.checkFilter(ctx, n.Filter, innerScope); err != nil {
			return nil, nil, err
		}
		n.SetSchema(checkedInput.Schema())
		return n, innerScope, nil

	case *ast.Projection:
		checkedInput, innerScope, err := c.checkExpression(ctx, n.Input, scope, kinds)
		if err != nil {
			return nil, nil, err
		}
		n.Input = checkedInput
		base := checkedInput.Schema()
		if base == nil {
			return nil, nil, fmt.Errorf("typecheck: projection over an unresolved table")
		}
		outSet := map[string]bool{}
		for _, o := range base.OutArgs() {
			outSet[o] = true
		}
		for _, f := range n.Fields {
			if !outSet[f] {
				return nil, nil, &thingtalk.UndeclaredNameErr{Name: f, Scope: base.OutArgs()}
			}
		}
		n.SetSchema(projectSchema(base, n.Fields))
		return n, projectScope(innerScope, n.Fields), nil

	case *ast.Sort:
		checkedInput, innerScope, err := c.checkExpression(ctx, n.Input, scope, kinds)
		if err != nil {
			return nil, nil, err
		}
		n.Input = checkedInput
		if _, ok := innerScope[n.Field]; !ok {
			return nil, nil, &thingtalk.UndeclaredNameErr{Name: n.Field, Scope: scopeNames(innerScope)}
		}
		n.SetSchema(checkedInput.Schema())
		return n, innerScope, nil

	case *ast.Index:
		checkedInput, innerScope, err := c.checkExpression(ctx, n.Input, scope, kinds)
		if err != nil {
			return nil, nil, err
		}
		n.Input = checkedInput
		for i, v := range n.Indices {
			checkedVal, err := c.checkValue(ctx, v, thingtalk.Number, innerScope)
			if err != nil {
				return nil, nil, err
			}
			n.Indices[i] = checkedVal
		}
		n.SetSchema(checkedInput.Schema())
		return n, innerScope, nil

	case *ast.Slice:
		checkedInput, innerScope, err := c.checkExpression(ctx, n.Input, scope, kinds)
		if err != nil {
			return nil, nil, err
		}
		n.Input = checkedInput
		if base, err := c.checkValue(ctx, n.Base, thingtalk.Number, innerScope); err != nil {
			return nil, nil, err
		} else {
			n.Base = base
		}
		if limit, err := c.checkValue(ctx, n.Limit, thingtalk.Number, innerScope); err != nil {
			return nil, nil, err
		} else {
			n.Limit = limit
		}
		n.SetSchema(checkedInput.Schema())
		return n, innerScope, nil

	case *ast.Join:
		checkedLHS, lhsScope, err := c.checkExpression(ctx, n.LHS, scope, kinds)
		if err != nil {
			return nil, nil, err
		}
		n.LHS = checkedLHS
		rhsScope := lhsScope
		// "join … on (x=y) binds x as an input to the right-hand
		// invocation" — resolve the RHS's direct Invocation inputs
		// against lhsScope so bound on-keys are visible before the RHS
		// itself is checked.
		checkedRHS, rhsOutScope, err := c.checkExpression(ctx, n.RHS, rhsScope, kinds)
		if err != nil {
			return nil, nil, err
		}
		n.RHS = checkedRHS
		joined, err := unionScopes(lhsScope, rhsOutScope)
		if err != nil {
			return nil, nil, err
		}
		n.SetSchema(joinSchema(checkedLHS.Schema(), checkedRHS.Schema()))
		return n, joined, nil

	case *ast.Aggregation:
		checkedInput, innerScope, err := c.checkExpression(ctx, n.Input, scope, kinds)
		if err != nil {
			return nil, nil, err
		}
		n.Input = checkedInput
		if n.Op != ast.AggCount {
			if _, ok := innerScope[n.Field]; !ok {
				return nil, nil, &thingtalk.UndeclaredNameErr{Name: n.Field, Scope: scopeNames(innerScope)}
			}
		}
		aggSchema := aggregationSchema(n.Op, n.Field, checkedInput.Schema())
		n.SetSchema(aggSchema)
		outScope := ast.Scope{}
		for _, a := range aggSchema.Args {
			outScope[a.Name] = a.Type
		}
		return n, outScope, nil

	case *ast.ArgMinMax:
		checkedInput, innerScope, err := c.checkExpression(ctx, n.Input, scope, kinds)
		if err != nil {
			return nil, nil, err
		}
		n.Input = checkedInput
		if _, ok := innerScope[n.Field]; !ok {
			return nil, nil, &thingtalk.UndeclaredNameErr{Name: n.Field, Scope: scopeNames(innerScope)}
		}
		if base, err := c.checkValue(ctx, n.Base, thingtalk.Number, innerScope); err != nil {
			return nil, nil, err
		} else {
			n.Base = base
		}
		if limit, err := c.checkValue(ctx, n.Limit, thingtalk.Number, innerScope); err != nil {
			return nil, nil, err
		} else {
			n.Limit = limit
		}
		n.SetSchema(checkedInput.Schema())
		return n, innerScope, nil

	case *ast.Monitor:
		checkedTable, innerScope, err := c.checkExpression(ctx, n.Table, scope, kinds)
		if err != nil {
			return nil, nil, err
		}
		n.Table = checkedTable
		tableSchema := checkedTable.Schema()
		if tableSchema == nil || !tableSchema.IsMonitorable {
			return nil, nil, fmt.Errorf("typecheck: monitor() requires a monitorable table, got %s", describe(checkedTable))
		}
		n.SetSchema(tableSchema)
		return n, innerScope, nil

	case *ast.AtTimer:
		// n.Times are TimeValue literals; nothing further to resolve.
		if n.Expiry != nil {
			checked, err := c.checkValue(ctx, n.Expiry, thingtalk.Date, ast.Scope{})
			if err != nil {
				return nil, nil, err
			}
			n.Expiry = checked
		}
		return n, ast.Scope{}, nil

	case *ast.Timer:
		base, err := c.checkValue(ctx, n.Base, thingtalk.Date, ast.Scope{})
		if err != nil {
			return nil, nil, err
		}
		n.Base = base
		interval, err := c.checkValue(ctx, n.Interval, thingtalk.NewMeasure("ms"), ast.Scope{})
		if err != nil {
			return nil, nil, err
		}
		n.Interval = interval
		if n.Freq != nil {
			freq, err := c.checkValue(ctx, n.Freq, thingtalk.Number, ast.Scope{})
			if err != nil {
				return nil, nil, err
			}
			n.Freq = freq
		}
		return n, ast.Scope{}, nil

	default:
		return nil, nil, fmt.Errorf("typecheck: unknown expression type %T", e)
	}
}

func scopeNames(s ast.Scope) []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	return names
}

func scopeWithOutputs(scope ast.Scope, e ast.Expression) ast.Scope {
	next := scope.Clone()
	s := e.Schema()
	if s == nil {
		return next
	}
	for _, a := range s.Args {
		if a.Direction == ast.Out {
			next[a.Name] = a.Type
		}
	}
	return next
}

func projectScope(scope ast.Scope, fields []string) ast.Scope {
	next := ast.Scope{}
	keep := map[string]bool{}
	for _, f := range fields {
		keep[f] = true
	}
	for k, v := range scope {
		if keep[k] {
			next[k] = v
		}
	}
	return next
}

// unionScopes merges lhs and rhs, flagging a conflict when the same
// name is bound at two different types on the two sides of a join.
func unionScopes(lhs, rhs ast.Scope) (ast.Scope, error) {
	merged := lhs.Clone()
	for k, v := range rhs {
		if existing, ok := merged[k]; ok && !thingtalk.TypesEqual(existing, v) {
			return nil, fmt.Errorf("typecheck: join scope conflict on %q: %s vs %s", k, existing, v)
		}
		merged[k] = v
	}
	return merged, nil
}

func describe(e ast.Expression) string {
	if s := e.Schema(); s != nil {
		return s.QualifiedName
	}
	return e.String()
}

// projectSchema returns a synthetic FunctionDef exposing only fields,
// used as the schema of a Projection node so downstream scope/slot
// logic sees a narrowed output set without mutating the base schema.
func projectSchema(base *ast.FunctionDef, fields []string) *ast.FunctionDef {
	cp := *base
	var args []ast.FunctionArgument
	keep := map[string]bool{}
	for _, f := range fields {
		keep[f] = true
	}
	for _, a := range base.Args {
		if a.Direction != ast.Out || keep[a.Name] {
			args = append(args, a)
		}
	}
	cp.Args = args
	return &cp
}

func joinSchema(lhs, rhs *ast.FunctionDef) *ast.FunctionDef {
	merged := &ast.FunctionDef{
		Kind:          lhs.Kind,
		Name:          lhs.Name + "+" + rhs.Name,
		QualifiedName: lhs.QualifiedName + "+" + rhs.QualifiedName,
		FunctionKind:  ast.QueryFunction,
		IsList:        lhs.IsList || rhs.IsList,
	}
	seen := map[string]bool{}
	for _, a := range lhs.Args {
		merged.Args = append(merged.Args, a)
		seen[a.Name] = true
	}
	for _, a := range rhs.Args {
		if !seen[a.Name] {
			merged.Args = append(merged.Args, a)
		}
	}
	return merged
}

func aggregationSchema(op ast.AggregationOp, field string, base *ast.FunctionDef) *ast.FunctionDef {
	resultType := thingtalk.Number
	if op != ast.AggCount {
		if arg, ok := base.Arg(field); ok {
			resultType = arg.Type
		}
	}
	name := string(op)
	return &ast.FunctionDef{
		Kind:          base.Kind,
		Name:          name,
		QualifiedName: base.QualifiedName + "." + name,
		FunctionKind:  ast.QueryFunction,
		Args: []ast.FunctionArgument{
			{Name: name, Direction: ast.Out, Type: resultType},
		},
	}
}
