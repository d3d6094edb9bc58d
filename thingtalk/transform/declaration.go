package transform

import (
	"fmt"

	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
)

// InstantiateDeclaration materializes decl as a standalone program
// statement, binding its formal Params to args by name via the same
// slot-grounding mechanism GroundExample uses.
//
// A query/stream declaration's Body becomes the trigger or query stage
// of a fresh now-headed (query) or self-headed (stream) Rule; an
// action declaration's Body becomes that Rule's Action; a procedure
// declaration's Stmts are cloned and parameterized in place, since a
// procedure has no single Body expression.
func InstantiateDeclaration(decl *ast.Declaration, args map[string]ast.Value) (*ast.Program, error) {
	bound, err := bindParams(decl.Params, args)
	if err != nil {
		return nil, err
	}

	switch decl.Kind {
	case ast.DeclQuery:
		if decl.Body == nil {
			return nil, fmt.Errorf("transform: query declaration %q has no body", decl.Name)
		}
		body := ast.CloneExpression(decl.Body)
		groundExpr(body, bound)
		return &ast.Program{Statements: []ast.Statement{
			&ast.Rule{Head: ast.HeadNow, Queries: []ast.Expression{body}},
		}}, nil

	case ast.DeclStream:
		if decl.Body == nil {
			return nil, fmt.Errorf("transform: stream declaration %q has no body", decl.Name)
		}
		body := ast.CloneExpression(decl.Body)
		groundExpr(body, bound)
		head, err := streamHead(body)
		if err != nil {
			return nil, err
		}
		return &ast.Program{Statements: []ast.Statement{
			&ast.Rule{Head: head, Trigger: body},
		}}, nil

	case ast.DeclAction:
		if decl.Body == nil {
			return nil, fmt.Errorf("transform: action declaration %q has no body", decl.Name)
		}
		body := ast.CloneExpression(decl.Body)
		groundExpr(body, bound)
		return &ast.Program{Statements: []ast.Statement{
			&ast.Rule{Head: ast.HeadNow, Action: body},
		}}, nil

	case ast.DeclProcedure:
		var stmts []ast.Statement
		for _, s := range decl.Stmts {
			cp := ast.CloneStatement(s)
			if rule, ok := cp.(*ast.Rule); ok {
				groundExpr(rule.Trigger, bound)
				for _, q := range rule.Queries {
					groundExpr(q, bound)
				}
				groundExpr(rule.Action, bound)
			}
			stmts = append(stmts, cp)
		}
		return &ast.Program{Statements: stmts}, nil

	default:
		return nil, fmt.Errorf("transform: unknown declaration kind %v", decl.Kind)
	}
}

// streamHead infers a freshly-instantiated stream body's rule head kind
// from its own node type, since a Declaration of kind Stream carries no
// separate head tag — its Body directly *is* one of Monitor/Timer/
// AtTimer; any other body, a plain query table included, is rejected
// with an error.
func streamHead(body ast.Expression) (ast.HeadKind, error) {
	switch body.(type) {
	case *ast.Monitor:
		return ast.HeadMonitor, nil
	case *ast.Timer:
		return ast.HeadTimer, nil
	case *ast.AtTimer:
		return ast.HeadAtTimer, nil
	default:
		return ast.HeadMonitor, fmt.Errorf("transform: stream declaration body %T is not a recognized stream shape", body)
	}
}

// bindParams validates that args supplies a value for every formal
// parameter and returns the binding map groundExpr consumes. Extra
// names in args that don't correspond to a formal parameter are
// ignored rather than rejected — a caller instantiating several related
// declarations from one shared binding set is a common pattern the
// original thingtalk project's declaration programs use.
func bindParams(params []ast.FunctionArgument, args map[string]ast.Value) (map[string]ast.Value, error) {
	bound := make(map[string]ast.Value, len(params))
	for _, p := range params {
		v, ok := args[p.Name]
		if !ok {
			return nil, fmt.Errorf("transform: missing argument %q for declaration parameter", p.Name)
		}
		bound[p.Name] = v
	}
	return bound, nil
}
