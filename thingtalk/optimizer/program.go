package optimizer

import "github.com/stanford-oval/thingtalk-go/thingtalk/ast"

// OptimizeProgram runs OptimizeExpression over every expression
// reachable from p's rules and declarations, returning a new Program —
// the optimizer never mutates its input, matching the immutable-AST
// convention thingtalk/typecheck establishes.
func OptimizeProgram(p *ast.Program) *ast.Program {
	cp := ast.CloneProgram(p)
	for _, stmt := range cp.Statements {
		switch s := stmt.(type) {
		case *ast.Rule:
			if s.Trigger != nil {
				s.Trigger = OptimizeExpression(s.Trigger)
			}
			for i, q := range s.Queries {
				s.Queries[i] = OptimizeExpression(q)
			}
			if s.Action != nil {
				s.Action = OptimizeExpression(s.Action)
			}
		case *ast.Declaration:
			if s.Body != nil {
				s.Body = OptimizeExpression(s.Body)
			}
		}
	}
	return cp
}
