package transform

import (
	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
)

// GroundExample materializes a dataset example's elaborated program
// (already parsed by the caller — see schema.Example.ProgramText) into
// a runnable program by binding each still-undefined named slot to the
// value bindings supplies, keyed by argument/filter-field name.
// Grounded on thingtalk/ast/slots.go's IterateSlots, the same
// settable-parameter walk thingtalk/typecheck's validator and the rule
// compiler's monitor gate both rely on for locating every bindable
// position in a tree, here reused to *fill* rather than *inspect*
// slots.
//
// Only slots currently holding an UndefinedValue, or a VarRef whose
// referenced name is itself bound, are overwritten — a concrete literal
// already present in the example (e.g. a fixed filter value the dataset
// author wrote verbatim) is left untouched.
func GroundExample(p *ast.Program, bindings map[string]ast.Value) *ast.Program {
	cp := ast.CloneProgram(p)
	for _, stmt := range cp.Statements {
		rule, ok := stmt.(*ast.Rule)
		if !ok {
			continue
		}
		groundExpr(rule.Trigger, bindings)
		for _, q := range rule.Queries {
			groundExpr(q, bindings)
		}
		groundExpr(rule.Action, bindings)
	}
	return cp
}

func groundExpr(e ast.Expression, bindings map[string]ast.Value) {
	if e == nil {
		return
	}
	ast.IterateSlots(e, ast.Scope{}, func(s ast.Slot) bool {
		switch cur := s.Get().(type) {
		case thingtalk.UndefinedValue:
			if s.Name == "" {
				return true
			}
			if val, ok := bindings[s.Name]; ok {
				s.Set(val)
			}
		case thingtalk.VarRefValue:
			// A formal-parameter reference grounds by the referenced name,
			// not the slot's own argument name.
			if val, ok := bindings[cur.Name]; ok {
				s.Set(val)
			}
		}
		return true
	})
}
