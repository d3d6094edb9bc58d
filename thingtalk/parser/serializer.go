package parser

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
)

// Serialize renders p back into the flat surface-token sequence Classify
// would have consumed to produce it — the inverse direction of the
// parser, the way an NN sequence-to-sequence ThingTalk model needs both
// directions of a single token vocabulary. withTypes additionally emits
// a "^^Number" annotation after every numeric argument value, the
// format a type-annotated training corpus uses; plain serialization
// omits it.
//
// Serialize covers the same rule subset the built-in tables accept (a
// single "trigger => action" rule); it is the reverse of this package's
// runtime, not a general ThingTalk pretty-printer — see thingtalk/ast's
// PrettyPrint for that.
func Serialize(p *ast.Program, withTypes bool) ([]string, error) {
	if len(p.Statements) != 1 {
		return nil, fmt.Errorf("serialize: expected exactly one statement, got %d", len(p.Statements))
	}
	rule, ok := p.Statements[0].(*ast.Rule)
	if !ok {
		return nil, fmt.Errorf("serialize: expected a Rule statement, got %T", p.Statements[0])
	}

	var toks []string
	switch rule.Head {
	case ast.HeadNow:
		toks = append(toks, "now")
	case ast.HeadMonitor:
		mon, ok := rule.Trigger.(*ast.Monitor)
		if !ok {
			return nil, fmt.Errorf("serialize: HeadMonitor rule must carry a *ast.Monitor trigger")
		}
		inv, ok := mon.Table.(*ast.Invocation)
		if !ok {
			return nil, fmt.Errorf("serialize: monitor trigger must wrap a bare invocation in this grammar")
		}
		invToks, err := serializeInvocation(inv, withTypes)
		if err != nil {
			return nil, err
		}
		toks = append(toks, "monitor", "(")
		toks = append(toks, invToks...)
		toks = append(toks, ")")
	default:
		return nil, fmt.Errorf("serialize: head kind %v has no surface-token form", rule.Head)
	}

	toks = append(toks, "=>")

	if rule.Action == nil {
		toks = append(toks, "notify")
		return toks, nil
	}
	inv, ok := rule.Action.(*ast.Invocation)
	if !ok {
		return nil, fmt.Errorf("serialize: action %T has no surface-token form", rule.Action)
	}
	invToks, err := serializeInvocation(inv, withTypes)
	if err != nil {
		return nil, err
	}
	return append(toks, invToks...), nil
}

func serializeInvocation(inv *ast.Invocation, withTypes bool) ([]string, error) {
	toks := []string{"@" + inv.Selector.Kind + "." + inv.Channel, "("}
	names := make([]string, 0, len(inv.InArgs))
	for name := range inv.InArgs {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic order for a reproducible token sequence

	for idx, name := range names {
		if idx > 0 {
			toks = append(toks, ",")
		}
		n, ok := inv.InArgs[name].(thingtalk.NumberValue)
		if !ok {
			return nil, fmt.Errorf("serialize: argument %q has non-numeric value %T with no surface-token form", name, inv.InArgs[name])
		}
		toks = append(toks, name, "=", strconv.FormatFloat(n.Value, 'g', -1, 64))
		if withTypes {
			toks = append(toks, "^^Number")
		}
	}
	toks = append(toks, ")")
	return toks, nil
}
