package transform

import (
	"github.com/google/uuid"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
)

// remoteClassKind names the synthesized class every executor= lowering
// shares: a real implementation would back this with the platform's own
// remote-messaging device, but C9 only needs a stable, type-checkable
// signature both the sender and receiver program agree on.
const remoteClassKind = "__remote"

// RemoteFlow is one synthesized cross-principal send/receive pair: the
// FlowID ties together exactly one sender invocation and one receiver
// subscription over the shared remote class's send action and
// monitorable receive query.
type RemoteFlow struct {
	Principal ast.Value
	FlowID    string
	Remote    *ast.Program // monitors receive(), emits notify
}

// LowerExecutor rewrites every executor=-marked rule in p into a local
// send-action rule and returns, per flow, the matching remote program.
// A program may name more than one distinct remote contact: each
// executor= rule gets its own flow id and its own RemoteFlow entry.
// Rules without an Executor pass through unchanged. Both the returned
// local program and every RemoteFlow.Remote type-check as ordinary
// programs.
func LowerExecutor(p *ast.Program) (*ast.Program, []*RemoteFlow, error) {
	local := &ast.Program{}
	var flows []*RemoteFlow
	var remoteClassEmitted bool

	for _, stmt := range p.Statements {
		rule, ok := stmt.(*ast.Rule)
		if !ok || rule.Executor == nil {
			local.Statements = append(local.Statements, stmt)
			continue
		}

		flow, sendRule, remoteClass, err := lowerRule(rule)
		if err != nil {
			return nil, nil, err
		}
		if !remoteClassEmitted {
			local.Statements = append(local.Statements, &ast.ClassDefStatement{Class: remoteClass})
			remoteClassEmitted = true
		}
		local.Statements = append(local.Statements, sendRule)
		flows = append(flows, flow)
	}
	return local, flows, nil
}

func lowerRule(rule *ast.Rule) (*RemoteFlow, *ast.Rule, *ast.ClassDef, error) {
	if _, ok := rule.Executor.(thingtalk.EntityValue); !ok {
		return nil, nil, nil, &thingtalk.RemoteLoweringErr{
			Principal: rule.Executor.String(),
			Reason:    "executor principal must be a tt:contact entity",
		}
	}
	flowID := uuid.NewString()
	schema := remoteDataSchema(rule)

	remoteClass := ast.NewClassDef(remoteClassKind)
	remoteClass.Actions["send"] = &ast.FunctionDef{
		Kind: remoteClassKind, Name: "send", QualifiedName: remoteClassKind + ".send",
		FunctionKind: ast.ActionFunction, Args: sendArgs(schema),
	}
	remoteClass.Queries["receive"] = &ast.FunctionDef{
		Kind: remoteClassKind, Name: "receive", QualifiedName: remoteClassKind + ".receive",
		FunctionKind: ast.QueryFunction, IsMonitorable: true, Args: receiveArgs(schema),
	}

	sendInArgs := map[string]ast.Value{
		"__principal": rule.Executor,
		"__flow_id":   thingtalk.StringValue{Value: flowID},
	}
	// The data args forward the upstream stage's outputs, which are in
	// scope under the same names when the send action type-checks.
	if schema != nil {
		for _, a := range schema.Args {
			if a.Direction == ast.Out {
				sendInArgs[a.Name] = thingtalk.VarRefValue{Name: a.Name}
			}
		}
	}
	sendInv := ast.NewInvocation(ast.Selector{Kind: remoteClassKind}, "send", sendInArgs)
	sendInv.SetSchema(remoteClass.Actions["send"])
	sendRule := &ast.Rule{Head: rule.Head, Trigger: rule.Trigger, Queries: rule.Queries, Action: sendInv}

	receiveInv := ast.NewInvocation(ast.Selector{Kind: remoteClassKind}, "receive", map[string]ast.Value{
		"__flow_id": thingtalk.StringValue{Value: flowID},
	})
	receiveInv.SetSchema(remoteClass.Queries["receive"])
	receiveRule := &ast.Rule{Head: ast.HeadMonitor, Trigger: &ast.Monitor{Table: receiveInv}}

	remoteProgram := &ast.Program{Statements: []ast.Statement{
		&ast.ClassDefStatement{Class: remoteClass},
		receiveRule,
	}}

	flow := &RemoteFlow{Principal: rule.Executor, FlowID: flowID, Remote: remoteProgram}
	return flow, sendRule, remoteClass, nil
}

// remoteDataSchema identifies the shape of the data a rule's send
// carries: the last query stage's output, or the monitored table's
// output for a pure trigger-and-return rule with no intermediate
// queries. Returns nil when the rule carries no queryable data (a bare
// "now => return" with nothing to send).
func remoteDataSchema(rule *ast.Rule) *ast.FunctionDef {
	if n := len(rule.Queries); n > 0 {
		return rule.Queries[n-1].Schema()
	}
	if rule.Head == ast.HeadMonitor {
		if m, ok := rule.Trigger.(*ast.Monitor); ok {
			return m.Table.Schema()
		}
	}
	return nil
}

func passthroughArgs(schema *ast.FunctionDef, dir ast.Direction) []ast.FunctionArgument {
	if schema == nil {
		return nil
	}
	var args []ast.FunctionArgument
	for _, a := range schema.Args {
		if a.Direction == ast.Out {
			args = append(args, ast.FunctionArgument{Name: a.Name, Direction: dir, Type: a.Type})
		}
	}
	return args
}

func sendArgs(schema *ast.FunctionDef) []ast.FunctionArgument {
	args := []ast.FunctionArgument{
		{Name: "__principal", Direction: ast.InRequired, Type: thingtalk.NewEntity("tt:contact")},
		{Name: "__flow_id", Direction: ast.InRequired, Type: thingtalk.Str},
	}
	return append(args, passthroughArgs(schema, ast.InRequired)...)
}

func receiveArgs(schema *ast.FunctionDef) []ast.FunctionArgument {
	args := []ast.FunctionArgument{
		{Name: "__flow_id", Direction: ast.InRequired, Type: thingtalk.Str},
	}
	return append(args, passthroughArgs(schema, ast.Out)...)
}
