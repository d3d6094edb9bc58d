package transform

import (
	"context"
	"testing"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
	"github.com/stanford-oval/thingtalk-go/thingtalk/schema"
	"github.com/stanford-oval/thingtalk-go/thingtalk/typecheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopProvider struct{}

func (noopProvider) GetSchemas(ctx context.Context, kinds []string, useMeta bool) (map[string]*ast.ClassDef, error) {
	return nil, nil
}
func (noopProvider) GetDeviceCode(ctx context.Context, kind string) (*ast.ClassDef, error) {
	return nil, &thingtalk.UnknownKindErr{Kind: kind}
}
func (noopProvider) GetExamplesByKind(ctx context.Context, kind string) (*schema.ExampleSet, error) {
	return nil, &thingtalk.UnknownKindErr{Kind: kind}
}
func (noopProvider) GetAllEntityTypes(ctx context.Context) ([]schema.EntityTypeInfo, error) {
	return nil, nil
}

func cameraInvocation() *ast.Invocation {
	inv := ast.NewInvocation(ast.Selector{Kind: "security-camera"}, "current_event", map[string]ast.Value{})
	inv.SetSchema(&ast.FunctionDef{
		QualifiedName: "security-camera.current_event",
		FunctionKind:  ast.QueryFunction,
		Args: []ast.FunctionArgument{
			{Name: "has_person", Direction: ast.Out, Type: thingtalk.Boolean},
		},
	})
	return inv
}

func twitterResolver(t *testing.T) *schema.Resolver {
	t.Helper()
	r := schema.NewResolver(noopProvider{}, schema.ResolverOptions{})
	post := ast.NewClassDef("com.twitter")
	post.Actions["post"] = &ast.FunctionDef{
		Name: "post", FunctionKind: ast.ActionFunction,
		Args: []ast.FunctionArgument{{Name: "status", Direction: ast.InRequired, Type: thingtalk.Str}},
	}
	r.InjectClass(post)
	camera := ast.NewClassDef("security-camera")
	camera.Queries["current_event"] = &ast.FunctionDef{
		Name: "current_event", FunctionKind: ast.QueryFunction,
		Args: []ast.FunctionArgument{{Name: "has_person", Direction: ast.Out, Type: thingtalk.Boolean}},
	}
	r.InjectClass(camera)
	return r
}

// now => @com.twitter.post(status="hi") => notify converts to one
// permission rule with a true precondition.
func TestProgramToPolicy(t *testing.T) {
	action := ast.NewInvocation(ast.Selector{Kind: "com.twitter"}, "post", map[string]ast.Value{"status": thingtalk.StringValue{Value: "hi"}})
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.Rule{Head: ast.HeadNow, Action: action},
	}}

	policy := ProgramToPolicy(prog)
	require.Len(t, policy.Rules, 1)
	assert.True(t, ast.IsTrue(policy.Rules[0].Precondition))
	assert.Same(t, action, policy.Rules[0].Action)
	assert.Nil(t, policy.Rules[0].Query)
}

// A monitor-headed rule is a standing trigger, not a one-shot
// permission grant, and is skipped.
func TestProgramToPolicy_SkipsNonNow(t *testing.T) {
	rule := &ast.Rule{Head: ast.HeadMonitor, Trigger: &ast.Monitor{Table: cameraInvocation()}}
	policy := ProgramToPolicy(&ast.Program{Statements: []ast.Statement{rule}})
	assert.Empty(t, policy.Rules)
}

func TestProgramToPolicy_FoldsMultipleQueryStages(t *testing.T) {
	q1 := cameraInvocation()
	q2 := cameraInvocation()
	rule := &ast.Rule{Head: ast.HeadNow, Queries: []ast.Expression{q1, q2}}
	policy := ProgramToPolicy(&ast.Program{Statements: []ast.Statement{rule}})
	require.Len(t, policy.Rules, 1)
	join, ok := policy.Rules[0].Query.(*ast.Join)
	require.True(t, ok)
	assert.Same(t, q1, join.LHS)
	assert.Same(t, q2, join.RHS)
}

func TestGroundExample_FillsOnlyUndefinedSlots(t *testing.T) {
	inv := ast.NewInvocation(ast.Selector{Kind: "com.twitter"}, "post", map[string]ast.Value{
		"status": thingtalk.Undefined,
	})
	inv.SetSchema(&ast.FunctionDef{
		Name: "post", FunctionKind: ast.ActionFunction,
		Args: []ast.FunctionArgument{{Name: "status", Direction: ast.InRequired, Type: thingtalk.Str}},
	})
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.Rule{Head: ast.HeadNow, Action: inv},
	}}

	grounded := GroundExample(prog, map[string]ast.Value{"status": thingtalk.StringValue{Value: "hello world"}})
	action := grounded.Statements[0].(*ast.Rule).Action.(*ast.Invocation)
	assert.Equal(t, thingtalk.StringValue{Value: "hello world"}, action.InArgs["status"])
	// The original program is untouched.
	assert.Equal(t, thingtalk.Undefined, inv.InArgs["status"])
}

func TestInstantiateDeclaration_Query(t *testing.T) {
	decl := &ast.Declaration{
		Name: "getCameraEvent",
		Kind: ast.DeclQuery,
		Body: cameraInvocation(),
	}
	prog, err := InstantiateDeclaration(decl, map[string]ast.Value{})
	require.NoError(t, err)
	rule := prog.Statements[0].(*ast.Rule)
	assert.Equal(t, ast.HeadNow, rule.Head)
	require.Len(t, rule.Queries, 1)
}

func TestInstantiateDeclaration_MissingArgument(t *testing.T) {
	decl := &ast.Declaration{
		Name:   "needsArg",
		Kind:   ast.DeclAction,
		Params: []ast.FunctionArgument{{Name: "status", Direction: ast.InRequired, Type: thingtalk.Str}},
		Body:   ast.NewInvocation(ast.Selector{Kind: "com.twitter"}, "post", map[string]ast.Value{"status": thingtalk.VarRefValue{Name: "status"}}),
	}
	_, err := InstantiateDeclaration(decl, map[string]ast.Value{})
	require.Error(t, err)
}

// executor = "1234"^^tt:contact : now => @security-camera.current_event() => return;
// lowers to a local send program and a remote receive program, and
// both must type-check.
func TestLowerExecutor_SendReceivePair(t *testing.T) {
	principal := thingtalk.EntityValue{Value: "1234", Type: "tt:contact"}
	rule := &ast.Rule{
		Head:     ast.HeadNow,
		Queries:  []ast.Expression{cameraInvocation()},
		Executor: principal,
	}
	prog := &ast.Program{Statements: []ast.Statement{rule}}

	local, flows, err := LowerExecutor(prog)
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, principal, flows[0].Principal)
	assert.NotEmpty(t, flows[0].FlowID)

	r := twitterResolver(t)
	c := typecheck.NewChecker(r, nil)

	_, err = c.CheckProgram(context.Background(), local)
	assert.NoError(t, err, "local send program must type-check")

	_, err = c.CheckProgram(context.Background(), flows[0].Remote)
	assert.NoError(t, err, "remote receive program must type-check")
}

func TestLowerExecutor_RejectsNonEntityPrincipal(t *testing.T) {
	rule := &ast.Rule{Head: ast.HeadNow, Executor: thingtalk.StringValue{Value: "not-a-contact"}}
	_, _, err := LowerExecutor(&ast.Program{Statements: []ast.Statement{rule}})
	require.Error(t, err)
	var remoteErr *thingtalk.RemoteLoweringErr
	require.ErrorAs(t, err, &remoteErr)
}
