package typecheck

import (
	"context"
	"testing"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
	"github.com/stanford-oval/thingtalk-go/thingtalk/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *schema.Resolver {
	t.Helper()
	r := schema.NewResolver(noopProvider{}, schema.ResolverOptions{})
	twitter := ast.NewClassDef("com.twitter")
	twitter.Actions["post"] = &ast.FunctionDef{
		Name:         "post",
		FunctionKind: ast.ActionFunction,
		Args: []ast.FunctionArgument{
			{Name: "status", Direction: ast.InRequired, Type: thingtalk.Str},
		},
	}
	r.InjectClass(twitter)

	weather := ast.NewClassDef("com.weather")
	weather.Queries["current"] = &ast.FunctionDef{
		Name:          "current",
		FunctionKind:  ast.QueryFunction,
		IsMonitorable: true,
		Args: []ast.FunctionArgument{
			{Name: "location", Direction: ast.InRequired, Type: thingtalk.Location},
			{Name: "temperature", Direction: ast.Out, Type: thingtalk.NewMeasure("C")},
		},
	}
	r.InjectClass(weather)

	foo := ast.NewClassDef("foo")
	foo.Queries["q1"] = &ast.FunctionDef{
		Name:         "q1",
		FunctionKind: ast.QueryFunction,
		Args: []ast.FunctionArgument{
			{Name: "p1", Direction: ast.InRequired, Type: thingtalk.Str},
		},
	}
	r.InjectClass(foo)
	return r
}

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

// Type mismatch: @com.twitter.post(status=42) must fail with
// TypeMismatch(expected=String, found=Number).
func TestCheckRule_TypeMismatch(t *testing.T) {
	r := newTestResolver(t)
	c := NewChecker(r, nil)

	rule := &ast.Rule{
		Head:   ast.HeadNow,
		Action: ast.NewInvocation(ast.Selector{Kind: "com.twitter"}, "post", map[string]ast.Value{"status": thingtalk.NumberValue{Value: 42}}),
	}
	prog := &ast.Program{Statements: []ast.Statement{rule}}

	_, err := c.CheckProgram(context.Background(), prog)
	require.Error(t, err)
	var mismatch *thingtalk.TypeMismatchErr
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, thingtalk.Str, mismatch.Expected)
	assert.Equal(t, thingtalk.Number, mismatch.Actual)
}

// Monitor lowering precondition: monitor() over a
// monitorable query type-checks and keeps the table's schema.
func TestCheckRule_Monitor(t *testing.T) {
	r := newTestResolver(t)
	c := NewChecker(r, nil)

	loc := thingtalk.LocationValue{Lat: 1, Lon: 3, Display: "Somewhere"}
	inv := ast.NewInvocation(ast.Selector{Kind: "com.weather"}, "current", map[string]ast.Value{"location": loc})
	rule := &ast.Rule{
		Head:    ast.HeadMonitor,
		Trigger: &ast.Monitor{Table: inv},
	}
	prog := &ast.Program{Statements: []ast.Statement{rule}}

	checked, err := c.CheckProgram(context.Background(), prog)
	require.NoError(t, err)
	got := checked.Statements[0].(*ast.Rule).Trigger.Schema()
	require.NotNil(t, got)
	assert.Equal(t, "com.weather.current", got.QualifiedName)
}

func TestCheckRule_NonMonitorableRejected(t *testing.T) {
	r := newTestResolver(t)
	c := NewChecker(r, nil)
	foo := ast.NewClassDef("foo")
	foo.Queries["q2"] = &ast.FunctionDef{Name: "q2", FunctionKind: ast.QueryFunction, IsMonitorable: false}
	r.InjectClass(foo)

	rule := &ast.Rule{
		Head:    ast.HeadMonitor,
		Trigger: &ast.Monitor{Table: ast.NewInvocation(ast.Selector{Kind: "foo"}, "q2", map[string]ast.Value{})},
	}
	_, err := c.CheckProgram(context.Background(), &ast.Program{Statements: []ast.Statement{rule}})
	require.Error(t, err)
}

// is_executable scenarios.
func TestIsExecutable(t *testing.T) {
	fn := &ast.FunctionDef{
		QualifiedName: "foo.q1",
		Args: []ast.FunctionArgument{
			{Name: "p1", Direction: ast.InRequired, Type: thingtalk.Str},
		},
	}

	bound := &ast.Invocation{InArgs: map[string]ast.Value{"p1": thingtalk.StringValue{Value: "lol"}}}
	bound.SetSchema(fn)
	ok, _ := IsExecutable(bound)
	assert.True(t, ok)

	unbound := &ast.Invocation{InArgs: map[string]ast.Value{"p1": thingtalk.Undefined}}
	unbound.SetSchema(fn)
	ok, reason := IsExecutable(unbound)
	assert.False(t, ok)
	assert.Contains(t, reason, "p1")

	either := &ast.FunctionDef{
		Args: []ast.FunctionArgument{
			{Name: "p1", Direction: ast.InOptional, Type: thingtalk.Str, Annotations: ast.ArgumentAnnotations{RequiredEither: [][]string{{"p1", "p2"}}}},
			{Name: "p2", Direction: ast.InOptional, Type: thingtalk.Str, Annotations: ast.ArgumentAnnotations{RequiredEither: [][]string{{"p1", "p2"}}}},
		},
	}
	neitherBound := &ast.Invocation{InArgs: map[string]ast.Value{"p1": thingtalk.Undefined, "p2": thingtalk.Undefined}}
	neitherBound.SetSchema(either)
	ok, _ = IsExecutable(neitherBound)
	assert.False(t, ok)

	oneBound := &ast.Invocation{InArgs: map[string]ast.Value{"p1": thingtalk.StringValue{Value: "x"}, "p2": thingtalk.Undefined}}
	oneBound.SetSchema(either)
	ok, _ = IsExecutable(oneBound)
	assert.True(t, ok)

	reqIf := &ast.FunctionDef{
		Args: []ast.FunctionArgument{
			{Name: "p1", Direction: ast.InOptional, Type: thingtalk.NewEnum("a", "b")},
			{Name: "p2", Direction: ast.InOptional, Type: thingtalk.Str, Annotations: ast.ArgumentAnnotations{RequiredIf: []string{"p1=a"}}},
		},
	}
	modeA := &ast.Invocation{InArgs: map[string]ast.Value{"p1": thingtalk.EnumValue{Label: "a"}, "p2": thingtalk.Undefined}}
	modeA.SetSchema(reqIf)
	ok, _ = IsExecutable(modeA)
	assert.False(t, ok)

	modeB := &ast.Invocation{InArgs: map[string]ast.Value{"p1": thingtalk.EnumValue{Label: "b"}, "p2": thingtalk.Undefined}}
	modeB.SetSchema(reqIf)
	ok, _ = IsExecutable(modeB)
	assert.True(t, ok)
}
