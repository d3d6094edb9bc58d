package main

import (
	"context"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
	"github.com/stanford-oval/thingtalk-go/thingtalk/schema"
)

// staticProvider is the CLI's in-memory schema.Provider: a fixed set of
// device classes standing in for a Thingpedia endpoint, so trying the
// toolchain needs no external infrastructure.
type staticProvider struct {
	classes map[string]*ast.ClassDef
}

func newStaticProvider() *staticProvider {
	weather := ast.NewClassDef("com.weather")
	weather.Queries["current"] = &ast.FunctionDef{
		Name: "current", FunctionKind: ast.QueryFunction, IsMonitorable: true, IsList: false,
		Args: []ast.FunctionArgument{
			{Name: "temperature", Direction: ast.Out, Type: thingtalk.NewMeasure("C")},
			{Name: "humidity", Direction: ast.Out, Type: thingtalk.Number},
		},
	}

	twitter := ast.NewClassDef("com.twitter")
	twitter.Actions["post"] = &ast.FunctionDef{
		Name: "post", FunctionKind: ast.ActionFunction,
		Args: []ast.FunctionArgument{
			{Name: "status", Direction: ast.InRequired, Type: thingtalk.Str},
		},
	}

	camera := ast.NewClassDef("security-camera")
	camera.Queries["current_event"] = &ast.FunctionDef{
		Name: "current_event", FunctionKind: ast.QueryFunction, IsMonitorable: true,
		Args: []ast.FunctionArgument{
			{Name: "has_person", Direction: ast.Out, Type: thingtalk.Boolean},
			{Name: "start_time", Direction: ast.Out, Type: thingtalk.Date},
		},
	}

	return &staticProvider{classes: map[string]*ast.ClassDef{
		weather.Kind: weather,
		twitter.Kind: twitter,
		camera.Kind:  camera,
	}}
}

func (p *staticProvider) GetSchemas(ctx context.Context, kinds []string, useMeta bool) (map[string]*ast.ClassDef, error) {
	out := make(map[string]*ast.ClassDef, len(kinds))
	for _, k := range kinds {
		if c, ok := p.classes[k]; ok {
			out[k] = c
		}
	}
	return out, nil
}

func (p *staticProvider) GetDeviceCode(ctx context.Context, kind string) (*ast.ClassDef, error) {
	if c, ok := p.classes[kind]; ok {
		return c, nil
	}
	return nil, &thingtalk.UnknownKindErr{Kind: kind}
}

func (p *staticProvider) GetExamplesByKind(ctx context.Context, kind string) (*schema.ExampleSet, error) {
	return &schema.ExampleSet{Kind: kind}, nil
}

func (p *staticProvider) GetAllEntityTypes(ctx context.Context) ([]schema.EntityTypeInfo, error) {
	return []schema.EntityTypeInfo{{Type: "tt:contact"}}, nil
}

// demoPrograms builds hand-constructed ASTs — a monitor rule over a
// two-output weather table, and an executor= rule the parser's small
// grammar can't itself produce — so `ttc` has something worth compiling
// out of the box.
func demoPrograms() map[string]*ast.Program {
	weatherInv := ast.NewInvocation(ast.Selector{Kind: "com.weather"}, "current", map[string]ast.Value{})
	weatherInv.SetSchema(&ast.FunctionDef{
		Name: "current", FunctionKind: ast.QueryFunction, IsMonitorable: true,
		Args: []ast.FunctionArgument{
			{Name: "temperature", Direction: ast.Out, Type: thingtalk.NewMeasure("C")},
			{Name: "humidity", Direction: ast.Out, Type: thingtalk.Number},
		},
	})
	monitorRule := &ast.Rule{
		Head:    ast.HeadMonitor,
		Trigger: &ast.Monitor{Table: weatherInv},
	}

	cameraInv := ast.NewInvocation(ast.Selector{Kind: "security-camera"}, "current_event", map[string]ast.Value{})
	cameraInv.SetSchema(&ast.FunctionDef{
		Name: "current_event", FunctionKind: ast.QueryFunction, IsMonitorable: true,
		Args: []ast.FunctionArgument{
			{Name: "has_person", Direction: ast.Out, Type: thingtalk.Boolean},
		},
	})
	remoteRule := &ast.Rule{
		Head:     ast.HeadNow,
		Queries:  []ast.Expression{cameraInv},
		Executor: thingtalk.EntityValue{Value: "1234", Type: "tt:contact"},
	}

	return map[string]*ast.Program{
		"monitor-weather": {Statements: []ast.Statement{monitorRule}},
		"executor-lowering": {Statements: []ast.Statement{remoteRule}},
	}
}
