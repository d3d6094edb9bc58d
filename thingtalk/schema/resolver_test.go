package schema

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu        sync.Mutex
	classes   map[string]*ast.ClassDef
	fetches   int32
	examples  map[string]*ExampleSet
	blockCh   chan struct{} // when non-nil, GetDeviceCode waits on it once
}

func (p *fakeProvider) GetSchemas(ctx context.Context, kinds []string, useMeta bool) (map[string]*ast.ClassDef, error) {
	out := map[string]*ast.ClassDef{}
	for _, k := range kinds {
		p.mu.Lock()
		c, ok := p.classes[k]
		p.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("no such kind %s", k)
		}
		out[k] = c
	}
	return out, nil
}

func (p *fakeProvider) GetDeviceCode(ctx context.Context, kind string) (*ast.ClassDef, error) {
	atomic.AddInt32(&p.fetches, 1)
	if p.blockCh != nil {
		<-p.blockCh
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.classes[kind]
	if !ok {
		return nil, fmt.Errorf("no such kind %s", kind)
	}
	return c, nil
}

func (p *fakeProvider) GetExamplesByKind(ctx context.Context, kind string) (*ExampleSet, error) {
	set, ok := p.examples[kind]
	if !ok {
		return nil, fmt.Errorf("no examples for %s", kind)
	}
	return set, nil
}

func (p *fakeProvider) GetAllEntityTypes(ctx context.Context) ([]EntityTypeInfo, error) {
	return nil, nil
}

func weatherClass() *ast.ClassDef {
	c := ast.NewClassDef("com.weather")
	c.Queries["current"] = &ast.FunctionDef{
		Name:         "current",
		FunctionKind: ast.QueryFunction,
		Args: []ast.FunctionArgument{
			{Name: "temperature", Direction: ast.Out, Type: thingtalk.MeasureType{Unit: "C"}},
		},
	}
	return c
}

func deviceClass() *ast.ClassDef {
	c := ast.NewClassDef("com.device")
	c.Extends = []string{"com.weather"}
	c.Actions["reboot"] = &ast.FunctionDef{Name: "reboot", FunctionKind: ast.ActionFunction}
	return c
}

func TestGetFullClassResolvesAndCaches(t *testing.T) {
	provider := &fakeProvider{classes: map[string]*ast.ClassDef{"com.weather": weatherClass()}}
	r := NewResolver(provider, ResolverOptions{})

	class, err := r.GetFullClass(context.Background(), "com.weather")
	require.NoError(t, err)
	assert.Equal(t, "com.weather", class.Kind)
	assert.Contains(t, class.Queries, "current")
	assert.Equal(t, "com.weather.current", class.Queries["current"].QualifiedName)

	_, err = r.GetFullClass(context.Background(), "com.weather")
	require.NoError(t, err)
	assert.EqualValues(t, 1, provider.fetches, "second call should be served from cache")
}

func TestGetFullClassMergesExtendsChain(t *testing.T) {
	provider := &fakeProvider{classes: map[string]*ast.ClassDef{
		"com.weather": weatherClass(),
		"com.device":  deviceClass(),
	}}
	r := NewResolver(provider, ResolverOptions{})

	class, err := r.GetFullClass(context.Background(), "com.device")
	require.NoError(t, err)
	assert.Contains(t, class.Actions, "reboot")
	assert.Contains(t, class.Queries, "current", "inherited member from extends chain")
	assert.Equal(t, "com.device.reboot", class.Actions["reboot"].QualifiedName)
}

func TestGetFunctionReturnsUnknownKindErr(t *testing.T) {
	provider := &fakeProvider{classes: map[string]*ast.ClassDef{"com.weather": weatherClass()}}
	r := NewResolver(provider, ResolverOptions{})

	_, err := r.GetFunction(context.Background(), "com.weather", ast.ActionFunction, "nope")
	require.Error(t, err)
	var unknown *thingtalk.UnknownKindErr
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)
}

func TestInjectClassBypassesProviderAndCache(t *testing.T) {
	provider := &fakeProvider{classes: map[string]*ast.ClassDef{}}
	r := NewResolver(provider, ResolverOptions{})

	r.InjectClass(weatherClass())

	class, err := r.GetFullClass(context.Background(), "com.weather")
	require.NoError(t, err)
	assert.Contains(t, class.Queries, "current")
	assert.Zero(t, provider.fetches)
}

func TestGetMemorySchema(t *testing.T) {
	provider := &fakeProvider{classes: map[string]*ast.ClassDef{}}
	r := NewResolver(provider, ResolverOptions{})

	def := &ast.FunctionDef{Name: "mytable", FunctionKind: ast.QueryFunction}
	r.InjectMemorySchema("mytable", def)

	got, err := r.GetMemorySchema("mytable")
	require.NoError(t, err)
	assert.Same(t, def, got)

	_, err = r.GetMemorySchema("missing")
	assert.Error(t, err)
}

func TestConcurrentGetFullClassBatchesToOneFetch(t *testing.T) {
	block := make(chan struct{})
	provider := &fakeProvider{classes: map[string]*ast.ClassDef{"com.weather": weatherClass()}, blockCh: block}
	r := NewResolver(provider, ResolverOptions{})

	var wg sync.WaitGroup
	results := make([]*ast.ClassDef, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := r.GetFullClass(context.Background(), "com.weather")
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}

	close(block) // release every blocked GetDeviceCode call at once
	wg.Wait()

	for _, c := range results {
		require.NotNil(t, c)
		assert.Equal(t, "com.weather", c.Kind)
	}
	assert.EqualValues(t, 1, provider.fetches, "concurrent callers for the same kind share one fetch")
}

func TestBatchGetSchemasSkipsAlreadyCachedKinds(t *testing.T) {
	provider := &fakeProvider{classes: map[string]*ast.ClassDef{
		"com.weather": weatherClass(),
		"com.device":  deviceClass(),
	}}
	r := NewResolver(provider, ResolverOptions{})

	_, err := r.GetFullClass(context.Background(), "com.weather")
	require.NoError(t, err)

	err = r.BatchGetSchemas(context.Background(), []string{"com.weather", "com.device"}, false)
	require.NoError(t, err)

	class, err := r.GetFullClass(context.Background(), "com.device")
	require.NoError(t, err)
	assert.Contains(t, class.Actions, "reboot")
}
