package schema

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
	"github.com/stanford-oval/thingtalk-go/thingtalk/cache"
	"go.uber.org/zap"
)

// ResolverOptions configures a Resolver: a plain struct built by the
// caller rather than a functional-options builder.
type ResolverOptions struct {
	// TTL is how long a successfully resolved ClassDef stays cached.
	// Zero means the default of 5 minutes.
	TTL time.Duration
	// Logger receives resolver diagnostics (cache misses, batch
	// fetches, injected overrides). A nil Logger falls back to
	// zap.NewNop().
	Logger *zap.Logger
}

// classCall is one in-flight GetFullClass fetch, shared by every
// concurrent caller asking for the same kind — the resolver's
// at-most-one in-flight request per kind guarantee. Waiters block on
// done and read the shared result instead of issuing their own fetch.
type classCall struct {
	done  chan struct{}
	class *ast.ClassDef
	err   error
}

// Resolver is the process-wide schema service described by the C4
// module: get_full_class, get_function, get_memory_schema,
// inject_class, get_examples.
type Resolver struct {
	provider Provider
	ttl      time.Duration
	logger   *zap.Logger

	cache *cache.Cache[string, *ast.ClassDef]

	mu       sync.Mutex
	injected map[string]*ast.ClassDef
	inflight map[string]*classCall
	memory   map[string]*ast.FunctionDef
}

// NewResolver builds a Resolver backed by provider.
func NewResolver(provider Provider, opts ResolverOptions) *Resolver {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		provider: provider,
		ttl:      ttl,
		logger:   logger,
		cache:    cache.New[string, *ast.ClassDef](),
		injected: map[string]*ast.ClassDef{},
		inflight: map[string]*classCall{},
		memory:   map[string]*ast.FunctionDef{},
	}
}

// InjectClass overrides every future lookup for class.Kind with class
// itself, bypassing both the cache and the provider — the hook tests
// and pre-resolved modules use to pin a known schema. Its functions get
// the same Kind/QualifiedName annotation a fetched class gets.
func (r *Resolver) InjectClass(class *ast.ClassDef) {
	annotateQualifiedNames(class)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.injected[class.Kind] = class
	r.logger.Sugar().Infow("schema: class injected", "kind", class.Kind)
}

// InjectMemorySchema registers the signature for an in-memory table,
// consulted by GetMemorySchema.
func (r *Resolver) InjectMemorySchema(table string, def *ast.FunctionDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memory[table] = def
}

// GetMemorySchema resolves the signature for an in-memory table.
func (r *Resolver) GetMemorySchema(table string) (*ast.FunctionDef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.memory[table]
	if !ok {
		return nil, &thingtalk.UnknownKindErr{Kind: table}
	}
	return def, nil
}

// GetFullClass resolves kind's merged ClassDef: its own members plus
// every member inherited transitively through its extends chain,
// closer members shadowing further ones. Successful resolutions are
// cached for the configured TTL; failures are never cached, per the
// module's contract.
func (r *Resolver) GetFullClass(ctx context.Context, kind string) (*ast.ClassDef, error) {
	if class, ok := r.injectedClass(kind); ok {
		return class, nil
	}

	own, err := r.fetchOne(ctx, kind)
	if err != nil {
		return nil, err
	}
	return r.mergeExtends(ctx, own, map[string]bool{kind: true})
}

func (r *Resolver) injectedClass(kind string) (*ast.ClassDef, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.injected[kind]
	return c, ok
}

// mergeExtends walks own.Extends transitively, merging each ancestor's
// members into a fresh ClassDef so GetFullClass's result never aliases
// a cached ancestor's maps. seen guards against an extends cycle.
func (r *Resolver) mergeExtends(ctx context.Context, own *ast.ClassDef, seen map[string]bool) (*ast.ClassDef, error) {
	merged := ast.NewClassDef(own.Kind)
	merged.LoaderKind = own.LoaderKind
	merged.ConfigExtra = own.ConfigExtra
	merged.Extends = own.Extends

	for _, parentKind := range own.Extends {
		if seen[parentKind] {
			continue
		}
		seen[parentKind] = true

		parentOwn, err := r.resolveOwn(ctx, parentKind)
		if err != nil {
			return nil, fmt.Errorf("resolving extends chain for %s: %w", own.Kind, err)
		}
		parent, err := r.mergeExtends(ctx, parentOwn, seen)
		if err != nil {
			return nil, err
		}
		copyMembers(merged, parent)
	}
	copyMembers(merged, own) // own's members take precedence, so they copy last
	return merged, nil
}

func (r *Resolver) resolveOwn(ctx context.Context, kind string) (*ast.ClassDef, error) {
	if class, ok := r.injectedClass(kind); ok {
		return class, nil
	}
	return r.fetchOne(ctx, kind)
}

func copyMembers(dst, src *ast.ClassDef) {
	for name, f := range src.Queries {
		dst.Queries[name] = f
	}
	for name, f := range src.Actions {
		dst.Actions[name] = f
	}
	for name, f := range src.Streams {
		dst.Streams[name] = f
	}
}

func annotateQualifiedNames(class *ast.ClassDef) {
	for _, table := range []map[string]*ast.FunctionDef{class.Queries, class.Actions, class.Streams} {
		for name, f := range table {
			f.Kind = class.Kind
			f.QualifiedName = thingtalk.QualifiedName(class.Kind, name)
		}
	}
}

// fetchOne resolves a single kind's own (non-merged) ClassDef from the
// cache, or from the provider with cooperative batching: concurrent
// callers asking for the same kind while a fetch is already in flight
// all observe the single shared result instead of issuing duplicate
// provider round trips.
func (r *Resolver) fetchOne(ctx context.Context, kind string) (*ast.ClassDef, error) {
	if class, ok := r.cache.Get(kind); ok {
		return class, nil
	}

	r.mu.Lock()
	if call, ok := r.inflight[kind]; ok {
		r.mu.Unlock()
		<-call.done
		return call.class, call.err
	}

	call := &classCall{done: make(chan struct{})}
	r.inflight[kind] = call
	r.mu.Unlock()

	class, err := r.provider.GetDeviceCode(ctx, kind)
	if err != nil {
		call.err = &thingtalk.UnknownKindErr{Kind: kind, Cause: err}
		r.logger.Sugar().Warnw("schema: resolve failed", "kind", kind, "err", err)
	} else {
		annotateQualifiedNames(class) // once per fetch, so inherited members keep their declaring class's qualified_name
		call.class = class
		r.cache.Set(kind, class, r.ttl)
		r.logger.Sugar().Infow("schema: class resolved", "kind", kind)
	}

	r.mu.Lock()
	delete(r.inflight, kind)
	r.mu.Unlock()
	close(call.done)

	return call.class, call.err
}

// GetFunction resolves a single member of kind's merged class.
func (r *Resolver) GetFunction(ctx context.Context, kind string, kindOf ast.FunctionKind, name string) (*ast.FunctionDef, error) {
	class, err := r.GetFullClass(ctx, kind)
	if err != nil {
		return nil, err
	}
	f, ok := class.Function(kindOf, name)
	if !ok {
		return nil, &thingtalk.UnknownKindErr{Kind: kind, Name: name}
	}
	return f, nil
}

// GetExamples resolves the example set registered for kind.
func (r *Resolver) GetExamples(ctx context.Context, kind string) (*ExampleSet, error) {
	set, err := r.provider.GetExamplesByKind(ctx, kind)
	if err != nil {
		return nil, &thingtalk.UnknownKindErr{Kind: kind, Cause: err}
	}
	return set, nil
}

// BatchGetSchemas resolves several kinds in one provider round trip,
// populating the cache for each — the entry point a type-checker
// driver uses to pre-warm the resolver for a whole program before
// checking begins, so GetFullClass never itself suspends mid-check.
func (r *Resolver) BatchGetSchemas(ctx context.Context, kinds []string, useMeta bool) error {
	missing := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if _, ok := r.cache.Get(k); !ok {
			if _, ok := r.injectedClass(k); !ok {
				missing = append(missing, k)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	classes, err := r.provider.GetSchemas(ctx, missing, useMeta)
	if err != nil {
		return fmt.Errorf("batch schema resolution for %v: %w", missing, err)
	}
	for kind, class := range classes {
		annotateQualifiedNames(class)
		r.cache.Set(kind, class, r.ttl)
	}
	r.logger.Sugar().Infow("schema: batch resolved", "kinds", missing, "returned", len(classes))
	return nil
}
