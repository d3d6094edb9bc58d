// Package schema implements the process-wide schema resolver: fetching,
// caching, batching, and injecting ThingTalk class and function
// signatures. The upstream source is a small Provider interface, not a
// concrete type, and the TTL layer is thingtalk/cache rather than a
// second cache implementation.
package schema

import (
	"context"

	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
)

// EntityTypeInfo describes one entry of get_all_entity_types: an entity
// type name plus the type it specializes, when any.
type EntityTypeInfo struct {
	Type      string
	SubtypeOf string // "" when this type has no supertype
}

// Provider is the schema resolver's upstream metadata source — the
// "Schema provider interface (consumed)" boundary. A production system
// backs this with a Thingpedia-style HTTP API; tests back it with an
// in-memory fake.
//
// GetSchemas/GetDeviceCode return already-resolved ClassDefs rather
// than the raw class-source-text the interface describes: compiling a
// device manifest's own source syntax is a second, unrelated grammar
// (nothing to do with the rule language thingtalk/parser implements)
// and is out of scope here. A production provider does that compile
// step internally and this resolver only ever sees its output.
type Provider interface {
	// GetSchemas resolves a batch of kinds at once — the resolver's
	// cooperative batching relies on being able to ask for several
	// kinds in a single round trip. useMeta requests metadata
	// (canonical/confirmation strings) in addition to the bare
	// signature.
	GetSchemas(ctx context.Context, kinds []string, useMeta bool) (map[string]*ast.ClassDef, error)
	// GetDeviceCode resolves a single kind's full device class,
	// including non-signature configuration (loader kind, auth).
	GetDeviceCode(ctx context.Context, kind string) (*ast.ClassDef, error)
	// GetExamplesByKind returns the example programs registered for a
	// kind, used by thingtalk/transform's example→program materializer.
	GetExamplesByKind(ctx context.Context, kind string) (*ExampleSet, error)
	// GetAllEntityTypes returns the full entity type hierarchy.
	GetAllEntityTypes(ctx context.Context) ([]EntityTypeInfo, error)
}

// Example is one dataset program example: a surface-syntax utterance
// paired with the program it elaborates to.
type Example struct {
	ID          int
	Utterances  []string
	ProgramText string // pretty-printed surface form; parsed lazily by the caller
	Kind        string
}

// ExampleSet is the result of get_examples(kind).
type ExampleSet struct {
	Kind     string
	Examples []Example
}
