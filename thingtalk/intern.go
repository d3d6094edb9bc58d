package thingtalk

import "sync"

// kindIntern deduplicates the "kind" strings (dotted class identifiers
// like "com.twitter") and "qualified_name" strings ("com.twitter.post")
// that flow through every FunctionDef and Selector. The schema resolver
// sees the same handful of kinds over and over across a large program,
// so interning avoids re-allocating the same string repeatedly.
type kindInterner struct {
	cache sync.Map // map[string]string
}

var kindIntern = &kindInterner{}

// InternKind returns a canonical, deduplicated copy of s.
func InternKind(s string) string {
	if v, ok := kindIntern.cache.Load(s); ok {
		return v.(string)
	}
	actual, _ := kindIntern.cache.LoadOrStore(s, s)
	return actual.(string)
}

// QualifiedName computes the "kind.name" qualified name the schema
// resolver must annotate onto every FunctionDef.
func QualifiedName(kind, name string) string {
	return InternKind(kind + "." + name)
}

// ClearKindIntern drops all interned kinds. Exposed for tests that
// construct many throwaway resolvers and want isolated memory.
func ClearKindIntern() {
	kindIntern = &kindInterner{}
}
