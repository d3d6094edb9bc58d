package lexer

// EntityValue is the resolved payload of an entity placeholder:
// GENERIC_ENTITY_* carries {value, display, type}.
type EntityValue struct {
	Value   string
	Display string
	Type    string
}

// EntityLookup resolves an entity placeholder token (e.g.
// "GENERIC_ENTITY_tt:device_id_0") to its value, either as a finite
// mapping or as a callback parameterized by (placeholder,
// last-param-name, last-function, unit). Both are implemented here as
// two EntityLookup implementations so a caller can pick whichever fits
// its entity source.
type EntityLookup interface {
	// Resolve looks up placeholder given the lexer's current state:
	// the last "param:" name seen, the last "@kind.channel" seen, and
	// (for MEASURE_*) the unit that follows. ok is false if the
	// placeholder is unknown.
	Resolve(placeholder, lastParam, lastFunction, unit string) (EntityValue, bool)
}

// EntityMap is the finite-mapping EntityLookup: a plain
// placeholder -> value table, the common case when entities were
// already extracted by an upstream NLU pipeline.
type EntityMap map[string]EntityValue

func (m EntityMap) Resolve(placeholder, _, _, _ string) (EntityValue, bool) {
	v, ok := m[placeholder]
	return v, ok
}

// EntityResolverFunc adapts a plain function to EntityLookup, for
// callers that compute entity values lazily (e.g. from a live NLU
// session) instead of pre-populating a map.
type EntityResolverFunc func(placeholder, lastParam, lastFunction, unit string) (EntityValue, bool)

func (f EntityResolverFunc) Resolve(placeholder, lastParam, lastFunction, unit string) (EntityValue, bool) {
	return f(placeholder, lastParam, lastFunction, unit)
}
