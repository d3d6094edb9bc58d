package ast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
)

// Direction is one of the three argument directions a FunctionDef
// argument may take.
type Direction int

const (
	InRequired Direction = iota
	InOptional
	Out
)

func (d Direction) String() string {
	switch d {
	case InRequired:
		return "in req"
	case InOptional:
		return "in opt"
	case Out:
		return "out"
	default:
		return "?"
	}
}

// ArgumentAnnotations carries the per-argument metadata a function
// signature needs: canonical text, user-facing prompt, conditional
// requirement rules, uniqueness, filterability, minimal-projection
// membership and polling interval (the last is only meaningful on
// streams).
type ArgumentAnnotations struct {
	CanonicalText     string
	Prompt            string
	RequiredIf        []string   // e.g. ["mode=heat"]
	RequiredEither    [][]string // e.g. [["p1","p2"]]
	Unique            bool
	Filterable        bool
	MinimalProjection bool
	PollingInterval   int // milliseconds; 0 means "not applicable"
}

// FunctionArgument is one entry of a FunctionDef's ordered signature.
type FunctionArgument struct {
	Name        string
	Direction   Direction
	Type        thingtalk.Type
	Annotations ArgumentAnnotations
}

func (a FunctionArgument) String() string {
	return fmt.Sprintf("%s: %s (%s)", a.Name, a.Type, a.Direction)
}

// FunctionKind distinguishes the three ClassDef member kinds.
type FunctionKind int

const (
	QueryFunction FunctionKind = iota
	ActionFunction
	StreamFunction
)

func (k FunctionKind) String() string {
	switch k {
	case QueryFunction:
		return "query"
	case ActionFunction:
		return "action"
	case StreamFunction:
		return "stream"
	default:
		return "?"
	}
}

// FunctionDef is the triple (kind_class, name, signature), plus the
// function-level attributes and the output projection used for
// pretty-printing. QualifiedName is computed once by the schema
// resolver (thingtalk/schema) and stored here rather than recomputed
// from a ClassDef back-pointer — an arena-and-indices layout in place
// of cyclic node references.
type FunctionDef struct {
	Kind          string // the owning class's kind, e.g. "com.twitter"
	Name          string
	QualifiedName string // "kind.name", filled in by the resolver
	FunctionKind  FunctionKind
	Args          []FunctionArgument
	IsList        bool
	IsMonitorable bool
}

// Arg looks up a named argument, or returns (zero, false).
func (f *FunctionDef) Arg(name string) (FunctionArgument, bool) {
	for _, a := range f.Args {
		if a.Name == name {
			return a, true
		}
	}
	return FunctionArgument{}, false
}

// OutArgs returns the function's output projection, in declared order
// — "a function also owns a projection of output names used for
// pretty-printing".
func (f *FunctionDef) OutArgs() []string {
	var out []string
	for _, a := range f.Args {
		if a.Direction == Out {
			out = append(out, a.Name)
		}
	}
	return out
}

// MinimalProjection returns the argument names flagged
// minimal-projection, used by the rule compiler's monitor
// change-detection gate.
func (f *FunctionDef) MinimalProjection() []string {
	var names []string
	for _, a := range f.Args {
		if a.Annotations.MinimalProjection {
			names = append(names, a.Name)
		}
	}
	if len(names) == 0 {
		return f.OutArgs()
	}
	return names
}

func (f *FunctionDef) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s(", f.FunctionKind, f.QualifiedName)
	for i, a := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteString(")")
	if f.IsList {
		b.WriteString(" #[list]")
	}
	if f.IsMonitorable {
		b.WriteString(" #[monitorable]")
	}
	return b.String()
}

// ClassDef is a named collection of FunctionDefs plus loader/config
// metadata. Classes may extend other classes; the
// resolver merges extends chains transitively rather
// than ClassDef itself holding a resolved, flattened member list, so a
// ClassDef here only records its own direct members plus the kinds it
// extends.
type ClassDef struct {
	Kind        string
	Extends     []string
	Queries     map[string]*FunctionDef
	Actions     map[string]*FunctionDef
	Streams     map[string]*FunctionDef
	LoaderKind  string // e.g. "org.thingpedia.v2"
	ConfigExtra map[string]thingtalk.Value
}

// NewClassDef builds an empty ClassDef for kind.
func NewClassDef(kind string) *ClassDef {
	return &ClassDef{
		Kind:    kind,
		Queries: map[string]*FunctionDef{},
		Actions: map[string]*FunctionDef{},
		Streams: map[string]*FunctionDef{},
	}
}

// Function looks up a member by kind (query/action/stream) and name,
// restricted to this ClassDef's own direct members (not its extends
// chain — see thingtalk/schema.Resolver.GetFunction for the merged
// view).
func (c *ClassDef) Function(kind FunctionKind, name string) (*FunctionDef, bool) {
	var table map[string]*FunctionDef
	switch kind {
	case QueryFunction:
		table = c.Queries
	case ActionFunction:
		table = c.Actions
	case StreamFunction:
		table = c.Streams
	}
	f, ok := table[name]
	return f, ok
}

func (c *ClassDef) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "class @%s", c.Kind)
	if len(c.Extends) > 0 {
		b.WriteString(" extends " + strings.Join(c.Extends, ", "))
	}
	b.WriteString(" {\n")
	for _, table := range []map[string]*FunctionDef{c.Queries, c.Actions, c.Streams} {
		for _, name := range sortedNames(table) {
			fmt.Fprintf(&b, "  %s;\n", table[name])
		}
	}
	b.WriteString("}")
	return b.String()
}

// sortedNames keeps member rendering deterministic; ClassDef stores its
// members in maps for lookup, so iteration order is not itself stable.
func sortedNames(table map[string]*FunctionDef) []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Selector is the device-side reference inside an invocation: the class
// plus optional id/name device attributes.
type Selector struct {
	Kind       string
	DeviceID   string // "" means unspecified (selected at runtime)
	DeviceName string
	IsStar     bool // "@kind.*" — any device of this class
}

func (s Selector) String() string {
	if s.DeviceID == "" && s.DeviceName == "" {
		if s.IsStar {
			return "@" + s.Kind + "(all)"
		}
		return "@" + s.Kind
	}
	var attrs []string
	if s.DeviceID != "" {
		attrs = append(attrs, fmt.Sprintf("id=%q^^tt:device_id", s.DeviceID))
	}
	if s.DeviceName != "" {
		attrs = append(attrs, fmt.Sprintf("name=%q^^tt:device_name", s.DeviceName))
	}
	return fmt.Sprintf("@%s(%s)", s.Kind, strings.Join(attrs, ", "))
}
