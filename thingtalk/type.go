package thingtalk

import "fmt"

// Type is the closed tagged variant of every value type a program can
// carry. Every concrete type implements it; there is no open extension
// point by design — a type checker over a closed variant can be
// exhaustive.
type Type interface {
	// isType is unexported so Type can only be implemented inside this
	// package; callers build instances with the constructors below.
	isType()
	String() string
}

// Boolean, String, Number, Currency, Date, Time,
// RecurrentTimeSpecification, Location and Any are singleton base types;
// there is exactly one instance of each, so equality is pointer equality
// as well as structural equality.
type (
	BooleanType                    struct{}
	StringType                     struct{}
	NumberType                     struct{}
	CurrencyType                   struct{}
	DateType                       struct{}
	TimeType                       struct{}
	RecurrentTimeSpecificationType struct{}
	LocationType                   struct{}
	AnyType                        struct{}
	ArgMapType                     struct{}
)

func (BooleanType) isType()                    {}
func (StringType) isType()                     {}
func (NumberType) isType()                     {}
func (CurrencyType) isType()                    {}
func (DateType) isType()                       {}
func (TimeType) isType()                       {}
func (RecurrentTimeSpecificationType) isType() {}
func (LocationType) isType()                   {}
func (AnyType) isType()                        {}
func (ArgMapType) isType()                     {}

func (BooleanType) String() string                    { return "Boolean" }
func (StringType) String() string                     { return "String" }
func (NumberType) String() string                     { return "Number" }
func (CurrencyType) String() string                    { return "Currency" }
func (DateType) String() string                       { return "Date" }
func (TimeType) String() string                       { return "Time" }
func (RecurrentTimeSpecificationType) String() string { return "RecurrentTimeSpecification" }
func (LocationType) String() string                   { return "Location" }
func (AnyType) String() string                        { return "Any" }
func (ArgMapType) String() string                     { return "ArgMap" }

// Well-known singleton instances. Constructors such as NewArray accept
// and return the Type interface, so callers rarely need these directly,
// but the typechecker compares against them by identity for speed.
var (
	Boolean                    Type = BooleanType{}
	Str                        Type = StringType{}
	Number                     Type = NumberType{}
	Currency                   Type = CurrencyType{}
	Date                       Type = DateType{}
	Time                       Type = TimeType{}
	RecurrentTimeSpecification Type = RecurrentTimeSpecificationType{}
	Location                   Type = LocationType{}
	Any                        Type = AnyType{}
	ArgMap                     Type = ArgMapType{}
)

// MeasureType carries a base unit (e.g. "C", "kg", "mps"); two Measure
// types are equal iff their base units match.
type MeasureType struct{ Unit string }

func (MeasureType) isType()          {}
func (m MeasureType) String() string { return fmt.Sprintf("Measure(%s)", m.Unit) }

// NewMeasure constructs a Measure type for the given base unit.
func NewMeasure(unit string) Type { return MeasureType{Unit: unit} }

// EntityType carries an opaque dotted "kind" string (e.g.
// "tt:device_id"); two Entity types are equal iff their kinds match.
type EntityType struct{ Kind string }

func (EntityType) isType()          {}
func (e EntityType) String() string { return fmt.Sprintf("Entity(%s)", e.Kind) }

// NewEntity constructs an Entity type for the given kind.
func NewEntity(kind string) Type { return EntityType{Kind: kind} }

// EnumType carries an ordered set of labels. Subtyping is set inclusion
// of the label lists: an Enum(a,b) value can flow into an
// Enum(a,b,c) slot, not the reverse.
type EnumType struct{ Labels []string }

func (EnumType) isType() {}
func (e EnumType) String() string {
	s := "Enum("
	for i, l := range e.Labels {
		if i > 0 {
			s += ","
		}
		s += l
	}
	return s + ")"
}

// NewEnum constructs an Enum type from an ordered label list.
func NewEnum(labels ...string) Type { return EnumType{Labels: append([]string(nil), labels...)} }

func (e EnumType) hasLabel(l string) bool {
	for _, x := range e.Labels {
		if x == l {
			return true
		}
	}
	return false
}

// ArrayType is a homogeneous array of Elem.
type ArrayType struct{ Elem Type }

func (ArrayType) isType()          {}
func (a ArrayType) String() string { return fmt.Sprintf("Array(%s)", a.Elem) }

// NewArray constructs an Array type over elem.
func NewArray(elem Type) Type { return ArrayType{Elem: elem} }

// CompoundField is one field of a Compound type: its type plus the
// pretty-printing/annotation metadata FunctionDef arguments also carry.
type CompoundField struct {
	Type           Type
	CanonicalText  string
	RequiredIf     []string
	RequiredEither [][]string
}

// CompoundType is a named record of fields, used for structured query
// results that are passed whole between stages (e.g. a Location-like
// compound produced by one query and consumed by another).
type CompoundType struct {
	Fields map[string]CompoundField
	// Order preserves declaration order for pretty-printing; Fields is
	// keyed by name for O(1) lookup during type checking.
	Order []string
}

func (CompoundType) isType() {}
func (c CompoundType) String() string {
	s := "Compound{"
	for i, name := range c.Order {
		if i > 0 {
			s += ", "
		}
		s += name + ": " + c.Fields[name].Type.String()
	}
	return s + "}"
}

// NewCompound constructs a Compound type preserving field order.
func NewCompound(order []string, fields map[string]CompoundField) Type {
	return CompoundType{Order: append([]string(nil), order...), Fields: fields}
}

// TypeVarType is an unresolved generic type parameter, e.g. the element
// type of a polymorphic array builtin before unification fixes it.
type TypeVarType struct{ Name string }

func (TypeVarType) isType()          {}
func (t TypeVarType) String() string { return "TypeVar(" + t.Name + ")" }

// NewTypeVar constructs a fresh named type variable.
func NewTypeVar(name string) Type { return TypeVarType{Name: name} }

// TypesEqual implements structural equality over the Type variant:
// Measure types compare by unit, Entity types by kind, Enum types by
// label-set equality (not just list equality — order doesn't matter for
// equality, only for subtyping's "is currently expressible" checks),
// Array/Compound recurse, and every other pair compares by Go type
// identity (all the singletons are comparable structs{}).
func TypesEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch at := a.(type) {
	case MeasureType:
		bt, ok := b.(MeasureType)
		return ok && at.Unit == bt.Unit
	case EntityType:
		bt, ok := b.(EntityType)
		return ok && at.Kind == bt.Kind
	case EnumType:
		bt, ok := b.(EnumType)
		if !ok || len(at.Labels) != len(bt.Labels) {
			return false
		}
		for _, l := range at.Labels {
			if !bt.hasLabel(l) {
				return false
			}
		}
		return true
	case ArrayType:
		bt, ok := b.(ArrayType)
		return ok && TypesEqual(at.Elem, bt.Elem)
	case CompoundType:
		bt, ok := b.(CompoundType)
		if !ok || len(at.Fields) != len(bt.Fields) {
			return false
		}
		for name, f := range at.Fields {
			bf, ok := bt.Fields[name]
			if !ok || !TypesEqual(f.Type, bf.Type) {
				return false
			}
		}
		return true
	case TypeVarType:
		bt, ok := b.(TypeVarType)
		return ok && at.Name == bt.Name
	default:
		return a == b
	}
}

// IsSubtype reports whether a value of type sub may flow into a slot
// declared as type super, under the minimal subtyping rules this
// language needs: Any is top, Enum subtyping is set inclusion of
// labels, and Array subtyping follows the element type. Numeric-literal
// unification across Number/Measure/Currency is not checked here;
// UnifiesAsNumeric covers it.
func IsSubtype(sub, super Type) bool {
	if TypesEqual(sub, super) {
		return true
	}
	if _, ok := super.(AnyType); ok {
		return true
	}
	if subEnum, ok := sub.(EnumType); ok {
		if superEnum, ok := super.(EnumType); ok {
			for _, l := range subEnum.Labels {
				if !superEnum.hasLabel(l) {
					return false
				}
			}
			return true
		}
	}
	if subArr, ok := sub.(ArrayType); ok {
		if superArr, ok := super.(ArrayType); ok {
			return IsSubtype(subArr.Elem, superArr.Elem)
		}
	}
	return false
}

// UnifiesAsNumeric reports whether a numeric literal (untyped Number)
// may stand in for a Measure or Currency-typed slot.
func UnifiesAsNumeric(literal, declared Type) bool {
	if _, ok := literal.(NumberType); !ok {
		return false
	}
	switch declared.(type) {
	case NumberType, MeasureType, CurrencyType:
		return true
	default:
		return false
	}
}
