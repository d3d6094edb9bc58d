package thingtalk

import "fmt"

// Value is the closed tagged variant of every literal and runtime
// placeholder a program can carry. Each Value implementation knows its
// own type (for literal-like values, before type checking); a
// Computation is resolved to a concrete type only by the type checker.
//
// Values are a closed set of structs rather than raw Go primitives
// behind an interface{}, because a value must carry its
// unit/currency-code/entity-kind metadata alongside the raw number.
type Value interface {
	isValue()
	// IsConstant reports whether this value is independent of runtime
	// bindings: literals, dates, times and entities are constant;
	// events, undefined slots, computations and ordinary variable
	// references are not.
	IsConstant() bool
	// ToJS converts the value to the plain host representation the
	// runtime environment passes to and receives from devices; see
	// js.go for the per-variant shapes and FromJS for the inverse.
	ToJS() interface{}
	String() string
}

// BooleanValue, StringValue and NumberValue are the scalar literals.
type (
	BooleanValue struct{ Value bool }
	StringValue  struct{ Value string }
	NumberValue  struct{ Value float64 }
)

func (BooleanValue) isValue()        {}
func (StringValue) isValue()         {}
func (NumberValue) isValue()         {}
func (BooleanValue) IsConstant() bool { return true }
func (StringValue) IsConstant() bool  { return true }
func (NumberValue) IsConstant() bool  { return true }
func (v BooleanValue) String() string { return fmt.Sprintf("%v", v.Value) }
func (v StringValue) String() string  { return fmt.Sprintf("%q", v.Value) }
func (v NumberValue) String() string  { return fmt.Sprintf("%g", v.Value) }

// MeasureValue pairs a magnitude with a unit, e.g. "75F".
type MeasureValue struct {
	Value float64
	Unit  string
}

func (MeasureValue) isValue()         {}
func (MeasureValue) IsConstant() bool { return true }
func (v MeasureValue) String() string { return fmt.Sprintf("%g%s", v.Value, v.Unit) }

// CurrencyValue pairs a magnitude with an ISO code, e.g. "9.99USD".
type CurrencyValue struct {
	Value float64
	Code  string
}

func (CurrencyValue) isValue()         {}
func (CurrencyValue) IsConstant() bool { return true }
func (v CurrencyValue) String() string { return fmt.Sprintf("%g%s", v.Value, v.Code) }

// DateKind distinguishes the five surface forms a Date literal can
// take: an absolute instant, a relative "edge" (start_of/end_of a
// unit), a relative offset ("+1h"), a weekday-of-week reference, or an
// embedded variable expression computed at runtime.
type DateKind int

const (
	DateAbsolute DateKind = iota
	DateEdge
	DatePiece
	DateWeekday
	DateVarExpr
)

// DateValue is a Date literal in one of the five DateKind forms.
type DateValue struct {
	Kind DateKind

	// DateAbsolute
	Year, Month, Day     int
	Hour, Minute, Second int

	// DateEdge: "start_of"/"end_of" a unit ("day","week","mon",...)
	EdgeOp   string
	EdgeUnit string

	// DatePiece: an offset of Amount Unit from now, e.g. "+1h"
	PieceAmount float64
	PieceUnit   string

	// DateWeekday: the Nth occurrence of Weekday relative to now
	Weekday string

	// DateVarExpr: a computed expression, resolved at type-check/run time
	VarExpr Value
}

func (DateValue) isValue() {}
func (v DateValue) IsConstant() bool {
	if v.Kind == DateVarExpr {
		// A date computed from an embedded expression is only as
		// constant as the expression itself.
		return v.VarExpr == nil || v.VarExpr.IsConstant()
	}
	return true
}
func (v DateValue) String() string {
	switch v.Kind {
	case DateAbsolute:
		return fmt.Sprintf("makeDate(%04d,%02d,%02d,%02d,%02d,%02d)", v.Year, v.Month, v.Day, v.Hour, v.Minute, v.Second)
	case DateEdge:
		return fmt.Sprintf("%s(%s)", v.EdgeOp, v.EdgeUnit)
	case DatePiece:
		return fmt.Sprintf("%+g%s", v.PieceAmount, v.PieceUnit)
	case DateWeekday:
		return v.Weekday
	default:
		return "new Date(" + v.VarExpr.String() + ")"
	}
}

// TimeValue is a wall-clock time-of-day literal.
type TimeValue struct{ Hour, Minute, Second int }

func (TimeValue) isValue()         {}
func (TimeValue) IsConstant() bool { return true }
func (v TimeValue) String() string { return fmt.Sprintf("new Time(%d,%d,%d)", v.Hour, v.Minute, v.Second) }

// EntityValue is an opaque typed identifier, optionally carrying a
// human-readable display string.
type EntityValue struct {
	Value   string
	Display string
	Type    string // the entity kind, e.g. "tt:device_id"
}

func (EntityValue) isValue()         {}
func (EntityValue) IsConstant() bool { return true }
func (v EntityValue) String() string {
	if v.Display != "" {
		return fmt.Sprintf("%q^^%s(%q)", v.Value, v.Type, v.Display)
	}
	return fmt.Sprintf("%q^^%s", v.Value, v.Type)
}

// EnumValue is a single label drawn from an Enum(...) type.
type EnumValue struct{ Label string }

func (EnumValue) isValue()         {}
func (EnumValue) IsConstant() bool { return true }
func (v EnumValue) String() string { return "enum " + v.Label }

// LocationValue is either a literal lat/lon (optionally displayed) or a
// relative location bound to a variable (e.g. "$context.location.home").
type LocationValue struct {
	Lat, Lon float64
	Display  string
	Var      *VarRefValue // non-nil for "relative" locations
}

func (LocationValue) isValue() {}
func (v LocationValue) IsConstant() bool {
	return v.Var == nil
}
func (v LocationValue) String() string {
	if v.Var != nil {
		return v.Var.String()
	}
	if v.Display != "" {
		return fmt.Sprintf("new Location(%g,%g,%q)", v.Lat, v.Lon, v.Display)
	}
	return fmt.Sprintf("new Location(%g,%g)", v.Lat, v.Lon)
}

// ArrayValue is an ordered, possibly heterogeneous-before-checking list.
type ArrayValue struct{ Elems []Value }

func (ArrayValue) isValue() {}
func (v ArrayValue) IsConstant() bool {
	for _, e := range v.Elems {
		if !e.IsConstant() {
			return false
		}
	}
	return true
}
func (v ArrayValue) String() string {
	s := "["
	for i, e := range v.Elems {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + "]"
}

// EventValue refers to the implicit event object inside a formatting
// expression ($event, $event.type, $event.title, ...).
type EventValue struct{ Kind string } // "", "type", "title", "text" ...

func (EventValue) isValue()         {}
func (EventValue) IsConstant() bool { return false }
func (v EventValue) String() string {
	if v.Kind == "" {
		return "$event"
	}
	return "$event." + v.Kind
}

// VarRefValue refers to a bound name in scope. A "$"-prefixed name
// refers to a compile-time constant (e.g.
// "$context.location.current_location") and is therefore constant even
// though it is syntactically a VarRef.
type VarRefValue struct{ Name string }

func (VarRefValue) isValue() {}
func (v VarRefValue) IsConstant() bool {
	return len(v.Name) > 0 && v.Name[0] == '$'
}
func (v VarRefValue) String() string { return v.Name }

// ComputationValue is an unevaluated operator application over nested
// values (e.g. distance(...), string concatenation); the type checker
// resolves it to a concrete result type and the rule compiler lowers it
// to a runtime Compute step.
type ComputationValue struct {
	Op   string
	Args []Value

	// ResolvedType is nil until the type checker assigns it; non-nil
	// thereafter (AST invariant: "every expression carries a non-null
	// schema after type checking").
	ResolvedType Type
}

func (ComputationValue) isValue()         {}
func (ComputationValue) IsConstant() bool { return false }
func (v ComputationValue) String() string {
	s := v.Op + "("
	for i, a := range v.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

// UndefinedValue is the "$?" slot marker. Required=true on an
// UndefinedValue that survives to IsExecutable marks the owning program
// non-executable.
type UndefinedValue struct{ Required bool }

func (UndefinedValue) isValue()         {}
func (UndefinedValue) IsConstant() bool { return false }
func (v UndefinedValue) String() string { return "$?" }

// Undefined is the canonical required-slot marker; the type checker
// binds it to every required in-arg an invocation leaves unset.
var Undefined = UndefinedValue{Required: true}
