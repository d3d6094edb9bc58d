package typecheck

import (
	"context"
	"strings"

	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
)

// checkInvocation resolves inv's selector/channel against the schema
// resolver, trying each candidate FunctionKind in order (the first
// match wins — channel names need not be unique across a class's
// queries/actions/streams, so the caller's position disambiguates),
// then validates every bound argument: direction, presence, and type
// unification.
func (c *Checker) checkInvocation(ctx context.Context, inv *ast.Invocation, scope ast.Scope, kinds []ast.FunctionKind) error {
	fn, err := c.resolveFunction(ctx, inv.Selector.Kind, inv.Channel, kinds)
	if err != nil {
		return err
	}
	inv.SetSchema(fn)

	for name, val := range inv.InArgs {
		arg, ok := fn.Arg(name)
		if !ok {
			return &thingtalk.UndeclaredNameErr{Name: name, Scope: argNames(fn)}
		}
		if arg.Direction == ast.Out {
			return &thingtalk.DirectionViolationErr{Function: fn.QualifiedName, Arg: name, Expected: thingtalk.DirectionOut}
		}
		if err := c.checkDirection(val, scope); err != nil {
			return err
		}
		checked, err := c.checkValue(ctx, val, arg.Type, scope)
		if err != nil {
			return err
		}
		inv.InArgs[name] = checked
	}

	// Required-and-unbound in-args get an explicit Undefined(required)
	// slot so IsExecutable (and the rule compiler's slot walk) sees
	// them without special-casing "absent from the map" everywhere
	// downstream — the AST invariant is "every VarRef/Selector/channel
	// resolves", not "every required arg is present in InArgs".
	for _, a := range fn.Args {
		if a.Direction != ast.InRequired {
			continue
		}
		if _, ok := inv.InArgs[a.Name]; !ok {
			inv.InArgs[a.Name] = thingtalk.Undefined
		}
	}
	return nil
}

func (c *Checker) resolveFunction(ctx context.Context, kind, channel string, kinds []ast.FunctionKind) (*ast.FunctionDef, error) {
	var lastErr error
	for _, k := range kinds {
		fn, err := c.resolver.GetFunction(ctx, kind, k, channel)
		if err == nil {
			return fn, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = &thingtalk.UnknownKindErr{Kind: kind, Name: channel}
	}
	return nil, lastErr
}

func argNames(fn *ast.FunctionDef) []string {
	names := make([]string, len(fn.Args))
	for i, a := range fn.Args {
		names[i] = a.Name
	}
	return names
}

// checkDirection enforces that in-args are either literals or VarRefs
// bound in the current scope. Compile-time
// constants ($-prefixed VarRefs), Undefined slots, and Computations
// over otherwise-valid operands are all permitted — only a VarRef to a
// name absent from scope is a direction/name violation.
func (c *Checker) checkDirection(v thingtalk.Value, scope ast.Scope) error {
	switch val := v.(type) {
	case thingtalk.VarRefValue:
		if val.IsConstant() {
			return nil
		}
		if _, ok := scope[val.Name]; !ok {
			return &thingtalk.UndeclaredNameErr{Name: val.Name, Scope: scopeNames(scope)}
		}
		return nil
	case thingtalk.ComputationValue:
		for _, arg := range val.Args {
			if err := c.checkDirection(arg, scope); err != nil {
				return err
			}
		}
		return nil
	case thingtalk.ArrayValue:
		for _, e := range val.Elems {
			if err := c.checkDirection(e, scope); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// checkValue infers v's type against declared (the slot it is bound
// to), unifies, and resolves a Computation's ResolvedType in the
// process. It returns the (possibly rewritten, in the Computation case)
// value.
func (c *Checker) checkValue(ctx context.Context, v thingtalk.Value, declared thingtalk.Type, scope ast.Scope) (thingtalk.Value, error) {
	actual, err := c.inferType(v, declared, scope)
	if err != nil {
		return nil, err
	}
	if actual == nil {
		return v, nil // Undefined, Event: no static type to unify
	}
	if comp, ok := v.(thingtalk.ComputationValue); ok {
		comp.ResolvedType = actual
		v = comp
	}
	if thingtalk.TypesEqual(actual, declared) || thingtalk.IsSubtype(actual, declared) || thingtalk.UnifiesAsNumeric(actual, declared) {
		return v, nil
	}
	return nil, &thingtalk.TypeMismatchErr{Expected: declared, Actual: actual, Path: v.String()}
}

func (c *Checker) inferType(v thingtalk.Value, declared thingtalk.Type, scope ast.Scope) (thingtalk.Type, error) {
	switch val := v.(type) {
	case thingtalk.BooleanValue:
		return thingtalk.Boolean, nil
	case thingtalk.StringValue:
		return thingtalk.Str, nil
	case thingtalk.NumberValue:
		return thingtalk.Number, nil
	case thingtalk.MeasureValue:
		return thingtalk.NewMeasure(val.Unit), nil
	case thingtalk.CurrencyValue:
		return thingtalk.Currency, nil
	case thingtalk.DateValue:
		return thingtalk.Date, nil
	case thingtalk.TimeValue:
		return thingtalk.Time, nil
	case thingtalk.EntityValue:
		return thingtalk.NewEntity(val.Type), nil
	case thingtalk.LocationValue:
		if val.Var != nil {
			return c.inferType(*val.Var, declared, scope)
		}
		return thingtalk.Location, nil
	case thingtalk.EnumValue:
		if et, ok := declared.(thingtalk.EnumType); ok {
			for _, l := range et.Labels {
				if l == val.Label {
					return et, nil
				}
			}
			return nil, &thingtalk.TypeMismatchErr{Expected: declared, Actual: thingtalk.NewEnum(val.Label), Path: val.String()}
		}
		return thingtalk.NewEnum(val.Label), nil
	case thingtalk.ArrayValue:
		elem := thingtalk.Any
		if at, ok := declared.(thingtalk.ArrayType); ok {
			elem = at.Elem
		}
		for i, e := range val.Elems {
			t, err := c.inferType(e, elem, scope)
			if err != nil {
				return nil, err
			}
			if i == 0 && t != nil {
				elem = t
			}
		}
		return thingtalk.NewArray(elem), nil
	case thingtalk.VarRefValue:
		if val.IsConstant() {
			return declared, nil // "$context..." constants unify with whatever slot they're bound to
		}
		t, ok := scope[val.Name]
		if !ok {
			return nil, &thingtalk.UndeclaredNameErr{Name: val.Name, Scope: scopeNames(scope)}
		}
		return t, nil
	case thingtalk.ComputationValue:
		resolved, err := c.resolveComputation(val, declared, scope)
		if err != nil {
			return nil, err
		}
		return resolved, nil
	case thingtalk.UndefinedValue:
		return nil, nil
	case thingtalk.EventValue:
		return nil, nil
	default:
		return nil, nil
	}
}

// computationResultTypes special-cases the builtin operators whose
// result type is fixed regardless of operand types (e.g. a distance
// computation feeding a Measure(m) filter). Any operator this table
// doesn't know falls back to the declared slot type; the full
// builtin-function catalog lives with the runtime, not here.
var computationResultTypes = map[string]thingtalk.Type{
	"distance":   thingtalk.NewMeasure("m"),
	"count":      thingtalk.Number,
	"sum":        thingtalk.Number,
	"concat":     thingtalk.Str,
	"string_len": thingtalk.Number,
}

func (c *Checker) resolveComputation(v thingtalk.ComputationValue, declared thingtalk.Type, scope ast.Scope) (thingtalk.Type, error) {
	for _, a := range v.Args {
		if _, err := c.inferType(a, thingtalk.Any, scope); err != nil {
			return nil, err
		}
	}
	if t, ok := computationResultTypes[strings.ToLower(v.Op)]; ok {
		return t, nil
	}
	return declared, nil
}
