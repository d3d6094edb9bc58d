package thingtalk

import (
	"fmt"
	"strings"
	"time"
)

// This file defines the host-value boundary: ToJS per Value variant and
// the type-directed FromJS inverse. The shapes are what a runtime
// environment exchanges with devices:
//
//	Boolean      bool
//	String       string
//	Number       float64
//	Measure      float64 (magnitude in the declared base unit)
//	Currency     map{value, code}
//	Date         time.Time (UTC instant)
//	Time         map{hour, minute, second}
//	Entity       map{value, display, type}
//	Enum         string (the label)
//	Location     map{lat, lon, display}
//	Array        []interface{}
//
// For every constant value v of type T, FromJS(T, v.ToJS()) is
// structurally equal to v, with one caveat: a relative Date (edge,
// piece, weekday) converts to the instant it denotes at conversion
// time, so it comes back as the equivalent absolute Date. Non-constant
// values (VarRef, Event, Computation, Undefined) have no host form
// until the runtime binds them; their ToJS returns nil.

func (v BooleanValue) ToJS() interface{} { return v.Value }
func (v StringValue) ToJS() interface{}  { return v.Value }
func (v NumberValue) ToJS() interface{}  { return v.Value }
func (v MeasureValue) ToJS() interface{} { return v.Value }

func (v CurrencyValue) ToJS() interface{} {
	return map[string]interface{}{"value": v.Value, "code": v.Code}
}

func (v DateValue) ToJS() interface{} {
	switch v.Kind {
	case DateAbsolute:
		return time.Date(v.Year, time.Month(v.Month), v.Day, v.Hour, v.Minute, v.Second, 0, time.UTC)
	case DateEdge:
		return dateEdge(time.Now().UTC(), v.EdgeOp, v.EdgeUnit)
	case DatePiece:
		return time.Now().UTC().Add(pieceDuration(v.PieceAmount, v.PieceUnit))
	case DateWeekday:
		return nextWeekday(time.Now().UTC(), v.Weekday)
	default:
		// DateVarExpr resolves only once the runtime binds the
		// embedded expression.
		return nil
	}
}

func (v TimeValue) ToJS() interface{} {
	return map[string]interface{}{"hour": v.Hour, "minute": v.Minute, "second": v.Second}
}

func (v EntityValue) ToJS() interface{} {
	return map[string]interface{}{"value": v.Value, "display": v.Display, "type": v.Type}
}

func (v EnumValue) ToJS() interface{} { return v.Label }

func (v LocationValue) ToJS() interface{} {
	if v.Var != nil {
		return nil // relative location; resolved by the runtime
	}
	return map[string]interface{}{"lat": v.Lat, "lon": v.Lon, "display": v.Display}
}

func (v ArrayValue) ToJS() interface{} {
	out := make([]interface{}, len(v.Elems))
	for i, e := range v.Elems {
		out[i] = e.ToJS()
	}
	return out
}

func (v EventValue) ToJS() interface{}       { return nil }
func (v VarRefValue) ToJS() interface{}      { return nil }
func (v ComputationValue) ToJS() interface{} { return nil }
func (v UndefinedValue) ToJS() interface{}   { return nil }

// FromJS converts a host value back into the Value variant the declared
// type calls for — the inverse of ToJS. Numeric host values are
// accepted as any Go numeric width.
func FromJS(t Type, raw interface{}) (Value, error) {
	if raw == nil {
		return nil, fmt.Errorf("from_js: nil host value for %s", t)
	}
	switch dt := t.(type) {
	case BooleanType:
		b, ok := raw.(bool)
		if !ok {
			return nil, conversionError(t, raw)
		}
		return BooleanValue{Value: b}, nil

	case StringType:
		s, ok := raw.(string)
		if !ok {
			return nil, conversionError(t, raw)
		}
		return StringValue{Value: s}, nil

	case NumberType:
		f, ok := asFloat(raw)
		if !ok {
			return nil, conversionError(t, raw)
		}
		return NumberValue{Value: f}, nil

	case MeasureType:
		f, ok := asFloat(raw)
		if !ok {
			return nil, conversionError(t, raw)
		}
		return MeasureValue{Value: f, Unit: dt.Unit}, nil

	case CurrencyType:
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, conversionError(t, raw)
		}
		f, _ := asFloat(m["value"])
		code, _ := m["code"].(string)
		return CurrencyValue{Value: f, Code: code}, nil

	case DateType:
		instant, ok := raw.(time.Time)
		if !ok {
			return nil, conversionError(t, raw)
		}
		u := instant.UTC()
		return DateValue{
			Kind: DateAbsolute,
			Year: u.Year(), Month: int(u.Month()), Day: u.Day(),
			Hour: u.Hour(), Minute: u.Minute(), Second: u.Second(),
		}, nil

	case TimeType:
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, conversionError(t, raw)
		}
		return TimeValue{Hour: asInt(m["hour"]), Minute: asInt(m["minute"]), Second: asInt(m["second"])}, nil

	case EntityType:
		switch e := raw.(type) {
		case string:
			// A bare identifier; the declared type supplies the kind.
			return EntityValue{Value: e, Type: dt.Kind}, nil
		case map[string]interface{}:
			value, _ := e["value"].(string)
			display, _ := e["display"].(string)
			kind, _ := e["type"].(string)
			if kind == "" {
				kind = dt.Kind
			}
			return EntityValue{Value: value, Display: display, Type: kind}, nil
		default:
			return nil, conversionError(t, raw)
		}

	case EnumType:
		label, ok := raw.(string)
		if !ok {
			return nil, conversionError(t, raw)
		}
		if !dt.hasLabel(label) {
			return nil, fmt.Errorf("from_js: %q is not a label of %s", label, dt)
		}
		return EnumValue{Label: label}, nil

	case LocationType:
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, conversionError(t, raw)
		}
		lat, _ := asFloat(m["lat"])
		lon, _ := asFloat(m["lon"])
		display, _ := m["display"].(string)
		return LocationValue{Lat: lat, Lon: lon, Display: display}, nil

	case ArrayType:
		elems, ok := raw.([]interface{})
		if !ok {
			return nil, conversionError(t, raw)
		}
		out := ArrayValue{Elems: make([]Value, len(elems))}
		for i, e := range elems {
			v, err := FromJS(dt.Elem, e)
			if err != nil {
				return nil, fmt.Errorf("from_js: element %d: %w", i, err)
			}
			out.Elems[i] = v
		}
		return out, nil

	default:
		return nil, fmt.Errorf("from_js: type %s has no host representation", t)
	}
}

func conversionError(t Type, raw interface{}) error {
	return fmt.Errorf("from_js: cannot convert %T to %s", raw, t)
}

func asFloat(raw interface{}) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt(raw interface{}) int {
	f, _ := asFloat(raw)
	return int(f)
}

// dateEdge truncates now down to (start_of) or rounds it up to (end_of)
// the named calendar unit.
func dateEdge(now time.Time, op, unit string) time.Time {
	var start time.Time
	switch unit {
	case "hour":
		start = now.Truncate(time.Hour)
	case "day":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case "week":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		start = start.AddDate(0, 0, -int(start.Weekday()))
	case "mon":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case "year":
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return now
	}
	if op == "end_of" {
		switch unit {
		case "hour":
			return start.Add(time.Hour)
		case "day":
			return start.AddDate(0, 0, 1)
		case "week":
			return start.AddDate(0, 0, 7)
		case "mon":
			return start.AddDate(0, 1, 0)
		case "year":
			return start.AddDate(1, 0, 0)
		}
	}
	return start
}

func pieceDuration(amount float64, unit string) time.Duration {
	var base time.Duration
	switch unit {
	case "ms":
		base = time.Millisecond
	case "s":
		base = time.Second
	case "min":
		base = time.Minute
	case "h":
		base = time.Hour
	case "day":
		base = 24 * time.Hour
	case "week":
		base = 7 * 24 * time.Hour
	default:
		base = time.Second
	}
	return time.Duration(amount * float64(base))
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// nextWeekday returns midnight of the next occurrence of the named
// weekday strictly after now's date.
func nextWeekday(now time.Time, name string) time.Time {
	target, ok := weekdayNames[strings.ToLower(name)]
	if !ok {
		return now
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(target) - int(day.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}
