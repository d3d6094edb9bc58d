package thingtalk

import (
	"strings"
	"time"
)

// CompareValues orders two runtime tuple cells for Sort/ArgMinMax
// lowering: numeric-aware, falling through a type switch over the
// closed Value variant. Unit/kind metadata must agree before two
// values are comparable at all.
//
// Returns -1 if left < right, 0 if equal, 1 if left > right. A nil
// operand sorts before a non-nil one. Comparing across incompatible
// tags, units or codes returns -1 (the left operand sorts first);
// callers that need strict comparability should type-check first, since
// by the time Sort is compiled every column has a single resolved type.
func CompareValues(left, right Value) int {
	if left == nil || right == nil {
		if left == right {
			return 0
		}
		if left == nil {
			return -1
		}
		return 1
	}
	switch l := left.(type) {
	case NumberValue:
		if r, ok := right.(NumberValue); ok {
			return compareFloat(l.Value, r.Value)
		}
		return -1
	case MeasureValue:
		if r, ok := right.(MeasureValue); ok && l.Unit == r.Unit {
			return compareFloat(l.Value, r.Value)
		}
		return -1
	case CurrencyValue:
		if r, ok := right.(CurrencyValue); ok && l.Code == r.Code {
			return compareFloat(l.Value, r.Value)
		}
		return -1
	case StringValue:
		if r, ok := right.(StringValue); ok {
			return strings.Compare(l.Value, r.Value)
		}
		return -1
	case BooleanValue:
		if r, ok := right.(BooleanValue); ok {
			if l.Value == r.Value {
				return 0
			}
			if !l.Value {
				return -1
			}
			return 1
		}
		return -1
	case EnumValue:
		if r, ok := right.(EnumValue); ok {
			return strings.Compare(l.Label, r.Label)
		}
		return -1
	case TimeValue:
		if r, ok := right.(TimeValue); ok {
			return compareInts(l.Hour*3600+l.Minute*60+l.Second, r.Hour*3600+r.Minute*60+r.Second)
		}
		return -1
	case DateValue:
		if r, ok := right.(DateValue); ok && l.Kind == DateAbsolute && r.Kind == DateAbsolute {
			lt := time.Date(l.Year, time.Month(l.Month), l.Day, l.Hour, l.Minute, l.Second, 0, time.UTC)
			rt := time.Date(r.Year, time.Month(r.Month), r.Day, r.Hour, r.Minute, r.Second, 0, time.UTC)
			if lt.Before(rt) {
				return -1
			}
			if lt.After(rt) {
				return 1
			}
			return 0
		}
		return -1
	default:
		// Non-orderable tags (entities, locations, arrays, computations,
		// undefined slots) compare equal only to themselves via String().
		if left.String() == right.String() {
			return 0
		}
		return -1
	}
}

func compareFloat(a, b float64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func compareInts(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
