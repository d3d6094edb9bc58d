package thingtalk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// For every constant value v of type T, FromJS(T, v.ToJS()) is
// structurally equal to v.
func TestFromJSToJSRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		typ   Type
		value Value
	}{
		{"boolean", Boolean, BooleanValue{Value: true}},
		{"string", Str, StringValue{Value: "hello world"}},
		{"number", Number, NumberValue{Value: 42.5}},
		{"measure", NewMeasure("C"), MeasureValue{Value: 21.5, Unit: "C"}},
		{"currency", Currency, CurrencyValue{Value: 9.99, Code: "usd"}},
		{"date", Date, DateValue{Kind: DateAbsolute, Year: 2018, Month: 5, Day: 23, Hour: 21, Minute: 18, Second: 0}},
		{"time", Time, TimeValue{Hour: 8, Minute: 30, Second: 0}},
		{"entity", NewEntity("tt:username"), EntityValue{Value: "bob", Display: "Bob", Type: "tt:username"}},
		{"enum", NewEnum("on", "off"), EnumValue{Label: "on"}},
		{"location", Location, LocationValue{Lat: 37.4, Lon: -122.1, Display: "Palo Alto"}},
		{"array", NewArray(Number), ArrayValue{Elems: []Value{NumberValue{Value: 1}, NumberValue{Value: 2}}}},
		{"nested array", NewArray(NewMeasure("m")), ArrayValue{Elems: []Value{MeasureValue{Value: 5, Unit: "m"}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			back, err := FromJS(tc.typ, tc.value.ToJS())
			require.NoError(t, err)
			assert.Equal(t, tc.value, back)
		})
	}
}

func TestToJSHostShapes(t *testing.T) {
	assert.Equal(t, 42.5, NumberValue{Value: 42.5}.ToJS())
	assert.Equal(t, 21.5, MeasureValue{Value: 21.5, Unit: "C"}.ToJS(), "measures cross the boundary as a bare base-unit magnitude")
	assert.Equal(t, "on", EnumValue{Label: "on"}.ToJS())

	instant, ok := DateValue{Kind: DateAbsolute, Year: 2018, Month: 5, Day: 23}.ToJS().(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2018, instant.Year())
	assert.Equal(t, time.UTC, instant.Location())
}

// A relative date converts to the instant it denotes; it comes back as
// the equivalent absolute date, not the relative form.
func TestRelativeDateNormalizesToInstant(t *testing.T) {
	edge := DateValue{Kind: DateEdge, EdgeOp: "start_of", EdgeUnit: "day"}
	instant, ok := edge.ToJS().(time.Time)
	require.True(t, ok)
	assert.Equal(t, 0, instant.Hour())
	assert.Equal(t, 0, instant.Minute())

	back, err := FromJS(Date, instant)
	require.NoError(t, err)
	assert.Equal(t, DateAbsolute, back.(DateValue).Kind)
}

func TestNonConstantValuesHaveNoHostForm(t *testing.T) {
	assert.Nil(t, VarRefValue{Name: "x"}.ToJS())
	assert.Nil(t, EventValue{}.ToJS())
	assert.Nil(t, ComputationValue{Op: "distance"}.ToJS())
	assert.Nil(t, UndefinedValue{}.ToJS())
	assert.Nil(t, DateValue{Kind: DateVarExpr, VarExpr: VarRefValue{Name: "x"}}.ToJS())
	assert.Nil(t, LocationValue{Var: &VarRefValue{Name: "$context.location.home"}}.ToJS())
}

func TestFromJSRejectsMismatchedHostValues(t *testing.T) {
	_, err := FromJS(Str, 42.0)
	assert.Error(t, err)

	_, err = FromJS(NewEnum("a", "b"), "c")
	assert.Error(t, err, "a label outside the enum's set is rejected")

	_, err = FromJS(Number, nil)
	assert.Error(t, err)

	_, err = FromJS(NewArray(Number), []interface{}{1.0, "two"})
	assert.Error(t, err)
}

func TestFromJSAcceptsAnyNumericWidth(t *testing.T) {
	v, err := FromJS(Number, 7)
	require.NoError(t, err)
	assert.Equal(t, NumberValue{Value: 7}, v)

	v, err = FromJS(NewMeasure("kg"), int64(3))
	require.NoError(t, err)
	assert.Equal(t, MeasureValue{Value: 3, Unit: "kg"}, v)
}

func TestFromJSEntityFromBareString(t *testing.T) {
	v, err := FromJS(NewEntity("tt:device_id"), "twitter-123")
	require.NoError(t, err)
	assert.Equal(t, EntityValue{Value: "twitter-123", Type: "tt:device_id"}, v)
}

func TestDateVarExprConstancyFollowsExpression(t *testing.T) {
	assert.False(t, DateValue{Kind: DateVarExpr, VarExpr: VarRefValue{Name: "x"}}.IsConstant())
	assert.True(t, DateValue{Kind: DateVarExpr, VarExpr: VarRefValue{Name: "$context.now"}}.IsConstant())
	assert.True(t, DateValue{Kind: DateEdge, EdgeOp: "start_of", EdgeUnit: "day"}.IsConstant())
}
