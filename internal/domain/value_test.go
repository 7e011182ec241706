package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToDataType_FloatParsesAndTrims(t *testing.T) {
	v := ConvertToDataType("  42.50  ", TypeFloat)
	assert.Equal(t, KindDouble, v.Kind)
	assert.Equal(t, 42.5, v.Double)
}

func TestConvertToDataType_FloatFallsBackToZero(t *testing.T) {
	v := ConvertToDataType("not-a-number", TypeDouble)
	assert.Equal(t, KindDouble, v.Kind)
	assert.Equal(t, 0.0, v.Double)
}

func TestConvertToDataType_IntegerParses(t *testing.T) {
	v := ConvertToDataType("123", TypeInteger)
	assert.Equal(t, KindInt64, v.Kind)
	assert.EqualValues(t, 123, v.Int64)
}

func TestConvertToDataType_BoolLiteral(t *testing.T) {
	v := ConvertToDataType("true", TypeBool)
	assert.True(t, v.Bool)
}

func TestConvertToDataType_BoolNumericFallback(t *testing.T) {
	assert.True(t, ConvertToDataType("1", TypeBoolean).Bool)
	assert.False(t, ConvertToDataType("0", TypeBoolean).Bool)
	assert.False(t, ConvertToDataType("garbage", TypeBoolean).Bool)
}

func TestConvertToDataType_UnknownFallsBackToTrimmedString(t *testing.T) {
	v := ConvertToDataType("  hello  ", TypeString)
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "hello", v.String)

	v2 := ConvertToDataType("  world  ", DataType("unrecognized"))
	assert.Equal(t, "world", v2.String)
}

func TestZeroValue(t *testing.T) {
	assert.Equal(t, DoubleValue(0), ZeroValue(TypeFloat))
	assert.Equal(t, Int64Value(0), ZeroValue(TypeLong))
	assert.Equal(t, BoolValue(false), ZeroValue(TypeBool))
	assert.Equal(t, StringValue(""), ZeroValue(TypeText))
}

func TestNormalizeDataType(t *testing.T) {
	assert.Equal(t, TypeFloat, NormalizeDataType("  Float  "))
	assert.Equal(t, TypeBoolean, NormalizeDataType("BOOLEAN"))
}
