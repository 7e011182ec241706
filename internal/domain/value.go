package domain

import (
	"strconv"
	"strings"
	"time"
)

// DataType is the declared type of a configuration registry descriptor,
// as it appears in api_config.json ("DataType" field, case-insensitive).
type DataType string

const (
	TypeFloat   DataType = "float"
	TypeDouble  DataType = "double"
	TypeDecimal DataType = "decimal"
	TypeInt     DataType = "int"
	TypeInteger DataType = "integer"
	TypeLong    DataType = "long"
	TypeBool    DataType = "bool"
	TypeBoolean DataType = "boolean"
	TypeString  DataType = "string"
	TypeText    DataType = "text"
)

// NormalizeDataType lowercases and trims a DataType read from JSON.
func NormalizeDataType(s string) DataType {
	return DataType(strings.ToLower(strings.TrimSpace(s)))
}

// Value is the tagged union that crosses the OPC UA boundary: every write
// the core performs is one of these kinds, per the design notes (§9,
// "Dynamic-typed values crossing the OPC UA boundary").
type Value struct {
	Kind     ValueKind
	Bool     bool
	Int32    int32
	Int64    int64
	Double   float64
	String   string
	DateTime time.Time
}

type ValueKind int

const (
	KindBool ValueKind = iota
	KindInt32
	KindInt64
	KindDouble
	KindString
	KindDateTime
)

func BoolValue(v bool) Value           { return Value{Kind: KindBool, Bool: v} }
func Int32Value(v int32) Value         { return Value{Kind: KindInt32, Int32: v} }
func Int64Value(v int64) Value         { return Value{Kind: KindInt64, Int64: v} }
func DoubleValue(v float64) Value      { return Value{Kind: KindDouble, Double: v} }
func StringValue(v string) Value       { return Value{Kind: KindString, String: v} }
func DateTimeValue(v time.Time) Value  { return Value{Kind: KindDateTime, DateTime: v} }

// ConvertToDataType converts a trimmed raw string returned by GetByString
// into the Value declared by dataType, per spec.md §4.4 step 5.
func ConvertToDataType(raw string, dataType DataType) Value {
	raw = strings.TrimSpace(raw)
	switch dataType {
	case TypeFloat, TypeDouble, TypeDecimal:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			f = 0.0
		}
		return DoubleValue(f)
	case TypeInt, TypeInteger, TypeLong:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			i = 0
		}
		return Int64Value(i)
	case TypeBool, TypeBoolean:
		return convertBool(raw)
	default:
		return StringValue(raw)
	}
}

func convertBool(raw string) Value {
	if b, err := strconv.ParseBool(raw); err == nil {
		return BoolValue(b)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return BoolValue(n != 0)
	}
	return BoolValue(false)
}

// ZeroValue returns the zero value for dataType, used when GetByString
// fails transiently (spec.md §7 "Transient GetByString failure").
func ZeroValue(dataType DataType) Value {
	switch dataType {
	case TypeFloat, TypeDouble, TypeDecimal:
		return DoubleValue(0)
	case TypeInt, TypeInteger, TypeLong:
		return Int64Value(0)
	case TypeBool, TypeBoolean:
		return BoolValue(false)
	default:
		return StringValue("")
	}
}
