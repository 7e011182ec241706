package controlplane

import (
	"fmt"
	"time"

	"github.com/gopcua/opcua/ua"

	"github.com/okuma-coupler/bridge/internal/domain"
)

// variantToValue converts a gopcua variant into the core's tagged union.
func variantToValue(v *ua.Variant) domain.Value {
	if v == nil {
		return domain.Value{}
	}
	switch x := v.Value().(type) {
	case bool:
		return domain.BoolValue(x)
	case int16:
		return domain.Int32Value(int32(x))
	case int32:
		return domain.Int32Value(x)
	case int64:
		return domain.Int64Value(x)
	case uint16:
		return domain.Int32Value(int32(x))
	case uint32:
		return domain.Int64Value(int64(x))
	case float32:
		return domain.DoubleValue(float64(x))
	case float64:
		return domain.DoubleValue(x)
	case string:
		return domain.StringValue(x)
	case time.Time:
		return domain.DateTimeValue(x)
	default:
		return domain.StringValue(fmt.Sprint(x))
	}
}

// valueToVariant converts the core's tagged union into a gopcua variant
// for a write request.
func valueToVariant(v domain.Value) (*ua.Variant, error) {
	switch v.Kind {
	case domain.KindBool:
		return ua.MustVariant(v.Bool), nil
	case domain.KindInt32:
		return ua.MustVariant(v.Int32), nil
	case domain.KindInt64:
		return ua.MustVariant(v.Int64), nil
	case domain.KindDouble:
		return ua.MustVariant(v.Double), nil
	case domain.KindString:
		return ua.MustVariant(v.String), nil
	case domain.KindDateTime:
		return ua.MustVariant(v.DateTime), nil
	default:
		return nil, fmt.Errorf("controlplane: unknown value kind %d", v.Kind)
	}
}
