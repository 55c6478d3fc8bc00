package reflects

import (
	"fmt"
	"reflect"
	"strconv"
)

// FormatScalar formats a value of a basic kind as a string.
func FormatScalar(val reflect.Value) string {
	switch val.Kind() {
	case reflect.String:
		return val.String()
	case reflect.Bool:
		return strconv.FormatBool(val.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(val.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(val.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(val.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(val.Float(), 'f', -1, 64)
	default:
		return fmt.Sprint(val.Interface())
	}
}

// ParseScalar parses raw into a settable value of a basic kind.
func ParseScalar(val reflect.Value, raw string) error {
	switch val.Kind() {
	case reflect.String:
		val.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		val.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, val.Type().Bits())
		if err != nil {
			return err
		}
		val.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, val.Type().Bits())
		if err != nil {
			return err
		}
		val.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, val.Type().Bits())
		if err != nil {
			return err
		}
		val.SetFloat(f)
	default:
		return fmt.Errorf("unsupported kind: %s", val.Kind())
	}
	return nil
}
