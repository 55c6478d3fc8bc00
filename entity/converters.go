package entity

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/adamluzsi/persistroute/reflects"
)

var timeType = reflect.TypeOf(time.Time{})

// ConverterFor returns the default converter for a field type.
func ConverterFor(typ reflect.Type) (Converter, error) {
	if typ == timeType {
		return timeConverter{}, nil
	}
	switch typ.Kind() {
	case reflect.String:
		return stringConverter{Type: typ}, nil
	case reflect.Bool:
		return boolConverter{Type: typ}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return numberConverter{Type: typ}, nil
	default:
		return nil, fmt.Errorf("no default converter for %s", typ.String())
	}
}

type stringConverter struct{ Type reflect.Type }

func (c stringConverter) FromFlat(_ context.Context, raw string, present bool) (Conversion, error) {
	if !present {
		return Omit(), nil
	}
	return Value(reflect.ValueOf(raw).Convert(c.Type).Interface()), nil
}

func (c stringConverter) ToFlat(_ context.Context, value any) (string, error) {
	return reflect.ValueOf(value).String(), nil
}

type boolConverter struct{ Type reflect.Type }

func (c boolConverter) FromFlat(_ context.Context, raw string, present bool) (Conversion, error) {
	if !present || raw == "" {
		return Omit(), nil
	}
	var b bool
	switch strings.ToLower(raw) {
	case "on", "yes":
		b = true
	case "off", "no":
		b = false
	default:
		var err error
		b, err = strconv.ParseBool(raw)
		if err != nil {
			return Conversion{}, err
		}
	}
	return Value(reflect.ValueOf(b).Convert(c.Type).Interface()), nil
}

func (c boolConverter) ToFlat(_ context.Context, value any) (string, error) {
	return strconv.FormatBool(reflect.ValueOf(value).Bool()), nil
}

type numberConverter struct{ Type reflect.Type }

func (c numberConverter) FromFlat(_ context.Context, raw string, present bool) (Conversion, error) {
	if !present || raw == "" {
		return Omit(), nil
	}
	ptr := reflect.New(c.Type)
	if err := reflects.ParseScalar(ptr.Elem(), strings.TrimSpace(raw)); err != nil {
		return Conversion{}, err
	}
	return Value(ptr.Elem().Interface()), nil
}

func (c numberConverter) ToFlat(_ context.Context, value any) (string, error) {
	return reflects.FormatScalar(reflect.ValueOf(value)), nil
}

type timeConverter struct{}

func (timeConverter) FromFlat(_ context.Context, raw string, present bool) (Conversion, error) {
	if !present || raw == "" {
		return Omit(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return Conversion{}, err
	}
	return Value(t), nil
}

func (timeConverter) ToFlat(_ context.Context, value any) (string, error) {
	t, ok := value.(time.Time)
	if !ok {
		return "", fmt.Errorf("expected time.Time, got %T", value)
	}
	if t.IsZero() {
		return "", nil
	}
	return t.Format(time.RFC3339), nil
}

// ReferenceConverter treats the flat value as the identifier of another entity.
// Flattening a referenced entity yields its identifier.
type ReferenceConverter struct{}

func (ReferenceConverter) FromFlat(_ context.Context, raw string, present bool) (Conversion, error) {
	if !present || raw == "" {
		return Omit(), nil
	}
	return Reference(raw), nil
}

func (ReferenceConverter) ToFlat(_ context.Context, value any) (string, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() == reflect.Ptr && rv.IsNil()) {
		return "", nil
	}
	id, ok := reflects.LookupID(value)
	if !ok {
		return "", fmt.Errorf("can't find ID in %s", reflects.Name(value))
	}
	return id, nil
}
