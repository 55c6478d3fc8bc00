// Package env loads typed configuration values from environment variables.
package env

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/adamluzsi/persistroute/pkg/errorutil"
)

const (
	ErrLoadInvalidData            errorutil.Error = "ErrLoadInvalidData"
	ErrMissingEnvironmentVariable errorutil.Error = "ErrMissingEnvironmentVariable"
)

func Lookup[T any](key string, opts ...LookupOption) (T, bool, error) {
	var conf lookupEnvOptions
	for _, opt := range opts {
		opt.configure(&conf)
	}
	typ := reflect.TypeOf((*T)(nil)).Elem()
	val, ok, err := lookupEnv(typ, key, conf)
	if err != nil || !ok {
		return *new(T), ok, err
	}
	return val.Interface().(T), true, nil
}

type LookupOption interface{ configure(*lookupEnvOptions) }

type funcLookupOption func(*lookupEnvOptions)

func (fn funcLookupOption) configure(options *lookupEnvOptions) { fn(options) }

func DefaultValue(val string) LookupOption {
	return funcLookupOption(func(options *lookupEnvOptions) {
		options.DefaultValue = &val
	})
}

func Required() LookupOption {
	return funcLookupOption(func(options *lookupEnvOptions) {
		options.IsRequired = true
	})
}

// Load populates the exported fields of a struct that carry an `env` tag.
// The `default` tag provides a fallback value, and `required:"true"` makes the variable mandatory.
func Load[T any](ptr *T) error {
	if ptr == nil {
		return fmt.Errorf("%w: nil value received", ErrLoadInvalidData)
	}
	rv := reflect.ValueOf(ptr).Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("%w: non-struct type received", ErrLoadInvalidData)
	}
	for i, numField := 0, rv.NumField(); i < numField; i++ {
		sf := rv.Type().Field(i)
		if !sf.IsExported() {
			continue
		}
		key, ok := sf.Tag.Lookup(envTagKey)
		if !ok {
			continue
		}
		var opts lookupEnvOptions
		if def, ok := sf.Tag.Lookup("default"); ok {
			opts.DefaultValue = &def
		}
		if req, ok := sf.Tag.Lookup("required"); ok {
			isRequired, err := strconv.ParseBool(req)
			if err != nil {
				return fmt.Errorf("%w: %s field has invalid required tag", ErrLoadInvalidData, sf.Name)
			}
			opts.IsRequired = isRequired
		}
		val, ok, err := lookupEnv(sf.Type, key, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", sf.Name, err)
		}
		if !ok {
			continue
		}
		rv.Field(i).Set(val)
	}
	return nil
}

const envTagKey = "env"

type lookupEnvOptions struct {
	DefaultValue *string
	IsRequired   bool
}

var durationType = reflect.TypeOf(time.Duration(0))

func lookupEnv(typ reflect.Type, key string, opts lookupEnvOptions) (reflect.Value, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok && opts.DefaultValue != nil {
		ok = true
		raw = *opts.DefaultValue
	}
	if !ok {
		if opts.IsRequired {
			return reflect.Value{}, false, errorutil.With{Err: ErrMissingEnvironmentVariable}.Detail(key)
		}
		return reflect.Value{}, false, nil
	}
	val, err := parse(typ, raw)
	if err != nil {
		return reflect.Value{}, false, fmt.Errorf("%w: %s: %s", ErrLoadInvalidData, key, err.Error())
	}
	return val, true, nil
}

func parse(typ reflect.Type, raw string) (reflect.Value, error) {
	val := reflect.New(typ).Elem()
	if typ == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return val, err
		}
		val.SetInt(int64(d))
		return val, nil
	}
	switch typ.Kind() {
	case reflect.String:
		val.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return val, err
		}
		val.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, typ.Bits())
		if err != nil {
			return val, err
		}
		val.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, typ.Bits())
		if err != nil {
			return val, err
		}
		val.SetUint(n)
	default:
		return val, fmt.Errorf("unsupported type: %s", typ.String())
	}
	return val, nil
}
