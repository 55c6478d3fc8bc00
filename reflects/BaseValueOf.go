package reflects

import (
	"reflect"
)

// BaseValueOf returns the value behind any number of pointers.
// A nil pointer yields an invalid reflect.Value.
func BaseValueOf(i interface{}) reflect.Value {
	v := reflect.ValueOf(i)
	for v.IsValid() && v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}
