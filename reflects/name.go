package reflects

import (
	"reflect"
)

// Name returns the type name of the value, dereferencing pointers.
func Name(i interface{}) string {
	t := reflect.TypeOf(i)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
