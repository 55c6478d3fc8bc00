package reflects

import (
	"reflect"
	"strings"
)

// TagName is the struct tag key that marks persisted fields.
// The `id` option marks the identifier field: `persist:",id"`.
const TagName = "persist"

// LookupID finds the identifier of a struct, either in the field named ID,
// or in the field tagged as id, and formats it as a string.
func LookupID(i interface{}) (string, bool) {
	val, ok := idReflectValue(BaseValueOf(i))
	if !ok {
		return "", false
	}
	return FormatScalar(val), true
}

func idReflectValue(val reflect.Value) (reflect.Value, bool) {
	if !val.IsValid() || val.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	if byTag, ok := lookupByTag(val); ok {
		return byTag, true
	}
	byName := val.FieldByName("ID")
	if byName.IsValid() {
		return byName, true
	}
	return reflect.Value{}, false
}

func lookupByTag(val reflect.Value) (reflect.Value, bool) {
	for i := 0; i < val.NumField(); i++ {
		tag, ok := val.Type().Field(i).Tag.Lookup(TagName)
		if !ok {
			continue
		}
		for _, opt := range strings.Split(tag, ",")[1:] {
			if strings.TrimSpace(opt) == "id" {
				return val.Field(i), true
			}
		}
	}
	return reflect.Value{}, false
}
