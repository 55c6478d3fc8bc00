// Package entity describes persisted domain types for the mapping engine.
//
// A Descriptor enumerates the fields of an entity type,
// and every FieldDescriptor carries a Converter that translates between
// the flat string representation used by requests and the typed field value.
package entity

import (
	"context"
)

// Entity is a pointer to a domain value.
type Entity = any

type Descriptor interface {
	// Name is the logical entity type name, used in routes, request field prefixes and storage.
	Name() string
	// FieldNames lists the persisted fields in declaration order.
	FieldNames() []string
	Field(name string) (FieldDescriptor, bool)
	IDField() FieldDescriptor
	// CreateInstance returns a new, zero value entity.
	CreateInstance() Entity
}

type FieldDescriptor interface {
	Name() string
	// IsReference reports whether the field links to another entity instead of holding a scalar.
	IsReference() bool
	// ReferenceType is the Descriptor name of the referenced entity type.
	ReferenceType() string
	Converter() Converter
	Set(ent Entity, value any) error
	Get(ent Entity) (any, error)
}

type Converter interface {
	// FromFlat converts the raw request value into a field value.
	// present is false when the request has no value for the field.
	FromFlat(ctx context.Context, raw string, present bool) (Conversion, error)
	// ToFlat converts a field value into its flat string form.
	ToFlat(ctx context.Context, value any) (string, error)
}

// Conversion is the outcome of a FromFlat call.
type Conversion struct {
	// Value is set on the entity, unless Omit or Reference is true.
	// For references, Value holds the raw identifier of the referenced entity.
	Value     any
	Reference bool
	Omit      bool
}

func Omit() Conversion { return Conversion{Omit: true} }

func Value(v any) Conversion { return Conversion{Value: v} }

func Reference(id any) Conversion { return Conversion{Value: id, Reference: true} }

// ConverterFuncs makes a Converter out of two functions.
type ConverterFuncs struct {
	From func(ctx context.Context, raw string, present bool) (Conversion, error)
	To   func(ctx context.Context, value any) (string, error)
}

func (fn ConverterFuncs) FromFlat(ctx context.Context, raw string, present bool) (Conversion, error) {
	return fn.From(ctx, raw, present)
}

func (fn ConverterFuncs) ToFlat(ctx context.Context, value any) (string, error) {
	return fn.To(ctx, value)
}
