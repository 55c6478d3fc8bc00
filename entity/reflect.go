package entity

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/adamluzsi/persistroute/reflects"
)

type Option func(*options)

type options struct {
	converters map[string]Converter
}

// WithConverter replaces the default converter of a field.
// It also makes fields with otherwise unsupported types usable.
func WithConverter(field string, c Converter) Option {
	return func(o *options) { o.converters[strings.ToLower(field)] = c }
}

// Reflect builds a Descriptor from the exported fields of T.
//
// Field options come from the `persist` struct tag:
//
//	Title    string    `persist:"title"`         // custom field name
//	Secret   string    `persist:"-"`             // not persisted
//	Key      string    `persist:",id"`           // identifier field; defaults to the field called ID
//	Category *Category `persist:",ref=category"` // reference to the "category" entity
//
// Struct and pointer-to-struct fields other than time.Time are references.
// Without a ref option, the referenced type name is the lower-cased Go type name.
func Reflect[T any](name string, opts ...Option) (*StructDescriptor, error) {
	o := options{converters: make(map[string]Converter)}
	for _, opt := range opts {
		opt(&o)
	}
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity %s must be a struct type, got %s", name, typ.String())
	}
	d := &StructDescriptor{
		name:   name,
		typ:    typ,
		byName: make(map[string]*StructField),
	}
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := parseTag(sf)
		if tag.Skip {
			continue
		}
		field := &StructField{
			name:    tag.Name,
			index:   i,
			typ:     sf.Type,
			refType: tag.Ref,
		}
		if c, ok := o.converters[strings.ToLower(tag.Name)]; ok {
			field.converter = c
		} else if isReferenceType(sf.Type) {
			field.reference = true
			if field.refType == "" {
				field.refType = strings.ToLower(baseType(sf.Type).Name())
			}
			field.converter = ReferenceConverter{}
		} else {
			c, err := ConverterFor(sf.Type)
			if err != nil {
				return nil, fmt.Errorf("entity %s field %s: %w", name, sf.Name, err)
			}
			field.converter = c
		}
		if tag.Ref != "" {
			field.reference = true
		}
		if _, ok := d.byName[strings.ToLower(field.name)]; ok {
			return nil, fmt.Errorf("entity %s has duplicate field name %s", name, field.name)
		}
		d.byName[strings.ToLower(field.name)] = field
		d.fields = append(d.fields, field)
		if tag.ID || (d.id == nil && sf.Name == "ID") {
			d.id = field
		}
	}
	if d.id == nil {
		return nil, fmt.Errorf("entity %s has no identifier field", name)
	}
	return d, nil
}

func MustReflect[T any](name string, opts ...Option) *StructDescriptor {
	d, err := Reflect[T](name, opts...)
	if err != nil {
		panic(err.Error())
	}
	return d
}

type StructDescriptor struct {
	name   string
	typ    reflect.Type
	fields []*StructField
	byName map[string]*StructField
	id     *StructField
}

func (d *StructDescriptor) Name() string { return d.name }

func (d *StructDescriptor) FieldNames() []string {
	names := make([]string, 0, len(d.fields))
	for _, f := range d.fields {
		names = append(names, f.name)
	}
	return names
}

// Field looks up a field by name, case-insensitively.
func (d *StructDescriptor) Field(name string) (FieldDescriptor, bool) {
	f, ok := d.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return f, true
}

func (d *StructDescriptor) IDField() FieldDescriptor { return d.id }

func (d *StructDescriptor) CreateInstance() Entity {
	return reflect.New(d.typ).Interface()
}

type StructField struct {
	name      string
	index     int
	typ       reflect.Type
	reference bool
	refType   string
	converter Converter
}

func (f *StructField) Name() string { return f.name }

func (f *StructField) IsReference() bool { return f.reference }

func (f *StructField) ReferenceType() string { return f.refType }

func (f *StructField) Converter() Converter { return f.converter }

func (f *StructField) Set(ent Entity, value any) error {
	field, err := f.fieldValue(ent)
	if err != nil {
		return err
	}
	if value == nil {
		field.Set(reflect.Zero(f.typ))
		return nil
	}
	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(f.typ):
		field.Set(rv)
	case rv.Kind() == reflect.Ptr && rv.Type().Elem().AssignableTo(f.typ):
		if rv.IsNil() {
			field.Set(reflect.Zero(f.typ))
			return nil
		}
		field.Set(rv.Elem())
	case f.typ.Kind() == reflect.Ptr && rv.Type().AssignableTo(f.typ.Elem()):
		ptr := reflect.New(f.typ.Elem())
		ptr.Elem().Set(rv)
		field.Set(ptr)
	case rv.Kind() == f.typ.Kind() && rv.Type().ConvertibleTo(f.typ):
		field.Set(rv.Convert(f.typ))
	default:
		return fmt.Errorf("%s field can't hold a value of type %T", f.name, value)
	}
	return nil
}

func (f *StructField) Get(ent Entity) (any, error) {
	field, err := f.fieldValue(ent)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

func (f *StructField) fieldValue(ent Entity) (reflect.Value, error) {
	rv := reflect.ValueOf(ent)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("expected a non-nil pointer to %s, got %T", reflects.Name(ent), ent)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct || rv.NumField() <= f.index {
		return reflect.Value{}, fmt.Errorf("%T has no field %s", ent, f.name)
	}
	return rv.Field(f.index), nil
}

type fieldTag struct {
	Name string
	Skip bool
	ID   bool
	Ref  string
}

func parseTag(sf reflect.StructField) fieldTag {
	tag := fieldTag{Name: sf.Name}
	raw, ok := sf.Tag.Lookup(reflects.TagName)
	if !ok {
		return tag
	}
	if raw == "-" {
		tag.Skip = true
		return tag
	}
	parts := strings.Split(raw, ",")
	if name := strings.TrimSpace(parts[0]); name != "" {
		tag.Name = name
	}
	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "id":
			tag.ID = true
		case strings.HasPrefix(opt, "ref="):
			tag.Ref = strings.TrimPrefix(opt, "ref=")
		}
	}
	return tag
}

func isReferenceType(typ reflect.Type) bool {
	base := baseType(typ)
	return base.Kind() == reflect.Struct && base != timeType
}

func baseType(typ reflect.Type) reflect.Type {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ
}
