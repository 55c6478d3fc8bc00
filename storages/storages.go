// Package storages defines the persistence port of the mapping engine,
// and the helpers shared by its implementations.
package storages

import (
	"context"
	"fmt"
	"reflect"

	"github.com/adamluzsi/persistroute/entity"
	"github.com/adamluzsi/persistroute/errs"
	"github.com/adamluzsi/persistroute/iterators"
	"github.com/adamluzsi/persistroute/storeobject"
)

//go:generate mockgen -source=storages.go -destination=storagemock/store.go -package=storagemock

// Store persists entities described by an entity.Descriptor.
type Store interface {
	// FindBy yields the entities whose field flattens to value.
	FindBy(ctx context.Context, d entity.Descriptor, field, value string) iterators.Iterator[entity.Entity]
	FindAll(ctx context.Context, d entity.Descriptor) iterators.Iterator[entity.Entity]
	// Save creates the entity when its identifier is empty, and assigns a new one.
	// Otherwise, it replaces the stored entity with the same identifier.
	Save(ctx context.Context, d entity.Descriptor, ent entity.Entity) error
	DeleteByID(ctx context.Context, d entity.Descriptor, id string) error
}

// Matches reports whether the named field of ent flattens to value.
func Matches(ctx context.Context, d entity.Descriptor, ent entity.Entity, field, value string) (bool, error) {
	fd, ok := d.Field(field)
	if !ok {
		return false, fmt.Errorf("%s has no field %s", d.Name(), field)
	}
	v, err := fd.Get(ent)
	if err != nil {
		return false, err
	}
	flat, err := fd.Converter().ToFlat(ctx, v)
	if err != nil {
		return false, err
	}
	return flat == value, nil
}

// LookupID returns the flat form of the identifier of ent.
func LookupID(ctx context.Context, d entity.Descriptor, ent entity.Entity) (string, error) {
	v, err := d.IDField().Get(ent)
	if err != nil {
		return "", err
	}
	return d.IDField().Converter().ToFlat(ctx, v)
}

// FindByID loads a single entity by its identifier.
func FindByID(ctx context.Context, s Store, d entity.Descriptor, id string) (entity.Entity, bool, error) {
	return iterators.First[entity.Entity](s.FindBy(ctx, d, d.IDField().Name(), id))
}

// ReferenceResolver loads referenced entities from the store,
// using the referenced type name to find their descriptor in the registry.
func ReferenceResolver(s Store, r *entity.Registry) storeobject.ReferenceResolver {
	return storeobject.ReferenceResolverFunc(func(ctx context.Context, field entity.FieldDescriptor, raw any) (entity.Entity, error) {
		d, ok := r.Lookup(field.ReferenceType())
		if !ok {
			return nil, errs.UnsupportedEntity{Name: field.ReferenceType()}
		}
		id := fmt.Sprint(raw)
		ent, found, err := FindByID(ctx, s, d, id)
		if err != nil {
			return nil, errs.Store{Op: "find", Err: err}
		}
		if !found {
			return nil, errs.NoSuchRecord{Entity: d.Name(), ID: id}
		}
		return ent, nil
	})
}

// IsNew reports whether ent has no identifier yet.
func IsNew(d entity.Descriptor, ent entity.Entity) (bool, error) {
	v, err := d.IDField().Get(ent)
	if err != nil {
		return false, err
	}
	return v == nil || reflect.ValueOf(v).IsZero(), nil
}

// AssignID sets the identifier of ent from its flat form.
func AssignID(ctx context.Context, d entity.Descriptor, ent entity.Entity, id string) error {
	field := d.IDField()
	conv, err := field.Converter().FromFlat(ctx, id, true)
	if err != nil {
		return err
	}
	return field.Set(ent, conv.Value)
}
