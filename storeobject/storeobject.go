// Package storeobject converts between the flat, string keyed representation of a request
// and typed domain entities, field by field and concurrently.
//
// Materialization runs in two phases.
// First every field converter runs concurrently on a fresh entity instance.
// Fields flagged as object references are queued instead of set.
// Only after every scalar field succeeded, the queued references are resolved concurrently,
// and assigned onto the entity built by the first phase.
//
// Flat keys are lower-cased in both directions.
package storeobject

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/adamluzsi/persistroute/entity"
	"github.com/adamluzsi/persistroute/errs"
	"github.com/adamluzsi/persistroute/fanin"
	"github.com/adamluzsi/persistroute/pkg/logger"
)

// ObjectReference is a deferred link to another entity, discovered while converting the fields.
type ObjectReference struct {
	Field    entity.FieldDescriptor
	RawValue any
}

type ReferenceResolver interface {
	ResolveReference(ctx context.Context, field entity.FieldDescriptor, raw any) (entity.Entity, error)
}

type ReferenceResolverFunc func(ctx context.Context, field entity.FieldDescriptor, raw any) (entity.Entity, error)

func (fn ReferenceResolverFunc) ResolveReference(ctx context.Context, field entity.FieldDescriptor, raw any) (entity.Entity, error) {
	return fn(ctx, field, raw)
}

var errNoReferenceResolver = errors.New("no reference resolver given")

type Object struct {
	descriptor entity.Descriptor
	flat       map[string]string

	entity       entity.Entity
	materialized bool

	refsMutex  sync.Mutex
	references []ObjectReference
}

// referenceQueue belongs to a single Materialize call,
// so converters left running by an earlier call can't leak into a later one.
type referenceQueue struct {
	mutex sync.Mutex
	refs  []ObjectReference
}

func (q *referenceQueue) push(ref ObjectReference) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.refs = append(q.refs, ref)
}

func (q *referenceQueue) list() []ObjectReference {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return append([]ObjectReference{}, q.refs...)
}

// FromRequest wraps a flat request map, to be materialized into a new entity.
func FromRequest(d entity.Descriptor, flat map[string]string) *Object {
	normalized := make(map[string]string, len(flat))
	for k, v := range flat {
		normalized[strings.ToLower(k)] = v
	}
	return &Object{descriptor: d, flat: normalized}
}

// FromEntity wraps a live entity, to be flattened into a request map.
func FromEntity(d entity.Descriptor, ent entity.Entity) *Object {
	return &Object{descriptor: d, entity: ent, materialized: true}
}

func (o *Object) Descriptor() entity.Descriptor { return o.descriptor }

// Entity returns the materialized entity.
// Calling it before Materialize succeeded is a programming error and panics.
func (o *Object) Entity() entity.Entity {
	if !o.materialized {
		panic("storeobject: Entity called before a successful Materialize")
	}
	return o.entity
}

// References returns the object references queued by the last Materialize call.
func (o *Object) References() []ObjectReference {
	o.refsMutex.Lock()
	defer o.refsMutex.Unlock()
	return append([]ObjectReference{}, o.references...)
}

// Materialize builds a new entity from the flat request map.
// It fails with the first error observed in whichever phase surfaced one,
// and in that case the Object holds no usable entity.
func (o *Object) Materialize(ctx context.Context, resolver ReferenceResolver) error {
	o.entity, o.materialized = nil, false
	o.publish(nil)

	ctx = logger.ContextWith(ctx, logger.Field("entity", o.descriptor.Name()))
	instance := o.descriptor.CreateInstance()
	queue := &referenceQueue{}

	names := o.descriptor.FieldNames()
	err := fanin.Wait(ctx, len(names), func(i int) error {
		return o.convertField(ctx, instance, queue, names[i])
	})
	refs := queue.list()
	o.publish(refs)
	if err != nil {
		return err
	}

	if err := fanin.Wait(ctx, len(refs), func(i int) error {
		return o.resolveReference(ctx, resolver, instance, refs[i])
	}); err != nil {
		return err
	}

	o.entity, o.materialized = instance, true
	return nil
}

func (o *Object) publish(refs []ObjectReference) {
	o.refsMutex.Lock()
	defer o.refsMutex.Unlock()
	o.references = refs
}

func (o *Object) convertField(ctx context.Context, instance entity.Entity, queue *referenceQueue, name string) (rErr error) {
	defer func() {
		if rErr != nil {
			logger.Warn(ctx, "field conversion failed", logger.Field("field", name), logger.ErrField(rErr))
		}
	}()
	field, ok := o.descriptor.Field(name)
	if !ok {
		return errs.FieldConversion{Field: name, Err: errors.New("field is not described")}
	}
	raw, present := o.flat[strings.ToLower(name)]
	conv, err := field.Converter().FromFlat(ctx, raw, present)
	if err != nil {
		return errs.FieldConversion{Field: name, Err: err}
	}
	switch {
	case conv.Omit:
		return nil
	case conv.Reference:
		queue.push(ObjectReference{Field: field, RawValue: conv.Value})
		return nil
	default:
		if err := field.Set(instance, conv.Value); err != nil {
			return errs.FieldConversion{Field: name, Err: err}
		}
		return nil
	}
}

func (o *Object) resolveReference(ctx context.Context, resolver ReferenceResolver, instance entity.Entity, ref ObjectReference) (rErr error) {
	defer func() {
		if rErr != nil {
			logger.Warn(ctx, "object reference resolution failed", logger.Field("field", ref.Field.Name()), logger.ErrField(rErr))
		}
	}()
	if resolver == nil {
		return errs.ObjectReferenceResolution{Field: ref.Field.Name(), Err: errNoReferenceResolver}
	}
	referenced, err := resolver.ResolveReference(ctx, ref.Field, ref.RawValue)
	if err != nil {
		return errs.ObjectReferenceResolution{Field: ref.Field.Name(), Err: err}
	}
	if err := ref.Field.Set(instance, referenced); err != nil {
		return errs.ObjectReferenceResolution{Field: ref.Field.Name(), Err: err}
	}
	return nil
}

// Flatten converts the entity into a flat map keyed by the lower-cased field names.
func (o *Object) Flatten(ctx context.Context) (map[string]string, error) {
	ent := o.Entity()
	ctx = logger.ContextWith(ctx, logger.Field("entity", o.descriptor.Name()))

	var (
		mutex sync.Mutex
		flat  = make(map[string]string)
		names = o.descriptor.FieldNames()
	)
	err := fanin.Wait(ctx, len(names), func(i int) (rErr error) {
		name := names[i]
		defer func() {
			if rErr != nil {
				logger.Warn(ctx, "field flattening failed", logger.Field("field", name), logger.ErrField(rErr))
			}
		}()
		field, ok := o.descriptor.Field(name)
		if !ok {
			return errs.FieldConversion{Field: name, Err: errors.New("field is not described")}
		}
		value, err := field.Get(ent)
		if err != nil {
			return errs.FieldConversion{Field: name, Err: err}
		}
		raw, err := field.Converter().ToFlat(ctx, value)
		if err != nil {
			return errs.FieldConversion{Field: name, Err: err}
		}
		mutex.Lock()
		flat[strings.ToLower(name)] = raw
		mutex.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	mutex.Lock()
	defer mutex.Unlock()
	return flat, nil
}

// Flatten is a shorthand for FromEntity(d, ent).Flatten(ctx).
func Flatten(ctx context.Context, d entity.Descriptor, ent entity.Entity) (map[string]string, error) {
	return FromEntity(d, ent).Flatten(ctx)
}

// Materialize is a shorthand for FromRequest(d, flat).Materialize(ctx, resolver) followed by Entity.
func Materialize(ctx context.Context, d entity.Descriptor, flat map[string]string, resolver ReferenceResolver) (entity.Entity, error) {
	o := FromRequest(d, flat)
	if err := o.Materialize(ctx, resolver); err != nil {
		return nil, err
	}
	return o.Entity(), nil
}
