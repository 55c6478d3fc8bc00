// Package actions executes the persistence action a matched route asks for.
package actions

import (
	"context"
	"errors"
	"strings"

	"github.com/adamluzsi/persistroute/capture"
	"github.com/adamluzsi/persistroute/entity"
	"github.com/adamluzsi/persistroute/errs"
	"github.com/adamluzsi/persistroute/iterators"
	"github.com/adamluzsi/persistroute/pkg/logger"
	"github.com/adamluzsi/persistroute/requests"
	"github.com/adamluzsi/persistroute/storages"
	"github.com/adamluzsi/persistroute/storeobject"
	"github.com/adamluzsi/persistroute/upload"
)

// Keys are the reserved controller keys of a capture map.
type Keys struct {
	Action string
	Entity string
	ID     string
}

const (
	DefaultActionKey = "action"
	DefaultEntityKey = "entity"
	DefaultIDKey     = "ID"
)

// ListSuffix is appended to the entity name to form the bag key of a displayed collection.
const ListSuffix = "List"

var errNoRelocator = errors.New("attachments can't be stored without an upload directory")

func (k Keys) withDefaults() Keys {
	if k.Action == "" {
		k.Action = DefaultActionKey
	}
	if k.Entity == "" {
		k.Entity = DefaultEntityKey
	}
	if k.ID == "" {
		k.ID = DefaultIDKey
	}
	return k
}

type Dispatcher struct {
	Store     storages.Store
	Registry  *entity.Registry
	Relocator *upload.Relocator
	Keys      Keys
	// Entity fixes the entity type of the route.
	// When empty, the entity name is taken from the captures.
	Entity string
}

// Dispatch runs the action selected by the captures,
// and leaves its result in the request bag.
func (d *Dispatcher) Dispatch(ctx context.Context, req requests.Request, captures capture.Map) error {
	p, err := d.plan(captures)
	if err != nil {
		logger.Warn(ctx, "action can't be dispatched", logger.ErrField(err))
		return err
	}
	if p.action == None {
		logger.Debug(ctx, "no action to dispatch")
		return nil
	}

	ctx = logger.ContextWith(ctx,
		logger.Field("action", p.action.String()),
		logger.Field("entity", p.desc.Name()))
	logger.Info(ctx, "dispatching action")

	switch p.action {
	case Display:
		if p.hasID {
			return d.displayOne(ctx, req, p.desc, p.id)
		}
		return d.displayAll(ctx, req, p.desc)
	case Insert:
		return d.save(ctx, req, p.desc, "")
	case Update:
		if _, err := d.load(ctx, p.desc, p.id); err != nil {
			return err
		}
		return d.save(ctx, req, p.desc, p.id)
	case Delete:
		return d.delete(ctx, req, p.desc, p.id)
	default:
		return errs.UnsupportedAction{Value: p.action.String()}
	}
}

// Check reports whether the captures select a dispatchable action,
// without touching the store.
func (d *Dispatcher) Check(captures capture.Map) error {
	_, err := d.plan(captures)
	return err
}

type plan struct {
	action Action
	desc   entity.Descriptor
	id     string
	hasID  bool
}

func (d *Dispatcher) plan(captures capture.Map) (plan, error) {
	keys := d.Keys.withDefaults()
	rawAction, _ := captures.Lookup(keys.Action)
	action, err := ParseAction(rawAction)
	if err != nil {
		return plan{}, err
	}
	if action == None {
		return plan{action: None}, nil
	}
	desc, err := d.descriptor(keys, captures)
	if err != nil {
		return plan{}, err
	}
	id, hasID := captures.Lookup(keys.ID)
	if (action == Update || action == Delete) && !hasID {
		return plan{}, errs.MissingCaptureParameter{CaptureName: keys.ID}
	}
	return plan{action: action, desc: desc, id: id, hasID: hasID}, nil
}

func (d *Dispatcher) descriptor(keys Keys, captures capture.Map) (entity.Descriptor, error) {
	name := d.Entity
	if name == "" {
		var ok bool
		name, ok = captures.Lookup(keys.Entity)
		if !ok {
			return nil, errs.MissingCaptureParameter{CaptureName: keys.Entity}
		}
	}
	if d.Registry == nil {
		return nil, errs.UnsupportedEntity{Name: name}
	}
	desc, ok := d.Registry.Lookup(name)
	if !ok {
		return nil, errs.UnsupportedEntity{Name: name}
	}
	return desc, nil
}

func (d *Dispatcher) load(ctx context.Context, desc entity.Descriptor, id string) (entity.Entity, error) {
	ent, found, err := storages.FindByID(ctx, d.Store, desc, id)
	if err != nil {
		return nil, errs.Store{Op: "find", Err: err}
	}
	if !found {
		return nil, errs.NoSuchRecord{Entity: desc.Name(), ID: id}
	}
	return ent, nil
}

func (d *Dispatcher) displayOne(ctx context.Context, req requests.Request, desc entity.Descriptor, id string) error {
	ent, err := d.load(ctx, desc, id)
	if err != nil {
		return err
	}
	flat, err := storeobject.Flatten(ctx, desc, ent)
	if err != nil {
		return err
	}
	req.Bag().Set(desc.Name(), flat)
	return nil
}

func (d *Dispatcher) displayAll(ctx context.Context, req requests.Request, desc entity.Descriptor) error {
	ents, err := iterators.Collect(d.Store.FindAll(ctx, desc))
	if err != nil {
		return errs.Store{Op: "find", Err: err}
	}
	list := make([]map[string]string, 0, len(ents))
	for _, ent := range ents {
		flat, err := storeobject.Flatten(ctx, desc, ent)
		if err != nil {
			return err
		}
		list = append(list, flat)
	}
	req.Bag().Set(desc.Name()+ListSuffix, list)
	return nil
}

// save creates a new entity from the request, or replaces the one with the given id.
// An insert never carries an identifier from the form, so it can't overwrite a stored record.
// When the entity can't be saved, the files relocated for it are removed.
func (d *Dispatcher) save(ctx context.Context, req requests.Request, desc entity.Descriptor, id string) (rErr error) {
	var saved bool
	flat, relocated, err := d.extract(req, desc)
	defer func() {
		if rErr != nil && !saved {
			d.discard(ctx, relocated)
		}
	}()
	if err != nil {
		return err
	}
	idKey := strings.ToLower(desc.IDField().Name())
	if id != "" {
		flat[idKey] = id
	} else {
		delete(flat, idKey)
	}

	ent, err := storeobject.Materialize(ctx, desc, flat, storages.ReferenceResolver(d.Store, d.Registry))
	if err != nil {
		return err
	}
	if err := d.Store.Save(ctx, desc, ent); err != nil {
		logger.Error(ctx, "saving entity failed", logger.ErrField(err))
		return errs.Store{Op: "save", Err: err}
	}
	saved = true

	out, err := storeobject.Flatten(ctx, desc, ent)
	if err != nil {
		return err
	}
	req.Bag().Set(desc.Name(), out)
	return nil
}

func (d *Dispatcher) discard(ctx context.Context, relocated []string) {
	for _, rel := range relocated {
		if err := d.Relocator.Remove(rel); err != nil {
			logger.Warn(ctx, "removing relocated upload failed",
				logger.Field("path", rel), logger.ErrField(err))
		}
	}
}

func (d *Dispatcher) delete(ctx context.Context, req requests.Request, desc entity.Descriptor, id string) error {
	ent, err := d.load(ctx, desc, id)
	if err != nil {
		return err
	}
	flat, err := storeobject.Flatten(ctx, desc, ent)
	if err != nil {
		return err
	}
	if err := d.Store.DeleteByID(ctx, desc, id); err != nil {
		logger.Error(ctx, "deleting entity failed", logger.ErrField(err))
		return errs.Store{Op: "delete", Err: err}
	}
	req.Bag().Set(desc.Name(), flat)
	return nil
}

// extract collects the request fields that belong to the entity, keyed without the entity prefix.
// Attachments are relocated first, so the field holds the relative path of the stored file.
// The relative paths of the relocated files are returned even when extract fails.
func (d *Dispatcher) extract(req requests.Request, desc entity.Descriptor) (map[string]string, []string, error) {
	prefix := strings.ToLower(desc.Name()) + "."
	flat := make(map[string]string)
	for key, values := range req.Form() {
		field, ok := cutPrefix(key, prefix)
		if !ok || len(values) == 0 {
			continue
		}
		flat[field] = values[0]
	}
	var relocated []string
	for _, att := range req.Attachments() {
		field, ok := cutPrefix(att.Field, prefix)
		if !ok {
			continue
		}
		if d.Relocator == nil {
			return nil, relocated, errNoRelocator
		}
		rel, err := d.Relocator.Relocate(att)
		if err != nil {
			return nil, relocated, err
		}
		relocated = append(relocated, rel)
		flat[field] = rel
	}
	return flat, relocated, nil
}

func cutPrefix(key, prefix string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(key), prefix) {
		return "", false
	}
	field := strings.ToLower(key[len(prefix):])
	return field, field != ""
}
