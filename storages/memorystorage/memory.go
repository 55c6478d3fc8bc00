// Package memorystorage keeps entities in process memory.
// It is meant for tests and for running the service without external dependencies.
package memorystorage

import (
	"context"
	"reflect"
	"sync"

	"github.com/adamluzsi/persistroute/entity"
	"github.com/adamluzsi/persistroute/errs"
	"github.com/adamluzsi/persistroute/iterators"
	"github.com/adamluzsi/persistroute/storages"
	uuid "github.com/satori/go.uuid"
)

func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*table)}
}

type Memory struct {
	mutex  sync.RWMutex
	tables map[string]*table
}

// table keeps insertion order, so FindAll yields entities in the order they were created.
type table struct {
	ids      []string
	entities map[string]entity.Entity
}

func (m *Memory) FindBy(ctx context.Context, d entity.Descriptor, field, value string) iterators.Iterator[entity.Entity] {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var found []entity.Entity
	for _, ent := range m.all(d) {
		ok, err := storages.Matches(ctx, d, ent, field, value)
		if err != nil {
			return iterators.Error[entity.Entity](err)
		}
		if ok {
			found = append(found, ent)
		}
	}
	return iterators.Slice(found)
}

func (m *Memory) FindAll(ctx context.Context, d entity.Descriptor) iterators.Iterator[entity.Entity] {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return iterators.Slice(m.all(d))
}

func (m *Memory) Save(ctx context.Context, d entity.Descriptor, ent entity.Entity) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	isNew, err := storages.IsNew(d, ent)
	if err != nil {
		return err
	}
	if isNew {
		if err := storages.AssignID(ctx, d, ent, uuid.NewV4().String()); err != nil {
			return err
		}
	}
	id, err := storages.LookupID(ctx, d, ent)
	if err != nil {
		return err
	}

	t := m.tableFor(d)
	if _, ok := t.entities[id]; !ok {
		t.ids = append(t.ids, id)
	}
	t.entities[id] = clone(ent)
	return nil
}

func (m *Memory) DeleteByID(ctx context.Context, d entity.Descriptor, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	t := m.tableFor(d)
	if _, ok := t.entities[id]; !ok {
		return errs.NoSuchRecord{Entity: d.Name(), ID: id}
	}
	delete(t.entities, id)
	for i, v := range t.ids {
		if v == id {
			t.ids = append(t.ids[:i], t.ids[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) all(d entity.Descriptor) []entity.Entity {
	t, ok := m.tables[d.Name()]
	if !ok {
		return nil
	}
	out := make([]entity.Entity, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, clone(t.entities[id]))
	}
	return out
}

func (m *Memory) tableFor(d entity.Descriptor) *table {
	t, ok := m.tables[d.Name()]
	if !ok {
		t = &table{entities: make(map[string]entity.Entity)}
		m.tables[d.Name()] = t
	}
	return t
}

// clone makes a shallow copy, so callers can't mutate the stored value.
func clone(ent entity.Entity) entity.Entity {
	rv := reflect.ValueOf(ent)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return ent
	}
	cp := reflect.New(rv.Elem().Type())
	cp.Elem().Set(rv.Elem())
	return cp.Interface()
}
