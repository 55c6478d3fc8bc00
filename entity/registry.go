package entity

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds the known entity Descriptors by their case-insensitive name.
type Registry struct {
	mutex       sync.RWMutex
	descriptors map[string]Descriptor
}

func NewRegistry(ds ...Descriptor) (*Registry, error) {
	r := &Registry{}
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(d Descriptor) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.descriptors == nil {
		r.descriptors = make(map[string]Descriptor)
	}
	key := strings.ToLower(d.Name())
	if _, ok := r.descriptors[key]; ok {
		return fmt.Errorf("entity %s is already registered", d.Name())
	}
	r.descriptors[key] = d
	return nil
}

func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	d, ok := r.descriptors[strings.ToLower(name)]
	return d, ok
}

func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		names = append(names, d.Name())
	}
	sort.Strings(names)
	return names
}
