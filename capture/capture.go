// Package capture resolves the named segments of a matched route into controller parameters.
//
// A Definition maps one route capture to the key a controller reads it by.
// Definitions are grouped into Collections, one per logically distinct action a route can trigger.
// Resolve turns a route match into one Map per Collection, or fails as a whole.
package capture

import (
	"github.com/julienschmidt/httprouter"

	"github.com/adamluzsi/persistroute/errs"
)

type Definition struct {
	CaptureName   string
	ControllerKey string
	IsRequired    bool
}

func Required(captureName, controllerKey string) Definition {
	return Definition{CaptureName: captureName, ControllerKey: controllerKey, IsRequired: true}
}

func Optional(captureName, controllerKey string) Definition {
	return Definition{CaptureName: captureName, ControllerKey: controllerKey}
}

type Collection []Definition

// Map holds the resolved capture values by controller key.
type Map map[string]string

func (m Map) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// RouteMatch exposes the bound segment values of a matched route.
type RouteMatch interface {
	Lookup(captureName string) (string, bool)
}

// Resolve produces one Map per Collection, in the same order.
// A required capture absent from the match fails the whole resolution,
// and no Map is returned, not even for the collections that would resolve.
func Resolve(match RouteMatch, collections []Collection) ([]Map, error) {
	maps := make([]Map, 0, len(collections))
	for _, collection := range collections {
		m := make(Map, len(collection))
		for _, def := range collection {
			value, ok := match.Lookup(def.CaptureName)
			if !ok {
				if def.IsRequired {
					return nil, errs.MissingCaptureParameter{CaptureName: def.CaptureName}
				}
				continue
			}
			m[def.ControllerKey] = value
		}
		maps = append(maps, m)
	}
	return maps, nil
}

// MapMatch is a RouteMatch over already decoded segment values.
type MapMatch map[string]string

func (m MapMatch) Lookup(captureName string) (string, bool) {
	v, ok := m[captureName]
	return v, ok
}

// Params adapts julienschmidt/httprouter parameters.
// An empty catch-all segment counts as absent.
func Params(ps httprouter.Params) RouteMatch {
	return params(ps)
}

type params httprouter.Params

func (ps params) Lookup(captureName string) (string, bool) {
	for _, p := range ps {
		if p.Key != captureName {
			continue
		}
		if p.Value == "" || p.Value == "/" {
			return "", false
		}
		return p.Value, true
	}
	return "", false
}
