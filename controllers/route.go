package controllers

import (
	"context"

	"github.com/adamluzsi/persistroute/actions"
	"github.com/adamluzsi/persistroute/capture"
	"github.com/adamluzsi/persistroute/presenters"
	"github.com/adamluzsi/persistroute/requests"
)

type dispatcher interface {
	Dispatch(ctx context.Context, req requests.Request, captures capture.Map) error
}

// checker is implemented by dispatchers that can reject captures before anything is written.
type checker interface {
	Check(captures capture.Map) error
}

// Route resolves the capture collections of a matched route,
// dispatches one action per resolved collection in order,
// and renders the request bag once every action succeeded.
//
// When the dispatcher can check captures, every collection is checked before the first dispatch,
// so a malformed later collection fails the request without writes.
// Actions are not transactional: when a later action fails in the store,
// the writes of the earlier ones stay committed.
type Route struct {
	Dispatcher  dispatcher
	Collections []capture.Collection
	// Action is used when the captures don't select one.
	Action string
	// ActionKey is the controller key of the action in the capture maps.
	ActionKey string
}

func (c Route) Serve(p presenters.Presenter, r requests.Request, match capture.RouteMatch) error {
	maps, err := capture.Resolve(match, c.Collections)
	if err != nil {
		return err
	}
	if len(c.Collections) == 0 {
		maps = []capture.Map{{}}
	}
	for i, m := range maps {
		maps[i] = c.withDefaultAction(m)
	}
	if ch, ok := c.Dispatcher.(checker); ok {
		for _, m := range maps {
			if err := ch.Check(m); err != nil {
				return err
			}
		}
	}
	for _, m := range maps {
		if err := c.Dispatcher.Dispatch(r.Context(), r, m); err != nil {
			return err
		}
	}
	return p.Render(r.Bag().Values())
}

func (c Route) withDefaultAction(m capture.Map) capture.Map {
	if c.Action == "" {
		return m
	}
	key := c.ActionKey
	if key == "" {
		key = actions.DefaultActionKey
	}
	if _, ok := m[key]; ok {
		return m
	}
	out := make(capture.Map, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = c.Action
	return out
}
