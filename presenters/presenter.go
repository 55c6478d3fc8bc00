// Package presenters render the request bag for the client.
package presenters

import (
	"encoding/json"
	"io"
)

// Presenter renders the content of a request bag on a response channel.
// Users of a Presenter can't close or write the wrapped channel directly.
type Presenter interface {
	Render(content map[string]any) error
}

type PresenterFunc func(content map[string]any) error

func (fn PresenterFunc) Render(content map[string]any) error { return fn(content) }

// Builder wraps a response channel into a Presenter.
type Builder func(io.Writer) Presenter

// JSON renders the content as a single JSON object.
func JSON(w io.Writer) Presenter {
	return PresenterFunc(func(content map[string]any) error {
		if content == nil {
			content = map[string]any{}
		}
		return json.NewEncoder(w).Encode(content)
	})
}
