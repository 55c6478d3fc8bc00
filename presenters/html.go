package presenters

import (
	"bytes"
	"errors"
	"html/template"
	"io"
)

// HTMLTemplate creates a Builder that renders the content with the last template,
// then wraps the result into every preceding template, from the innermost outwards.
// Layout templates receive the inner content as template.HTML.
func HTMLTemplate(ts ...*template.Template) Builder {
	return func(w io.Writer) Presenter {
		return PresenterFunc(func(content map[string]any) error {
			if len(ts) == 0 {
				return errors.New("no template to render")
			}
			inner := &bytes.Buffer{}
			if err := ts[len(ts)-1].Execute(inner, content); err != nil {
				return err
			}
			current := inner.String()
			for i := len(ts) - 2; i >= 0; i-- {
				b := &bytes.Buffer{}
				if err := ts[i].Execute(b, template.HTML(current)); err != nil {
					return err
				}
				current = b.String()
			}
			_, err := io.WriteString(w, current)
			return err
		})
	}
}
