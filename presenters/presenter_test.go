package presenters_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"testing"

	"github.com/adamluzsi/persistroute/presenters"
	"github.com/stretchr/testify/require"
)

var _ presenters.Presenter = &presenters.Mock{}

func TestJSON(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	content := map[string]any{"product": map[string]string{"name": "Widget"}}
	require.NoError(t, presenters.JSON(buf).Render(content))

	var out map[string]map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, "Widget", out["product"]["name"])

	buf.Reset()
	require.NoError(t, presenters.JSON(buf).Render(nil))
	require.JSONEq(t, `{}`, buf.String())
}

func TestHTMLTemplate(t *testing.T) {
	t.Parallel()

	layout := template.Must(template.New("layout").Parse(`<html><body>{{.}}</body></html>`))
	page := template.Must(template.New("page").Parse(`<h1>{{.product.name}}</h1>`))

	t.Run("content is wrapped into the layouts", func(t *testing.T) {
		buf := &bytes.Buffer{}
		var build presenters.Builder = presenters.HTMLTemplate(layout, page)
		err := build(buf).Render(map[string]any{"product": map[string]string{"name": "<Widget>"}})
		require.NoError(t, err)
		require.Equal(t, `<html><body><h1>&lt;Widget&gt;</h1></body></html>`, buf.String())
	})

	t.Run("without templates", func(t *testing.T) {
		require.Error(t, presenters.HTMLTemplate()(io.Discard).Render(nil))
	})
}

func TestMock(t *testing.T) {
	t.Parallel()

	err := errors.New("Boom!")
	content := map[string]any{"msg": "OK"}

	m := &presenters.Mock{ReturnError: err}
	require.Nil(t, m.LastReceivedContent())
	require.Equal(t, err, m.Render(content))
	require.Equal(t, content, m.LastReceivedContent())
}
