package controllers

import (
	"context"
	"html/template"
	"net/http"

	"github.com/adamluzsi/persistroute/actions"
	"github.com/adamluzsi/persistroute/config"
	"github.com/adamluzsi/persistroute/entity"
	"github.com/adamluzsi/persistroute/pkg/logger"
	"github.com/adamluzsi/persistroute/presenters"
	"github.com/adamluzsi/persistroute/storages"
	"github.com/adamluzsi/persistroute/upload"
	"github.com/julienschmidt/httprouter"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"
)

type Dependencies struct {
	Store    storages.Store
	Registry *entity.Registry
}

// NewRouter registers a handler for every configured route.
// Routes with a template render HTML, the others render JSON.
func NewRouter(cfg config.Config, deps Dependencies) (*httprouter.Router, error) {
	var layout []*template.Template
	if cfg.Layout != "" {
		t, err := template.ParseFiles(cfg.Layout)
		if err != nil {
			return nil, err
		}
		layout = append(layout, t)
	}

	var relocator *upload.Relocator
	if cfg.Upload.Directory != "" {
		relocator = &upload.Relocator{
			Directory:      cfg.Upload.Directory,
			RelativePrefix: cfg.Upload.RelativePrefix,
		}
	}

	keys := cfg.Keys.Actions()
	router := httprouter.New()
	for _, rc := range cfg.Routes {
		build, contentType := presenters.Builder(presenters.JSON), ContentTypeJSON
		if rc.Template != "" {
			t, err := template.ParseFiles(rc.Template)
			if err != nil {
				return nil, err
			}
			build, contentType = presenters.HTMLTemplate(append(append([]*template.Template{}, layout...), t)...), ContentTypeHTML
		}

		controller := Route{
			Dispatcher: &actions.Dispatcher{
				Store:     deps.Store,
				Registry:  deps.Registry,
				Relocator: relocator,
				Keys:      keys,
				Entity:    rc.Entity,
			},
			Collections: rc.Collections(),
			Action:      rc.Action,
			ActionKey:   keys.Action,
		}
		router.Handle(rc.Method, rc.Pattern, HTTPRouter(controller, build, contentType, cfg.MaxMemory))
		logger.Debug(context.Background(), "route registered", logger.Field("route", rc.String()))
	}
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no route matches "+r.URL.Path, http.StatusNotFound)
	})
	return router, nil
}
