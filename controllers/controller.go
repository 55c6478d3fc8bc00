// Package controllers serve the configured persistence routes over HTTP.
package controllers

import (
	"github.com/adamluzsi/persistroute/capture"
	"github.com/adamluzsi/persistroute/presenters"
	"github.com/adamluzsi/persistroute/requests"
)

type Controller interface {
	Serve(p presenters.Presenter, r requests.Request, match capture.RouteMatch) error
}

type ControllerFunc func(presenters.Presenter, requests.Request, capture.RouteMatch) error

func (fn ControllerFunc) Serve(p presenters.Presenter, r requests.Request, match capture.RouteMatch) error {
	return fn(p, r, match)
}
