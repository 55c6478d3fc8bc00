package controllers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/adamluzsi/persistroute/capture"
	"github.com/adamluzsi/persistroute/errs"
	"github.com/adamluzsi/persistroute/pkg/logger"
	"github.com/adamluzsi/persistroute/presenters"
	"github.com/adamluzsi/persistroute/requests"
	"github.com/julienschmidt/httprouter"
)

// HTTPRouter adapts a Controller to the julienschmidt/httprouter handle signature.
// The response is buffered, so a failing render still results in a proper error response.
func HTTPRouter(c Controller, buildPresenter presenters.Builder, contentType string, maxMemory int64) httprouter.Handle {
	closer := func(c io.Closer) {
		if c != nil {
			_ = c.Close()
		}
	}

	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		defer closer(r.Body)
		ctx := logger.ContextWith(r.Context(),
			logger.Field("method", r.Method),
			logger.Field("path", r.URL.Path))
		r = r.WithContext(ctx)

		req, err := requests.NewHTTP(r, maxMemory)
		if err != nil {
			logger.Warn(ctx, "request parsing failed", logger.ErrField(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer func() {
			if err := req.Close(); err != nil {
				logger.Warn(ctx, "removing temporary uploads failed", logger.ErrField(err))
			}
		}()

		buf := &bytes.Buffer{}
		if err := c.Serve(buildPresenter(buf), req, capture.Params(ps)); err != nil {
			code := StatusCode(err)
			if code >= http.StatusInternalServerError {
				logger.Error(ctx, "request failed", logger.ErrField(err))
			} else {
				logger.Info(ctx, "request rejected", logger.Field("status", code), logger.ErrField(err))
			}
			http.Error(w, err.Error(), code)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

// StatusCode maps a persistence failure to the HTTP status that describes it.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errs.ErrObjectReferenceResolution) && errors.Is(err, errs.ErrNoSuchRecord):
		// the request points to a record that doesn't exist
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNoSuchRecord):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrMissingCaptureParameter),
		errors.Is(err, errs.ErrUnsupportedAction),
		errors.Is(err, errs.ErrUnsupportedEntity),
		errors.Is(err, errs.ErrMissingFileName),
		errors.Is(err, errs.ErrFieldConversion):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
