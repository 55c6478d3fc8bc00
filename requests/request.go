// Package requests abstracts the incoming request a persistence action works on.
package requests

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"sort"
	"sync"

	"github.com/adamluzsi/persistroute/pkg/errorutil"
	"github.com/adamluzsi/persistroute/upload"
)

type Request interface {
	Context() context.Context
	// Form holds the query and body parameters.
	Form() url.Values
	// Attachments lists the uploaded files, already spooled into temporary storage.
	Attachments() []upload.Attachment
	// Bag carries the results of the actions towards the presenter.
	Bag() *Bag
}

func New(ctx context.Context, form url.Values, attachments ...upload.Attachment) *Basic {
	if form == nil {
		form = url.Values{}
	}
	return &Basic{ctx: ctx, form: form, attachments: attachments, bag: NewBag()}
}

type Basic struct {
	ctx         context.Context
	form        url.Values
	attachments []upload.Attachment
	bag         *Bag
}

func (r *Basic) Context() context.Context { return r.ctx }
func (r *Basic) Form() url.Values { return r.form }
func (r *Basic) Attachments() []upload.Attachment { return r.attachments }
func (r *Basic) Bag() *Bag { return r.bag }

// NewHTTP parses the form of r, and spools every uploaded file into a temporary file.
// The caller must Close the returned request to remove the files that were not relocated.
func NewHTTP(r *http.Request, maxMemory int64) (*HTTP, error) {
	h := &HTTP{Basic: New(r.Context(), nil), request: r}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
	}
	h.form = r.Form
	if r.MultipartForm == nil {
		return h, nil
	}
	fields := make([]string, 0, len(r.MultipartForm.File))
	for field := range r.MultipartForm.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		for _, fh := range r.MultipartForm.File[field] {
			tmp, err := spool(fh)
			if err != nil {
				return nil, errorutil.Merge(err, h.Close())
			}
			h.attachments = append(h.attachments, upload.Attachment{
				Field:    field,
				FileName: fh.Filename,
				TempPath: tmp,
			})
		}
	}
	return h, nil
}

type HTTP struct {
	*Basic
	request *http.Request
}

func (h *HTTP) Request() *http.Request { return h.request }

// Close removes the temporary files left behind.
func (h *HTTP) Close() error {
	var errs []error
	for _, att := range h.attachments {
		if err := os.Remove(att.TempPath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if h.request.MultipartForm != nil {
		errs = append(errs, h.request.MultipartForm.RemoveAll())
	}
	return errorutil.Merge(errs...)
}

func spool(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	dst, err := os.CreateTemp("", "persistroute-upload-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), dst.Close()
}

func NewBag() *Bag {
	return &Bag{values: make(map[string]any)}
}

// Bag is the per request result store, safe for concurrent use.
type Bag struct {
	mutex  sync.RWMutex
	values map[string]any
}

func (b *Bag) Set(key string, value any) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.values[key] = value
}

func (b *Bag) Lookup(key string) (any, bool) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	v, ok := b.values[key]
	return v, ok
}

// Values returns a copy of the bag content.
func (b *Bag) Values() map[string]any {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	out := make(map[string]any, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}
