// Package upload moves uploaded files from their temporary location into permanent storage.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adamluzsi/persistroute/errs"
)

// Attachment describes an uploaded file that waits in temporary storage.
type Attachment struct {
	// Field is the request field the file was uploaded with.
	Field    string
	FileName string
	TempPath string
}

// Relocator moves attachments into Directory,
// and reports their location relative to RelativePrefix.
type Relocator struct {
	Directory      string
	RelativePrefix string

	mutex sync.Mutex
}

// Relocate moves the attachment under a collision free name, and returns its relative path.
// An existing file with the same name is never overwritten,
// instead the name gets a numeric suffix, like "photo_1.png".
func (r *Relocator) Relocate(att Attachment) (string, error) {
	name := sanitize(att.FileName)
	if name == "" {
		return "", errs.MissingFileName{Field: att.Field}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := os.MkdirAll(r.Directory, 0755); err != nil {
		return "", err
	}
	final, err := r.reserve(name)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(r.Directory, final)
	if err := move(att.TempPath, dst); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return path.Join(r.RelativePrefix, final), nil
}

// Remove deletes a file stored by Relocate, identified by the relative path Relocate returned.
// A file that is already gone is not an error.
func (r *Relocator) Remove(relative string) error {
	name := path.Base(relative)
	if name == "." || name == "/" {
		return errs.MissingFileName{Field: relative}
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	err := os.Remove(filepath.Join(r.Directory, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// reserve creates an empty placeholder file under the first free candidate name.
func (r *Relocator) reserve(name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		f, err := os.OpenFile(filepath.Join(r.Directory, candidate), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		return candidate, f.Close()
	}
}

func sanitize(fileName string) string {
	name := filepath.Base(strings.TrimSpace(fileName))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return strings.ReplaceAll(name, " ", "_")
}

func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// rename fails across devices
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
