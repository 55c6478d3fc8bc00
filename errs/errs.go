// Package errs holds the failure kinds a persistence request can end with.
// Every typed error matches its sentinel with errors.Is,
// so callers can branch on the kind without caring about the carried details.
package errs

import (
	"fmt"

	"github.com/adamluzsi/persistroute/pkg/errorutil"
)

const (
	ErrMissingCaptureParameter   errorutil.Error = "ErrMissingCaptureParameter"
	ErrUnsupportedAction         errorutil.Error = "ErrUnsupportedAction"
	ErrUnsupportedEntity         errorutil.Error = "ErrUnsupportedEntity"
	ErrMissingFileName           errorutil.Error = "ErrMissingFileName"
	ErrNoSuchRecord              errorutil.Error = "ErrNoSuchRecord"
	ErrFieldConversion           errorutil.Error = "ErrFieldConversion"
	ErrObjectReferenceResolution errorutil.Error = "ErrObjectReferenceResolution"
	ErrStore                     errorutil.Error = "ErrStore"
)

type MissingCaptureParameter struct {
	CaptureName string
}

func (err MissingCaptureParameter) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingCaptureParameter, err.CaptureName)
}

func (err MissingCaptureParameter) Is(target error) bool {
	return target == ErrMissingCaptureParameter
}

type UnsupportedAction struct {
	Value string
}

func (err UnsupportedAction) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnsupportedAction, err.Value)
}

func (err UnsupportedAction) Is(target error) bool {
	return target == ErrUnsupportedAction
}

type UnsupportedEntity struct {
	Name string
}

func (err UnsupportedEntity) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnsupportedEntity, err.Name)
}

func (err UnsupportedEntity) Is(target error) bool {
	return target == ErrUnsupportedEntity
}

type MissingFileName struct {
	Field string
}

func (err MissingFileName) Error() string {
	return fmt.Sprintf("%s: upload for %q has no file name", ErrMissingFileName, err.Field)
}

func (err MissingFileName) Is(target error) bool {
	return target == ErrMissingFileName
}

type NoSuchRecord struct {
	Entity string
	ID     string
}

func (err NoSuchRecord) Error() string {
	return fmt.Sprintf("%s: %s with id %q", ErrNoSuchRecord, err.Entity, err.ID)
}

func (err NoSuchRecord) Is(target error) bool {
	return target == ErrNoSuchRecord
}

type FieldConversion struct {
	Field string
	Err   error
}

func (err FieldConversion) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrFieldConversion, err.Field, err.Err)
}

func (err FieldConversion) Is(target error) bool {
	return target == ErrFieldConversion
}

func (err FieldConversion) Unwrap() error { return err.Err }

type ObjectReferenceResolution struct {
	Field string
	Err   error
}

func (err ObjectReferenceResolution) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrObjectReferenceResolution, err.Field, err.Err)
}

func (err ObjectReferenceResolution) Is(target error) bool {
	return target == ErrObjectReferenceResolution
}

func (err ObjectReferenceResolution) Unwrap() error { return err.Err }

// Store wraps a failure of the persistence collaborator.
// Op names the store operation, like "find" or "save".
type Store struct {
	Op  string
	Err error
}

func (err Store) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrStore, err.Op, err.Err)
}

func (err Store) Is(target error) bool {
	return target == ErrStore
}

func (err Store) Unwrap() error { return err.Err }
