package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidPosition  = errors.New("invalid position")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidField     = errors.New("invalid field")
	ErrInvalidLocation  = errors.New("invalid location tag")

	ErrDuplicate    = errors.New("duplicate")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrService      = errors.New("service failure")
)

// Entity kinds used in typed errors.
const (
	KindCategory       = "category"
	KindActivityName   = "activity name"
	KindAssetType      = "asset type"
	KindContract       = "contract"
	KindActivityRecord = "activity record"
	KindDocument       = "document"
)

// DuplicateError reports a name collision on add or rename.
type DuplicateError struct {
	Kind string
	Name string
}

// Error implements error.
func (e DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

// Is matches ErrDuplicate.
func (e DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// NotFoundError reports an operation on a missing key.
type NotFoundError struct {
	Kind string
	Key  string
}

// Error implements error.
func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationInputError reports a required field that is missing or blank.
type ValidationInputError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e ValidationInputError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is matches ErrInvalidInput.
func (e ValidationInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ServiceError reports a failed call to the document store or the text-completion service.
type ServiceError struct {
	HTTPStatus int
	Message    string
	Err        error
}

// Error implements error.
func (e ServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("service error (status %d): %s", e.HTTPStatus, msg)
	}
	return "service error: " + msg
}

// Unwrap returns the underlying cause.
func (e ServiceError) Unwrap() error {
	return e.Err
}

// Is matches ErrService.
func (e ServiceError) Is(target error) bool {
	return target == ErrService
}
