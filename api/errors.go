package api

import (
	"errors"
	"strings"

	"github.com/stevemurr/school-console/collection"
	"github.com/stevemurr/school-console/schema"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrInvalid matches every *ValidationError.
	ErrInvalid = errors.New("invalid")

	// ErrInvalidTransition is returned when a workflow step is not allowed
	// from the record's current stage.
	ErrInvalidTransition = errors.New("invalid transition")
)

// NotFoundError reports a missing record. Its message names the entity,
// e.g. "Resource not found".
type NotFoundError struct {
	Entity string
	ID     collection.ID
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports a record rejected by its entity schema.
type ValidationError struct {
	Entity string
	Err    error
}

func (e *ValidationError) Error() string {
	return "invalid " + strings.ToLower(e.Entity) + ": " + e.Err.Error()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Fields returns the individual schema violations.
func (e *ValidationError) Fields() []*schema.FieldError {
	return schema.Errors(e.Err)
}
