package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/autopec/garage/internal/repository"
)

// ValidationError reports missing or invalid input, attributed to fields where possible.
type ValidationError struct {
	Fields  []string
	Code    string // upload policy code, empty for field errors
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missingFields(fields []string) *ValidationError {
	return &ValidationError{
		Fields:  fields,
		Message: "missing required fields: " + strings.Join(fields, ", "),
	}
}

// NotFoundError reports an unknown id or registration number.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

type PersistenceKind string

const (
	PersistenceValidation  PersistenceKind = "validation"
	PersistenceUnavailable PersistenceKind = "unavailable"
	PersistenceDuplicate   PersistenceKind = "duplicate"
)

// PersistenceError reports a record store failure.
type PersistenceError struct {
	Kind PersistenceKind
	Err  error
}

func (e *PersistenceError) Error() string {
	switch e.Kind {
	case PersistenceValidation:
		return fmt.Sprintf("repair request failed store validation: %v", e.Err)
	case PersistenceDuplicate:
		return fmt.Sprintf("repair request already exists: %v", e.Err)
	default:
		return fmt.Sprintf("repair store unavailable: %v", e.Err)
	}
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// MediaStoreError wraps a failed media store operation.
type MediaStoreError struct {
	Op       string
	Filename string
	Err      error
}

func (e *MediaStoreError) Error() string {
	return fmt.Sprintf("media store %s failed for %s: %v", e.Op, e.Filename, e.Err)
}

func (e *MediaStoreError) Unwrap() error {
	return e.Err
}

func persistenceError(err error) *PersistenceError {
	switch {
	case errors.Is(err, repository.ErrConstraint):
		return &PersistenceError{Kind: PersistenceValidation, Err: err}
	case errors.Is(err, repository.ErrDuplicateRepair):
		return &PersistenceError{Kind: PersistenceDuplicate, Err: err}
	default:
		return &PersistenceError{Kind: PersistenceUnavailable, Err: err}
	}
}

// storeError converts a repository read/update error for the record with key.
func storeError(err error, key string) error {
	if errors.Is(err, repository.ErrRepairNotFound) {
		return &NotFoundError{Resource: "repair", Key: key}
	}
	return persistenceError(err)
}
