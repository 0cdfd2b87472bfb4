package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates the access check rejected the caller
	ForbiddenError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

// Is lets the typed errors match their sentinel with errors.Is()
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrPartialWrite = errors.New("partial write")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (file, folder, repository, project)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// PartialWriteError reports that one side of a dual write failed.
// Writes already applied to the other side are not rolled back.
type PartialWriteError struct {
	Entity string // file, folder, repository, project, blob
	Target string // document, index, blob
	Err    error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write: %s %s: %v", e.Entity, e.Target, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// StatusCode implements the HTTPError interface
func (e *PartialWriteError) StatusCode() int {
	return http.StatusInternalServerError
}

// Is allows errors.Is() to match against ErrPartialWrite
func (e *PartialWriteError) Is(target error) bool {
	return target == ErrPartialWrite
}

// NewPartialWriteError wraps err unless it is nil or already a partial write
func NewPartialWriteError(entity, target string, err error) error {
	if err == nil {
		return nil
	}
	var pw *PartialWriteError
	if errors.As(err, &pw) {
		return err
	}
	return &PartialWriteError{Entity: entity, Target: target, Err: err}
}
