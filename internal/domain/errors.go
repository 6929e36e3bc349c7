package domain

import (
	"errors"  // Sentinel errors
	"sort"    // Stable error messages
	"strings" // Joining field messages
)

// Sentinel errors shared by repositories and handlers
var (
	ErrNotFound           = errors.New("not found")           // Row absent or not owned by the caller
	ErrConflict           = errors.New("already exists")      // Unique username/email violated
	ErrInvalidCredentials = errors.New("invalid credentials") // Login failed
)

// ValidationError carries field-level messages for rejected input
type ValidationError struct {
	Fields map[string]string `json:"errors"`
}

// NewValidationError returns an empty ValidationError ready for Add
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Add records a message for field, keeping the first message per field
func (e *ValidationError) Add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns nil when no field failed, so callers can `return v.OrNil()`
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
