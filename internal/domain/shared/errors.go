package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithCause returns a copy of the error carrying the underlying cause.
// Sentinels stay immutable.
func (e *DomainError) WithCause(err error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Common domain errors
var (
	ErrNotFound           = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput       = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized       = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrDatasetUnavailable = NewDomainError("DATASET_UNAVAILABLE", "Dataset has not been loaded")
)

// SchemaErrorCode identifies a dataset whose header is missing required columns.
// A schema error is fatal for the load: no partial table is produced.
const SchemaErrorCode = "SCHEMA_MISSING_COLUMNS"

// NewSchemaError creates a domain error listing the required columns absent
// from a dataset header. The column list is sorted so the message is stable.
func NewSchemaError(missing []string) *DomainError {
	cols := make([]string, len(missing))
	copy(cols, missing)
	sort.Strings(cols)
	return NewDomainError(
		SchemaErrorCode,
		fmt.Sprintf("dataset is missing required columns: %s", strings.Join(cols, ", ")),
	)
}

// IsSchemaError reports whether err is a missing-columns schema error
func IsSchemaError(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == SchemaErrorCode
}
