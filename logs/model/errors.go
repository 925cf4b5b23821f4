package model

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

type ErrorCategory string

const (
	CategoryMissingField ErrorCategory = "missingField"
	CategoryInvalidLevel ErrorCategory = "invalidLevel"
	CategoryInvalidBatch ErrorCategory = "invalidBatch"
	CategoryStoreError   ErrorCategory = "storeError"
)

const (
	msgMissingField      = "required field is missing"
	msgInvalidLevel      = "invalid log level"
	msgInvalidBatch      = "invalid delete batch"
	msgEmptyDeleteBatch  = "log IDs array is required"
	msgDeleteBatchTooBig = "cannot delete more than %d logs at once"
)

var (
	ErrMissingField = errors.New(msgMissingField)
	ErrInvalidLevel = errors.New(msgInvalidLevel)
	ErrInvalidBatch = errors.New(msgInvalidBatch)
)

// ValidationError is returned for submissions and requests that can never succeed as sent.
type ValidationError struct {
	Category ErrorCategory
	Field    string
	Message  string
	cause    error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

func NewMissingFieldError(field string) *ValidationError {
	return &ValidationError{
		Category: CategoryMissingField,
		Field:    field,
		Message:  fmt.Sprintf("%s is required (userId, application, timestamp and message are required)", field),
		cause:    ErrMissingField,
	}
}

func NewInvalidLevelError(token string) *ValidationError {
	return &ValidationError{
		Category: CategoryInvalidLevel,
		Field:    "level",
		Message:  fmt.Sprintf("Invalid log level %q. Must be one of: %s", token, strings.Join(AcceptedLevelTokens, ", ")),
		cause:    ErrInvalidLevel,
	}
}

func NewEmptyBatchError() *ValidationError {
	return &ValidationError{
		Category: CategoryInvalidBatch,
		Field:    "logIds",
		Message:  msgEmptyDeleteBatch,
		cause:    ErrInvalidBatch,
	}
}

func NewBatchTooLargeError(maxSize int) *ValidationError {
	return &ValidationError{
		Category: CategoryInvalidBatch,
		Field:    "logIds",
		Message:  fmt.Sprintf(msgDeleteBatchTooBig, maxSize),
		cause:    ErrInvalidBatch,
	}
}

// StoreError reports a failed read or write against the log store.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Detail is the message of the underlying store error, without the context added on the way up.
func (e *StoreError) Detail() string {
	return pkgerrors.Cause(e.Err).Error()
}
