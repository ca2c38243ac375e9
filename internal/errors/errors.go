// Package errors provides structured error types for sheetblob.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryDecode     ErrorCategory = "DECODE"
	ErrCategoryIndex      ErrorCategory = "INDEX"
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategorySchema     ErrorCategory = "SCHEMA"
	ErrCategoryLookup     ErrorCategory = "LOOKUP"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryConfig     ErrorCategory = "CONFIG"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Decode codes
	CodeTruncated        = "TRUNCATED"
	CodeInvalidLength    = "INVALID_LENGTH"
	CodeTrailingBytes    = "TRAILING_BYTES"
	CodeDecompressFailed = "DECOMPRESS_FAILED"

	// Index codes
	CodeDuplicateKey = "DUPLICATE_KEY"

	// Validation codes
	CodeHookRejected = "HOOK_REJECTED"

	// Schema codes
	CodeInvalidSchema = "INVALID_SCHEMA"

	// Lookup codes
	CodeRecordNotFound   = "RECORD_NOT_FOUND"
	CodeUnknownSheet     = "UNKNOWN_SHEET"
	CodeWrongCardinality = "WRONG_CARDINALITY"
	CodeInvalidKey       = "INVALID_KEY"

	// Storage codes
	CodeObjectNotFound = "OBJECT_NOT_FOUND"
	CodeDownloadFailed = "DOWNLOAD_FAILED"

	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// Sentinels for errors.Is matching on category and code.
var (
	ErrTruncated     = New(ErrCategoryDecode, CodeTruncated, "truncated buffer")
	ErrInvalidLength = New(ErrCategoryDecode, CodeInvalidLength, "invalid length")
	ErrTrailingBytes = New(ErrCategoryDecode, CodeTrailingBytes, "trailing bytes")
	ErrDecompress    = New(ErrCategoryDecode, CodeDecompressFailed, "decompression failed")
	ErrDuplicateKey  = New(ErrCategoryIndex, CodeDuplicateKey, "duplicate key")
	ErrHookRejected  = New(ErrCategoryValidation, CodeHookRejected, "load hook rejected record")
	ErrInvalidSchema = New(ErrCategorySchema, CodeInvalidSchema, "invalid schema")
	ErrNotFound      = New(ErrCategoryLookup, CodeRecordNotFound, "record not found")
	ErrUnknownSheet  = New(ErrCategoryLookup, CodeUnknownSheet, "unknown sheet")
	ErrCardinality   = New(ErrCategoryLookup, CodeWrongCardinality, "wrong sheet cardinality")
	ErrInvalidKey    = New(ErrCategoryLookup, CodeInvalidKey, "invalid key")
	ErrObjectMissing = New(ErrCategoryStorage, CodeObjectNotFound, "object not found")
	ErrInvalidConfig = New(ErrCategoryConfig, CodeInvalidConfig, "invalid configuration")
)

// SheetError is the structured error type used throughout the system.
type SheetError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *SheetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *SheetError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *SheetError) Is(target error) bool {
	var t *SheetError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new SheetError.
func New(category ErrorCategory, code, message string) *SheetError {
	return &SheetError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new SheetError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *SheetError {
	return &SheetError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details merged
// over any existing ones.
func (e *SheetError) WithDetails(details map[string]interface{}) *SheetError {
	cp := *e
	merged := make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	cp.Details = merged
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var se *SheetError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a SheetError.
func GetCategory(err error) ErrorCategory {
	var se *SheetError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a SheetError.
func GetCode(err error) string {
	var se *SheetError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetDetails extracts the details of the outermost SheetError in the chain.
func GetDetails(err error) map[string]interface{} {
	var se *SheetError
	if errors.As(err, &se) {
		return se.Details
	}
	return nil
}

// isRetryable determines if an error code is retryable. Only transient
// storage failures qualify; a malformed blob fails the same way every time.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewDecodeError(code, message string) *SheetError {
	return New(ErrCategoryDecode, code, message)
}

func NewIndexError(code, message string) *SheetError {
	return New(ErrCategoryIndex, code, message)
}

func NewSchemaError(message string) *SheetError {
	return New(ErrCategorySchema, CodeInvalidSchema, message)
}

func NewLookupError(code, message string) *SheetError {
	return New(ErrCategoryLookup, code, message)
}

func NewStorageError(code, message string, cause error) *SheetError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewConfigError(message string) *SheetError {
	return New(ErrCategoryConfig, CodeInvalidConfig, message)
}

func NewInternalError(message string, cause error) *SheetError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
