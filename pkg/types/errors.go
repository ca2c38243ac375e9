package types

import "errors"

// Schema and record errors
var (
	// ErrUnknownFieldType is returned when a type name is not one of the supported kinds
	ErrUnknownFieldType = errors.New("unknown field type")

	// ErrFieldCount is returned when a record is built with the wrong number of values
	ErrFieldCount = errors.New("field count mismatch")

	// ErrValueType is returned when a value does not match its field's type
	ErrValueType = errors.New("value does not match field type")
)
