package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeIO represents file system errors on corpus files
	ErrorTypeIO ErrorType = "io"
	// ErrorTypeSchema represents errors loading the schema declarations
	ErrorTypeSchema ErrorType = "schema"
	// ErrorTypeParse represents statement extraction errors
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// IO Errors

// ErrFileReadFailed is returned when a corpus file cannot be read
type ErrFileReadFailed struct {
	*BaseError
	Path string
}

func NewFileReadFailed(path string, err error) *ErrFileReadFailed {
	return &ErrFileReadFailed{
		BaseError: NewBaseError(ErrorTypeIO, fmt.Sprintf("failed to read file: %s", path), err),
		Path:      path,
	}
}

// ErrPathNotFound is returned when a target path does not exist
type ErrPathNotFound struct {
	*BaseError
	Path string
}

func NewPathNotFound(path string, err error) *ErrPathNotFound {
	return &ErrPathNotFound{
		BaseError: NewBaseError(ErrorTypeIO, fmt.Sprintf("path not found: %s", path), err),
		Path:      path,
	}
}

// Schema Errors

// ErrSchemaLoadFailed is returned when a schema declaration file cannot be read.
// It aborts the run: no check can proceed without the type tables.
type ErrSchemaLoadFailed struct {
	*BaseError
	Path string
}

func NewSchemaLoadFailed(path string, err error) *ErrSchemaLoadFailed {
	return &ErrSchemaLoadFailed{
		BaseError: NewBaseError(ErrorTypeSchema, fmt.Sprintf("failed to load schema: %s", path), err),
		Path:      path,
	}
}

// Parse Errors

// ErrUnterminated is returned by the lexer for an unterminated string or comment
type ErrUnterminated struct {
	*BaseError
	Line int
	What string
}

func NewUnterminated(what string, line int) *ErrUnterminated {
	return &ErrUnterminated{
		BaseError: NewBaseError(ErrorTypeParse, fmt.Sprintf("unterminated %s starting on line %d", what, line), nil),
		Line:      line,
		What:      what,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigFileInvalid is returned when the YAML overlay cannot be decoded
type ErrConfigFileInvalid struct {
	*BaseError
	Path string
}

func NewConfigFileInvalid(path string, err error) *ErrConfigFileInvalid {
	return &ErrConfigFileInvalid{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("invalid config file: %s", path), err),
		Path:      path,
	}
}

// Helper functions

// baseOf finds the BaseError carried by err, looking through typed wrappers
// and wrapped errors.
func baseOf(err error) *BaseError {
	for err != nil {
		if baseErr, ok := err.(*BaseError); ok {
			return baseErr
		}
		if carrier, ok := err.(interface{ base() *BaseError }); ok {
			return carrier.base()
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = unwrapper.Unwrap()
	}
	return nil
}

func (e *BaseError) base() *BaseError { return e }

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if baseErr := baseOf(err); baseErr != nil {
		return baseErr.Type == errType
	}
	return false
}

// IsFatal reports whether an error must abort the whole run.
// Per-file I/O failures are not fatal; schema and config failures are.
func IsFatal(err error) bool {
	return IsErrorType(err, ErrorTypeSchema) ||
		IsErrorType(err, ErrorTypeConfig) ||
		IsErrorType(err, ErrorTypeContext)
}
