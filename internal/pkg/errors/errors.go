package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeInternal           = "INTERNAL_ERROR"
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeOptimizerExhausted = "OPTIMIZER_EXHAUSTED"
)

// AppError represents an application error with context
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithError wraps an underlying error
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Internal creates an internal error
func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

// Configuration creates a configuration error
func Configuration(message string) *AppError {
	return New(CodeConfiguration, message)
}

// Configurationf creates a configuration error with a formatted message
func Configurationf(format string, args ...any) *AppError {
	return New(CodeConfiguration, fmt.Sprintf(format, args...))
}

// InvalidInput creates an invalid input error
func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// OptimizerExhausted creates an error reporting that no optimizer run succeeded
func OptimizerExhausted(runs int, err error) *AppError {
	return New(CodeOptimizerExhausted, fmt.Sprintf("all %d optimizer runs failed", runs)).WithError(err)
}

// Is checks if an error carries the given code
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return Is(err, CodeConfiguration)
}

// IsInvalidInput checks if an error is an invalid input error
func IsInvalidInput(err error) bool {
	return Is(err, CodeInvalidInput)
}

// IsOptimizerExhausted checks if an error is an optimizer exhaustion error
func IsOptimizerExhausted(err error) bool {
	return Is(err, CodeOptimizerExhausted)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
