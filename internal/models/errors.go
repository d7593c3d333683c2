package models

import "errors"

// ErrorKind classifies a failure for the response envelope.
// Every handler maps a kind to exactly one HTTP status.
type ErrorKind string

const (
	KindValidation        ErrorKind = "ValidationError"
	KindNotFound          ErrorKind = "NotFoundError"
	KindActionNotAllowed  ErrorKind = "ActionNotAllowedError"
	KindCapacityExceeded  ErrorKind = "CapacityExceeded"
	KindPaymentFailed     ErrorKind = "PaymentFailed"
	KindPaymentInitiation ErrorKind = "PaymentInitiationFailed"
	KindInternal          ErrorKind = "InternalError"
)

// AppError is a domain failure carrying a user-safe message and a kind.
// Internal details stay in the wrapped cause and never reach the response body.
type AppError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// PublicMessage returns the message safe to put in a response body.
func (e *AppError) PublicMessage() string {
	return e.Message
}

func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewActionNotAllowedError(message string) *AppError {
	return &AppError{Kind: KindActionNotAllowed, Message: message}
}

func NewCapacityExceededError(message string) *AppError {
	return &AppError{Kind: KindCapacityExceeded, Message: message}
}

func NewPaymentFailedError(message string) *AppError {
	return &AppError{Kind: KindPaymentFailed, Message: message}
}

func NewPaymentInitiationError(message string, cause error) *AppError {
	return &AppError{Kind: KindPaymentInitiation, Message: message, cause: cause}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, cause: cause}
}

// AsAppError extracts an *AppError from an error chain, if present.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the error kind for err, defaulting to InternalError.
func KindOf(err error) ErrorKind {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
