package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed failure surfaced to the viewer. Status carries the
// remote HTTP status when the failure originated from the service; it is zero
// for failures raised before any network interaction.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for the failure taxonomy.
var (
	ErrValidation   = New("VALIDATION_ERROR", 0, "validation failed")
	ErrBusy         = New("BUSY", 0, "a status change for this complaint is already in flight")
	ErrTransport    = New("TRANSPORT_ERROR", 0, "connection failed, please check your network connection")
	ErrRemote       = New("REMOTE_REJECTION", 0, "the request was rejected by the service")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized, please log in again")
	ErrInternal     = New("INTERNAL_ERROR", 0, "internal error")
	ErrCacheMiss    = New("CACHE_MISS", 0, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// HasCode reports whether err carries the given taxonomy code.
func HasCode(err error, code string) bool {
	e := FromError(err)
	return e != nil && e.Code == code
}
