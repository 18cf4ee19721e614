package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a business failure. Handlers map kinds to HTTP status
// codes at the boundary; services only pick the kind and a stable code.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindAuthenticationFailed
	KindPermissionDenied
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func AuthenticationFailed(code, message string) *Error {
	return &Error{Kind: KindAuthenticationFailed, Code: code, Message: message}
}

func PermissionDenied(message string) *Error {
	return &Error{Kind: KindPermissionDenied, Code: "permission_denied", Message: message}
}

// Unknown wraps an unexpected error. The original cause stays attached for
// logging but is never rendered to the caller.
func Unknown(err error) *Error {
	return &Error{
		Kind:    KindUnknown,
		Code:    "unknown_server",
		Message: "an unknown server error occurred",
		err:     err,
	}
}

// From returns err as *Error, converting anything unexpected to Unknown.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Unknown(err)
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindAuthenticationFailed:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
