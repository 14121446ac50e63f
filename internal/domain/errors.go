package domain

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindUpstream
)

// Status maps the kind to the HTTP status returned to callers.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a caller-safe message. Err holds the diagnostic cause and
// is never rendered to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

const (
	MsgUnauthenticated = "Access token invalid or not provided."
	MsgForbidden       = "The request contained valid data and was understood by the server, but the server is refusing action due to the authenticated user not having the necessary permissions for the resource."
	MsgNotFound        = "The requested resource was not found."
	MsgUpstream        = "The image service failed to handle the request."
	MsgUnexpected      = "An unexpected condition was encountered."
)

func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func AuthenticationError(cause error) *Error {
	return &Error{Kind: KindAuthentication, Message: MsgUnauthenticated, Err: cause}
}

func AuthorizationError() *Error {
	return &Error{Kind: KindAuthorization, Message: MsgForbidden}
}

func NotFoundError(cause error) *Error {
	return &Error{Kind: KindNotFound, Message: MsgNotFound, Err: cause}
}

func UpstreamError(cause error) *Error {
	return &Error{Kind: KindUpstream, Message: MsgUpstream, Err: cause}
}

// KindOf returns KindUnexpected for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// PublicMessage returns the text that may be shown to a caller.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnexpected {
		return e.Message
	}
	return MsgUnexpected
}
