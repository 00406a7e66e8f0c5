package client

import (
	"errors"
	"fmt"
)

// Kind classifies a failed API call.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNetwork means no response was received.
	KindNetwork
	// KindAuthExpired is an HTTP 401; the session has been cleared.
	KindAuthExpired
	// KindValidation is an HTTP 400.
	KindValidation
	// KindApplication is a 2xx response carrying success=false, or a 401
	// from an anonymous endpoint such as login.
	KindApplication
	// KindServer is any other non-2xx response.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network error"
	case KindAuthExpired:
		return "auth expired"
	case KindValidation:
		return "validation error"
	case KindApplication:
		return "application error"
	case KindServer:
		return "server error"
	default:
		return "unknown error"
	}
}

// MsgWrongCredentials is the message of a login rejected with a bare 401.
const MsgWrongCredentials = "wrong username or password"

// Error is returned by every Client method that reached the classification step.
type Error struct {
	Kind       Kind
	StatusCode int
	// Message is the server-provided message, if any.
	Message string
	// Fields holds per-field messages from a 400 response.
	Fields map[string]string
	// Err is the transport error for KindNetwork.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Kind, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: HTTP %d", e.Kind, e.StatusCode)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err (or any wrapped error) is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
