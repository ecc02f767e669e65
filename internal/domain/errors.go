package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for user-facing handling.
type Kind int

const (
	// KindValidation is malformed local input.
	KindValidation Kind = iota + 1
	// KindUnauthorized is rejected credentials.
	KindUnauthorized
	// KindForbidden is a disabled account or insufficient role.
	KindForbidden
	// KindConnectivity means no response was received.
	KindConnectivity
	// KindServerFault is any other non-2xx response.
	KindServerFault
	// KindCorruption is persisted data that failed to parse.
	KindCorruption
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConnectivity:
		return "network_unreachable"
	case KindServerFault:
		return "server_fault"
	case KindCorruption:
		return "corruption"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against a *Error of the same kind.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNetworkUnreachable = &Error{Kind: KindConnectivity}
	ErrServerFault        = &Error{Kind: KindServerFault}
	ErrCorruption         = &Error{Kind: KindCorruption}
)

// Error is a classified failure from a remote call or local decode.
type Error struct {
	Kind   Kind
	Op     string
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// StatusError classifies a non-2xx HTTP status.
func StatusError(op string, status int, cause error) *Error {
	kind := KindServerFault
	switch status {
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusForbidden:
		kind = KindForbidden
	}
	return &Error{Kind: kind, Op: op, Status: status, Err: cause}
}

// UserMessage renders err as a message that can be shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return "Something went wrong. Please try again."
	}
	switch e.Kind {
	case KindUnauthorized:
		return "Invalid email or password. Please check your credentials and try again."
	case KindForbidden:
		return "Your account is disabled or does not have access to this app. Contact the hostel office."
	case KindConnectivity:
		return "Cannot reach the server. Check your internet connection and try again."
	case KindServerFault:
		return fmt.Sprintf("The server returned an error (status %d). Please try again later.", e.Status)
	case KindValidation:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "Please check your input and try again."
	case KindCorruption:
		return "Some local data was invalid and has been reset."
	default:
		return "Something went wrong. Please try again."
	}
}
