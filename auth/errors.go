package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kind is the closed set of failure kinds produced by token verification,
// directory lookups and permission resolution.
type Kind int

const (
	KindUnknown Kind = iota
	KindTokenMalformed
	KindTokenExpired
	KindNotFound
	KindPermissionDenied
	KindDataAccess
	KindInvalidCredentials
)

func (k Kind) String() string {
	switch k {
	case KindTokenMalformed:
		return "token_malformed"
	case KindTokenExpired:
		return "token_expired"
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindDataAccess:
		return "data_access"
	case KindInvalidCredentials:
		return "invalid_credentials"
	default:
		return "unknown"
	}
}

// Resources reported by NotFound.
const (
	ResourceAction = "action"
	ResourceEntity = "entity"
	ResourceUser   = "user"
)

// Reasons reported by PermissionDenied.
const (
	ReasonNoRoles              = "no roles"
	ReasonNoMatchingPermission = "no matching permission"
)

// Error carries one Kind plus the detail relevant to it. Detail is for logs only;
// callers outside the service see PublicMessage.
type Error struct {
	Kind     Kind
	Resource string // KindNotFound
	Reason   string // KindPermissionDenied
	Cause    error  // KindDataAccess, token kinds
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s not found", e.Resource)
	case KindPermissionDenied:
		return fmt.Sprintf("permission denied: %s", e.Reason)
	case KindDataAccess:
		return fmt.Sprintf("data access error: %v", e.Cause)
	case KindTokenExpired:
		return "token expired"
	case KindTokenMalformed:
		if e.Cause != nil {
			return fmt.Sprintf("malformed token: %v", e.Cause)
		}
		return "malformed token"
	case KindInvalidCredentials:
		return "invalid credentials"
	default:
		return "unknown error"
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on Kind (and Resource/Reason when the target sets them), so
// errors.Is(err, auth.NotFound(auth.ResourceAction)) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Resource != "" && t.Resource != e.Resource {
		return false
	}
	if t.Reason != "" && t.Reason != e.Reason {
		return false
	}
	return true
}

func NotFound(resource string) error {
	return &Error{Kind: KindNotFound, Resource: resource}
}

func PermissionDenied(reason string) error {
	return &Error{Kind: KindPermissionDenied, Reason: reason}
}

func DataAccess(cause error) error {
	return &Error{Kind: KindDataAccess, Cause: cause}
}

func TokenMalformed(cause error) error {
	return &Error{Kind: KindTokenMalformed, Cause: cause}
}

func TokenExpired() error {
	return &Error{Kind: KindTokenExpired}
}

func InvalidCredentials() error {
	return &Error{Kind: KindInvalidCredentials}
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Code is the externally stable outcome code of an authorization request.
type Code string

const (
	CodeOK              Code = "OK"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// CodeOf maps an internal error onto an outcome code. Anything outside the taxonomy is internal.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	switch KindOf(err) {
	case KindTokenMalformed, KindTokenExpired, KindInvalidCredentials:
		return CodeUnauthenticated
	case KindPermissionDenied:
		return CodeForbidden
	case KindNotFound:
		return CodeNotFound
	default:
		return CodeInternal
	}
}

// IsCanceled reports whether err stems from the caller giving up rather than a backend failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// PublicMessage returns a safe message for err. Token expiry is told apart from other
// authentication failures because the caller should log in again rather than give up.
func PublicMessage(err error) string {
	switch KindOf(err) {
	case KindTokenExpired:
		return "Session expired, please log in again"
	case KindTokenMalformed:
		return "Invalid token"
	case KindInvalidCredentials:
		return "Invalid credentials"
	}
	switch CodeOf(err) {
	case CodeOK:
		return "OK"
	case CodeForbidden:
		return "Access denied"
	case CodeNotFound:
		return "Resource not found"
	default:
		return "Internal server error"
	}
}

func (c Code) HTTPStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeOK:
		return codes.OK
	case CodeUnauthenticated:
		return codes.Unauthenticated
	case CodeForbidden:
		return codes.PermissionDenied
	case CodeNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}
