package auth

import (
	"errors"
	"net/http"
)

// Kind classifies an authentication or authorization failure.
type Kind uint8

const (
	// MissingCredentials: no Authorization header.
	MissingCredentials Kind = iota + 1

	// MalformedCredentials: scheme is not "Bearer" or the token is empty.
	MalformedCredentials

	// InvalidToken: signature, structure, category or claim content rejected.
	InvalidToken

	// ExpiredToken: the token's expiry has passed.
	ExpiredToken

	// RoleNotPermitted: the role is not in the policy's allow-list.
	RoleNotPermitted

	// TenantMismatch: a tenant-scoped caller targeted another tenant's record.
	TenantMismatch
)

var kindCodes = map[Kind]string{
	MissingCredentials:   "missing_credentials",
	MalformedCredentials: "malformed_credentials",
	InvalidToken:         "invalid_token",
	ExpiredToken:         "expired_token",
	RoleNotPermitted:     "role_not_permitted",
	TenantMismatch:       "tenant_mismatch",
}

var kindMessages = map[Kind]string{
	MissingCredentials:   "authentication required",
	MalformedCredentials: "authorization header must be 'Bearer <token>'",
	InvalidToken:         "invalid access token",
	ExpiredToken:         "access token expired",
	RoleNotPermitted:     "role not permitted for this operation",
	TenantMismatch:       "resource belongs to a different tenant",
}

// Code returns the snake_case wire code for the kind.
func (k Kind) Code() string {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return "unknown"
}

// String implements fmt.Stringer.
func (k Kind) String() string { return k.Code() }

// IsAuthentication reports whether the kind is an authentication failure
// (as opposed to an authorization denial).
func (k Kind) IsAuthentication() bool {
	return k >= MissingCredentials && k <= ExpiredToken
}

// IsAuthorization reports whether the kind is an authorization denial.
func (k Kind) IsAuthorization() bool {
	return k == RoleNotPermitted || k == TenantMismatch
}

// Status returns the HTTP status code for the kind. The zero Kind and
// unknown kinds are internal errors.
func (k Kind) Status() int {
	switch {
	case k.IsAuthentication():
		return http.StatusUnauthorized
	case k.IsAuthorization():
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed auth failure. Err optionally carries the underlying cause
// (e.g. the JWT parser error) and is never shown to clients.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Code() + ": " + e.Err.Error()
	}
	return e.Kind.Code()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrExpiredToken)
// works regardless of the wrapped cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// Message returns the client-facing message for the failure.
func (e *Error) Message() string {
	return kindMessages[e.Kind]
}

// Sentinels, one per kind.
var (
	ErrMissingCredentials   = &Error{Kind: MissingCredentials}
	ErrMalformedCredentials = &Error{Kind: MalformedCredentials}
	ErrInvalidToken         = &Error{Kind: InvalidToken}
	ErrExpiredToken         = &Error{Kind: ExpiredToken}
	ErrRoleNotPermitted     = &Error{Kind: RoleNotPermitted}
	ErrTenantMismatch       = &Error{Kind: TenantMismatch}
)

// Causes wrapped in InvalidToken by the live account check.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountInactive = errors.New("account not active")
	ErrAccountLocked   = errors.New("account locked")
	ErrStaleClaims     = errors.New("claims no longer match account")
)

// NewError creates an *Error of the given kind wrapping cause.
func NewError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// KindOf extracts the failure kind from err.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
