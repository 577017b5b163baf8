package auth

import (
	"context"
	"fmt"
	"time"
)

// Claims is the verified payload of an access token. Role and TenantID are
// a snapshot taken when the token was issued.
type Claims struct {
	Subject   string
	Email     string
	Role      Role
	TenantID  *string // nil for tokens without a tenant assignment
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Verifier validates a raw bearer token and returns its claims.
// Implementations must fail with an *Error of kind InvalidToken or
// ExpiredToken and must not perform I/O.
type Verifier interface {
	Verify(raw string) (Claims, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(raw string) (Claims, error)

// Verify calls f(raw).
func (f VerifierFunc) Verify(raw string) (Claims, error) { return f(raw) }

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusPending  AccountStatus = "pending"
	StatusLocked   AccountStatus = "locked"
	StatusDisabled AccountStatus = "disabled"
)

// ParseAccountStatus validates a stored status value.
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch st := AccountStatus(s); st {
	case StatusActive, StatusPending, StatusLocked, StatusDisabled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown account status %q", s)
	}
}

// Account is the persisted identity record. The password hash is opaque to
// this package; FailedLogins and LockedUntil are maintained by the login flow.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Status       AccountStatus
	FailedLogins int
	LockedUntil  *time.Time
	TenantID     *string
	CreatedAt    time.Time
}

// LockedAt reports whether the account is unusable at time now, either by
// status or by an unexpired lockout window.
func (a *Account) LockedAt(now time.Time) bool {
	if a.Status == StatusLocked {
		return true
	}
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// AccountLookup fetches the live account for a subject. Implementations
// return ErrAccountNotFound when no such account exists.
type AccountLookup interface {
	LookupAccount(ctx context.Context, id string) (*Account, error)
}
