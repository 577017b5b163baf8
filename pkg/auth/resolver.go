package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rhuss/citygate/pkg/debug"
	"github.com/rhuss/citygate/pkg/observability"
)

// AccountCheck selects how the resolver treats the claim snapshot.
type AccountCheck string

const (
	// CheckSnapshot trusts role and tenant from the token. Lockouts and
	// role changes take effect at the next token refresh.
	CheckSnapshot AccountCheck = "snapshot"

	// CheckLive reads the account once per request and rejects tokens whose
	// account is inactive, locked, or no longer matches the claims.
	CheckLive AccountCheck = "live"
)

// Resolver converts verified claims into an AccessContext.
type Resolver struct {
	// Check selects snapshot or live resolution. Empty means CheckSnapshot.
	Check AccountCheck

	// Accounts is required when Check is CheckLive.
	Accounts AccountLookup

	// Now is the clock used for lockout windows. Defaults to time.Now.
	Now func() time.Time
}

// Resolve builds the access context for claims. In snapshot mode the result
// mirrors the claims exactly and no I/O happens.
func (r *Resolver) Resolve(ctx context.Context, claims Claims) (AccessContext, error) {
	ac := NewAccessContext(claims.Subject, claims.Email, claims.Role, claims.TenantID)

	if r == nil || r.Check != CheckLive {
		return ac, nil
	}
	if r.Accounts == nil {
		return AccessContext{}, fmt.Errorf("live account check configured without an account lookup")
	}

	acct, err := r.Accounts.LookupAccount(ctx, claims.Subject)
	if errors.Is(err, ErrAccountNotFound) {
		observability.AccountLookupsTotal.WithLabelValues("not_found").Inc()
		return AccessContext{}, NewError(InvalidToken, ErrAccountNotFound)
	}
	if err != nil {
		observability.AccountLookupsTotal.WithLabelValues("error").Inc()
		return AccessContext{}, fmt.Errorf("looking up account: %w", err)
	}

	if cause := r.checkAccount(acct, claims); cause != nil {
		observability.AccountLookupsTotal.WithLabelValues("rejected").Inc()
		debug.Log("auth", "live account check rejected token", "reason", cause.Error())
		return AccessContext{}, NewError(InvalidToken, cause)
	}

	observability.AccountLookupsTotal.WithLabelValues("ok").Inc()
	return ac, nil
}

// checkAccount returns the reason a live account invalidates the claims,
// or nil when the claims still hold.
func (r *Resolver) checkAccount(acct *Account, claims Claims) error {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	if acct.LockedAt(now()) {
		return ErrAccountLocked
	}
	if acct.Status != StatusActive {
		return ErrAccountInactive
	}
	if acct.Role != claims.Role || !sameTenant(acct.TenantID, claims.TenantID) {
		return ErrStaleClaims
	}
	return nil
}

func sameTenant(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
