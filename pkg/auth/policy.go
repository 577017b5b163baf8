package auth

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/rhuss/citygate/pkg/observability"
)

// Policy is the declarative authorization rule attached to an operation.
type Policy struct {
	// Roles is the allow-list. Empty means any authenticated role.
	Roles []Role `yaml:"roles" json:"roles"`

	// TenantField marks the operation's resource as tenant-owned. It is an
	// on/off switch spelled as the ownership field: the only accepted value
	// is TenantIDField, and empty means the resource is not tenant-owned.
	TenantField string `yaml:"tenant_field" json:"tenant_field"`
}

// TenantIDField is the ownership field every tenant-owned record carries.
const TenantIDField = "tenant_id"

// TenantOwned reports whether the policy applies tenant scoping.
func (p Policy) TenantOwned() bool { return p.TenantField != "" }

// Decision is the outcome of an authorization check: Allow, or Deny with a
// typed reason.
type Decision struct {
	reason *Error
}

// Allow is the permitting decision.
func Allow() Decision { return Decision{} }

// Deny returns a denying decision with the given reason.
func Deny(reason *Error) Decision { return Decision{reason: reason} }

// Allowed reports whether the decision permits the operation.
func (d Decision) Allowed() bool { return d.reason == nil }

// Err returns the denial reason, or nil when allowed.
func (d Decision) Err() error {
	if d.reason == nil {
		return nil
	}
	return d.reason
}

// Authorize checks the caller's role against the policy allow-list.
func Authorize(ac AccessContext, p Policy) Decision {
	if len(p.Roles) == 0 || slices.Contains(p.Roles, ac.Role()) {
		return Allow()
	}
	return Deny(ErrRoleNotPermitted)
}

// CheckWrite is the ownership check for create, update and delete on a
// tenant-owned record. Global roles may write anywhere. A tenant-scoped
// caller may only write records of its own tenant; global (nil-tenant)
// records are read-only to it.
func CheckWrite(ac AccessContext, resourceTenant *string) Decision {
	if ac.IsGlobalRole() {
		return Allow()
	}
	if resourceTenant != nil && ac.BelongsToTenant(*resourceTenant) {
		return Allow()
	}
	return Deny(ErrTenantMismatch)
}

// TenantScope is the set of tenants a list or read may return.
type TenantScope struct {
	unrestricted  bool
	tenant        string
	hasTenant     bool
	includeGlobal bool
}

// Scope computes the visible tenant set for ac. filter is an explicit
// tenant requested by the caller; it narrows global roles and is ignored
// for tenant-scoped roles, which are always confined to their own tenant
// plus global records.
func Scope(ac AccessContext, filter *string) TenantScope {
	if ac.IsGlobalRole() {
		if filter == nil {
			return TenantScope{unrestricted: true}
		}
		return TenantScope{tenant: *filter, hasTenant: true}
	}

	tenant, ok := ac.TenantID()
	return TenantScope{tenant: tenant, hasTenant: ok, includeGlobal: true}
}

// Unrestricted reports whether every record is visible.
func (s TenantScope) Unrestricted() bool { return s.unrestricted }

// Tenant returns the single tenant the scope is confined to, if any.
func (s TenantScope) Tenant() (string, bool) { return s.tenant, s.hasTenant }

// IncludesGlobal reports whether nil-tenant records are visible.
func (s TenantScope) IncludesGlobal() bool { return s.unrestricted || s.includeGlobal }

// Allows reports whether a record with the given tenant is in scope.
func (s TenantScope) Allows(tenantID *string) bool {
	if s.unrestricted {
		return true
	}
	if tenantID == nil {
		return s.includeGlobal
	}
	return s.hasTenant && *tenantID == s.tenant
}

// RequirePolicy returns middleware that enforces the role step of p. It must
// run behind Gate.Require; a request without an access context is rejected
// as unauthenticated.
func RequirePolicy(p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := AccessFromContext(r.Context()).Get()
			if !ok {
				WriteError(w, ErrMissingCredentials)
				return
			}

			if d := Authorize(ac, p); !d.Allowed() {
				RecordDenial(r, d)
				WriteError(w, d.Err())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RecordDenial logs and counts an authorization denial.
func RecordDenial(r *http.Request, d Decision) {
	kind, _ := KindOf(d.Err())
	route := routeOf(r)
	observability.AuthzDenialsTotal.WithLabelValues(kind.Code(), route).Inc()
	slog.Warn("authorization denied",
		"kind", kind.Code(),
		"route", route,
	)
}
