package auth

import "context"

// AccessContext is the immutable per-request identity derived from verified
// claims. All fields are unexported; copies are safe to share.
type AccessContext struct {
	subject   string
	email     string
	role      Role
	tenantID  string
	hasTenant bool
}

// NewAccessContext builds a context from its parts. tenantID may be nil.
func NewAccessContext(subject, email string, role Role, tenantID *string) AccessContext {
	ac := AccessContext{subject: subject, email: email, role: role}
	if tenantID != nil {
		ac.tenantID = *tenantID
		ac.hasTenant = true
	}
	return ac
}

// Subject returns the identity id.
func (a AccessContext) Subject() string { return a.subject }

// Email returns the email captured at token issuance.
func (a AccessContext) Email() string { return a.email }

// Role returns the caller's role.
func (a AccessContext) Role() Role { return a.role }

// TenantID returns the assigned tenant, if any.
func (a AccessContext) TenantID() (string, bool) { return a.tenantID, a.hasTenant }

// TenantPtr returns the assigned tenant as a nullable value.
func (a AccessContext) TenantPtr() *string {
	if !a.hasTenant {
		return nil
	}
	t := a.tenantID
	return &t
}

// IsGlobalRole reports whether the caller has unrestricted tenant visibility.
func (a AccessContext) IsGlobalRole() bool { return a.role.IsGlobal() }

// BelongsToTenant reports whether the caller may act within tenant id.
// Global roles belong to every tenant; a tenant-scoped caller belongs only
// to its assigned tenant.
func (a AccessContext) BelongsToTenant(id string) bool {
	if a.IsGlobalRole() {
		return true
	}
	return a.hasTenant && a.tenantID == id
}

// Optional is either Some(AccessContext) or None. It is the result of the
// optional gate and of reading the context back from a request.
type Optional struct {
	ac AccessContext
	ok bool
}

// Some wraps a present context.
func Some(ac AccessContext) Optional { return Optional{ac: ac, ok: true} }

// None is the absent context.
func None() Optional { return Optional{} }

// Get returns the context and whether it is present.
func (o Optional) Get() (AccessContext, bool) { return o.ac, o.ok }

// IsSome reports whether a context is present.
func (o Optional) IsSome() bool { return o.ok }

// OrElse returns the context if present, otherwise fallback.
func (o Optional) OrElse(fallback AccessContext) AccessContext {
	if o.ok {
		return o.ac
	}
	return fallback
}

// accessKey is a private type for the access context key.
type accessKey struct{}

// WithAccess attaches an access context to ctx.
func WithAccess(ctx context.Context, ac AccessContext) context.Context {
	return context.WithValue(ctx, accessKey{}, ac)
}

// AccessFromContext reads the access context attached by the gate.
func AccessFromContext(ctx context.Context) Optional {
	if ac, ok := ctx.Value(accessKey{}).(AccessContext); ok {
		return Some(ac)
	}
	return None()
}
