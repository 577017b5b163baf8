package auth

import (
	"context"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestAccessContext_FromClaimsParts(t *testing.T) {
	ac := NewAccessContext("user-1", "ana@example.com", RoleRegional, strPtr("city-42"))

	if ac.Subject() != "user-1" {
		t.Errorf("Subject = %q", ac.Subject())
	}
	if ac.Role() != RoleRegional {
		t.Errorf("Role = %v", ac.Role())
	}
	tenant, ok := ac.TenantID()
	if !ok || tenant != "city-42" {
		t.Errorf("TenantID = %q, %v; want city-42, true", tenant, ok)
	}
	if ac.IsGlobalRole() {
		t.Error("regional should not be global")
	}
}

func TestAccessContext_CopiesTenant(t *testing.T) {
	tenant := "city-1"
	ac := NewAccessContext("u", "", RoleFranchise, &tenant)
	tenant = "city-2"

	if got, _ := ac.TenantID(); got != "city-1" {
		t.Errorf("TenantID = %q after caller mutation, want city-1", got)
	}

	p := ac.TenantPtr()
	*p = "city-3"
	if got, _ := ac.TenantID(); got != "city-1" {
		t.Errorf("TenantID = %q after TenantPtr mutation, want city-1", got)
	}
}

func TestAccessContext_BelongsToTenant(t *testing.T) {
	tests := []struct {
		name   string
		ac     AccessContext
		tenant string
		want   bool
	}{
		{"scoped own tenant", NewAccessContext("u", "", RoleRegional, strPtr("city-42")), "city-42", true},
		{"scoped other tenant", NewAccessContext("u", "", RoleRegional, strPtr("city-42")), "city-7", false},
		{"scoped no tenant", NewAccessContext("u", "", RoleFranchise, nil), "city-42", false},
		{"scoped no tenant empty id", NewAccessContext("u", "", RoleFranchise, nil), "", false},
		{"global no tenant", NewAccessContext("u", "", RoleMasterBR, nil), "city-42", true},
		{"admin any tenant", NewAccessContext("u", "", RoleAdmin, strPtr("city-1")), "city-9", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ac.BelongsToTenant(tt.tenant); got != tt.want {
				t.Errorf("BelongsToTenant(%q) = %v, want %v", tt.tenant, got, tt.want)
			}
		})
	}
}

func TestOptional(t *testing.T) {
	none := None()
	if none.IsSome() {
		t.Error("None().IsSome() = true")
	}
	if _, ok := none.Get(); ok {
		t.Error("None().Get() ok = true")
	}

	ac := NewAccessContext("u", "", RoleAdmin, nil)
	some := Some(ac)
	got, ok := some.Get()
	if !ok || got.Subject() != "u" {
		t.Errorf("Some().Get() = %v, %v", got, ok)
	}

	fallback := NewAccessContext("anon", "", RoleFranchise, nil)
	if none.OrElse(fallback).Subject() != "anon" {
		t.Error("None().OrElse should return fallback")
	}
	if some.OrElse(fallback).Subject() != "u" {
		t.Error("Some().OrElse should return the context")
	}
}

func TestWithAccess_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if AccessFromContext(ctx).IsSome() {
		t.Fatal("empty context should yield None")
	}

	ac := NewAccessContext("user-1", "", RoleRegional, strPtr("city-42"))
	ctx = WithAccess(ctx, ac)

	got, ok := AccessFromContext(ctx).Get()
	if !ok {
		t.Fatal("expected access context")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
}

func TestAccessFromContext_NoCollision(t *testing.T) {
	ctx := context.WithValue(context.Background(), "access", NewAccessContext("u", "", RoleAdmin, nil))
	if AccessFromContext(ctx).IsSome() {
		t.Error("string key should not match the private key type")
	}
}
