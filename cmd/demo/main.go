// Command demo walks through the citygate authorization core without a
// server: role classification, tenant scoping, policy decisions and the
// error envelope a client receives.
package main

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"

	"github.com/rhuss/citygate/pkg/auth"
	"github.com/rhuss/citygate/pkg/config"
)

func main() {
	fmt.Println("=== citygate authorization demo ===")
	fmt.Println()

	// 1. Roles
	fmt.Println("[1] Roles:")
	for _, r := range auth.AllRoles() {
		fmt.Printf("    %-10s global=%v\n", r, r.IsGlobal())
	}
	if _, err := auth.ParseRole("superuser"); err != nil {
		fmt.Printf("    superuser  rejected: %v\n", err)
	}

	callers := []auth.AccessContext{
		auth.NewAccessContext("op-1", "ops@example.com", auth.RoleMasterBR, nil),
		auth.NewAccessContext("user-1", "ana@example.com", auth.RoleRegional, strPtr("city-42")),
		auth.NewAccessContext("f-1", "franchise@example.com", auth.RoleFranchise, strPtr("city-42")),
	}

	// 2. Tenant scope
	fmt.Println("\n[2] Visibility of records by tenant:")
	records := []*string{strPtr("city-42"), strPtr("city-7"), nil}
	for _, ac := range callers {
		scope := auth.Scope(ac, nil)
		fmt.Printf("    %-10s", ac.Role())
		for _, tenant := range records {
			fmt.Printf(" %s=%-5v", label(tenant), scope.Allows(tenant))
		}
		fmt.Println()
	}

	// 3. Policy decisions with the built-in policies
	fmt.Println("\n[3] Default policy decisions:")
	policies := config.DefaultPolicies()
	for _, op := range config.RequiredPolicies {
		for _, ac := range callers {
			fmt.Printf("    %-12s %-10s %s\n", op, ac.Role(), describe(auth.Authorize(ac, policies[op])))
		}
	}

	// 4. Ownership on writes
	fmt.Println("\n[4] Ownership check on delete:")
	for _, ac := range callers {
		for _, tenant := range records {
			fmt.Printf("    %-10s -> %-8s %s\n", ac.Role(), label(tenant), describe(auth.CheckWrite(ac, tenant)))
		}
	}

	// 5. What the client sees
	fmt.Println("\n[5] Error envelopes:")
	for _, err := range []error{auth.ErrExpiredToken, auth.ErrTenantMismatch} {
		rec := httptest.NewRecorder()
		auth.WriteError(rec, err)
		var body any
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		data, _ := json.MarshalIndent(body, "    ", "  ")
		fmt.Printf("    HTTP %d", rec.Code)
		if challenge := rec.Header().Get("WWW-Authenticate"); challenge != "" {
			fmt.Printf("  WWW-Authenticate: %s", challenge)
		}
		fmt.Printf("\n    %s\n", data)
	}

	fmt.Println("\n=== demo complete ===")
}

func describe(d auth.Decision) string {
	if d.Allowed() {
		return "allow"
	}
	return "deny (" + d.Err().Error() + ")"
}

func label(tenant *string) string {
	if tenant == nil {
		return "global"
	}
	return *tenant
}

func strPtr(s string) *string { return &s }
