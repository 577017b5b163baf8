package auth

import (
	"errors"
	"fmt"
)

// Role is the closed set of account roles. The zero value is not a valid role.
type Role uint8

const (
	roleUnknown Role = iota

	// RoleMasterBR is the top-level operator. Global.
	RoleMasterBR

	// RoleAdmin is an ordinary administrator. Global.
	RoleAdmin

	// RoleRegional is a regional manager bound to one city. Tenant-scoped.
	RoleRegional

	// RoleFranchise is a franchise operator bound to one city. Tenant-scoped.
	RoleFranchise
)

// ErrUnknownRole is returned when a role name is not part of the enumeration.
var ErrUnknownRole = errors.New("unknown role")

type roleInfo struct {
	name   string
	global bool
}

var roles = [...]roleInfo{
	roleUnknown:   {name: ""},
	RoleMasterBR:  {name: "master_br", global: true},
	RoleAdmin:     {name: "admin", global: true},
	RoleRegional:  {name: "regional"},
	RoleFranchise: {name: "franchise"},
}

// AllRoles lists every valid role in declaration order.
func AllRoles() []Role {
	return []Role{RoleMasterBR, RoleAdmin, RoleRegional, RoleFranchise}
}

// ParseRole returns the role with the given wire name.
func ParseRole(name string) (Role, error) {
	for r := RoleMasterBR; int(r) < len(roles); r++ {
		if roles[r].name == name {
			return r, nil
		}
	}
	return roleUnknown, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// Valid reports whether r is a member of the enumeration.
func (r Role) Valid() bool {
	return r != roleUnknown && int(r) < len(roles)
}

// IsGlobal reports whether the role has unrestricted tenant visibility.
func (r Role) IsGlobal() bool {
	return r.Valid() && roles[r].global
}

// String returns the wire name of the role.
func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
	return roles[r].name
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}
	return []byte(roles[r].name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so roles decode from
// JSON and YAML by name.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
