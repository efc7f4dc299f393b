package permission

import "strings"

// Role is one member role. The zero value is not a valid role.
type Role uint8

const (
	roleInvalid Role = iota
	// RoleUser is any registered member.
	RoleUser
	// RoleHost lists rental items and manages reservations on them.
	RoleHost
	// RoleAdmin operates the service.
	RoleAdmin
	roleCount
)

const rolePrefix = "ROLE_"

var roleNames = [roleCount]string{
	roleInvalid: "",
	RoleUser:    "ROLE_USER",
	RoleHost:    "ROLE_HOST",
	RoleAdmin:   "ROLE_ADMIN",
}

// String returns the authority name carried inside tokens.
func (r Role) String() string {
	if !r.Valid() {
		return ""
	}
	return roleNames[r]
}

// Valid reports whether r is a declared role.
func (r Role) Valid() bool {
	return r > roleInvalid && r < roleCount
}

// ParseRole accepts "ROLE_ADMIN" or "admin" in any case.
func ParseRole(name string) (Role, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return roleInvalid, false
	}
	if !strings.HasPrefix(name, rolePrefix) {
		name = rolePrefix + name
	}
	for r := RoleUser; r < roleCount; r++ {
		if roleNames[r] == name {
			return r, true
		}
	}
	return roleInvalid, false
}

// Roles returns every declared role in declaration order.
func Roles() []Role {
	out := make([]Role, 0, roleCount-1)
	for r := RoleUser; r < roleCount; r++ {
		out = append(out, r)
	}
	return out
}

// Names converts roles to the token representation.
func Names(roles ...Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r.Valid() {
			out = append(out, r.String())
		}
	}
	return out
}
