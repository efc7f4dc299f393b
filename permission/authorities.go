package permission

// Authorities is the immutable set of roles granted to one request.
type Authorities struct {
	mask Mask64
}

// NewAuthorities builds a set from roles; invalid roles are ignored.
func NewAuthorities(roles ...Role) Authorities {
	var a Authorities
	for _, r := range roles {
		if r.Valid() {
			a.mask.Set(int(r))
		}
	}
	return a
}

// ParseAuthorities maps token role names onto a set, dropping unknown names.
func ParseAuthorities(names []string) Authorities {
	var a Authorities
	for _, n := range names {
		if r, ok := ParseRole(n); ok {
			a.mask.Set(int(r))
		}
	}
	return a
}

// Has reports whether r is granted.
func (a Authorities) Has(r Role) bool {
	return r.Valid() && a.mask.Has(int(r))
}

// Empty reports whether no role is granted.
func (a Authorities) Empty() bool {
	return a.mask == 0
}

// Roles lists the granted roles in declaration order.
func (a Authorities) Roles() []Role {
	out := make([]Role, 0, 4)
	for _, r := range Roles() {
		if a.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Names lists the granted roles in token form.
func (a Authorities) Names() []string {
	return Names(a.Roles()...)
}

// Mask exposes the raw bit set.
func (a Authorities) Mask() Mask64 {
	return a.mask
}

// Predicate decides whether an authority set satisfies a route requirement.
type Predicate func(Authorities) bool

// HasRole requires r.
func HasRole(r Role) Predicate {
	return func(a Authorities) bool {
		return a.Has(r)
	}
}

// AnyOf requires at least one of roles.
func AnyOf(roles ...Role) Predicate {
	want := NewAuthorities(roles...).mask
	return func(a Authorities) bool {
		return a.mask&want != 0
	}
}

// AllOf requires every one of roles.
func AllOf(roles ...Role) Predicate {
	want := NewAuthorities(roles...).mask
	return func(a Authorities) bool {
		return want != 0 && a.mask&want == want
	}
}

// Authenticated accepts any set, including an empty one; it is used for
// routes that only require a principal.
func Authenticated() Predicate {
	return func(Authorities) bool { return true }
}
