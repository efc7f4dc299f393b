package permission

import (
	"reflect"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"ROLE_ADMIN": RoleAdmin,
		"role_host":  RoleHost,
		" user ":     RoleUser,
	}
	for in, want := range cases {
		got, ok := ParseRole(in)
		if !ok || got != want {
			t.Fatalf("ParseRole(%q) = %v, %v", in, got, ok)
		}
	}
	for _, bad := range []string{"", "ROLE_", "ROLE_ROOT", "superuser"} {
		if _, ok := ParseRole(bad); ok {
			t.Fatalf("ParseRole(%q) should fail", bad)
		}
	}
}

func TestParseAuthoritiesDropsUnknownNames(t *testing.T) {
	a := ParseAuthorities([]string{"ROLE_USER", "ROLE_GHOST", "ROLE_ADMIN"})
	if !a.Has(RoleUser) || !a.Has(RoleAdmin) || a.Has(RoleHost) {
		t.Fatalf("unexpected set: %v", a.Names())
	}
	if got := a.Names(); !reflect.DeepEqual(got, []string{"ROLE_USER", "ROLE_ADMIN"}) {
		t.Fatalf("unexpected names: %v", got)
	}
	if !ParseAuthorities(nil).Empty() {
		t.Fatal("nil names must produce an empty set")
	}
}

func TestPredicates(t *testing.T) {
	host := NewAuthorities(RoleUser, RoleHost)

	if !HasRole(RoleHost)(host) || HasRole(RoleAdmin)(host) {
		t.Fatal("HasRole mismatch")
	}
	if !AnyOf(RoleAdmin, RoleHost)(host) || AnyOf(RoleAdmin)(host) {
		t.Fatal("AnyOf mismatch")
	}
	if !AllOf(RoleUser, RoleHost)(host) || AllOf(RoleUser, RoleAdmin)(host) {
		t.Fatal("AllOf mismatch")
	}
	if AllOf()(host) {
		t.Fatal("AllOf with no roles must not match")
	}
	if !Authenticated()(Authorities{}) {
		t.Fatal("Authenticated must accept empty set")
	}
}

func TestMask64Bounds(t *testing.T) {
	var m Mask64
	m.Set(-1)
	m.Set(64)
	if m != 0 {
		t.Fatalf("out-of-range bits must be ignored, got %b", m)
	}
	m.Set(3)
	if !m.Has(3) || m.Raw() != 8 {
		t.Fatalf("unexpected mask %b", m)
	}
	m.Clear(3)
	if m.Has(3) {
		t.Fatal("clear failed")
	}
}
