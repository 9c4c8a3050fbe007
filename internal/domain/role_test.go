package domain

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"", DefaultRole, true},
		{"Admin", RoleAdmin, true},
		{"admin", RoleAdmin, true},
		{" hr ", RoleHR, true},
		{"TECHNICIAN", RoleTechnician, true},
		{"Wizard", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseRole(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestAuthorize_FailsClosed(t *testing.T) {
	admin := &User{ID: "u1", Role: RoleAdmin, IsActive: true}
	inactive := &User{ID: "u2", Role: RoleAdmin, IsActive: false}

	if Authorize(nil, RoleAdmin) {
		t.Fatalf("nil user must be denied")
	}
	if Authorize(inactive, RoleAdmin) {
		t.Fatalf("inactive user must be denied")
	}
	// Conjunto vacio deniega siempre, incluso a un admin.
	if Authorize(admin) {
		t.Fatalf("empty required set must deny everyone")
	}
}

func TestAuthorize_Membership(t *testing.T) {
	manager := &User{ID: "u1", Role: RoleManager, IsActive: true}

	if !Authorize(manager, RoleAdmin, RoleManager) {
		t.Fatalf("manager should be allowed")
	}
	if Authorize(manager, RoleAdmin, RoleHR) {
		t.Fatalf("manager should be denied outside the set")
	}
}
