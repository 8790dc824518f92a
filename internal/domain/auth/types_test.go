package auth

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{" Employee ", RoleEmployee, true},
		{"manager", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRole(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSession_Authenticated(t *testing.T) {
	id := 3
	if !(Session{Token: "t", User: UserProfile{Role: RoleEmployee, EmployeeID: &id}}).Authenticated() {
		t.Fatalf("expected authenticated session")
	}
	if (Session{Token: "t", User: UserProfile{Role: "manager"}}).Authenticated() {
		t.Fatalf("unknown role must not authenticate")
	}
	if (Session{Token: "t", User: UserProfile{Role: "Admin"}}).Authenticated() {
		t.Fatalf("stored roles must match exactly")
	}
	if (Session{User: UserProfile{Role: RoleAdmin}}).Authenticated() {
		t.Fatalf("missing token must not authenticate")
	}
	if !(Session{}).Empty() {
		t.Fatalf("zero session should be empty")
	}
}

func TestUserProfile_HasEmployee(t *testing.T) {
	zero, five := 0, 5
	cases := map[string]struct {
		p    UserProfile
		want bool
	}{
		"none":  {UserProfile{}, false},
		"zero":  {UserProfile{EmployeeID: &zero}, false},
		"valid": {UserProfile{EmployeeID: &five}, true},
	}
	for name, c := range cases {
		if got := c.p.HasEmployee(); got != c.want {
			t.Errorf("%s: HasEmployee() = %v, want %v", name, got, c.want)
		}
	}
}

func TestUserProfile_Same(t *testing.T) {
	a, b, c := 4, 4, 9
	base := UserProfile{Username: "eve", Role: RoleEmployee, EmployeeID: &a}
	cases := map[string]struct {
		o    UserProfile
		want bool
	}{
		"equal value":    {UserProfile{Username: "eve", Role: RoleEmployee, EmployeeID: &b}, true},
		"other employee": {UserProfile{Username: "eve", Role: RoleEmployee, EmployeeID: &c}, false},
		"role changed":   {UserProfile{Username: "eve", Role: RoleAdmin, EmployeeID: &b}, false},
		"link dropped":   {UserProfile{Username: "eve", Role: RoleEmployee}, false},
	}
	for name, tc := range cases {
		if got := base.Same(tc.o); got != tc.want {
			t.Errorf("%s: Same() = %v, want %v", name, got, tc.want)
		}
	}
}
