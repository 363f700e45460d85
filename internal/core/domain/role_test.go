package domain

import "testing"

func TestNormalizeRoleName(t *testing.T) {
	if got := NormalizeRoleName("  Content Editor "); got != "content_editor" {
		t.Fatalf("NormalizeRoleName = %q", got)
	}
}

func TestValidRoleName(t *testing.T) {
	valid := []string{"editor", "content_editor", "ab", "tier_2_support"}
	invalid := []string{"", "a", "Editor", "content editor", "role-name", "édition"}

	for _, n := range valid {
		if !ValidRoleName(n) {
			t.Errorf("ValidRoleName(%q) = false, want true", n)
		}
	}
	for _, n := range invalid {
		if ValidRoleName(n) {
			t.Errorf("ValidRoleName(%q) = true, want false", n)
		}
	}
}

func TestRoleAllows_SuperuserAllowsEverything(t *testing.T) {
	r := &Role{Name: RoleSuperuser}
	for _, cap := range []string{"users.manage", "anything.at.all", "x"} {
		if !r.Allows(cap) {
			t.Errorf("superuser should allow %q", cap)
		}
	}
}

func TestRoleAllows_PrefixContainment(t *testing.T) {
	r := &Role{
		Name: "editor",
		Permissions: map[string]bool{
			"content":      true,
			"users.view":   true,
			"users.manage": false,
		},
	}

	tests := []struct {
		cap  string
		want bool
	}{
		{"content", true},
		{"content.articles", true},
		{"content.articles.publish", true},
		{"users.view", true},
		{"users.view.detail", true},
		{"users.manage", false}, // explicit false is the same as absent
		{"users", false},
		{"billing", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := r.Allows(tt.cap); got != tt.want {
			t.Errorf("Allows(%q) = %v, want %v", tt.cap, got, tt.want)
		}
	}
}

func TestRoleAllows_EmptyPermissions(t *testing.T) {
	r := &Role{Name: "empty", Permissions: map[string]bool{}}
	if r.Allows("anything") {
		t.Error("role with no permissions should allow nothing")
	}
}

func TestIsSystemRoleName(t *testing.T) {
	if !IsSystemRoleName(RoleUser) || !IsSystemRoleName(RoleSuperuser) {
		t.Error("user and superuser are system roles")
	}
	if IsSystemRoleName("editor") {
		t.Error("editor is not a system role")
	}
}
