package domain

import (
	"regexp"
	"strings"
	"time"
)

// Names of the two system roles. System roles are created lazily, can never
// be deleted, and their names can never change. "superuser" implies every
// capability; "user" is the factory default role.
const (
	RoleUser      = "user"
	RoleSuperuser = "superuser"
)

// Role is an administrable set of capabilities. Exactly one role carries
// IsDefault at any time; that role is assigned to new users registered
// without an explicit role.
type Role struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	IsDefault   bool            `json:"is_default"`
	Permissions map[string]bool `json:"permissions"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

var roleNamePattern = regexp.MustCompile(`^[a-z0-9_]{2,50}$`)

// IsSystemRoleName reports whether name belongs to a protected system role.
func IsSystemRoleName(name string) bool {
	return name == RoleUser || name == RoleSuperuser
}

// IsSystem reports whether the role is a protected system role.
func (r *Role) IsSystem() bool {
	return IsSystemRoleName(r.Name)
}

// NormalizeRoleName lowercases, trims and underscores a raw role name the
// same way roles are stored, so lookups and validation agree.
func NormalizeRoleName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// ValidRoleName reports whether a normalized name is acceptable for a role:
// lowercase letters, digits and underscores, 2-50 characters.
func ValidRoleName(name string) bool {
	return roleNamePattern.MatchString(name)
}

// Allows reports whether the role grants a dot-separated capability.
//
// The superuser role allows everything. For any other role the capability is
// matched by longest-prefix containment: "users.manage" is allowed when the
// permission set grants "users.manage" or "users". A grant with value false
// is treated the same as an absent grant.
func (r *Role) Allows(capability string) bool {
	if r.Name == RoleSuperuser {
		return true
	}
	if capability == "" || len(r.Permissions) == 0 {
		return false
	}
	parts := strings.Split(capability, ".")
	for i := len(parts); i > 0; i-- {
		if r.Permissions[strings.Join(parts[:i], ".")] {
			return true
		}
	}
	return false
}
