package ports

import (
	"context"

	"github.com/gatehouse/identity-system/internal/core/domain"
)

// RoleService is the role catalog: it owns the default-role and system-role
// invariants on top of RoleRepository.
type RoleService interface {
	Create(ctx context.Context, name, displayName string) (*domain.Role, error)
	// Update edits the display name and permission set. System role names
	// are immutable and the "user" role always keeps its default flag.
	Update(ctx context.Context, id, displayName string, permissions map[string]bool) (*domain.Role, error)
	// SetDefault makes the role the single default. Fails with
	// domain.ErrCannotDefaultSuperuser for the superuser role.
	SetDefault(ctx context.Context, id string) error
	// Delete fails with domain.ErrSystemRoleProtected for system roles and
	// with *domain.RoleInUseError while any user references the role.
	Delete(ctx context.Context, id string) error
	// DefaultRole resolves the current default role, self-healing corrupt
	// state: no flagged default falls back to the role named "user", and a
	// missing "user" role is recreated with the flag set.
	DefaultRole(ctx context.Context) (*domain.Role, error)
	// EnsureSystemRoles lazily creates the "user" and "superuser" roles.
	EnsureSystemRoles(ctx context.Context) error
	Get(ctx context.Context, id string) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	SystemRoles(ctx context.Context) ([]*domain.Role, error)
	CustomRoles(ctx context.Context) ([]*domain.Role, error)
}
