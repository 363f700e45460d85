package ports

import (
	"context"

	"github.com/gatehouse/identity-system/internal/core/domain"
)

// RoleRepository defines durable storage for the role catalog.
//
// Implementations must enforce name uniqueness at the storage layer (a
// duplicate insert returns domain.ErrDuplicateRole even when two writers
// race past a prior existence check) and must make SetDefault a single
// atomic transition so there is never a window with zero or two defaults.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) (*domain.Role, error)
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	// FindDefault returns the role flagged as default, or
	// domain.ErrRoleNotFound when no role carries the flag.
	FindDefault(ctx context.Context) (*domain.Role, error)
	// SetDefault atomically clears the default flag on every other role and
	// sets it on the given role.
	SetDefault(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.Role, error)
}
