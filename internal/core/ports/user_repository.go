package ports

import (
	"context"
	"time"

	"github.com/gatehouse/identity-system/internal/core/domain"
)

// UserRepository defines durable storage for user accounts.
//
// Email and phone uniqueness are enforced by the storage layer (unique
// indexes), not only by prior existence checks; a racing duplicate insert
// returns domain.ErrDuplicateEmail or domain.ErrDuplicatePhone.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail looks up by normalized (lowercase) email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// EmailInUse and PhoneInUse report whether another user (excluding
	// excludeID, which may be empty) already holds the value.
	EmailInUse(ctx context.Context, email, excludeID string) (bool, error)
	PhoneInUse(ctx context.Context, phone, excludeID string) (bool, error)
	CountByRole(ctx context.Context, roleID string) (int64, error)
	List(ctx context.Context) ([]*domain.User, error)
	// SetLastLogin stamps the account's last successful login time without
	// touching updated_at.
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}
