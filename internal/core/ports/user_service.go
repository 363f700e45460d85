package ports

import (
	"context"

	"github.com/gatehouse/identity-system/internal/core/domain"
)

// RegisterInput carries all data needed to create a user account.
type RegisterInput struct {
	Email    string
	FullName string
	Phone    string
	// Region is the ISO 3166-1 two-letter region used to parse national
	// phone numbers. Empty means the directory's default region.
	Region   string
	Password string
	// RoleName explicitly assigns a role (administrative creation and the
	// bootstrap CLI). Empty means the catalog's default role.
	RoleName string
}

// UpdateProfileInput carries profile edits. Empty fields are left unchanged.
type UpdateProfileInput struct {
	Email    string
	FullName string
	Phone    string
	Region   string
}

// DirectoryStats summarizes the directory for the admin dashboard.
type DirectoryStats struct {
	TotalUsers    int64            `json:"total_users"`
	ActiveUsers   int64            `json:"active_users"`
	InactiveUsers int64            `json:"inactive_users"`
	UsersPerRole  map[string]int64 `json:"users_per_role"`
}

// UserService is the user directory: registration, credential verification
// and administrative account management.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	// VerifyCredentials returns the same domain.ErrInvalidCredentials for an
	// unknown email and a wrong password, and domain.ErrAccountInactive for
	// disabled accounts.
	VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	SetRole(ctx context.Context, userID, roleID string) error
	SetActive(ctx context.Context, userID string, active bool) error
	// SetAvatar stores an opaque reference to an already-validated avatar
	// blob; size caps and extension checks live in the upload layer.
	SetAvatar(ctx context.Context, userID, ref string) error
	// Delete removes a user. Fails with domain.ErrCannotDeleteSelf when
	// actingUserID == userID and with domain.ErrCannotDeleteLastSuperuser
	// when the target is the last superuser-role holder.
	Delete(ctx context.Context, actingUserID, userID string) error
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Stats(ctx context.Context) (*DirectoryStats, error)
}
