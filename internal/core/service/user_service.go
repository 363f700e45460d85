package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog"

	"github.com/gatehouse/identity-system/internal/core/domain"
	"github.com/gatehouse/identity-system/internal/core/ports"
)

// dummyPasswordHash is compared against when the email is unknown, so a
// failed lookup costs the same as a wrong password and response timing does
// not reveal whether an account exists.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserService implements the user directory: registration with full input
// validation, credential verification, and administrative account management.
type UserService struct {
	users         ports.UserRepository
	roles         ports.RoleService
	policy        *PasswordPolicy
	defaultRegion string
	logger        zerolog.Logger
}

// NewUserService builds a UserService. defaultRegion is the ISO 3166-1
// region used to parse national phone numbers when the caller supplies none.
func NewUserService(users ports.UserRepository, roles ports.RoleService, policy *PasswordPolicy, defaultRegion string, logger zerolog.Logger) *UserService {
	if defaultRegion == "" {
		defaultRegion = "BJ"
	}
	return &UserService{
		users:         users,
		roles:         roles,
		policy:        policy,
		defaultRegion: defaultRegion,
		logger:        logger,
	}
}

// Register creates a user account. All field problems are collected into one
// *domain.ValidationError so callers can render every error at once. The
// role defaults to the catalog's default role when input.RoleName is empty.
func (s *UserService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	ve := domain.NewValidationError()

	email := domain.NormalizeEmail(input.Email)
	switch {
	case !domain.ValidEmail(email):
		ve.Add("email", "invalid email address")
	case domain.IsDisposableEmail(email):
		ve.Add("email", "disposable email addresses are not allowed")
	}

	fullName, ok := domain.ValidateFullName(input.FullName)
	if !ok {
		ve.Add("full_name", `use "First Last", "First_Last" or "FirstLast" with at least two name parts`)
	}

	phone, err := s.normalizePhone(input.Phone, input.Region)
	if err != nil {
		ve.Add("phone", "invalid phone number")
	}

	if violations := s.policy.Validate(input.Password, PasswordContext{FullName: fullName, Email: email}); len(violations) > 0 {
		ve.Add("password", strings.Join(violations, "; "))
	}

	if ve.HasErrors() {
		return nil, ve
	}

	// Fast-path conflict checks for friendly errors; the unique indexes in
	// the repository close the remaining race window.
	if inUse, err := s.users.EmailInUse(ctx, email, ""); err != nil {
		return nil, err
	} else if inUse {
		return nil, domain.ErrDuplicateEmail
	}
	if inUse, err := s.users.PhoneInUse(ctx, phone, ""); err != nil {
		return nil, err
	} else if inUse {
		return nil, domain.ErrDuplicatePhone
	}

	role, err := s.resolveRole(ctx, input.RoleName)
	if err != nil {
		return nil, err
	}

	hash, err := s.policy.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		FullName:     fullName,
		Phone:        phone,
		PasswordHash: hash,
		RoleID:       role.ID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", created.Email).Str("role", role.Name).Msg("user registered")
	return created, nil
}

// VerifyCredentials authenticates email/password. Unknown email and wrong
// password both yield domain.ErrInvalidCredentials; only the log can tell
// the causes apart.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.policy.Verify(password, dummyPasswordHash)
			s.logger.Debug().Str("email", domain.NormalizeEmail(email)).Msg("login attempt for unknown email")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.policy.Verify(password, user.PasswordHash) {
		s.logger.Debug().Str("email", user.Email).Msg("login attempt with wrong password")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}
	return user, nil
}

// UpdateProfile edits a user's own name, email or phone. Empty input fields
// are left unchanged; uniqueness checks exclude the user itself.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input ports.UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ve := domain.NewValidationError()

	if input.FullName != "" {
		fullName, ok := domain.ValidateFullName(input.FullName)
		if !ok {
			ve.Add("full_name", `use "First Last", "First_Last" or "FirstLast" with at least two name parts`)
		} else {
			user.FullName = fullName
		}
	}

	if input.Email != "" {
		email := domain.NormalizeEmail(input.Email)
		if !domain.ValidEmail(email) {
			ve.Add("email", "invalid email address")
		} else if inUse, err := s.users.EmailInUse(ctx, email, userID); err != nil {
			return nil, err
		} else if inUse {
			return nil, domain.ErrDuplicateEmail
		} else {
			user.Email = email
		}
	}

	if input.Phone != "" {
		phone, err := s.normalizePhone(input.Phone, input.Region)
		if err != nil {
			ve.Add("phone", "invalid phone number")
		} else if inUse, err := s.users.PhoneInUse(ctx, phone, userID); err != nil {
			return nil, err
		} else if inUse {
			return nil, domain.ErrDuplicatePhone
		} else {
			user.Phone = phone
		}
	}

	if ve.HasErrors() {
		return nil, ve
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces a user's password after re-verifying the current
// one and running the new one through the full policy.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.policy.Verify(currentPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	if violations := s.policy.Validate(newPassword, PasswordContext{FullName: user.FullName, Email: user.Email}); len(violations) > 0 {
		ve := domain.NewValidationError()
		ve.Add("password", strings.Join(violations, "; "))
		return ve
	}

	hash, err := s.policy.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	return s.users.Update(ctx, user)
}

// SetRole reassigns a user's role.
func (s *UserService) SetRole(ctx context.Context, userID, roleID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	role, err := s.roles.Get(ctx, roleID)
	if err != nil {
		return err
	}
	user.RoleID = role.ID
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info().Str("email", user.Email).Str("role", role.Name).Msg("user role changed")
	return nil
}

// SetActive enables or disables an account. Disabled accounts fail login
// with AccountInactive and existing sessions stop resolving.
func (s *UserService) SetActive(ctx context.Context, userID string, active bool) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	user.IsActive = active
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info().Str("email", user.Email).Bool("active", active).Msg("user active status changed")
	return nil
}

// SetAvatar stores an opaque reference to the user's avatar blob. An empty
// ref clears it. Validation of the blob itself happens before this call.
func (s *UserService) SetAvatar(ctx context.Context, userID, ref string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	user.AvatarRef = ref
	user.UpdatedAt = time.Now().UTC()
	return s.users.Update(ctx, user)
}

// Delete removes a user account, protecting the actor's own account and the
// last remaining superuser-role holder.
func (s *UserService) Delete(ctx context.Context, actingUserID, userID string) error {
	if actingUserID != "" && actingUserID == userID {
		return domain.ErrCannotDeleteSelf
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.RoleID != "" {
		role, err := s.roles.Get(ctx, user.RoleID)
		if err != nil && !errors.Is(err, domain.ErrRoleNotFound) {
			return err
		}
		if err == nil && role.Name == domain.RoleSuperuser {
			count, err := s.users.CountByRole(ctx, role.ID)
			if err != nil {
				return err
			}
			if count <= 1 {
				return domain.ErrCannotDeleteLastSuperuser
			}
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Str("email", user.Email).Msg("user deleted")
	return nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

// Stats aggregates directory counts for the admin dashboard.
func (s *UserService) Stats(ctx context.Context) (*ports.DirectoryStats, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}

	roleNames := make(map[string]string, len(roles))
	for _, r := range roles {
		roleNames[r.ID] = r.Name
	}

	stats := &ports.DirectoryStats{UsersPerRole: make(map[string]int64, len(roles))}
	for _, name := range roleNames {
		stats.UsersPerRole[name] = 0
	}
	for _, u := range users {
		stats.TotalUsers++
		if u.IsActive {
			stats.ActiveUsers++
		} else {
			stats.InactiveUsers++
		}
		if name, ok := roleNames[u.RoleID]; ok {
			stats.UsersPerRole[name]++
		}
	}
	return stats, nil
}

func (s *UserService) resolveRole(ctx context.Context, roleName string) (*domain.Role, error) {
	if roleName == "" {
		return s.roles.DefaultRole(ctx)
	}
	return s.roles.GetByName(ctx, roleName)
}

func (s *UserService) normalizePhone(raw, region string) (string, error) {
	if region == "" {
		region = s.defaultRegion
	}
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), strings.ToUpper(region))
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("phone number is not valid for region %s", region)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
