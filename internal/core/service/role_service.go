package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatehouse/identity-system/internal/core/domain"
	"github.com/gatehouse/identity-system/internal/core/ports"
)

// RoleService implements the role catalog and its invariants: exactly one
// default role, protected system roles, and delete blocked while referenced.
type RoleService struct {
	roles  ports.RoleRepository
	users  ports.UserRepository
	logger zerolog.Logger
}

func NewRoleService(roles ports.RoleRepository, users ports.UserRepository, logger zerolog.Logger) *RoleService {
	return &RoleService{roles: roles, users: users, logger: logger}
}

// Create adds a custom role. System role names are reserved; those roles are
// only created through EnsureSystemRoles or DefaultRole self-healing.
func (s *RoleService) Create(ctx context.Context, name, displayName string) (*domain.Role, error) {
	name = domain.NormalizeRoleName(name)
	if !domain.ValidRoleName(name) {
		return nil, domain.ErrInvalidRoleName
	}
	if domain.IsSystemRoleName(name) {
		return nil, domain.ErrReservedRoleName
	}
	displayName = strings.TrimSpace(displayName)
	if len(displayName) < 2 || len(displayName) > 100 {
		return nil, domain.ErrInvalidDisplayName
	}

	now := time.Now().UTC()
	role := &domain.Role{
		Name:        name,
		DisplayName: displayName,
		Permissions: map[string]bool{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	created, err := s.roles.Create(ctx, role)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("role", created.Name).Msg("role created")
	return created, nil
}

// Update edits the display name and permission set. Role names are never
// editable here; for system roles that is an invariant, for custom roles a
// rename would silently break capability grants referencing the old name.
func (s *RoleService) Update(ctx context.Context, id, displayName string, permissions map[string]bool) (*domain.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if len(displayName) < 2 || len(displayName) > 100 {
		return nil, domain.ErrInvalidDisplayName
	}
	role.DisplayName = displayName
	if permissions != nil {
		role.Permissions = permissions
	}
	role.UpdatedAt = time.Now().UTC()

	if err := s.roles.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// SetDefault makes the role the single default. The repository performs the
// clear-then-set as one atomic transition.
func (s *RoleService) SetDefault(ctx context.Context, id string) error {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if role.Name == domain.RoleSuperuser {
		return domain.ErrCannotDefaultSuperuser
	}
	if err := s.roles.SetDefault(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("role", role.Name).Msg("default role changed")
	return nil
}

// Delete removes a custom role that no user references.
func (s *RoleService) Delete(ctx context.Context, id string) error {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem() {
		return domain.ErrSystemRoleProtected
	}
	count, err := s.users.CountByRole(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &domain.RoleInUseError{Count: count}
	}
	if err := s.roles.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("role", role.Name).Msg("role deleted")
	return nil
}

// DefaultRole resolves the current default role. Corrupt state (no flagged
// default) is self-healed: fall back to the role named "user", re-flagging
// it, and recreate it when even that is gone.
func (s *RoleService) DefaultRole(ctx context.Context) (*domain.Role, error) {
	role, err := s.roles.FindDefault(ctx)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, domain.ErrRoleNotFound) {
		return nil, err
	}

	s.logger.Warn().Msg("no role flagged as default, falling back to the user role")

	role, err = s.roles.FindByName(ctx, domain.RoleUser)
	if err == nil {
		if err := s.roles.SetDefault(ctx, role.ID); err != nil {
			s.logger.Error().Err(err).Msg("failed to re-flag the user role as default")
		} else {
			role.IsDefault = true
		}
		return role, nil
	}
	if !errors.Is(err, domain.ErrRoleNotFound) {
		return nil, err
	}

	s.logger.Warn().Msg("user role missing, recreating it as the default role")

	now := time.Now().UTC()
	role, err = s.roles.Create(ctx, &domain.Role{
		Name:        domain.RoleUser,
		DisplayName: "User",
		IsDefault:   true,
		Permissions: map[string]bool{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if errors.Is(err, domain.ErrDuplicateRole) {
		// lost the recreate race to another worker
		return s.roles.FindByName(ctx, domain.RoleUser)
	}
	return role, err
}

// EnsureSystemRoles lazily creates the "user" and "superuser" roles. The
// user role becomes the default only when no other role already is.
func (s *RoleService) EnsureSystemRoles(ctx context.Context) error {
	if _, err := s.roles.FindByName(ctx, domain.RoleUser); errors.Is(err, domain.ErrRoleNotFound) {
		makeDefault := false
		if _, derr := s.roles.FindDefault(ctx); errors.Is(derr, domain.ErrRoleNotFound) {
			makeDefault = true
		} else if derr != nil {
			return derr
		}
		if err := s.createSystemRole(ctx, domain.RoleUser, "User", makeDefault); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if _, err := s.roles.FindByName(ctx, domain.RoleSuperuser); errors.Is(err, domain.ErrRoleNotFound) {
		if err := s.createSystemRole(ctx, domain.RoleSuperuser, "Superuser", false); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	return nil
}

func (s *RoleService) createSystemRole(ctx context.Context, name, displayName string, isDefault bool) error {
	now := time.Now().UTC()
	_, err := s.roles.Create(ctx, &domain.Role{
		Name:        name,
		DisplayName: displayName,
		IsDefault:   isDefault,
		Permissions: map[string]bool{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if errors.Is(err, domain.ErrDuplicateRole) {
		// another worker won the lazy-create race
		return nil
	}
	if err == nil {
		s.logger.Info().Str("role", name).Msg("system role created")
	}
	return err
}

func (s *RoleService) Get(ctx context.Context, id string) (*domain.Role, error) {
	return s.roles.FindByID(ctx, id)
}

func (s *RoleService) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	return s.roles.FindByName(ctx, domain.NormalizeRoleName(name))
}

func (s *RoleService) List(ctx context.Context) ([]*domain.Role, error) {
	return s.roles.List(ctx)
}

// SystemRoles returns the protected roles, partitioned by name membership.
func (s *RoleService) SystemRoles(ctx context.Context) ([]*domain.Role, error) {
	return s.partition(ctx, true)
}

// CustomRoles returns every admin-created role.
func (s *RoleService) CustomRoles(ctx context.Context) ([]*domain.Role, error) {
	return s.partition(ctx, false)
}

func (s *RoleService) partition(ctx context.Context, system bool) ([]*domain.Role, error) {
	all, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Role, 0, len(all))
	for _, r := range all {
		if r.IsSystem() == system {
			out = append(out, r)
		}
	}
	return out, nil
}
