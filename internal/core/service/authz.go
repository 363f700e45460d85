package service

import (
	"github.com/gatehouse/identity-system/internal/core/domain"
)

// AuthorizationGate is the single decision point for access control. Every
// entry point composes SessionService.Resolve with one explicit gate call
// instead of stacking ad hoc guard wrappers.
type AuthorizationGate struct{}

func NewAuthorizationGate() *AuthorizationGate {
	return &AuthorizationGate{}
}

// RequireRole permits identities holding the named role. The superuser role
// satisfies every role requirement.
func (g *AuthorizationGate) RequireRole(identity *domain.Identity, roleName string) error {
	if identity == nil || identity.Role == nil {
		return domain.ErrForbidden
	}
	if identity.IsSuperuser() || identity.Role.Name == roleName {
		return nil
	}
	return domain.ErrForbidden
}

// RequireSuperuser permits only the superuser role.
func (g *AuthorizationGate) RequireSuperuser(identity *domain.Identity) error {
	if identity == nil || !identity.IsSuperuser() {
		return domain.ErrForbidden
	}
	return nil
}

// Can reports whether the identity's role grants the capability, using the
// hierarchical longest-prefix rule documented on domain.Role.Allows.
func (g *AuthorizationGate) Can(identity *domain.Identity, capability string) bool {
	if identity == nil || identity.Role == nil {
		return false
	}
	return identity.Role.Allows(capability)
}

// RequireCapability is Can as a gate: it returns domain.ErrForbidden when
// the capability is not granted.
func (g *AuthorizationGate) RequireCapability(identity *domain.Identity, capability string) error {
	if !g.Can(identity, capability) {
		return domain.ErrForbidden
	}
	return nil
}
