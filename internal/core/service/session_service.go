package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gatehouse/identity-system/internal/core/domain"
	"github.com/gatehouse/identity-system/internal/core/ports"
)

const (
	// rememberMeTTL is the lifetime of "remember me" sessions.
	rememberMeTTL = 14 * 24 * time.Hour
	// sessionScopedTTL bounds how long a session-scoped store entry survives
	// without the client ending it. The session itself carries no expiry;
	// this only keeps abandoned entries from accumulating in the store.
	sessionScopedTTL = 24 * time.Hour
)

// SessionService issues signed session tokens backed by a server-side store
// entry. The token is an HS256 JWT carrying the session id; resolution always
// goes back to the store and the user directory, so the token itself grants
// nothing once the session is revoked or the user changes.
type SessionService struct {
	store  ports.SessionStore
	users  ports.UserRepository
	roles  ports.RoleRepository
	secret []byte
	logger zerolog.Logger
	now    func() time.Time
}

func NewSessionService(store ports.SessionStore, users ports.UserRepository, roles ports.RoleRepository, secret string, logger zerolog.Logger) *SessionService {
	return &SessionService{
		store:  store,
		users:  users,
		roles:  roles,
		secret: []byte(secret),
		logger: logger,
		now:    time.Now,
	}
}

// Create opens a session for an authenticated user and returns the token.
func (s *SessionService) Create(ctx context.Context, user *domain.User, rememberMe bool) (string, error) {
	now := s.now().UTC()

	roleName := ""
	if user.RoleID != "" {
		if role, err := s.roles.FindByID(ctx, user.RoleID); err == nil {
			roleName = role.Name
		}
	}

	session := &domain.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		RoleSnapshot: roleName,
		RememberMe:   rememberMe,
		CreatedAt:    now,
	}
	ttl := sessionScopedTTL
	if rememberMe {
		session.ExpiresAt = now.Add(rememberMeTTL)
		ttl = rememberMeTTL
	}

	if err := s.store.Save(ctx, session, ttl); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	claims := jwt.MapClaims{
		"sid": session.ID,
		"uid": user.ID,
		"iat": now.Unix(),
	}
	if rememberMe {
		claims["exp"] = session.ExpiresAt.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Bool("remember_me", rememberMe).Msg("session created")
	return token, nil
}

// Resolve validates a token and returns the live identity behind it. The
// user and role are re-fetched on every call; a stale role snapshot is never
// trusted for authorization.
func (s *SessionService) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	claims, err := s.parseClaims(token, true)
	if err != nil {
		return nil, err
	}
	sid, _ := claims["sid"].(string)
	uid, _ := claims["uid"].(string)
	if sid == "" || uid == "" {
		return nil, domain.ErrNoSession
	}

	session, err := s.store.Find(ctx, sid)
	if err != nil {
		return nil, err
	}
	if session.UserID != uid {
		return nil, domain.ErrNoSession
	}
	if session.Expired(s.now().UTC()) {
		_ = s.store.Delete(ctx, sid)
		return nil, domain.ErrSessionExpired
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// the account was deleted after login; the session is dead
			_ = s.store.Delete(ctx, sid)
			return nil, domain.ErrNoSession
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	if user.RoleID == "" {
		return nil, domain.ErrUserHasNoRole
	}
	role, err := s.roles.FindByID(ctx, user.RoleID)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return nil, domain.ErrUserHasNoRole
		}
		return nil, err
	}

	return &domain.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     role,
	}, nil
}

// Revoke ends the session behind the token. Idempotent: unknown, expired or
// malformed tokens revoke to nothing without error.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	// Skip claim validation so an expired remember-me token can still be
	// revoked; the signature is always verified.
	claims, err := s.parseClaims(token, false)
	if err != nil {
		return nil
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionService) parseClaims(token string, validate bool) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if !validate {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	claims := jwt.MapClaims{}
	parsed, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrSessionExpired
		}
		return nil, domain.ErrNoSession
	}
	if !parsed.Valid {
		return nil, domain.ErrNoSession
	}
	return claims, nil
}
