package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gatehouse/identity-system/internal/core/domain"
	"github.com/gatehouse/identity-system/internal/core/ports"
)

type auditService struct {
	users  ports.UserRepository
	events ports.AuditRepository
	log    zerolog.Logger
}

// NewAuditService returns an AuditService implementation.
func NewAuditService(users ports.UserRepository, events ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{users: users, events: events, log: log}
}

// Process persists a single audit event. A successful login additionally
// stamps the account's last-login time; a failure there is logged but does
// not block the event insert.
func (s *auditService) Process(ctx context.Context, event domain.AuditEvent) error {
	if event.Action == domain.AuditLoginSuccess && event.UserID != "" {
		if err := s.users.SetLastLogin(ctx, event.UserID, event.At); err != nil {
			s.log.Warn().Err(err).Str("user_id", event.UserID).Msg("failed to stamp last login")
		}
	}

	if err := s.events.Insert(ctx, &event); err != nil {
		return fmt.Errorf("process audit event: %w", err)
	}

	s.log.Debug().
		Str("email", event.Email).
		Str("action", string(event.Action)).
		Msg("audit event recorded")

	return nil
}

func (s *auditService) List(ctx context.Context, email string, limit int) ([]*domain.AuditEvent, error) {
	return s.events.List(ctx, email, limit)
}
