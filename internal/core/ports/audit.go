package ports

import (
	"context"

	"github.com/gatehouse/identity-system/internal/core/domain"
)

// AuditRecorder accepts audit events from the transport layer. Record is
// non-blocking; persistence is best-effort and never fails the caller.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}

// AuditService persists a single audit event and applies its side effects
// (a successful login stamps the account's last-login time).
type AuditService interface {
	Process(ctx context.Context, event domain.AuditEvent) error
	List(ctx context.Context, email string, limit int) ([]*domain.AuditEvent, error)
}

// AuditRepository handles audit trail persistence.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	// List returns recent events newest first, optionally filtered by email.
	List(ctx context.Context, email string, limit int) ([]*domain.AuditEvent, error)
}
