package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gatehouse/identity-system/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub audit repository
// ---------------------------------------------------------------------------

type stubAuditRepo struct {
	mu     sync.Mutex
	events []*domain.AuditEvent
}

func (r *stubAuditRepo) Insert(_ context.Context, event *domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *event
	r.events = append([]*domain.AuditEvent{&clone}, r.events...)
	return nil
}

func (r *stubAuditRepo) List(_ context.Context, email string, limit int) ([]*domain.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditEvent
	for _, e := range r.events {
		if email != "" && e.Email != email {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestAuditService_Process_PersistsEvent(t *testing.T) {
	users := newStubUserRepo()
	repo := &stubAuditRepo{}
	svc := NewAuditService(users, repo, discardLogger)

	err := svc.Process(context.Background(), domain.AuditEvent{
		Email:  "jean@example.com",
		Action: domain.AuditLoginFailure,
		At:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(repo.events) != 1 {
		t.Fatalf("%d events stored, want 1", len(repo.events))
	}
}

func TestAuditService_Process_LoginSuccessStampsLastLogin(t *testing.T) {
	users := newStubUserRepo()
	repo := &stubAuditRepo{}
	svc := NewAuditService(users, repo, discardLogger)

	user := users.add(&domain.User{Email: "jean@example.com", IsActive: true})
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	err := svc.Process(context.Background(), domain.AuditEvent{
		UserID: user.ID,
		Email:  user.Email,
		Action: domain.AuditLoginSuccess,
		At:     at,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	stored, _ := users.FindByID(context.Background(), user.ID)
	if !stored.LastLogin.Equal(at) {
		t.Fatalf("last login = %v, want %v", stored.LastLogin, at)
	}
}

func TestAuditService_Process_UnknownUserStillRecorded(t *testing.T) {
	users := newStubUserRepo()
	repo := &stubAuditRepo{}
	svc := NewAuditService(users, repo, discardLogger)

	// The user was deleted between the request and the worker run; the
	// event is still worth keeping.
	err := svc.Process(context.Background(), domain.AuditEvent{
		UserID: "gone",
		Email:  "gone@example.com",
		Action: domain.AuditLoginSuccess,
		At:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(repo.events) != 1 {
		t.Fatalf("%d events stored, want 1", len(repo.events))
	}
}

func TestAuditService_List_FiltersByEmail(t *testing.T) {
	users := newStubUserRepo()
	repo := &stubAuditRepo{}
	svc := NewAuditService(users, repo, discardLogger)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "a@example.com"} {
		if err := svc.Process(ctx, domain.AuditEvent{Email: email, Action: domain.AuditLoginFailure, At: time.Now()}); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	events, err := svc.List(ctx, "a@example.com", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("%d events, want 2", len(events))
	}
}
