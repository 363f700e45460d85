package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatehouse/identity-system/internal/core/domain"
)

type recordingAuditService struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	done   chan struct{}
	want   int
}

func newRecordingAuditService(want int) *recordingAuditService {
	return &recordingAuditService{done: make(chan struct{}), want: want}
}

func (s *recordingAuditService) Process(_ context.Context, event domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) == s.want {
		close(s.done)
	}
	return nil
}

func (s *recordingAuditService) List(context.Context, string, int) ([]*domain.AuditEvent, error) {
	return nil, nil
}

func (s *recordingAuditService) wait(t *testing.T) []domain.AuditEvent {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for events to be processed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

func TestDispatcher_ProcessesRecordedEvents(t *testing.T) {
	svc := newRecordingAuditService(3)
	d := NewDispatcher(2, svc, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 0; i < 3; i++ {
		d.Record(domain.AuditEvent{Email: "jean@example.com", Action: domain.AuditLoginFailure, At: time.Now()})
	}

	events := svc.wait(t)
	if len(events) != 3 {
		t.Fatalf("%d events processed, want 3", len(events))
	}
}

func TestDispatcher_PerEmailOrderingPreserved(t *testing.T) {
	const n = 50
	svc := newRecordingAuditService(n)
	d := NewDispatcher(4, svc, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	actions := []domain.AuditAction{domain.AuditLoginFailure, domain.AuditLockout, domain.AuditLoginSuccess}
	for i := 0; i < n; i++ {
		d.Record(domain.AuditEvent{
			Email:     "jean@example.com",
			Action:    actions[i%len(actions)],
			At:        time.Unix(int64(i), 0),
			RequestID: "seq",
		})
	}

	events := svc.wait(t)

	// Same email always hashes to the same worker, so arrival order is
	// submission order.
	for i := 1; i < len(events); i++ {
		if events[i].At.Before(events[i-1].At) {
			t.Fatalf("event %d processed out of order", i)
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, newRecordingAuditService(1), zerolog.Nop())

	first := d.shardIndex("jean@example.com")
	for i := 0; i < 10; i++ {
		if d.shardIndex("jean@example.com") != first {
			t.Fatal("shard index must be deterministic per email")
		}
	}
}
