package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/gatehouse/identity-system/internal/core/domain"
	"github.com/gatehouse/identity-system/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher records audit events asynchronously so the authentication path
// never blocks on an audit write. Events are routed to a fixed set of workers
// by consistent hashing on the account email, preserving per-account
// ordering. Persistence is best-effort: a full buffer drops the event.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	service ports.AuditService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AuditService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record enqueues an event for the worker responsible for its email. The
// call never blocks; when the worker's buffer is full the event is dropped
// and counted in the logs.
func (d *Dispatcher) Record(event domain.AuditEvent) {
	select {
	case d.workers[d.shardIndex(event.Email)] <- event:
	default:
		d.log.Warn().
			Str("email", event.Email).
			Str("action", string(event.Action)).
			Msg("audit buffer full, event dropped")
	}
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.service.Process(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("email", event.Email).
					Str("action", string(event.Action)).
					Int("worker_id", id).
					Msg("audit event processing failed")
			}
		}
	}
}
