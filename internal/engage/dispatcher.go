package engage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
	"github.com/biscuits-internet-project/bip-engage/internal/metrics"
)

const (
	dispatchBuffer  = 1024
	dispatchTimeout = 5 * time.Second
)

// Event is a qualifying action the dispatcher turns into a notification:
// someone replied to, reacted to, or quoted the recipient's post.
type Event struct {
	RecipientID uuid.UUID
	ActorID     uuid.UUID
	PostID      uuid.UUID
	Type        domain.NotificationType
}

// UnreadInvalidator drops the cached unread count for a user after their
// notification set changed.
type UnreadInvalidator interface {
	InvalidateUnread(ctx context.Context, userID uuid.UUID)
}

// Dispatcher decouples notification fanout from the triggering write. Events
// are queued on an in-process channel and persisted by a worker goroutine;
// a dispatch failure is logged and counted, never surfaced to the action
// that caused it.
type Dispatcher struct {
	repo        domain.NotificationRepository
	invalidator UnreadInvalidator
	metrics     *metrics.EngagementMetrics

	events   chan Event
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher and starts its worker.
// invalidator may be nil when no unread cache is wired.
func NewDispatcher(repo domain.NotificationRepository, invalidator UnreadInvalidator, m *metrics.EngagementMetrics) *Dispatcher {
	d := &Dispatcher{
		repo:        repo,
		invalidator: invalidator,
		metrics:     m,
		events:      make(chan Event, dispatchBuffer),
		done:        make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()
	return d
}

// Dispatch queues an event for delivery. Self-actions are suppressed here so
// callers can emit unconditionally. Never blocks the triggering request: if
// the queue is full the event is dropped and counted.
func (d *Dispatcher) Dispatch(ev Event) {
	if ev.RecipientID == ev.ActorID {
		d.metrics.NotificationsSent.WithLabelValues("self_suppressed").Inc()
		return
	}

	select {
	case d.events <- ev:
	default:
		slog.Error("Notification queue full, dropping event",
			"recipient_id", ev.RecipientID.String(),
			"post_id", ev.PostID.String(),
			"type", ev.Type)
		d.metrics.NotificationsSent.WithLabelValues("dropped").Inc()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case ev := <-d.events:
			d.deliver(ev)
		case <-d.done:
			// Drain what is already queued before exiting.
			for {
				select {
				case ev := <-d.events:
					d.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if _, err := d.repo.Create(ctx, ev.RecipientID, ev.ActorID, ev.PostID, ev.Type); err != nil {
		slog.Error("Failed to persist notification",
			"recipient_id", ev.RecipientID.String(),
			"actor_id", ev.ActorID.String(),
			"post_id", ev.PostID.String(),
			"type", ev.Type,
			"error", err)
		d.metrics.NotificationsSent.WithLabelValues("failed").Inc()
		return
	}

	if d.invalidator != nil {
		d.invalidator.InvalidateUnread(ctx, ev.RecipientID)
	}
	d.metrics.NotificationsSent.WithLabelValues("delivered").Inc()
}

// Stop drains the queue and waits for the worker to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
	})
	d.wg.Wait()
}
