package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"idguardian/pkg/domain"
)

// Publisher hands audit events to the background worker through a bounded
// inbox. Emit never blocks the request path: when the inbox is full the
// event is dropped and logged, trading completeness for latency.
type Publisher struct {
	inbox  chan Event
	store  Store
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		store:  store,
		logger: logger,
	}
}

// Emit stamps and enqueues an event.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"session_id", event.SessionID.String(),
		)
	}
}

// List returns the recorded trail for one session.
func (p *Publisher) List(ctx context.Context, sessionID domain.SessionID) ([]Event, error) {
	return p.store.ListBySession(ctx, sessionID)
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
