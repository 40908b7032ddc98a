package audit

import (
	"context"
	"log/slog"
)

// Sink forwards persisted events to an external system, e.g. a Kafka topic.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker consumes audit events from the publisher inbox, persists them, and
// forwards them to any configured sinks. Sink failures are logged, never
// fatal: the local store is the source of truth, the relay is best effort.
type Worker struct {
	store  Store
	sinks  []Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	return &Worker{store: store, sinks: sinks, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled. Pending events in the
// inbox at cancellation are flushed before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.flush()
			return ctx.Err()
		case event := <-w.inbox:
			w.handle(ctx, event)
		}
	}
}

func (w *Worker) flush() {
	// Detached context: the run context is already cancelled.
	ctx := context.Background()
	for {
		select {
		case event := <-w.inbox:
			w.handle(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) handle(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "appending audit event failed",
			"action", event.Action,
			"session_id", event.SessionID.String(),
			"error", err,
		)
		return
	}
	for _, sink := range w.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "audit sink publish failed",
				"action", event.Action,
				"session_id", event.SessionID.String(),
				"error", err,
			)
		}
	}
}
