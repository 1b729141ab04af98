package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Worker consumes audit events from a channel and persists them, keeping
// emission off the claim/admin hot path.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context ends. A failed append is logged
// and the loop continues; the audit trail is best effort, the claim flow
// never is.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("append audit event failed",
					"action", string(event.Action), "error", err)
			}
		}
	}
}

// ChannelPublisher emits into a Worker's inbox without blocking; a full
// inbox drops the event rather than stalling a claim step.
type ChannelPublisher struct {
	inbox chan<- Event
}

func NewChannelPublisher(inbox chan<- Event) *ChannelPublisher {
	return &ChannelPublisher{inbox: inbox}
}

var _ Publisher = (*ChannelPublisher)(nil)

func (p *ChannelPublisher) Emit(_ context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
	}
	return nil
}
