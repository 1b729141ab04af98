package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Publisher captures structured audit events. Services depend on this
// interface so tests can swap sinks easily.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// StorePublisher writes events straight to a Store, stamping ID and
// timestamp when the caller left them zero.
type StorePublisher struct {
	store Store
}

func NewStorePublisher(store Store) *StorePublisher {
	return &StorePublisher{store: store}
}

var _ Publisher = (*StorePublisher)(nil)

func (p *StorePublisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}

// MultiPublisher fans one event out to several sinks, typically the local
// store plus the Kafka topic. The first failure wins but later sinks still
// receive the event.
type MultiPublisher []Publisher

var _ Publisher = (MultiPublisher)(nil)

func (m MultiPublisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	var firstErr error
	for _, p := range m {
		if err := p.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
