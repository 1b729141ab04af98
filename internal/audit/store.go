package audit

import "context"

// Store is an append-only audit sink with per-subject listing for admin
// review.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
