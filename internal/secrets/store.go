// Package secrets persists the one durable secret slot per session: the boot
// passcode and the recovery phrase it was derived from. The two always live
// in a single slot so they expire and clear together; duplicating them into
// separate stores is exactly the leak this package exists to prevent.
package secrets

import "context"

// Bundle is the per-session secret slot.
type Bundle struct {
	Passcode       string
	RecoveryPhrase string
}

// Store persists one Bundle per session key.
type Store interface {
	Save(ctx context.Context, sessionID string, b Bundle) error
	Load(ctx context.Context, sessionID string) (Bundle, error)

	// Clear removes the whole slot. Called on logout/disconnect; must drop
	// passcode and phrase atomically.
	Clear(ctx context.Context, sessionID string) error
}
