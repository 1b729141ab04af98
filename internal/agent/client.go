// Package agent defines the call contract against the remote identity agent
// and its HTTP implementation. The engine's correctness depends on the
// semantics documented on each method, so they are part of the contract.
package agent

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Client

import (
	"context"
	"errors"
	"time"

	"vouch/internal/domain"
)

var (
	// ErrIntroductionTimeout is returned when a peer's out-of-band
	// introduction could not be resolved within the timeout. Callers decide
	// whether this is fatal.
	ErrIntroductionTimeout = errors.New("introduction resolution timed out")

	// ErrNotConnected is returned by operations that require a prior
	// successful Connect.
	ErrNotConnected = errors.New("agent session not connected")
)

// IssueCredentialRequest issues a credential from a registry held by one of
// the agent's identifiers. Message is free text delivered inside the grant;
// admins embed the community-space invite there.
type IssueCredentialRequest struct {
	Issuer     string
	RegistryID string
	Schema     string
	Subject    string
	Attributes map[string]any
	Message    string
}

// SendExchangeRequest sends a peer-to-peer exchange message (decline,
// member message) from one of the agent's identifiers.
type SendExchangeRequest struct {
	Sender    string
	Recipient string
	Route     string
	Body      any
}

// Dialer opens session-scoped clients. Each claim attempt holds its own
// handle: the session token is per-handle state, so two claims connecting
// with different boot secrets can never act on each other's wallet.
type Dialer interface {
	Dial(ctx context.Context, secret string) (Client, error)
}

// Client is the operation set the engine requires from the identity agent.
//
// Idempotence notes that the orchestrator relies on:
//   - Connect is a safe reconnect; calling it again with the same secret has
//     no observable side effect beyond the first call.
//   - AdmitGrant submission can legitimately precede the credential's
//     appearance in the wallet; the agent processes admits asynchronously.
//   - RotateKeys is NOT idempotent. Two calls produce two rotations. The
//     orchestrator must call it at most once per claim.
type Client interface {
	Connect(ctx context.Context, secret string) error
	Identifiers(ctx context.Context) ([]domain.Identifier, error)
	KeyState(ctx context.Context, prefix string) (int, error)
	Rename(ctx context.Context, prefix, name string) (domain.Identifier, error)
	Notifications(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID string) error

	// ResolveIntroduction dereferences an out-of-band introduction locator,
	// pulling the peer's key-event log into the agent's cache. Fails with
	// ErrIntroductionTimeout when the peer stays unreachable.
	ResolveIntroduction(ctx context.Context, locator, alias string, timeout time.Duration) error

	Exchange(ctx context.Context, said string) (domain.ExchangeMessage, error)

	// AdmitGrant constructs and submits the admit response for a grant. The
	// embedded-attachment set is deliberately empty: the agent derives the
	// proof material from the grant's own attachments, and re-embedding
	// causes a parse failure on the agent side.
	AdmitGrant(ctx context.Context, identifierName, senderPrefix, grantSAID string) error

	Credentials(ctx context.Context) ([]domain.Credential, error)
	RotateKeys(ctx context.Context, identifierName string) error
	IssueCredential(ctx context.Context, req IssueCredentialRequest) (domain.Credential, error)
	SendExchange(ctx context.Context, req SendExchangeRequest) error
}
