// Package claim drives a pre-provisioned identifier through the claim state
// machine: connecting → admitting → rotating → securing → done, with a
// terminal error state reachable from every step. One engine serves many
// sessions; each claim operates on one identifier exclusively owned by the
// session holding its boot secret, so steps run strictly sequentially.
package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vouch/internal/agent"
	"vouch/internal/audit"
	"vouch/internal/domain"
	"vouch/internal/events"
	"vouch/internal/mnemonic"
	"vouch/internal/platform/metrics"
	"vouch/internal/platform/retry"
	"vouch/internal/secrets"
	"vouch/internal/spaces"
	"vouch/pkg/platform/sentinel"
)

// Backend is the slice of the data-sync backend the claim flow needs.
type Backend interface {
	BindIdentity(ctx context.Context, req spaces.BindIdentityRequest) (spaces.BindIdentityResult, error)
	JoinCommunity(ctx context.Context, req spaces.JoinRequest) (spaces.JoinResult, error)
	CreateProfile(ctx context.Context, rec spaces.ProfileRecord) error
}

// Config tunes the engine's waits and budgets. Zero values pick defaults.
type Config struct {
	// IntroductionTimeout bounds each OOBI resolution.
	IntroductionTimeout time.Duration

	// EscrowSettle is the wait after resolving an escrowed sender's key
	// event log before attempting admission. De-escrow runs on the agent's
	// own internal tick, not on client requests, so this is a flat window
	// rather than a tight retry loop.
	EscrowSettle time.Duration

	// CredentialWait bounds the poll for the credential to appear in the
	// wallet after admits were submitted.
	CredentialWait retry.Budget

	// SpaceJoin bounds the community join, whose key material may still be
	// deriving on the backend right after invite issuance.
	SpaceJoin retry.Budget

	// ProfileRetry bounds each profile-record creation, linear backoff.
	ProfileRetry retry.Budget

	// OrgAID is the stored organization identifier, passed to the backend
	// binding when known.
	OrgAID string
}

func (c Config) withDefaults() Config {
	if c.IntroductionTimeout == 0 {
		c.IntroductionTimeout = 15 * time.Second
	}
	if c.EscrowSettle == 0 {
		c.EscrowSettle = 5 * time.Second
	}
	if c.CredentialWait.Attempts == 0 {
		c.CredentialWait = retry.Budget{Attempts: 10, Delay: 2 * time.Second}
	}
	if c.SpaceJoin.Attempts == 0 {
		c.SpaceJoin = retry.Budget{Attempts: 5, Delay: 2 * time.Second}
	}
	if c.ProfileRetry.Attempts == 0 {
		c.ProfileRetry = retry.Budget{Attempts: 5, Delay: time.Second, Step: time.Second}
	}
	return c
}

// Engine is the claim orchestrator.
type Engine struct {
	dialer  agent.Dialer
	backend Backend
	secrets secrets.Store
	cfg     Config

	logger  *slog.Logger
	auditor audit.Publisher
	metrics *metrics.Metrics
	hub     *events.Hub
	tracer  trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(e *Engine) { e.auditor = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithEventHub(h *events.Hub) Option {
	return func(e *Engine) { e.hub = h }
}

// NewEngine wires a claim engine. The dialer opens one agent session per
// claim attempt; the engine never holds a shared session, so concurrent
// claims cannot act on each other's wallets.
func NewEngine(dialer agent.Dialer, backend Backend, secretStore secrets.Store, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		dialer:  dialer,
		backend: backend,
		secrets: secretStore,
		cfg:     cfg.withDefaults(),
		logger:  slog.Default(),
		tracer:  otel.Tracer("vouch/claim"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Preview is what a valid, unclaimed link resolves to.
type Preview struct {
	Identifier domain.Identifier
	Phrase     string
}

// Validate checks a claim link without performing any irreversible step:
// decode the token, connect with the derived secret, and confirm the
// identifier exists and has never been rotated.
func (e *Engine) Validate(ctx context.Context, token string) (*Preview, error) {
	phrase, err := mnemonic.DecodeInviteToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClaimLink, err)
	}
	if !mnemonic.ValidatePhrase(phrase) {
		return nil, ErrInvalidClaimLink
	}
	session, err := e.dialer.Dial(ctx, mnemonic.DeriveBootSecret(phrase))
	if err != nil {
		return nil, fmt.Errorf("connect agent: %w", err)
	}
	identifier, err := e.resolveIdentifier(ctx, session)
	if err != nil {
		return nil, err
	}
	seq, err := session.KeyState(ctx, identifier.Prefix)
	if err != nil {
		return nil, fmt.Errorf("read key state: %w", err)
	}
	if seq > 0 {
		return nil, ErrAlreadyClaimed
	}
	identifier.SequenceNumber = seq
	return &Preview{Identifier: identifier, Phrase: phrase}, nil
}

// Request starts a claim.
type Request struct {
	Token       string
	DisplayName string
	SessionID   string

	// OnTransition observes state changes; optional, invoked synchronously.
	OnTransition func(domain.ClaimState)
}

// Result is the outcome of a completed claim.
type Result struct {
	Identifier     domain.Identifier
	SpaceID        string
	PrivateSpaceID string
	Admitted       int
}

// Claim runs the state machine to completion. A failed claim is re-driven
// by calling Claim again with the same token; every step short of key
// rotation is idempotent, and rotation is guarded by a key-state re-check
// so a retry after a partial failure never rotates twice.
func (e *Engine) Claim(ctx context.Context, req Request) (result *Result, err error) {
	if e.metrics != nil {
		e.metrics.ClaimsStarted.Inc()
	}
	e.emitAudit(ctx, audit.ActionClaimStarted, "", nil)

	state := domain.ClaimConnecting
	defer func() {
		if err != nil {
			e.fail(ctx, state, err)
		}
	}()

	// connecting
	transition := e.enter(state, req.OnTransition)
	session, phrase, identifier, err := e.connecting(ctx, req)
	transition(err)
	if err != nil {
		return nil, err
	}

	// admitting
	state = domain.ClaimAdmitting
	transition = e.enter(state, req.OnTransition)
	invite, admitted, err := e.admitGrants(ctx, session, identifier.Name, true)
	transition(err)
	if err != nil {
		return nil, err
	}

	// rotating
	state = domain.ClaimRotating
	transition = e.enter(state, req.OnTransition)
	err = e.rotating(ctx, session, req.SessionID, phrase, identifier)
	transition(err)
	if err != nil {
		return nil, err
	}

	// securing
	state = domain.ClaimSecuring
	transition = e.enter(state, req.OnTransition)
	bind, err := e.securing(ctx, phrase, identifier, invite)
	transition(err)
	if err != nil {
		return nil, err
	}

	if req.OnTransition != nil {
		req.OnTransition(domain.ClaimDone)
	}
	if e.metrics != nil {
		e.metrics.ClaimsCompleted.Inc()
	}
	e.emitAudit(ctx, audit.ActionClaimCompleted, identifier.Prefix, nil)

	return &Result{
		Identifier:     identifier,
		SpaceID:        invite.SpaceID,
		PrivateSpaceID: bind.PrivateSpaceID,
		Admitted:       admitted,
	}, nil
}

// Disconnect clears the session's secret slot. Passcode and phrase live in
// one slot, so both go together.
func (e *Engine) Disconnect(ctx context.Context, sessionID string) error {
	return e.secrets.Clear(ctx, sessionID)
}

// -----------------------------------------------------------------------------
// Steps
// -----------------------------------------------------------------------------

func (e *Engine) connecting(ctx context.Context, req Request) (agent.Client, string, domain.Identifier, error) {
	ctx, span := e.tracer.Start(ctx, "claim.connecting")
	defer span.End()

	phrase, err := mnemonic.DecodeInviteToken(req.Token)
	if err != nil {
		return nil, "", domain.Identifier{}, spanErr(span, fmt.Errorf("%w: %v", ErrInvalidClaimLink, err))
	}
	session, err := e.dialer.Dial(ctx, mnemonic.DeriveBootSecret(phrase))
	if err != nil {
		return nil, "", domain.Identifier{}, spanErr(span, fmt.Errorf("connect agent: %w", err))
	}
	identifier, err := e.resolveIdentifier(ctx, session)
	if err != nil {
		return nil, "", domain.Identifier{}, spanErr(span, err)
	}

	if req.DisplayName != "" && req.DisplayName != identifier.Name {
		renamed, err := session.Rename(ctx, identifier.Prefix, req.DisplayName)
		if err != nil {
			// Best effort: a label is cosmetic and must not block the claim.
			e.logger.Warn("rename identifier failed",
				"prefix", identifier.Prefix, "error", err)
		} else {
			identifier = renamed
		}
	}
	return session, phrase, identifier, nil
}

// admitGrants processes unread grant notifications. resolveEscrowed enables
// the OOBI pre-resolution pass used during the claim flow; the long-lived
// session self-admit path skips it because the sender is typically already
// resolved there.
func (e *Engine) admitGrants(ctx context.Context, session agent.Client, identifierName string, resolveEscrowed bool) (*domain.SpaceInvite, int, error) {
	ctx, span := e.tracer.Start(ctx, "claim.admitting")
	defer span.End()

	grants, err := session.Notifications(ctx, domain.NotificationFilter{
		Route:      domain.RouteGrant,
		ReadStatus: domain.Unread(),
	})
	if err != nil {
		return nil, 0, spanErr(span, fmt.Errorf("list grant notifications: %w", err))
	}

	if resolveEscrowed {
		if err := e.settleEscrowed(ctx, session, grants); err != nil {
			return nil, 0, spanErr(span, err)
		}
	}

	var (
		invite   *domain.SpaceInvite
		admitted int
	)
	for _, grant := range grants {
		// The notification's nominal sender can differ from the true
		// sender; the dereferenced exchange is authoritative.
		msg, err := session.Exchange(ctx, grant.ExchangeSAID)
		if err != nil {
			e.logger.Warn("dereference grant failed; skipping",
				"notification", grant.ID, "error", err)
			continue
		}
		if msg.Kind != domain.KindGrant {
			e.logger.Warn("notification on grant route is not a grant; skipping",
				"notification", grant.ID, "kind", string(msg.Kind))
			continue
		}
		if invite == nil {
			if inv, ok := domain.ParseSpaceInvite(msg.Grant.Message); ok {
				invite = &inv
			}
		}
		if err := session.AdmitGrant(ctx, identifierName, msg.Sender, msg.SAID); err != nil {
			// The grant may already be admitted from a previous partial
			// run; individual failures are not fatal to the batch.
			e.logger.Warn("admit grant failed; skipping",
				"grant", msg.SAID, "error", err)
			continue
		}
		admitted++
		if e.metrics != nil {
			e.metrics.GrantsAdmitted.Inc()
		}
		e.emitAudit(ctx, audit.ActionGrantAdmitted, msg.Sender, map[string]any{"grant": msg.SAID})
		if err := session.MarkRead(ctx, grant.ID); err != nil {
			e.logger.Warn("mark grant notification read failed",
				"notification", grant.ID, "error", err)
		}
	}

	if len(grants) > 0 {
		if err := e.awaitCredential(ctx, session); err != nil {
			return nil, admitted, spanErr(span, err)
		}
		if e.hub != nil {
			e.hub.Emit(events.TypeCredentialNew, map[string]any{"admitted": admitted})
			if invite != nil {
				// A grant carrying a space invite is the community membership
				// credential; listeners treat it differently from plain ones.
				e.hub.Emit(events.TypeCredentialCommunity, map[string]any{
					"space": invite.SpaceID,
				})
			}
		}
	}
	return invite, admitted, nil
}

// settleEscrowed resolves the full key-event log of every escrowed sender,
// then waits one settle window for the agent's background de-escrow pass.
func (e *Engine) settleEscrowed(ctx context.Context, session agent.Client, grants []domain.Notification) error {
	resolved := false
	for _, grant := range grants {
		if !grant.Pending() {
			continue
		}
		if err := session.ResolveIntroduction(ctx, grant.Sender, "", e.cfg.IntroductionTimeout); err != nil {
			if errors.Is(err, agent.ErrIntroductionTimeout) {
				e.logger.Warn("sender introduction timed out; grant stays escrowed",
					"sender", grant.Sender)
				continue
			}
			return fmt.Errorf("resolve sender introduction: %w", err)
		}
		resolved = true
	}
	if !resolved {
		return nil
	}
	timer := time.NewTimer(e.cfg.EscrowSettle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// awaitCredential distinguishes "admit accepted, agent is just slow" from
// "admit silently failed" by polling the wallet within a bounded budget.
func (e *Engine) awaitCredential(ctx context.Context, session agent.Client) error {
	err := retry.Until(ctx, e.cfg.CredentialWait, func(ctx context.Context) (bool, error) {
		creds, err := session.Credentials(ctx)
		if err != nil {
			e.logger.Warn("list credentials failed; will retry", "error", err)
			return false, nil
		}
		return len(creds) > 0, nil
	})
	if errors.Is(err, retry.ErrBudgetExhausted) {
		return ErrCredentialNotDelivered
	}
	return err
}

func (e *Engine) rotating(ctx context.Context, session agent.Client, sessionID, phrase string, identifier domain.Identifier) error {
	ctx, span := e.tracer.Start(ctx, "claim.rotating")
	defer span.End()

	// Re-entrancy guard: a prior run may have rotated before the client
	// observed the result. An advanced key state is evidence of that prior
	// success, not an error; rotating again would be a second, unwanted
	// rotation.
	seq, err := session.KeyState(ctx, identifier.Prefix)
	if err != nil {
		return spanErr(span, fmt.Errorf("read key state: %w", err))
	}
	if seq == 0 {
		if err := session.RotateKeys(ctx, identifier.Name); err != nil {
			return spanErr(span, fmt.Errorf("rotate keys: %w", err))
		}
		e.emitAudit(ctx, audit.ActionKeysRotated, identifier.Prefix, nil)
	} else {
		e.logger.Info("key state already advanced; skipping rotation",
			"prefix", identifier.Prefix, "sequence", seq)
	}

	// Rotation changes the signing key, not the boot passcode; the original
	// secret keeps working for session reconnection and recovery.
	if sessionID != "" {
		bundle := secrets.Bundle{
			Passcode:       mnemonic.DeriveBootSecret(phrase),
			RecoveryPhrase: phrase,
		}
		if err := e.secrets.Save(ctx, sessionID, bundle); err != nil {
			return spanErr(span, fmt.Errorf("persist session secret: %w", err))
		}
	}
	return nil
}

func (e *Engine) securing(ctx context.Context, phrase string, identifier domain.Identifier, invite *domain.SpaceInvite) (spaces.BindIdentityResult, error) {
	ctx, span := e.tracer.Start(ctx, "claim.securing")
	defer span.End()

	if invite == nil {
		// A credential without space access is a broken membership; fail
		// rather than report success.
		return spaces.BindIdentityResult{}, spanErr(span, ErrMissingSpaceInvite)
	}

	bind, err := e.backend.BindIdentity(ctx, spaces.BindIdentityRequest{
		AID:              identifier.Prefix,
		Mnemonic:         phrase,
		OrgAID:           e.cfg.OrgAID,
		CommunitySpaceID: invite.SpaceID,
		ReadOnlySpaceID:  invite.ReadOnlySpaceID,
		Mode:             "member",
	})
	if err != nil {
		return spaces.BindIdentityResult{}, spanErr(span, fmt.Errorf("bind backend identity: %w", err))
	}

	joinErr := retry.Do(ctx, e.cfg.SpaceJoin, func(ctx context.Context) error {
		_, err := e.backend.JoinCommunity(ctx, spaces.JoinRequest{
			UserAID:           identifier.Prefix,
			InviteKey:         invite.InviteKey,
			SpaceID:           invite.SpaceID,
			ReadOnlyInviteKey: invite.ReadOnlyInviteKey,
			ReadOnlySpaceID:   invite.ReadOnlySpaceID,
		})
		return err
	})
	if joinErr != nil {
		return spaces.BindIdentityResult{}, spanErr(span, fmt.Errorf("join community space: %w", joinErr))
	}
	if e.hub != nil {
		e.hub.Emit(events.TypeSpaceJoined, map[string]any{"space": invite.SpaceID})
	}

	// Profile creation races the backend's key derivation after join; same
	// eventual-consistency pattern as the credential wait.
	profiles := []spaces.ProfileRecord{
		{
			AID:        identifier.Prefix,
			SpaceID:    bind.PrivateSpaceID,
			Visibility: spaces.ProfilePrivate,
			Fields:     map[string]any{"name": identifier.Name},
		},
		{
			AID:        identifier.Prefix,
			SpaceID:    invite.SpaceID,
			Visibility: spaces.ProfileShared,
			Fields:     map[string]any{"name": identifier.Name},
		},
	}
	for _, rec := range profiles {
		err := retry.Do(ctx, e.cfg.ProfileRetry, func(ctx context.Context) error {
			return e.backend.CreateProfile(ctx, rec)
		})
		if err != nil {
			return spaces.BindIdentityResult{}, spanErr(span, fmt.Errorf("create %s profile: %w", rec.Visibility, err))
		}
	}
	if e.hub != nil {
		e.hub.Emit(events.TypeProfileUpdated, map[string]any{"aid": identifier.Prefix})
	}
	return bind, nil
}

// AdmitPending is the self-admit variant used on the long-lived session
// path once the watcher reports a grant: structurally the claim-time
// admitting step without the OOBI pre-resolution pass. The session's stored
// passcode picks the wallet; a session that never completed a claim here has
// no slot and gets ErrUnknownSession.
func (e *Engine) AdmitPending(ctx context.Context, sessionID, identifierName string) (int, error) {
	bundle, err := e.secrets.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, ErrUnknownSession
		}
		return 0, fmt.Errorf("load session secret: %w", err)
	}
	session, err := e.dialer.Dial(ctx, bundle.Passcode)
	if err != nil {
		return 0, fmt.Errorf("connect agent: %w", err)
	}
	_, admitted, err := e.admitGrants(ctx, session, identifierName, false)
	return admitted, err
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (e *Engine) resolveIdentifier(ctx context.Context, session agent.Client) (domain.Identifier, error) {
	identifiers, err := session.Identifiers(ctx)
	if err != nil {
		return domain.Identifier{}, fmt.Errorf("list identifiers: %w", err)
	}
	if len(identifiers) == 0 {
		return domain.Identifier{}, ErrInvalidClaimLink
	}
	// A pre-provisioned wallet holds exactly one identifier.
	return identifiers[0], nil
}

// enter records a step start and returns a closure that observes its end.
func (e *Engine) enter(state domain.ClaimState, observer func(domain.ClaimState)) func(error) {
	if observer != nil {
		observer(state)
	}
	e.logger.Info("claim step", "state", string(state))
	start := time.Now()
	return func(err error) {
		if e.metrics != nil {
			e.metrics.ClaimStepMs.WithLabelValues(string(state)).
				Observe(float64(time.Since(start).Microseconds()) / 1000.0)
		}
		e.emitAudit(context.Background(), audit.ActionClaimStep, "", map[string]any{
			"state": string(state),
			"ok":    err == nil,
		})
	}
}

func (e *Engine) fail(ctx context.Context, state domain.ClaimState, err error) {
	e.logger.Error("claim failed", "state", string(state), "error", err)
	if e.metrics != nil {
		e.metrics.ClaimsFailed.WithLabelValues(string(state)).Inc()
	}
	e.emitAudit(ctx, audit.ActionClaimFailed, "", map[string]any{
		"state": string(state),
		"error": err.Error(),
	})
}

func (e *Engine) emitAudit(ctx context.Context, action audit.Action, subject string, detail map[string]any) {
	if e.auditor == nil {
		return
	}
	if err := e.auditor.Emit(ctx, audit.Event{
		Actor:   "claim-engine",
		Action:  action,
		Subject: subject,
		Detail:  detail,
	}); err != nil {
		e.logger.Warn("audit emit failed", "action", string(action), "error", err)
	}
}

func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
