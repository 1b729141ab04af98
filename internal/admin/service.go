// Package admin approves and declines pending registrations: issuing the
// membership credential, minting the community-space invite it carries, and
// keeping the notification inbox tidy across both notification shapes.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vouch/internal/agent"
	"vouch/internal/audit"
	"vouch/internal/domain"
	"vouch/internal/platform/metrics"
	"vouch/internal/spaces"
)

// Backend is the slice of the data-sync backend admin actions need.
type Backend interface {
	CreateInvite(ctx context.Context, req spaces.InviteRequest) (domain.SpaceInvite, error)
	CreateProfile(ctx context.Context, rec spaces.ProfileRecord) error
}

// Config tunes the admin engine.
type Config struct {
	// OrgAID is the stored organization identifier prefix, preferred as
	// the issuer when present.
	OrgAID string

	// RegistryID and CredentialSchema identify the membership credential.
	RegistryID       string
	CredentialSchema string

	// IntroductionTimeout bounds applicant OOBI resolution.
	IntroductionTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.IntroductionTimeout == 0 {
		c.IntroductionTimeout = 15 * time.Second
	}
	return c
}

// Service executes admin registration actions.
type Service struct {
	agent   agent.Client
	backend Backend
	cfg     Config

	logger  *slog.Logger
	auditor audit.Publisher
	metrics *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires an admin engine.
func NewService(agentClient agent.Client, backend Backend, cfg Config, opts ...Option) *Service {
	s := &Service{
		agent:   agentClient,
		backend: backend,
		cfg:     cfg.withDefaults(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Approve admits an applicant into the community: issue the membership
// credential with the space invite embedded in its grant message, then mark
// every notification tied to the applicant as read. A failure leaves the
// application in the pending list for retry.
func (s *Service) Approve(ctx context.Context, app domain.RegistrationApplication) error {
	s.resolveContact(ctx, app)

	issuer, err := s.issuingIdentifier(ctx)
	if err != nil {
		return s.outcome("approve", err)
	}

	// The invite is minted before the credential so its payload rides
	// inside the same grant message; a second delivery channel could race
	// the grant or be lost independently.
	invite, err := s.backend.CreateInvite(ctx, spaces.InviteRequest{
		RecipientAID:   app.Applicant,
		CredentialSAID: app.SAID,
		Schema:         s.cfg.CredentialSchema,
	})
	if err != nil {
		return s.outcome("approve", fmt.Errorf("create space invite: %w", err))
	}

	credential, err := s.agent.IssueCredential(ctx, agent.IssueCredentialRequest{
		Issuer:     issuer.Name,
		RegistryID: s.cfg.RegistryID,
		Schema:     s.cfg.CredentialSchema,
		Subject:    app.Applicant,
		Attributes: map[string]any{
			"name":  app.Profile.Name,
			"email": app.Profile.Email,
		},
		Message: "Welcome to the community. " + invite.Encode(),
	})
	if err != nil {
		return s.outcome("approve", fmt.Errorf("issue credential: %w", err))
	}
	s.emitAudit(ctx, audit.ActionCredentialIssued, app.Applicant, map[string]any{
		"credential": credential.SAID,
		"issuer":     issuer.Prefix,
	})

	// Best effort: the member can fill their shared profile after joining.
	if err := s.backend.CreateProfile(ctx, spaces.ProfileRecord{
		AID:        app.Applicant,
		SpaceID:    invite.SpaceID,
		Visibility: spaces.ProfileShared,
		Fields:     map[string]any{"name": app.Profile.Name, "bio": app.Profile.Bio},
	}); err != nil {
		s.logger.Warn("initialize member profile failed",
			"applicant", app.Applicant, "error", err)
	}

	s.markApplicantRead(ctx, app.Applicant)
	s.emitAudit(ctx, audit.ActionRegistrationApproved, app.Applicant, nil)
	return s.outcome("approve", nil)
}

// Decline rejects an application. A failed decline send is logged and the
// action still counts as processed: admin-list hygiene beats guaranteed
// delivery here, and the UI offers manual retry.
func (s *Service) Decline(ctx context.Context, app domain.RegistrationApplication, reason string) error {
	s.resolveContact(ctx, app)

	issuer, err := s.issuingIdentifier(ctx)
	if err != nil {
		return s.outcome("decline", err)
	}

	err = s.agent.SendExchange(ctx, agent.SendExchangeRequest{
		Sender:    issuer.Name,
		Recipient: app.Applicant,
		Route:     domain.RouteDecline,
		Body:      domain.DeclineNotice{ApplySAID: app.SAID, Reason: reason},
	})
	if err != nil {
		s.logger.Warn("decline signal send failed; marking processed anyway",
			"applicant", app.Applicant, "error", err)
	}

	s.markApplicantRead(ctx, app.Applicant)
	s.emitAudit(ctx, audit.ActionRegistrationDeclined, app.Applicant, map[string]any{"reason": reason})
	return s.outcome("decline", nil)
}

// Message sends a free-text signal to an applicant. Unlike Decline, a send
// failure is surfaced: messaging has no fallback semantics.
func (s *Service) Message(ctx context.Context, app domain.RegistrationApplication, text string) error {
	s.resolveContact(ctx, app)

	issuer, err := s.issuingIdentifier(ctx)
	if err != nil {
		return s.outcome("message", err)
	}

	err = s.agent.SendExchange(ctx, agent.SendExchangeRequest{
		Sender:    issuer.Name,
		Recipient: app.Applicant,
		Route:     domain.RouteMessage,
		Body:      domain.MemberMessage{Text: text},
	})
	if err != nil {
		return s.outcome("message", fmt.Errorf("send message: %w", err))
	}

	s.emitAudit(ctx, audit.ActionMemberMessaged, app.Applicant, nil)
	return s.outcome("message", nil)
}

// -----------------------------------------------------------------------------
// Internals
// -----------------------------------------------------------------------------

// resolveContact pulls the applicant's key-event log via their submitted
// introduction. Best effort: the applicant may already be resolved, or the
// action may still succeed through escrow.
func (s *Service) resolveContact(ctx context.Context, app domain.RegistrationApplication) {
	if app.Profile.ContactOOBI == "" {
		return
	}
	if err := s.agent.ResolveIntroduction(ctx, app.Profile.ContactOOBI, app.Profile.Name, s.cfg.IntroductionTimeout); err != nil {
		s.logger.Warn("resolve applicant introduction failed",
			"applicant", app.Applicant, "error", err)
	}
}

// issuingIdentifier picks the identifier that issues credentials: the
// stored organization identifier when configured, else a name match, else
// the first available. The permissive fallback keeps admin flows working
// under partial configuration.
func (s *Service) issuingIdentifier(ctx context.Context) (domain.Identifier, error) {
	identifiers, err := s.agent.Identifiers(ctx)
	if err != nil {
		return domain.Identifier{}, fmt.Errorf("list identifiers: %w", err)
	}
	if len(identifiers) == 0 {
		return domain.Identifier{}, fmt.Errorf("agent holds no identifiers")
	}
	if s.cfg.OrgAID != "" {
		for _, id := range identifiers {
			if id.Prefix == s.cfg.OrgAID {
				return id, nil
			}
		}
	}
	for _, id := range identifiers {
		name := strings.ToLower(id.Name)
		if strings.Contains(name, "org") || strings.Contains(name, "community") {
			return id, nil
		}
	}
	return identifiers[0], nil
}

// markApplicantRead marks every unread registration notification from the
// applicant as read. Escrowed notifications match on their sender field;
// verified ones require dereferencing to find the true sender.
func (s *Service) markApplicantRead(ctx context.Context, applicant string) {
	notifications, err := s.agent.Notifications(ctx, domain.NotificationFilter{
		Route:      domain.RouteApply,
		ReadStatus: domain.Unread(),
	})
	if err != nil {
		s.logger.Warn("list applicant notifications failed", "error", err)
		return
	}
	for _, n := range notifications {
		sender := n.Sender
		if !n.Pending() {
			msg, err := s.agent.Exchange(ctx, n.ExchangeSAID)
			if err != nil {
				s.logger.Warn("dereference notification failed",
					"notification", n.ID, "error", err)
				continue
			}
			sender = msg.Sender
		}
		if sender != applicant {
			continue
		}
		if err := s.agent.MarkRead(ctx, n.ID); err != nil {
			s.logger.Warn("mark notification read failed",
				"notification", n.ID, "error", err)
		}
	}
}

func (s *Service) outcome(action string, err error) error {
	if s.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		s.metrics.AdminActions.WithLabelValues(action, result).Inc()
	}
	return err
}

func (s *Service) emitAudit(ctx context.Context, action audit.Action, subject string, detail map[string]any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		Actor:   "admin-engine",
		Action:  action,
		Subject: subject,
		Detail:  detail,
	}); err != nil {
		s.logger.Warn("audit emit failed", "action", string(action), "error", err)
	}
}
