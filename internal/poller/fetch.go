package poller

import (
	"context"
	"fmt"
	"log/slog"

	"vouch/internal/agent"
	"vouch/internal/domain"
	"vouch/internal/events"
)

// FetchGrants is the applicant-side fetch: unread grant notifications
// classified into pending/verified shapes, dereferenced where possible, and
// deduplicated by sender plus credential. Detection only: admission stays
// with the claim engine (or its self-admit variant), never the watcher.
func FetchGrants(client agent.Client, logger *slog.Logger) Fetch[domain.GrantOffer] {
	return func(ctx context.Context) ([]domain.GrantOffer, error) {
		notifications, err := client.Notifications(ctx, domain.NotificationFilter{
			Route:      domain.RouteGrant,
			ReadStatus: domain.Unread(),
		})
		if err != nil {
			return nil, fmt.Errorf("list grant notifications: %w", err)
		}

		offers := make([]domain.GrantOffer, 0, len(notifications))
		for _, n := range notifications {
			msg, ok := materialize(ctx, client, n, logger)
			if !ok || msg.Kind != domain.KindGrant {
				continue
			}
			offers = append(offers, domain.GrantOffer{
				Sender:         msg.Sender,
				GrantSAID:      msg.SAID,
				CredentialSAID: msg.Grant.CredentialSAID,
				Schema:         msg.Grant.Schema,
				Message:        msg.Grant.Message,
				ReceivedAt:     n.Timestamp,
				Verified:       !n.Pending(),
				NotificationID: n.ID,
			})
		}
		return domain.DeduplicateGrants(offers), nil
	}
}

// FetchApplications is the admin-side fetch: unread registration
// applications across both notification shapes, deduplicated per applicant
// with verified preferred and newest winning among retries. First sight of
// an applicant raises a registration event on the hub; the notification
// stays unread so the list keeps carrying it until an admin acts.
func FetchApplications(client agent.Client, hub *events.Hub, logger *slog.Logger) Fetch[domain.RegistrationApplication] {
	announced := make(map[string]bool)
	return func(ctx context.Context) ([]domain.RegistrationApplication, error) {
		notifications, err := client.Notifications(ctx, domain.NotificationFilter{
			Route:      domain.RouteApply,
			ReadStatus: domain.Unread(),
		})
		if err != nil {
			return nil, fmt.Errorf("list registration notifications: %w", err)
		}

		apps := make([]domain.RegistrationApplication, 0, len(notifications))
		for _, n := range notifications {
			msg, ok := materialize(ctx, client, n, logger)
			if !ok || msg.Kind != domain.KindRegistrationApply {
				continue
			}
			apps = append(apps, domain.RegistrationApplication{
				Applicant:      msg.Sender,
				SAID:           msg.SAID,
				Profile:        *msg.Apply,
				SubmittedAt:    n.Timestamp,
				Verified:       !n.Pending(),
				NotificationID: n.ID,
			})
			if hub != nil && !announced[msg.Sender] {
				announced[msg.Sender] = true
				hub.Emit(events.TypeNoticeRegistration, map[string]any{
					"applicant": msg.Sender,
					"said":      msg.SAID,
				})
			}
		}
		return domain.DeduplicateApplications(apps), nil
	}
}

// WatchNotices forwards decline and member-message notifications to the
// event hub and marks them read. Used on the applicant side alongside the
// grant watcher.
func WatchNotices(client agent.Client, hub *events.Hub, logger *slog.Logger) Fetch[domain.Notification] {
	routes := map[string]events.Type{
		domain.RouteDecline: events.TypeNoticeDecline,
		domain.RouteMessage: events.TypeNoticeMessage,
	}
	return func(ctx context.Context) ([]domain.Notification, error) {
		var seen []domain.Notification
		for route, eventType := range routes {
			notifications, err := client.Notifications(ctx, domain.NotificationFilter{
				Route:      route,
				ReadStatus: domain.Unread(),
			})
			if err != nil {
				return nil, fmt.Errorf("list %s notifications: %w", route, err)
			}
			for _, n := range notifications {
				msg, ok := materialize(ctx, client, n, logger)
				if !ok {
					continue
				}
				if hub != nil {
					hub.Emit(eventType, noticePayload(msg))
				}
				if err := client.MarkRead(ctx, n.ID); err != nil {
					logger.Warn("mark notice read failed", "notification", n.ID, "error", err)
				}
				seen = append(seen, n)
			}
		}
		return seen, nil
	}
}

// materialize yields the exchange message behind a notification: pending
// shapes carry it embedded, verified shapes are dereferenced by SAID.
func materialize(ctx context.Context, client agent.Client, n domain.Notification, logger *slog.Logger) (domain.ExchangeMessage, bool) {
	if n.Pending() {
		msg, err := domain.ParseExchange(n.Embedded)
		if err != nil {
			logger.Warn("parse embedded exchange failed; skipping",
				"notification", n.ID, "error", err)
			return domain.ExchangeMessage{}, false
		}
		return msg, true
	}
	msg, err := client.Exchange(ctx, n.ExchangeSAID)
	if err != nil {
		logger.Warn("dereference exchange failed; skipping",
			"notification", n.ID, "error", err)
		return domain.ExchangeMessage{}, false
	}
	return msg, true
}

func noticePayload(msg domain.ExchangeMessage) map[string]any {
	payload := map[string]any{"sender": msg.Sender, "said": msg.SAID}
	switch msg.Kind {
	case domain.KindDecline:
		payload["reason"] = msg.Decline.Reason
	case domain.KindMemberMessage:
		payload["text"] = msg.Note.Text
	}
	return payload
}
