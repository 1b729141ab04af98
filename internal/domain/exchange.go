package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExchangeKind tags the parsed form of an exchange message.
type ExchangeKind string

const (
	KindUnknown           ExchangeKind = "unknown"
	KindGrant             ExchangeKind = "grant"
	KindRegistrationApply ExchangeKind = "registration-apply"
	KindDecline           ExchangeKind = "decline"
	KindMemberMessage     ExchangeKind = "message"
)

// ExchangeMessage is the parsed form of a protocol exchange message. Payloads
// are parsed once at the boundary into exactly one of the kind-specific
// fields; unrecognized routes land in KindUnknown with the raw body retained
// for forward compatibility.
type ExchangeMessage struct {
	SAID      string
	Route     string
	Sender    string
	Recipient string
	Timestamp time.Time

	Kind    ExchangeKind
	Grant   *GrantPayload
	Apply   *RegistrationApply
	Decline *DeclineNotice
	Note    *MemberMessage
	RawBody json.RawMessage
}

// GrantPayload offers a verifiable credential. Message is free text; admins
// embed the community-space invite there (see SpaceInvite) so credential and
// space access arrive over a single channel.
type GrantPayload struct {
	CredentialSAID string `json:"credential"`
	Schema         string `json:"schema"`
	Message        string `json:"message"`
}

// RegistrationApply is an applicant's submitted profile plus proof of
// contact (an out-of-band introduction the admin can resolve).
type RegistrationApply struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Bio         string `json:"bio"`
	ContactOOBI string `json:"contact_oobi"`
}

// DeclineNotice references the original application being declined.
type DeclineNotice struct {
	ApplySAID string `json:"apply"`
	Reason    string `json:"reason"`
}

// MemberMessage is a free-text signal from admin to applicant.
type MemberMessage struct {
	Text string `json:"text"`
}

type rawExchange struct {
	SAID      string          `json:"said"`
	Route     string          `json:"route"`
	Sender    string          `json:"sender"`
	Recipient string          `json:"recipient"`
	Timestamp time.Time       `json:"timestamp"`
	Body      json.RawMessage `json:"body"`
}

// ParseExchange decodes a wire exchange message into its tagged form. The
// envelope must be well formed; an unknown route is not an error.
func ParseExchange(raw []byte) (ExchangeMessage, error) {
	var env rawExchange
	if err := json.Unmarshal(raw, &env); err != nil {
		return ExchangeMessage{}, fmt.Errorf("decode exchange envelope: %w", err)
	}
	if env.SAID == "" {
		return ExchangeMessage{}, fmt.Errorf("exchange envelope missing said")
	}

	msg := ExchangeMessage{
		SAID:      env.SAID,
		Route:     env.Route,
		Sender:    env.Sender,
		Recipient: env.Recipient,
		Timestamp: env.Timestamp,
		Kind:      KindUnknown,
		RawBody:   env.Body,
	}

	switch env.Route {
	case RouteGrant:
		var p GrantPayload
		if err := json.Unmarshal(env.Body, &p); err != nil {
			return ExchangeMessage{}, fmt.Errorf("decode grant payload: %w", err)
		}
		msg.Kind = KindGrant
		msg.Grant = &p
	case RouteApply:
		var p RegistrationApply
		if err := json.Unmarshal(env.Body, &p); err != nil {
			return ExchangeMessage{}, fmt.Errorf("decode registration payload: %w", err)
		}
		msg.Kind = KindRegistrationApply
		msg.Apply = &p
	case RouteDecline:
		var p DeclineNotice
		if err := json.Unmarshal(env.Body, &p); err != nil {
			return ExchangeMessage{}, fmt.Errorf("decode decline payload: %w", err)
		}
		msg.Kind = KindDecline
		msg.Decline = &p
	case RouteMessage:
		var p MemberMessage
		if err := json.Unmarshal(env.Body, &p); err != nil {
			return ExchangeMessage{}, fmt.Errorf("decode message payload: %w", err)
		}
		msg.Kind = KindMemberMessage
		msg.Note = &p
	}

	return msg, nil
}
