package domain

import (
	"encoding/json"
	"time"
)

// Exchange routes the engine reacts to. Grant/admit are the credential
// exchange protocol; the registration routes carry community onboarding
// traffic between applicants and admins.
const (
	RouteGrant   = "/exn/ipex/grant"
	RouteAdmit   = "/exn/ipex/admit"
	RouteApply   = "/exn/registration/apply"
	RouteDecline = "/exn/registration/decline"
	RouteMessage = "/exn/registration/message"
)

// Notification is an inbound signal that an exchange message arrived. The
// same underlying event surfaces in one of two shapes: while the sender's
// key state is still unknown the agent escrows the message and embeds its
// payload directly (Embedded non-empty); once the sender is resolved the
// notification only references the message by SAID and the payload is
// fetched by dereferencing.
type Notification struct {
	ID           string
	Route        string
	Read         bool
	Sender       string
	ExchangeSAID string
	Timestamp    time.Time
	Embedded     json.RawMessage
}

// Pending reports whether this is the escrowed shape. The nominal Sender
// field of a pending notification is trustworthy enough for read-marking,
// but admission must dereference the exchange to find the true sender.
func (n Notification) Pending() bool {
	return len(n.Embedded) > 0
}

// NotificationFilter narrows a notification listing.
type NotificationFilter struct {
	Route      string
	ReadStatus *bool
}

// Unread is a ready-made filter value for the common case.
func Unread() *bool {
	v := false
	return &v
}
