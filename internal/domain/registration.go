package domain

import (
	"sort"
	"time"
)

// RegistrationApplication is an applicant's submitted profile awaiting an
// admin decision. Verified marks the post-escrow shape whose payload came
// from dereferencing the exchange message rather than the notification body.
type RegistrationApplication struct {
	Applicant      string
	SAID           string
	Profile        RegistrationApply
	SubmittedAt    time.Time
	Verified       bool
	NotificationID string
}

// DeduplicateApplications collapses retried submissions and the dual
// pending/verified shapes of the same submission to one entry per applicant.
// Verified entries win over pending ones; within a shape the most recent
// submission wins. Output order is newest first for stable UI lists.
func DeduplicateApplications(apps []RegistrationApplication) []RegistrationApplication {
	best := make(map[string]RegistrationApplication, len(apps))
	for _, app := range apps {
		cur, ok := best[app.Applicant]
		if !ok || prefer(app, cur) {
			best[app.Applicant] = app
		}
	}
	out := make([]RegistrationApplication, 0, len(best))
	for _, app := range best {
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].Applicant < out[j].Applicant
	})
	return out
}

func prefer(candidate, current RegistrationApplication) bool {
	if candidate.Verified != current.Verified {
		return candidate.Verified
	}
	return candidate.SubmittedAt.After(current.SubmittedAt)
}

// GrantOffer is a deduplicated credential grant as observed by the applicant
// side watcher. Keyed by sender plus credential SAID.
type GrantOffer struct {
	Sender         string
	GrantSAID      string
	CredentialSAID string
	Schema         string
	Message        string
	ReceivedAt     time.Time
	Verified       bool
	NotificationID string
}

// DeduplicateGrants mirrors DeduplicateApplications for grant offers.
func DeduplicateGrants(offers []GrantOffer) []GrantOffer {
	type key struct{ sender, credential string }
	best := make(map[key]GrantOffer, len(offers))
	for _, offer := range offers {
		k := key{offer.Sender, offer.CredentialSAID}
		cur, ok := best[k]
		if !ok || preferGrant(offer, cur) {
			best[k] = offer
		}
	}
	out := make([]GrantOffer, 0, len(best))
	for _, offer := range best {
		out = append(out, offer)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.After(out[j].ReceivedAt)
		}
		return out[i].GrantSAID < out[j].GrantSAID
	})
	return out
}

func preferGrant(candidate, current GrantOffer) bool {
	if candidate.Verified != current.Verified {
		return candidate.Verified
	}
	return candidate.ReceivedAt.After(current.ReceivedAt)
}
