package domain

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Credential is a verifiable credential as reported by the agent wallet.
type Credential struct {
	SAID       string
	Schema     string
	Issuer     string
	Subject    string
	IssuedAt   time.Time
	Attributes map[string]any
}

// SpaceInvite is the capability payload granting community-space membership.
// It travels embedded in a grant's free-text message so credential and space
// access are delivered over one channel; a separate invite message could
// race the grant or be lost independently.
type SpaceInvite struct {
	SpaceID           string `json:"space_id"`
	InviteKey         string `json:"invite_key"`
	ReadOnlySpaceID   string `json:"read_only_space_id,omitempty"`
	ReadOnlyInviteKey string `json:"read_only_invite_key,omitempty"`
}

const inviteMarker = "space-invite:"

// Encode renders the invite for embedding in a grant message.
func (s SpaceInvite) Encode() string {
	raw, _ := json.Marshal(s)
	return inviteMarker + base64.RawURLEncoding.EncodeToString(raw)
}

// ParseSpaceInvite extracts an embedded invite from a grant's free-text
// message. The second return is false when the message carries no invite;
// a present but corrupt invite also reports false rather than returning a
// half-filled payload.
func ParseSpaceInvite(message string) (SpaceInvite, bool) {
	idx := strings.Index(message, inviteMarker)
	if idx < 0 {
		return SpaceInvite{}, false
	}
	encoded := message[idx+len(inviteMarker):]
	if end := strings.IndexAny(encoded, " \n\t"); end >= 0 {
		encoded = encoded[:end]
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return SpaceInvite{}, false
	}
	var inv SpaceInvite
	if err := json.Unmarshal(raw, &inv); err != nil {
		return SpaceInvite{}, false
	}
	if inv.SpaceID == "" || inv.InviteKey == "" {
		return SpaceInvite{}, false
	}
	return inv, true
}
