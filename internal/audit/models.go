package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names the audited act. Claim transitions and admin decisions are
// the two event families this engine produces.
type Action string

const (
	ActionClaimStarted   Action = "claim_started"
	ActionClaimStep      Action = "claim_step"
	ActionClaimCompleted Action = "claim_completed"
	ActionClaimFailed    Action = "claim_failed"
	ActionGrantAdmitted  Action = "grant_admitted"
	ActionKeysRotated    Action = "keys_rotated"

	ActionRegistrationApproved Action = "registration_approved"
	ActionRegistrationDeclined Action = "registration_declined"
	ActionMemberMessaged       Action = "member_messaged"
	ActionCredentialIssued     Action = "credential_issued"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	Actor     string
	Action    Action
	Subject   string
	Detail    map[string]any
}
