package claim

import "errors"

// Claim failures the UI must distinguish. The transport layer translates
// these into coded responses; everything else surfaces as a generic fatal
// claim error with a retry affordance.
var (
	// ErrInvalidClaimLink marks a link whose token decodes to a phrase that
	// controls no identifier. Not retryable; the user needs a new link.
	ErrInvalidClaimLink = errors.New("invalid claim link")

	// ErrAlreadyClaimed marks an identifier whose key state shows a prior
	// rotation. Presented as an invalid link, but kept distinct internally
	// so the engine never attempts a second rotation.
	ErrAlreadyClaimed = errors.New("identifier already claimed")

	// ErrCredentialNotDelivered means admits were submitted but no
	// credential appeared within the wait budget: the admit either silently
	// failed or the agent is stalled, and the user should retry.
	ErrCredentialNotDelivered = errors.New("credential not delivered")

	// ErrMissingSpaceInvite means no grant carried an embedded space
	// invite; completing would leave the user with a credential but no
	// community access.
	ErrMissingSpaceInvite = errors.New("grant carried no community space invite")

	// ErrUnknownSession means the session referenced by an admit request has
	// no stored secrets bundle: either it expired or it never completed a
	// claim on this server.
	ErrUnknownSession = errors.New("unknown claim session")
)
