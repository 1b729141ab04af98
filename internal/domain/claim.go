package domain

// ClaimState is one step of the identity claim progression. The happy path
// runs Connecting → Admitting → Rotating → Securing → Done; ClaimError is
// terminal and reachable from any step.
type ClaimState string

const (
	ClaimConnecting ClaimState = "connecting"
	ClaimAdmitting  ClaimState = "admitting"
	ClaimRotating   ClaimState = "rotating"
	ClaimSecuring   ClaimState = "securing"
	ClaimDone       ClaimState = "done"
	ClaimError      ClaimState = "error"
)

// Terminal reports whether the state machine has stopped.
func (s ClaimState) Terminal() bool {
	return s == ClaimDone || s == ClaimError
}
