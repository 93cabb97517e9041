package composer

// Action names one user operation tracked independently of the others.
type Action string

const (
	ActionSendText     Action = "send_text"
	ActionSendLocation Action = "send_location"
	ActionSendMedia    Action = "send_media"
	ActionDelete       Action = "delete"
)

// Status is the state of one action: in flight or idle, plus the error of the
// last completed attempt.
type Status struct {
	InFlight int
	LastErr  error
}

// Sending reports whether at least one attempt is still running.
func (s Status) Sending() bool {
	return s.InFlight > 0
}
