package scenario

// State is the runner's lifecycle position within one run.
//
//	NotStarted -> SessionOpen -> StepRunning ... -> SessionClosed
//	                             StepRunning -> Aborted -> SessionClosed
type State int

const (
	StateNotStarted State = iota
	StateSessionOpen
	StateStepRunning
	StateAborted
	StateSessionClosed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateSessionOpen:
		return "SessionOpen"
	case StateStepRunning:
		return "StepRunning"
	case StateAborted:
		return "Aborted"
	case StateSessionClosed:
		return "SessionClosed"
	default:
		return "Unknown"
	}
}
