package crawl

// State is the lifecycle of the orchestrator's single crawl slot.
// Transitions: Idle -> Running -> Completed | Cancelled. A finished
// orchestrator accepts a new job, which moves it back to Running.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
