package auction

// Status is the lifecycle state of an auction. Ended is terminal.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
)

var allowedTransitions = map[Status][]Status{
	StatusWaiting: {StatusActive, StatusEnded},
	StatusActive:  {StatusPaused, StatusEnded},
	StatusPaused:  {StatusActive, StatusEnded},
	StatusEnded:   {},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool { return s == StatusEnded }

func (s Status) String() string { return string(s) }

func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusWaiting, StatusActive, StatusPaused, StatusEnded:
		return Status(raw), true
	default:
		return "", false
	}
}
