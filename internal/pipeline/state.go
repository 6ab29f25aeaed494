package pipeline

import "fmt"

// State is a stage of a single summarization run.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRetrieving
	StateSummarizing
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateValidating:  "validating",
	StateRetrieving:  "retrieving",
	StateSummarizing: "summarizing",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the run has finished.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
