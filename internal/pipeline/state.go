package pipeline

import "fmt"

// State is a step of the build state machine.
//
//	Idle -> Precheck -> Cleaning -> Compiling -> Linking -> PostCleanup -> Reporting
//
// Reporting is the terminal success state. Aborted is the terminal failure
// state, reachable from Precheck, Cleaning, Compiling and Linking.
type State int

const (
	StateIdle State = iota
	StatePrecheck
	StateCleaning
	StateCompiling
	StateLinking
	StatePostCleanup
	StateReporting
	StateAborted
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StatePrecheck:    "precheck",
	StateCleaning:    "cleaning",
	StateCompiling:   "compiling",
	StateLinking:     "linking",
	StatePostCleanup: "post-cleanup",
	StateReporting:   "reporting",
	StateAborted:     "aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText renders the state name in JSON and YAML output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown pipeline state %q", text)
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateReporting || s == StateAborted
}

// Succeeded reports whether s is the terminal success state.
func (s State) Succeeded() bool {
	return s == StateReporting
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StatePrecheck
	case StatePrecheck:
		return to == StateCleaning || to == StateAborted
	case StateCleaning:
		return to == StateCompiling || to == StateAborted
	case StateCompiling:
		return to == StateLinking || to == StateAborted
	case StateLinking:
		return to == StatePostCleanup || to == StateAborted
	case StatePostCleanup:
		return to == StateReporting
	default:
		return false
	}
}
