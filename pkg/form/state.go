package form

// State is the position of a Filler in its page state machine.
type State int

const (
	// Idle is the state before Run.
	Idle State = iota
	FillingPage
	Advancing
	Submitting
	// Done is the successful terminal state.
	Done
	// Halted is the failed terminal state.
	Halted
)

var stateNames = [...]string{"idle", "filling", "advancing", "submitting", "done", "halted"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Done || s == Halted
}
