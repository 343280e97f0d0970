package parsersdk

// State is the lifecycle state of a plugin session.
type State int

// Session states.
const (
	// StateUnconfigured - Created; only queries and init are legal.
	StateUnconfigured State = iota

	// StateInitialized - Init succeeded; waiting for the first parse.
	StateInitialized

	// StateParsing - At least one parse succeeded.
	StateParsing

	// StateFailed - Init failed or parsing hit an unrecoverable error.
	StateFailed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateInitialized:
		return "initialized"
	case StateParsing:
		return "parsing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CanParse returns true if parse is legal in this state.
func (s State) CanParse() bool {
	return s == StateInitialized || s == StateParsing
}
