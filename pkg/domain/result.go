package domain

// TransitionResult is the state machine's output for one turn.
// It is the only channel through which the core changes a session.
type TransitionResult struct {
	// Messages are appended, in order, to the session's pending queue.
	Messages []string `json:"messages,omitempty"`

	// Next is the state to move to. Nil keeps the current state.
	Next *State `json:"next_state,omitempty"`

	// Store is merged into the session data.
	Store Patch `json:"-"`

	// Reset clears history, data and pending messages before the rest is applied.
	Reset bool `json:"reset,omitempty"`

	// Fault classifies a turn that was refused or could not complete.
	Fault Fault `json:"fault,omitempty"`
}
