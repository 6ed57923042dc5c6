package domain

import (
	"fmt"
	"strings"
)

// State is a step of the loan origination workflow.
type State string

const (
	StateMaster              State = "MASTER"
	StateSalesRequirements   State = "SALES_REQUIREMENTS"
	StateUnderwritingInitial State = "UNDERWRITING_INITIAL"
	StateSalesNegotiation    State = "SALES_NEGOTIATION"
	StateVerification        State = "VERIFICATION"
	StateUnderwritingFinal   State = "UNDERWRITING_FINAL"
	StateSanction            State = "SANCTION"
	StatePostSanctionQuery   State = "POST_SANCTION_QUERY"
	StatePostSanctionHelp    State = "POST_SANCTION_HELP"
	StateEnd                 State = "END"
)

// States lists every state in workflow order.
var States = []State{
	StateMaster,
	StateSalesRequirements,
	StateUnderwritingInitial,
	StateSalesNegotiation,
	StateVerification,
	StateUnderwritingFinal,
	StateSanction,
	StatePostSanctionQuery,
	StatePostSanctionHelp,
	StateEnd,
}

// Valid reports whether s is one of the enumerated states.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Automatic reports whether the state runs without waiting for user text.
// SANCTION is automatic only until a letter exists; the engine checks that separately.
func (s State) Automatic() bool {
	switch s {
	case StateUnderwritingInitial, StateUnderwritingFinal, StateSanction:
		return true
	}
	return false
}

// Terminal reports whether s is the sink state.
func (s State) Terminal() bool {
	return s == StateEnd
}

// Ptr returns a pointer to a copy of s, for use in TransitionResult.Next.
func (s State) Ptr() *State {
	return &s
}

func (s State) String() string {
	return string(s)
}

// ParseState converts a raw (case-insensitive) name into a State.
func ParseState(raw string) (State, error) {
	s := State(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, raw)
	}
	return s, nil
}
