package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidState is returned when a session carries a state outside the enumeration.
var ErrInvalidState = errors.New("invalid workflow state")

// Fault classifies why a turn did not advance the workflow as the applicant intended.
// Faults are reported inside a TransitionResult; they are never returned as Go errors.
type Fault string

const (
	// FaultNone marks a turn that was handled normally.
	FaultNone Fault = ""
	// FaultValidation covers malformed amounts, identity tokens and names. The state is kept.
	FaultValidation Fault = "validation"
	// FaultPolicy covers requests the underwriting rules refuse.
	FaultPolicy Fault = "policy"
	// FaultMissingData is raised when a handler runs before its required fields exist.
	FaultMissingData Fault = "missing_data"
	// FaultExternal covers artifact generation failures.
	FaultExternal Fault = "external"
)
