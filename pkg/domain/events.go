package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurn       EventType = "turn"
	EventTransition EventType = "transition"
	EventArtifact   EventType = "artifact"
	EventPhrase     EventType = "phrase"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// TurnEvent is emitted once per handled result, user driven or automatic.
type TurnEvent struct {
	EventBase
	State     State    `json:"state"`
	Automatic bool     `json:"automatic,omitempty"`
	Fault     Fault    `json:"fault,omitempty"`
	Stored    []string `json:"stored,omitempty"`
}

// TransitionEvent is emitted when the session moves between states.
type TransitionEvent struct {
	EventBase
	From State `json:"from"`
	To   State `json:"to"`
}

// ArtifactEvent reports a sanction letter generation attempt.
type ArtifactEvent struct {
	EventBase
	Path     string        `json:"path,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// PhraseEvent reports a phrasing assistant call.
type PhraseEvent struct {
	EventBase
	Field    Field         `json:"field"`
	Used     bool          `json:"used"`
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTurn       func(context.Context, *TurnEvent)
	OnTransition func(context.Context, *TransitionEvent)
	OnArtifact   func(context.Context, *ArtifactEvent)
	OnPhrase     func(context.Context, *PhraseEvent)
}

// Merge returns hooks that call h first and then other, for every callback set on either.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTurn:       chain(h.OnTurn, other.OnTurn),
		OnTransition: chain(h.OnTransition, other.OnTransition),
		OnArtifact:   chain(h.OnArtifact, other.OnArtifact),
		OnPhrase:     chain(h.OnPhrase, other.OnPhrase),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
