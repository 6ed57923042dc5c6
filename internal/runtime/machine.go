package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

// DefaultHistoryWindow is how many history entries the phraser sees.
const DefaultHistoryWindow = 8

// Machine is the conversation state machine.
// It never mutates a session: every decision is returned as a TransitionResult.
type Machine struct {
	artifacts     ports.ArtifactGenerator
	phraser       ports.Phraser
	phraseTimeout time.Duration
	historyWindow int
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures the Machine.
type Option func(*Machine)

// WithArtifactGenerator sets the sanction letter generator.
func WithArtifactGenerator(g ports.ArtifactGenerator) Option {
	return func(m *Machine) {
		m.artifacts = g
	}
}

// WithPhraser sets the advisory prompt assistant.
func WithPhraser(p ports.Phraser) Option {
	return func(m *Machine) {
		m.phraser = p
	}
}

// WithPhraseTimeout bounds each phraser call. Zero disables the bound.
func WithPhraseTimeout(d time.Duration) Option {
	return func(m *Machine) {
		m.phraseTimeout = d
	}
}

// WithHistoryWindow sets how many recent history entries are handed to the phraser.
func WithHistoryWindow(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.historyWindow = n
		}
	}
}

// WithLifecycleHooks registers observers for artifact and phrase events.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = h
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the time source used for sanction timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMachine creates a state machine with the given collaborators.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		historyWindow: DefaultHistoryWindow,
		logger:        logging.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// UnknownStateError is returned when a session carries a state the machine cannot dispatch.
type UnknownStateError struct {
	State domain.State
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("cannot dispatch state %q", string(e.State))
}

func (e *UnknownStateError) Unwrap() error {
	return domain.ErrInvalidState
}

// Step handles one applicant input against the session's current state.
// Global commands are checked first, then the input is dispatched to the
// handler of the current state.
func (m *Machine) Step(ctx context.Context, sess *domain.Session, input string) (domain.TransitionResult, error) {
	switch command(input) {
	case "exit", "quit", "stop":
		return closeSession(), nil
	case "start":
		return restart(), nil
	}

	switch sess.State {
	case domain.StateMaster:
		return m.master(input), nil
	case domain.StateSalesRequirements:
		return m.requirements(ctx, sess, input), nil
	case domain.StateUnderwritingInitial:
		return m.initialUnderwriting(sess.Data, domain.Patch{}), nil
	case domain.StateSalesNegotiation:
		return m.negotiation(sess.Data, input), nil
	case domain.StateVerification:
		return m.verification(input), nil
	case domain.StateUnderwritingFinal:
		return m.finalUnderwriting(sess.Data), nil
	case domain.StateSanction:
		return m.sanction(ctx, sess), nil
	case domain.StatePostSanctionQuery:
		return m.postSanctionQuery(input), nil
	case domain.StatePostSanctionHelp:
		return m.postSanctionHelp(sess.Data, input), nil
	case domain.StateEnd:
		return ended(), nil
	}
	return domain.TransitionResult{}, &UnknownStateError{State: sess.State}
}

// Auto runs the current state without applicant input when it is one of the
// automatic states. It reports false when the state waits for the applicant.
func (m *Machine) Auto(ctx context.Context, sess *domain.Session) (domain.TransitionResult, bool) {
	switch sess.State {
	case domain.StateUnderwritingInitial:
		return m.initialUnderwriting(sess.Data, domain.Patch{}), true
	case domain.StateUnderwritingFinal:
		return m.finalUnderwriting(sess.Data), true
	case domain.StateSanction:
		if sess.Data.ArtifactPath != nil {
			return domain.TransitionResult{}, false
		}
		return m.sanction(ctx, sess), true
	}
	return domain.TransitionResult{}, false
}

func command(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
