package lendflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/internal/runtime"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

// DefaultMaxAutoSteps bounds how many automatic states run after one turn.
const DefaultMaxAutoSteps = 8

// Engine is the high-level entry point for the lendflow library.
// It wraps the internal state machine, applies its results to sessions and
// runs automatic states until the applicant has to answer.
type Engine struct {
	machine       *runtime.Machine
	artifacts     ports.ArtifactGenerator
	phraser       ports.Phraser
	phraseTimeout time.Duration
	historyWindow int
	maxAutoSteps  int
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	now           func() time.Time
	newID         func() string
}

var _ ports.Conversation = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithArtifactGenerator sets the sanction letter generator.
// Without one, the SANCTION state reports a failure and waits for a retry.
func WithArtifactGenerator(g ports.ArtifactGenerator) Option {
	return func(e *Engine) {
		e.artifacts = g
	}
}

// WithPhraser sets the optional assistant that words checklist prompts.
func WithPhraser(p ports.Phraser) Option {
	return func(e *Engine) {
		e.phraser = p
	}
}

// WithPhraseTimeout bounds each phraser call.
func WithPhraseTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.phraseTimeout = d
	}
}

// WithHistoryWindow sets how many history entries the phraser receives.
func WithHistoryWindow(n int) Option {
	return func(e *Engine) {
		e.historyWindow = n
	}
}

// WithMaxAutoSteps bounds the automatic states run after a turn.
func WithMaxAutoSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAutoSteps = n
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides how session IDs are generated when Start receives none.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// New initializes a new Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{
		historyWindow: runtime.DefaultHistoryWindow,
		maxAutoSteps:  DefaultMaxAutoSteps,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized so the runtime never receives nil.
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	eng.machine = runtime.NewMachine(
		runtime.WithArtifactGenerator(eng.artifacts),
		runtime.WithPhraser(eng.phraser),
		runtime.WithPhraseTimeout(eng.phraseTimeout),
		runtime.WithHistoryWindow(eng.historyWindow),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithClock(eng.now),
	)
	return eng
}

// Start creates a session in MASTER with the greeting queued.
// An empty id generates a UUID.
func (e *Engine) Start(ctx context.Context, id string) *domain.Session {
	if id == "" {
		id = e.newID()
	}
	sess := domain.NewSession(id)
	sess.Pending = append(sess.Pending, runtime.Greeting())
	e.logger.DebugContext(ctx, "session started", "session_id", id)
	return sess
}

// Turn records the applicant's input, dispatches it and advances through
// automatic states. The session is changed only through TransitionResults.
func (e *Engine) Turn(ctx context.Context, sess *domain.Session, input string) error {
	sess.AddUser(input)

	res, err := e.machine.Step(ctx, sess, input)
	if err != nil {
		return fmt.Errorf("session %s: %w", sess.ID, err)
	}
	e.apply(ctx, sess, res, false)

	return e.Advance(ctx, sess)
}

// Advance runs automatic states (initial and final underwriting, sanction)
// until a state waits for input, a result keeps the state, or the step
// bound is reached.
func (e *Engine) Advance(ctx context.Context, sess *domain.Session) error {
	if !sess.State.Valid() {
		return fmt.Errorf("session %s: %w: %q", sess.ID, domain.ErrInvalidState, string(sess.State))
	}

	for range e.maxAutoSteps {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, ok := e.machine.Auto(ctx, sess)
		if !ok {
			return nil
		}
		from := sess.State
		e.apply(ctx, sess, res, true)
		if res.Next == nil || *res.Next == from {
			return nil
		}
	}

	e.logger.WarnContext(ctx, "automatic step bound reached", "session_id", sess.ID, "state", sess.State)
	return nil
}

func (e *Engine) apply(ctx context.Context, sess *domain.Session, res domain.TransitionResult, automatic bool) {
	from := sess.State
	sess.Apply(res)

	if e.hooks.OnTurn != nil {
		e.hooks.OnTurn(ctx, &domain.TurnEvent{
			EventBase: e.event(domain.EventTurn, sess.ID),
			State:     sess.State,
			Automatic: automatic,
			Fault:     res.Fault,
			Stored:    res.Store.Fields(),
		})
	}

	if res.Fault != domain.FaultNone {
		e.logger.DebugContext(ctx, "turn refused", "session_id", sess.ID, "state", from, "fault", res.Fault)
	}

	if from == sess.State {
		return
	}
	e.logger.DebugContext(ctx, "transition", "session_id", sess.ID, "from", from, "to", sess.State)
	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, &domain.TransitionEvent{
			EventBase: e.event(domain.EventTransition, sess.ID),
			From:      from,
			To:        sess.State,
		})
	}
}

func (e *Engine) event(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{Timestamp: e.now().UTC(), Type: t, SessionID: sessionID}
}
