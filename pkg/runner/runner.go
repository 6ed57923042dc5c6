package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/adapters/memory"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/aretw0/lendflow/pkg/session"
)

// Runner drives one session interactively: it delivers pending messages,
// reads input, runs a turn and persists the result, until the session ends.
type Runner struct {
	engine        ports.Conversation
	handler       IOHandler
	sessions      *session.Manager
	sessionID     string
	logger        *slog.Logger
	handleSignals bool
}

// New creates a Runner for engine. Defaults: text IO on stdin/stdout and an
// in-memory session store.
func New(engine ports.Conversation, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	if r.sessions == nil {
		r.sessions = session.NewManager(memory.NewStore(), session.WithLogger(r.logger))
	}
	return r
}

// Run executes the loop until the session reaches END, input is exhausted or
// ctx is cancelled. It returns the last persisted session.
func (r *Runner) Run(ctx context.Context) (*domain.Session, error) {
	if r.handleSignals {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	sess, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	id := sess.ID
	r.logger.Debug("runner started", "session_id", id, "state", sess.State)

	announced := artifactOf(sess)
	for {
		sess, err = r.deliver(ctx, id)
		if err != nil {
			return nil, err
		}
		if path := artifactOf(sess); path != "" && path != announced {
			announced = path
			_ = r.handler.SystemOutput(ctx, "Sanction letter saved to "+path)
		}

		if sess.State.Terminal() {
			r.logger.Debug("session ended", "session_id", id)
			return sess, nil
		}

		input, err := r.handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				r.logger.Debug("runner stopped", "session_id", id, "err", err)
				return sess, nil
			}
			return sess, fmt.Errorf("input error: %w", err)
		}

		_, err = r.sessions.Update(ctx, id, func(ctx context.Context, s *domain.Session) error {
			return r.engine.Turn(ctx, s, input)
		})
		if err != nil {
			return nil, fmt.Errorf("turn failed: %w", err)
		}
	}
}

// open resumes the configured session or starts a new one.
func (r *Runner) open(ctx context.Context) (*domain.Session, error) {
	if r.sessionID == "" {
		sess := r.engine.Start(ctx, "")
		if err := r.sessions.Save(ctx, sess.ID, sess); err != nil {
			return nil, fmt.Errorf("failed to initialize session: %w", err)
		}
		return sess, nil
	}

	sess, err := r.sessions.LoadOrStart(ctx, r.sessionID, func(id string) *domain.Session {
		return r.engine.Start(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session %s: %w", r.sessionID, err)
	}
	return sess, nil
}

// deliver pops every pending message under the session lock, then writes them.
func (r *Runner) deliver(ctx context.Context, id string) (*domain.Session, error) {
	var msgs []string
	sess, err := r.sessions.Update(ctx, id, func(_ context.Context, s *domain.Session) error {
		msgs = s.DrainPending()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to deliver messages: %w", err)
	}
	for _, msg := range msgs {
		if err := r.handler.Output(ctx, msg); err != nil {
			return nil, fmt.Errorf("output error: %w", err)
		}
	}
	return sess, nil
}

func artifactOf(s *domain.Session) string {
	if s == nil || s.Data.ArtifactPath == nil {
		return ""
	}
	return *s.Data.ArtifactPath
}
