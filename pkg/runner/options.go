package runner

import (
	"log/slog"

	"github.com/aretw0/lendflow/pkg/session"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithManager configures the session manager used for persistence and locking.
// Without one the runner keeps the session in memory.
func WithManager(m *session.Manager) Option {
	return func(r *Runner) {
		r.sessions = m
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.handler = handler
	}
}

// WithSessionID resumes or creates the session under id.
// An empty id starts a fresh session with a generated ID.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.sessionID = id
	}
}

// WithSignalHandling makes Run stop gracefully on SIGINT and SIGTERM.
func WithSignalHandling(enabled bool) Option {
	return func(r *Runner) {
		r.handleSignals = enabled
	}
}
