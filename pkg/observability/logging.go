package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/lendflow/pkg/domain"
)

// LogHooks logs every lifecycle event on logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn",
				"session_id", e.SessionID,
				"state", e.State,
				"automatic", e.Automatic,
				"fault", e.Fault,
				"stored", e.Stored,
			)
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "transition", "session_id", e.SessionID, "from", e.From, "to", e.To)
		},
		OnArtifact: func(ctx context.Context, e *domain.ArtifactEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "sanction letter failed", "session_id", e.SessionID, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "sanction letter written", "session_id", e.SessionID, "path", e.Path, "duration", e.Duration)
		},
		OnPhrase: func(ctx context.Context, e *domain.PhraseEvent) {
			logger.DebugContext(ctx, "phrase", "session_id", e.SessionID, "field", e.Field, "used", e.Used, "duration", e.Duration)
		},
	}
}
