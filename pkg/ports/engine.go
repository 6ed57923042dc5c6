package ports

import (
	"context"

	"github.com/aretw0/lendflow/pkg/domain"
)

// Conversation is the turn protocol hosting adapters drive.
// Implementations mutate the session only by applying TransitionResults.
type Conversation interface {
	// Start creates a session in MASTER with the greeting queued.
	// An empty id asks the implementation to generate one.
	Start(ctx context.Context, id string) *domain.Session

	// Turn records the applicant's input, runs the state machine and any
	// automatic states that follow. It returns an error only when the session
	// carries a state outside the enumeration.
	Turn(ctx context.Context, session *domain.Session, input string) error
}
