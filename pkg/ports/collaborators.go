package ports

import (
	"context"

	"github.com/aretw0/lendflow/pkg/domain"
)

// ArtifactGenerator produces the sanction letter for an approved loan.
type ArtifactGenerator interface {
	// Generate renders the document and returns a path or handle to it.
	// Any failure is returned as an error; the caller keeps the session in SANCTION.
	Generate(ctx context.Context, view domain.SanctionView) (string, error)
}

// Phraser is an advisory assistant that words the prompt for the next missing field.
type Phraser interface {
	// Phrase returns one short sentence asking for field, given recent history.
	// It reports false on any failure; callers fall back to a fixed prompt.
	Phrase(ctx context.Context, history string, field domain.Field) (string, bool)
}

// PhraserFunc adapts a function to the Phraser interface.
type PhraserFunc func(ctx context.Context, history string, field domain.Field) (string, bool)

// Phrase calls f.
func (f PhraserFunc) Phrase(ctx context.Context, history string, field domain.Field) (string, bool) {
	return f(ctx, history, field)
}

// ArtifactFunc adapts a function to the ArtifactGenerator interface.
type ArtifactFunc func(ctx context.Context, view domain.SanctionView) (string, error)

// Generate calls f.
func (f ArtifactFunc) Generate(ctx context.Context, view domain.SanctionView) (string, error) {
	return f(ctx, view)
}
