package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

type mirrorMiddleware struct {
	next   ports.SessionStore
	mirror ports.SessionStore
}

// NewMirrorMiddleware copies every save and delete to mirror after the
// primary store succeeds. Reads only ever hit the primary store.
//
// Combine it with NewPIIMiddleware to keep a masked audit trail:
//
//	audit := NewPIIMiddleware(nil)(file.New(".lendflow/audit"))
//	store := Chain(primary, NewMirrorMiddleware(audit))
func NewMirrorMiddleware(mirror ports.SessionStore) Middleware {
	return func(next ports.SessionStore) ports.SessionStore {
		return &mirrorMiddleware{next: next, mirror: mirror}
	}
}

func (m *mirrorMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	if err := m.next.Save(ctx, sessionID, session); err != nil {
		return err
	}
	if err := m.mirror.Save(ctx, sessionID, session); err != nil {
		return fmt.Errorf("mirror save: %w", err)
	}
	return nil
}

func (m *mirrorMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *mirrorMiddleware) Delete(ctx context.Context, sessionID string) error {
	if err := m.next.Delete(ctx, sessionID); err != nil {
		return err
	}
	if err := m.mirror.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("mirror delete: %w", err)
	}
	return nil
}

func (m *mirrorMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
