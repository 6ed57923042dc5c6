package runner

import (
	"context"

	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

// Reply combines the session with the messages delivered in the same step,
// for request/response clients (HTTP, MCP).
type Reply struct {
	Session  *domain.Session `json:"session"`
	Messages []string        `json:"messages"`
	Terminal bool            `json:"terminal"`
}

// Send sanitizes input, runs one turn and delivers every pending message.
// The session is mutated in place; callers persist it.
func Send(ctx context.Context, engine ports.Conversation, sess *domain.Session, input string) (*Reply, error) {
	clean, err := SanitizeInput(input)
	if err != nil {
		return nil, err
	}
	if err := engine.Turn(ctx, sess, clean); err != nil {
		return nil, err
	}
	return Deliver(sess), nil
}

// Deliver pops every pending message of sess.
func Deliver(sess *domain.Session) *Reply {
	msgs := sess.DrainPending()
	if msgs == nil {
		msgs = []string{}
	}
	return &Reply{
		Session:  sess,
		Messages: msgs,
		Terminal: sess.State.Terminal(),
	}
}

// Next pops at most one pending message, for clients that render one per cycle.
func Next(sess *domain.Session) *Reply {
	msgs := []string{}
	if msg, ok := sess.PopPending(); ok {
		msgs = append(msgs, msg)
	}
	return &Reply{
		Session:  sess,
		Messages: msgs,
		Terminal: sess.State.Terminal(),
	}
}
