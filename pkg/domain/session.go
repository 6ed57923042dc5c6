package domain

import (
	"fmt"
	"strings"
	"time"
)

// Speaker identifies who produced a history entry.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// Entry is a single line of conversation history.
type Entry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Session is the unit of conversation state, one per applicant.
type Session struct {
	ID      string   `json:"id"`
	State   State    `json:"state"`
	History []Entry  `json:"history"`
	Data    Data     `json:"data"`
	Pending []string `json:"pending_messages"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries ciphertext written by persistence middleware.
	// Live sessions never set it.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates a session in MASTER with every data field unset.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		State:     StateMaster,
		History:   []Entry{},
		Pending:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset returns the session to its initial value, keeping ID and CreatedAt.
func (s *Session) Reset() {
	s.State = StateMaster
	s.History = []Entry{}
	s.Data = Data{}
	s.Pending = []string{}
	s.UpdatedAt = time.Now().UTC()
}

// Apply merges a transition result into the session.
func (s *Session) Apply(r TransitionResult) {
	if r.Reset {
		s.Reset()
	}
	s.Data.Apply(r.Store)
	if r.Next != nil {
		s.State = *r.Next
	}
	for _, msg := range r.Messages {
		if msg != "" {
			s.Pending = append(s.Pending, msg)
		}
	}
	s.UpdatedAt = time.Now().UTC()
}

// AddUser appends an applicant message to the history.
func (s *Session) AddUser(text string) {
	s.History = append(s.History, Entry{Speaker: SpeakerUser, Text: text})
}

// PopPending delivers the oldest pending message: it is removed from the
// queue and recorded in the history as a bot entry.
func (s *Session) PopPending() (string, bool) {
	if len(s.Pending) == 0 {
		return "", false
	}
	msg := s.Pending[0]
	s.Pending = s.Pending[1:]
	s.History = append(s.History, Entry{Speaker: SpeakerBot, Text: msg})
	return msg, true
}

// DrainPending delivers every pending message in order.
func (s *Session) DrainPending() []string {
	var out []string
	for {
		msg, ok := s.PopPending()
		if !ok {
			return out
		}
		out = append(out, msg)
	}
}

// RecentHistory renders the last n history entries as "speaker: text" lines.
func (s *Session) RecentHistory(n int) string {
	hist := s.History
	if n > 0 && len(hist) > n {
		hist = hist[len(hist)-n:]
	}
	lines := make([]string, 0, len(hist))
	for _, e := range hist {
		lines = append(lines, fmt.Sprintf("%s: %s", e.Speaker, e.Text))
	}
	return strings.Join(lines, "\n")
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.History = make([]Entry, len(s.History))
	copy(out.History, s.History)
	out.Pending = make([]string, len(s.Pending))
	copy(out.Pending, s.Pending)
	out.Data = s.Data.Clone()
	return &out
}
