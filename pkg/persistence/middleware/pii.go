package middleware

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/aretw0/lendflow/internal/identity"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

// DefaultPIIFields are the data fields masked when no pattern is given.
var DefaultPIIFields = []string{"^name$", "^pan$", "^artifact_path$"}

const redacted = "***"

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks the string data fields whose
// JSON name matches one of the patterns. PAN values keep their digits; other
// fields become "***". PAN-shaped tokens in history and pending messages are
// masked as well, and so is every occurrence of a masked name or artifact path.
//
// Masking is one-way: sessions read back through this store are not the ones saved.
// Use it in front of audit or archival stores.
func NewPIIMiddleware(patternStrings []string) Middleware {
	if len(patternStrings) == 0 {
		patternStrings = DefaultPIIFields
	}
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	// Work on a copy; the engine keeps using the live session.
	masked := session.Snapshot()

	var secrets []string
	if v, ok := m.mask("name", masked.Data.Name, redactAll); ok {
		secrets = append(secrets, v)
	}
	m.mask("pan", masked.Data.PAN, identity.Mask)
	if v, ok := m.mask("artifact_path", masked.Data.ArtifactPath, redactAll); ok {
		secrets = append(secrets, v)
	}
	scrub := scrubber(secrets)

	for i := range masked.History {
		masked.History[i].Text = scrub(identity.Redact(masked.History[i].Text))
	}
	for i := range masked.Pending {
		masked.Pending[i] = scrub(identity.Redact(masked.Pending[i]))
	}

	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

// mask applies fn to the field when a pattern matches and returns the value it replaced.
func (m *piiMiddleware) mask(field string, value *string, fn func(string) string) (string, bool) {
	if value == nil {
		return "", false
	}
	for _, p := range m.patterns {
		if p.MatchString(field) {
			original := *value
			*value = fn(original)
			return original, true
		}
	}
	return "", false
}

// scrubber returns a function replacing every case-insensitive occurrence of
// the secrets with "***". Longer secrets go first so a path is not partially
// replaced by a name it contains.
func scrubber(secrets []string) func(string) string {
	alts := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s = strings.TrimSpace(s); s != "" {
			alts = append(alts, regexp.QuoteMeta(s))
		}
	}
	if len(alts) == 0 {
		return func(text string) string { return text }
	}
	slices.SortFunc(alts, func(a, b string) int { return len(b) - len(a) })
	re := regexp.MustCompile("(?i)" + strings.Join(alts, "|"))
	return func(text string) string {
		return re.ReplaceAllLiteralString(text, redacted)
	}
}

func redactAll(string) string {
	return redacted
}
