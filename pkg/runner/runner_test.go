package runner_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/pkg/adapters/memory"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/aretw0/lendflow/pkg/runner"
	"github.com/aretw0/lendflow/pkg/session"
)

func newEngine() *lendflow.Engine {
	return lendflow.New(lendflow.WithArtifactGenerator(ports.ArtifactFunc(
		func(context.Context, domain.SanctionView) (string, error) {
			return "letters/sanction_letter_Asha_Rao.pdf", nil
		},
	)))
}

func runWithTimeout(t *testing.T, r *runner.Runner) *domain.Session {
	t.Helper()
	type result struct {
		sess *domain.Session
		err  error
	}
	done := make(chan result, 1)
	go func() {
		sess, err := r.Run(t.Context())
		done <- result{sess, err}
	}()

	select {
	case res := <-done:
		require.NoError(t, res.err)
		return res.sess
	case <-time.After(2 * time.Second):
		t.Fatal("Runner timed out")
		return nil
	}
}

func TestRunner_Run_FullApplication(t *testing.T) {
	input := strings.Join([]string{"loan", "Asha Rao", "2 lakh", "20000", "yes", "ABCDE1234F", "no"}, "\n") + "\n"
	out := &bytes.Buffer{}
	store := memory.NewStore()

	r := runner.New(newEngine(),
		runner.WithSessionID("asha"),
		runner.WithManager(session.NewManager(store)),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(input), out)),
	)
	sess := runWithTimeout(t, r)

	assert.Equal(t, domain.StateEnd, sess.State)
	text := out.String()
	assert.Contains(t, text, "Hello! I can assist you with a Personal Loan.")
	assert.Contains(t, text, "Congratulations Asha Rao! Your loan of Rs. 200,000 is approved.")
	assert.Contains(t, text, "[System] Sanction letter saved to letters/sanction_letter_Asha_Rao.pdf")
	assert.Contains(t, text, "Thank you for using the Loan Assistant.")
	assert.Equal(t, 1, strings.Count(text, "[System]"))

	stored, err := store.Load(context.Background(), "asha")
	require.NoError(t, err)
	assert.Equal(t, domain.StateEnd, stored.State)
	assert.Empty(t, stored.Pending, "every message should have been delivered")
}

func TestRunner_Run_ResumesSession(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	eng := newEngine()

	first := runner.New(eng,
		runner.WithSessionID("resume"),
		runner.WithManager(mgr),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("loan\nAsha Rao\n"), &bytes.Buffer{})),
	)
	sess := runWithTimeout(t, first)
	assert.Equal(t, domain.StateSalesRequirements, sess.State)

	out := &bytes.Buffer{}
	second := runner.New(eng,
		runner.WithSessionID("resume"),
		runner.WithManager(mgr),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("3 lakh\n"), out)),
	)
	sess = runWithTimeout(t, second)

	assert.NotContains(t, out.String(), "Hello!", "a resumed session is not greeted again")
	require.NotNil(t, sess.Data.Name)
	assert.Equal(t, "Asha Rao", *sess.Data.Name)
	assert.Equal(t, int64(300_000), *sess.Data.RequestedAmount)
}

func TestRunner_Run_ExitCommand(t *testing.T) {
	out := &bytes.Buffer{}
	r := runner.New(newEngine(),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("loan\nexit\n"), out)),
	)
	sess := runWithTimeout(t, r)

	assert.Equal(t, domain.StateEnd, sess.State)
	assert.NotEmpty(t, sess.ID)
	assert.Contains(t, out.String(), "Session ended. Type 'start' to restart.")
}

func TestRunner_Run_JSONHandler(t *testing.T) {
	out := &bytes.Buffer{}
	r := runner.New(newEngine(),
		runner.WithInputHandler(runner.NewJSONHandler(strings.NewReader("\"loan\"\n"), out)),
	)
	sess := runWithTimeout(t, r)

	assert.Equal(t, domain.StateSalesRequirements, sess.State)
	assert.Contains(t, out.String(), `{"type":"message","text":"Hello! I can assist you with a Personal Loan. Type 'loan' to begin."}`)
}
