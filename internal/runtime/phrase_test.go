package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lendflow/internal/runtime"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

func TestMachine_PhrasedPrompt(t *testing.T) {
	var gotHistory string
	var gotField domain.Field
	phraser := ports.PhraserFunc(func(_ context.Context, history string, field domain.Field) (string, bool) {
		gotHistory, gotField = history, field
		return "  How much would you like to borrow?  ", true
	})
	m := runtime.NewMachine(runtime.WithPhraser(phraser), runtime.WithHistoryWindow(2))

	s := sessionIn(domain.StateSalesRequirements, domain.Data{})
	s.AddUser("loan")
	s.Pending = append(s.Pending, "may I have your name?")
	s.PopPending()
	s.AddUser("Asha Rao")

	res := step(t, m, s, "Asha Rao")
	assert.Equal(t, []string{"How much would you like to borrow?"}, res.Messages)
	assert.Equal(t, domain.FieldLoanAmount, gotField)
	assert.Equal(t, "bot: may I have your name?\nuser: Asha Rao", gotHistory)
}

func TestMachine_PhraserFallback(t *testing.T) {
	cases := map[string]ports.Phraser{
		"absent": ports.PhraserFunc(func(context.Context, string, domain.Field) (string, bool) {
			return "", false
		}),
		"blank": ports.PhraserFunc(func(context.Context, string, domain.Field) (string, bool) {
			return "   ", true
		}),
	}
	for name, phraser := range cases {
		t.Run(name, func(t *testing.T) {
			var events []*domain.PhraseEvent
			m := runtime.NewMachine(
				runtime.WithPhraser(phraser),
				runtime.WithLifecycleHooks(domain.LifecycleHooks{
					OnPhrase: func(_ context.Context, e *domain.PhraseEvent) { events = append(events, e) },
				}),
			)
			res := step(t, m, sessionIn(domain.StateSalesRequirements, domain.Data{Name: ptr("Asha")}), "50k")
			assert.Equal(t, []string{runtime.FieldPrompt(domain.FieldMonthlyIncome)}, res.Messages)
			require.Len(t, events, 1)
			assert.False(t, events[0].Used)
		})
	}
}

func TestMachine_PhraserTimeout(t *testing.T) {
	phraser := ports.PhraserFunc(func(ctx context.Context, _ string, _ domain.Field) (string, bool) {
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(5 * time.Second):
			return "too late", true
		}
	})
	m := runtime.NewMachine(runtime.WithPhraser(phraser), runtime.WithPhraseTimeout(10*time.Millisecond))

	res := step(t, m, sessionIn(domain.StateSalesRequirements, domain.Data{}), "Asha Rao")
	assert.Equal(t, []string{runtime.FieldPrompt(domain.FieldLoanAmount)}, res.Messages)
}

func TestMachine_PhraserNotAskedAfterIncome(t *testing.T) {
	calls := 0
	phraser := ports.PhraserFunc(func(context.Context, string, domain.Field) (string, bool) {
		calls++
		return "ignored", true
	})
	m := runtime.NewMachine(runtime.WithPhraser(phraser))

	data := domain.Data{Name: ptr("Asha"), RequestedAmount: ptr(int64(200_000))}
	res := step(t, m, sessionIn(domain.StateSalesRequirements, data), "20000")
	requireNext(t, res, domain.StateSalesNegotiation)
	assert.Zero(t, calls)
}
