package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/lendflow/internal/runtime"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/ports"
)

func ptr[T any](v T) *T { return &v }

func sessionIn(state domain.State, data domain.Data) *domain.Session {
	s := domain.NewSession("test")
	s.State = state
	s.Data = data
	return s
}

func step(t *testing.T, m *runtime.Machine, s *domain.Session, input string) domain.TransitionResult {
	t.Helper()
	res, err := m.Step(context.Background(), s, input)
	require.NoError(t, err)
	return res
}

func requireNext(t *testing.T, res domain.TransitionResult, want domain.State) {
	t.Helper()
	require.NotNil(t, res.Next, "expected a transition to %s", want)
	assert.Equal(t, want, *res.Next)
}

func TestMachine_GlobalCommands(t *testing.T) {
	m := runtime.NewMachine()

	for _, state := range domain.States {
		t.Run(string(state), func(t *testing.T) {
			for _, cmd := range []string{"exit", "QUIT", "  Stop "} {
				res := step(t, m, sessionIn(state, domain.Data{}), cmd)
				requireNext(t, res, domain.StateEnd)
				assert.Equal(t, []string{"Session ended. Type 'start' to restart."}, res.Messages)
			}

			res := step(t, m, sessionIn(state, domain.Data{Name: ptr("Asha")}), "Start")
			requireNext(t, res, domain.StateMaster)
			assert.True(t, res.Reset)
			assert.Equal(t, []string{"Restarted! Type 'loan' to begin."}, res.Messages)
		})
	}
}

func TestMachine_Master(t *testing.T) {
	m := runtime.NewMachine()

	res := step(t, m, sessionIn(domain.StateMaster, domain.Data{}), "I need a LOAN please")
	requireNext(t, res, domain.StateSalesRequirements)
	require.Len(t, res.Messages, 1)
	assert.Contains(t, res.Messages[0], "full name")

	res = step(t, m, sessionIn(domain.StateMaster, domain.Data{}), "hello")
	requireNext(t, res, domain.StateMaster)
	assert.Contains(t, res.Messages[0], "type 'loan'")
}

func TestMachine_Requirements_NameUnset(t *testing.T) {
	m := runtime.NewMachine()

	res := step(t, m, sessionIn(domain.StateSalesRequirements, domain.Data{}), " A ")
	requireNext(t, res, domain.StateSalesRequirements)
	assert.Equal(t, domain.FaultValidation, res.Fault)
	assert.Equal(t, []string{"Please enter your full name."}, res.Messages)
	assert.True(t, res.Store.Empty())

	res = step(t, m, sessionIn(domain.StateSalesRequirements, domain.Data{}), "  Asha Rao ")
	requireNext(t, res, domain.StateSalesRequirements)
	assert.Equal(t, domain.Put("Asha Rao"), res.Store.Name)
	assert.Equal(t, []string{runtime.FieldPrompt(domain.FieldLoanAmount)}, res.Messages)
}

func TestMachine_Requirements_AmountUnset(t *testing.T) {
	m := runtime.NewMachine()
	data := domain.Data{Name: ptr("Asha Rao")}

	res := step(t, m, sessionIn(domain.StateSalesRequirements, data), "no idea")
	requireNext(t, res, domain.StateSalesRequirements)
	assert.Equal(t, domain.FaultValidation, res.Fault)
	assert.Equal(t, []string{"Enter a valid loan amount."}, res.Messages)

	res = step(t, m, sessionIn(domain.StateSalesRequirements, data), "0")
	assert.Equal(t, domain.FaultValidation, res.Fault, "zero is not an amount")

	res = step(t, m, sessionIn(domain.StateSalesRequirements, data), "2 lakh")
	requireNext(t, res, domain.StateSalesRequirements)
	assert.Equal(t, domain.Put(int64(200_000)), res.Store.RequestedAmount)
	assert.Equal(t, []string{runtime.FieldPrompt(domain.FieldMonthlyIncome)}, res.Messages)
}

func TestMachine_Requirements_AmountUnsetWithKnownIncome(t *testing.T) {
	m := runtime.NewMachine()
	data := domain.Data{Name: ptr("Asha Rao"), Income: ptr(int64(20_000))}

	res := step(t, m, sessionIn(domain.StateSalesRequirements, data), "3 lakh")
	requireNext(t, res, domain.StateSalesNegotiation)
	assert.Equal(t, domain.Put(int64(300_000)), res.Store.RequestedAmount)
	assert.Equal(t, domain.Put(int64(400_000)), res.Store.HardLimit)
}

func TestMachine_Requirements_IncomeUnset(t *testing.T) {
	m := runtime.NewMachine()
	data := domain.Data{Name: ptr("Asha Rao"), RequestedAmount: ptr(int64(200_000))}

	res := step(t, m, sessionIn(domain.StateSalesRequirements, data), "nothing")
	requireNext(t, res, domain.StateSalesRequirements)
	assert.Equal(t, []string{"Enter a valid monthly income."}, res.Messages)

	res = step(t, m, sessionIn(domain.StateSalesRequirements, data), "income is 20k")
	requireNext(t, res, domain.StateSalesNegotiation)
	assert.Equal(t, domain.Put(int64(20_000)), res.Store.Income)
	assert.Equal(t, domain.Put(int64(400_000)), res.Store.HardLimit)
	assert.Equal(t, domain.Put(int64(340_000)), res.Store.SoftLimit)
	assert.Equal(t, domain.Unset[int64](), res.Store.SuggestedAmount)
	assert.Len(t, res.Messages, 3)
}

func TestMachine_Requirements_AllSet(t *testing.T) {
	m := runtime.NewMachine()
	data := domain.Data{Name: ptr("Asha Rao"), RequestedAmount: ptr(int64(500_000)), Income: ptr(int64(20_000))}

	res := step(t, m, sessionIn(domain.StateSalesRequirements, data), "anything")
	requireNext(t, res, domain.StateSalesNegotiation)
	assert.Equal(t, domain.Put(int64(340_000)), res.Store.SuggestedAmount)
	assert.False(t, res.Store.Income.Touched())
}

func TestMachine_InitialUnderwriting(t *testing.T) {
	m := runtime.NewMachine()

	t.Run("unreasonable", func(t *testing.T) {
		s := sessionIn(domain.StateUnderwritingInitial, domain.Data{
			Name: ptr("Asha"), RequestedAmount: ptr(int64(900_000)), Income: ptr(int64(20_000)),
		})
		res, ok := m.Auto(context.Background(), s)
		require.True(t, ok)
		requireNext(t, res, domain.StateSalesRequirements)
		assert.Equal(t, domain.FaultPolicy, res.Fault)
		assert.Contains(t, res.Messages[0], "unreasonably high")
		assert.Equal(t, domain.Unset[int64](), res.Store.RequestedAmount)

		s.Apply(res)
		field, missing := s.Data.NextMissing()
		assert.True(t, missing)
		assert.Equal(t, domain.FieldLoanAmount, field)
	})

	t.Run("missing data", func(t *testing.T) {
		res := step(t, m, sessionIn(domain.StateUnderwritingInitial, domain.Data{}), "")
		requireNext(t, res, domain.StateSalesRequirements)
		assert.Equal(t, domain.FaultMissingData, res.Fault)
		assert.Equal(t, []string{"Required data missing."}, res.Messages)
	})
}

func TestMachine_Negotiation(t *testing.T) {
	m := runtime.NewMachine()
	counter := domain.Data{
		Name:            ptr("Asha"),
		RequestedAmount: ptr(int64(500_000)),
		Income:          ptr(int64(20_000)),
		HardLimit:       ptr(int64(400_000)),
		SoftLimit:       ptr(int64(340_000)),
		SuggestedAmount: ptr(int64(340_000)),
	}

	t.Run("accept counter offer", func(t *testing.T) {
		res := step(t, m, sessionIn(domain.StateSalesNegotiation, counter), "yes")
		requireNext(t, res, domain.StateVerification)
		assert.Equal(t, domain.Put(int64(340_000)), res.Store.ApprovedAmount)
		assert.Equal(t, domain.Put(12), res.Store.Tenure)
		assert.Equal(t, "28333.33", res.Store.EMI.Value.StringFixed(2))
		assert.Contains(t, res.Messages[len(res.Messages)-1], "PAN")
	})

	t.Run("acceptance words", func(t *testing.T) {
		for _, word := range []string{"y", "OK", "proceed"} {
			res := step(t, m, sessionIn(domain.StateSalesNegotiation, counter), word)
			requireNext(t, res, domain.StateVerification)
		}
	})

	t.Run("change clears the request", func(t *testing.T) {
		for _, word := range []string{"change", "edit", "no", "N"} {
			res := step(t, m, sessionIn(domain.StateSalesNegotiation, counter), word)
			requireNext(t, res, domain.StateSalesRequirements)
			assert.Equal(t, domain.Unset[int64](), res.Store.RequestedAmount)
			assert.Equal(t, domain.Unset[int64](), res.Store.SuggestedAmount)
		}
	})

	t.Run("reasonable new amount", func(t *testing.T) {
		res := step(t, m, sessionIn(domain.StateSalesNegotiation, counter), "3,00,000")
		requireNext(t, res, domain.StateUnderwritingInitial)
		assert.Equal(t, domain.Put(int64(300_000)), res.Store.RequestedAmount)
		assert.Equal(t, []string{"Noted. Rechecking eligibility..."}, res.Messages)
	})

	t.Run("unreasonable new amount", func(t *testing.T) {
		res := step(t, m, sessionIn(domain.StateSalesNegotiation, counter), "900000")
		requireNext(t, res, domain.StateSalesNegotiation)
		assert.Equal(t, domain.FaultPolicy, res.Fault)
		assert.Contains(t, res.Messages[0], "still too high")
		assert.True(t, res.Store.Empty())
	})

	t.Run("anything else", func(t *testing.T) {
		res := step(t, m, sessionIn(domain.StateSalesNegotiation, counter), "maybe later")
		requireNext(t, res, domain.StateSalesNegotiation)
		assert.Equal(t, []string{"Say 'yes' to proceed or 'change' to edit."}, res.Messages)
	})

	t.Run("accept without limits", func(t *testing.T) {
		res := step(t, m, sessionIn(domain.StateSalesNegotiation, domain.Data{}), "yes")
		requireNext(t, res, domain.StateSalesRequirements)
		assert.Equal(t, domain.FaultMissingData, res.Fault)
	})
}

func TestMachine_Verification(t *testing.T) {
	m := runtime.NewMachine()

	res := step(t, m, sessionIn(domain.StateVerification, domain.Data{}), " abcde1234f ")
	requireNext(t, res, domain.StateUnderwritingFinal)
	assert.Equal(t, domain.Put("ABCDE1234F"), res.Store.PAN)

	res = step(t, m, sessionIn(domain.StateVerification, domain.Data{}), "ABCD1234F")
	requireNext(t, res, domain.StateVerification)
	assert.Equal(t, domain.FaultValidation, res.Fault)
	assert.Equal(t, []string{"Invalid PAN. Use format ABCDE1234F."}, res.Messages)
}

func TestMachine_FinalUnderwriting(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := runtime.NewMachine(runtime.WithClock(func() time.Time { return fixed }))

	res, ok := m.Auto(context.Background(), sessionIn(domain.StateUnderwritingFinal, domain.Data{
		Name: ptr("Asha Rao"), ApprovedAmount: ptr(int64(200_000)), HardLimit: ptr(int64(400_000)),
	}))
	require.True(t, ok)
	requireNext(t, res, domain.StateSanction)
	assert.Contains(t, res.Messages[0], "Congratulations Asha Rao!")
	assert.Equal(t, domain.Put(fixed), res.Store.SanctionedAt)

	res, _ = m.Auto(context.Background(), sessionIn(domain.StateUnderwritingFinal, domain.Data{
		ApprovedAmount: ptr(int64(500_000)), HardLimit: ptr(int64(400_000)),
	}))
	requireNext(t, res, domain.StateSalesRequirements)
	assert.Equal(t, domain.FaultPolicy, res.Fault)
	assert.Equal(t, domain.Unset[int64](), res.Store.ApprovedAmount)

	res, _ = m.Auto(context.Background(), sessionIn(domain.StateUnderwritingFinal, domain.Data{}))
	requireNext(t, res, domain.StateSalesRequirements)
	assert.Equal(t, domain.FaultMissingData, res.Fault)
}

func TestMachine_Sanction(t *testing.T) {
	approved := domain.Data{
		Name:           ptr("Asha Rao"),
		ApprovedAmount: ptr(int64(200_000)),
		Tenure:         ptr(12),
		EMI:            ptr(decimal.RequireFromString("16666.67")),
		PAN:            ptr("ABCDE1234F"),
	}

	t.Run("generates letter", func(t *testing.T) {
		var got domain.SanctionView
		var events []*domain.ArtifactEvent
		gen := ports.ArtifactFunc(func(_ context.Context, v domain.SanctionView) (string, error) {
			got = v
			return "/tmp/sanction_letter_Asha_Rao.pdf", nil
		})
		m := runtime.NewMachine(
			runtime.WithArtifactGenerator(gen),
			runtime.WithLifecycleHooks(domain.LifecycleHooks{
				OnArtifact: func(_ context.Context, e *domain.ArtifactEvent) { events = append(events, e) },
			}),
		)

		res, ok := m.Auto(context.Background(), sessionIn(domain.StateSanction, approved))
		require.True(t, ok)
		requireNext(t, res, domain.StatePostSanctionQuery)
		assert.Equal(t, domain.Put("/tmp/sanction_letter_Asha_Rao.pdf"), res.Store.ArtifactPath)
		assert.Equal(t, "Asha Rao", got.Name)
		assert.Equal(t, int64(200_000), got.ApprovedAmount)
		assert.Equal(t, "ABCDE1234F", got.PAN)
		require.Len(t, events, 1)
		assert.NoError(t, events[0].Err)
	})

	t.Run("failure stays for retry", func(t *testing.T) {
		gen := ports.ArtifactFunc(func(context.Context, domain.SanctionView) (string, error) {
			return "", errors.New("disk full")
		})
		m := runtime.NewMachine(runtime.WithArtifactGenerator(gen))

		res, ok := m.Auto(context.Background(), sessionIn(domain.StateSanction, approved))
		require.True(t, ok)
		assert.Nil(t, res.Next)
		assert.Equal(t, domain.FaultExternal, res.Fault)
		assert.Contains(t, res.Messages[0], "disk full")
		assert.True(t, res.Store.Empty())

		res = step(t, m, sessionIn(domain.StateSanction, approved), "retry")
		assert.Equal(t, domain.FaultExternal, res.Fault)
	})

	t.Run("no generator", func(t *testing.T) {
		res, ok := runtime.NewMachine().Auto(context.Background(), sessionIn(domain.StateSanction, approved))
		require.True(t, ok)
		assert.Nil(t, res.Next)
		assert.Equal(t, domain.FaultExternal, res.Fault)
	})

	t.Run("letter already exists", func(t *testing.T) {
		done := approved
		done.ArtifactPath = ptr("/tmp/letter.pdf")
		m := runtime.NewMachine()

		_, ok := m.Auto(context.Background(), sessionIn(domain.StateSanction, done))
		assert.False(t, ok)

		res := step(t, m, sessionIn(domain.StateSanction, done), "hello")
		requireNext(t, res, domain.StatePostSanctionQuery)
	})

	t.Run("no approved amount", func(t *testing.T) {
		res := step(t, runtime.NewMachine(), sessionIn(domain.StateSanction, domain.Data{}), "")
		requireNext(t, res, domain.StateSalesRequirements)
		assert.Equal(t, domain.FaultMissingData, res.Fault)
	})
}

func TestMachine_PostSanction(t *testing.T) {
	m := runtime.NewMachine()
	data := domain.Data{
		ApprovedAmount: ptr(int64(200_000)),
		Tenure:         ptr(12),
		EMI:            ptr(decimal.RequireFromString("16666.67")),
		ArtifactPath:   ptr("/tmp/letter.pdf"),
	}

	res := step(t, m, sessionIn(domain.StatePostSanctionQuery, data), "Y")
	requireNext(t, res, domain.StatePostSanctionHelp)

	res = step(t, m, sessionIn(domain.StatePostSanctionQuery, data), "no")
	requireNext(t, res, domain.StateEnd)

	res = step(t, m, sessionIn(domain.StatePostSanctionQuery, data), "perhaps")
	requireNext(t, res, domain.StatePostSanctionQuery)
	assert.Equal(t, []string{"Please reply 'yes' or 'no'."}, res.Messages)

	res = step(t, m, sessionIn(domain.StatePostSanctionHelp, data), "what is my emi?")
	requireNext(t, res, domain.StatePostSanctionHelp)
	require.Len(t, res.Messages, 3)
	assert.Contains(t, res.Messages[0], "16,666.67")
	assert.Contains(t, res.Messages[1], "/tmp/letter.pdf")

	res = step(t, m, sessionIn(domain.StatePostSanctionHelp, data), "done")
	requireNext(t, res, domain.StateEnd)
}

func TestMachine_EndIsSink(t *testing.T) {
	m := runtime.NewMachine()
	for _, input := range []string{"yes", "no", "loan", ""} {
		res := step(t, m, sessionIn(domain.StateEnd, domain.Data{}), input)
		requireNext(t, res, domain.StateEnd)
		assert.Equal(t, []string{"Session closed. Type 'start' to restart."}, res.Messages)
		assert.True(t, res.Store.Empty())
	}
}

func TestMachine_UnknownState(t *testing.T) {
	_, err := runtime.NewMachine().Step(context.Background(), sessionIn("LIMBO", domain.Data{}), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	var unknown *runtime.UnknownStateError
	assert.ErrorAs(t, err, &unknown)
}

func TestMachine_AutoWaitsForInput(t *testing.T) {
	m := runtime.NewMachine()
	for _, state := range []domain.State{
		domain.StateMaster, domain.StateSalesRequirements, domain.StateSalesNegotiation,
		domain.StateVerification, domain.StatePostSanctionQuery, domain.StatePostSanctionHelp, domain.StateEnd,
	} {
		_, ok := m.Auto(context.Background(), sessionIn(state, domain.Data{}))
		assert.False(t, ok, state)
	}
}

func TestMachine_PostSanctionKeepsCents(t *testing.T) {
	data := domain.Data{
		ApprovedAmount: ptr(int64(1) << 52),
		Tenure:         ptr(12),
		EMI:            ptr(decimal.RequireFromString("375299968947541.33")),
		ArtifactPath:   ptr("/tmp/letter.pdf"),
	}

	res := step(t, runtime.NewMachine(), sessionIn(domain.StatePostSanctionHelp, data), "emi?")
	require.NotEmpty(t, res.Messages)
	assert.Contains(t, res.Messages[0], "Rs. 375,299,968,947,541.33")
}
