package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/aretw0/lendflow/internal/amount"
	"github.com/aretw0/lendflow/internal/identity"
	"github.com/aretw0/lendflow/internal/underwriting"
	"github.com/aretw0/lendflow/pkg/domain"
)

func result(next domain.State, messages ...string) domain.TransitionResult {
	return domain.TransitionResult{Messages: messages, Next: next.Ptr()}
}

func fault(r domain.TransitionResult, f domain.Fault) domain.TransitionResult {
	r.Fault = f
	return r
}

func missingData() domain.TransitionResult {
	return fault(result(domain.StateSalesRequirements, msgMissingData), domain.FaultMissingData)
}

func closeSession() domain.TransitionResult {
	return result(domain.StateEnd, msgSessionEnded)
}

func restart() domain.TransitionResult {
	r := result(domain.StateMaster, msgRestarted)
	r.Reset = true
	return r
}

func ended() domain.TransitionResult {
	return result(domain.StateEnd, msgSessionClosed)
}

func (m *Machine) master(input string) domain.TransitionResult {
	if strings.Contains(command(input), "loan") {
		return result(domain.StateSalesRequirements, msgAskName)
	}
	return result(domain.StateMaster, msgMasterHelp)
}

// requirements walks the name, loan amount, monthly income checklist.
// Which field is collected is decided by which fields are still unset.
func (m *Machine) requirements(ctx context.Context, sess *domain.Session, input string) domain.TransitionResult {
	field, missing := sess.Data.NextMissing()
	if !missing {
		return m.initialUnderwriting(sess.Data, domain.Patch{})
	}

	switch field {
	case domain.FieldName:
		name := strings.TrimSpace(input)
		if utf8.RuneCountInString(name) < 2 {
			return fault(result(domain.StateSalesRequirements, msgNameTooShort), domain.FaultValidation)
		}
		r := result(domain.StateSalesRequirements)
		r.Store.Name = domain.Put(name)
		return m.askNext(ctx, sess, r)

	case domain.FieldLoanAmount:
		amt, ok := amount.Parse(input)
		if !ok || amt <= 0 {
			return fault(result(domain.StateSalesRequirements, msgBadAmount), domain.FaultValidation)
		}
		patch := domain.Patch{RequestedAmount: domain.Put(amt)}
		if sess.Data.Income != nil {
			// Income is already known after a change of amount: reassess right away.
			return m.initialUnderwriting(sess.Data.With(patch), patch)
		}
		r := result(domain.StateSalesRequirements)
		r.Store = patch
		return m.askNext(ctx, sess, r)

	default:
		income, ok, hasContext := amount.ParseIncome(input)
		if !ok || income <= 0 {
			return fault(result(domain.StateSalesRequirements, msgBadIncome), domain.FaultValidation)
		}
		m.logger.Debug("income parsed", "session_id", sess.ID, "income_context", hasContext)
		patch := domain.Patch{Income: domain.Put(income)}
		return m.initialUnderwriting(sess.Data.With(patch), patch)
	}
}

// askNext appends the prompt for whichever field the checklist needs after r is applied.
func (m *Machine) askNext(ctx context.Context, sess *domain.Session, r domain.TransitionResult) domain.TransitionResult {
	field, missing := sess.Data.With(r.Store).NextMissing()
	if !missing {
		return r
	}
	r.Messages = append(r.Messages, m.prompt(ctx, sess, field))
	return r
}

// prompt asks the phraser for the next question and falls back to the fixed wording.
func (m *Machine) prompt(ctx context.Context, sess *domain.Session, field domain.Field) string {
	if m.phraser == nil {
		return FieldPrompt(field)
	}

	callCtx := ctx
	if m.phraseTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.phraseTimeout)
		defer cancel()
	}

	start := time.Now()
	text, ok := m.phraser.Phrase(callCtx, sess.RecentHistory(m.historyWindow), field)
	text = strings.TrimSpace(text)
	used := ok && text != ""

	if m.hooks.OnPhrase != nil {
		m.hooks.OnPhrase(ctx, &domain.PhraseEvent{
			EventBase: domain.EventBase{Timestamp: m.now(), Type: domain.EventPhrase, SessionID: sess.ID},
			Field:     field,
			Used:      used,
			Duration:  time.Since(start),
		})
	}

	if !used {
		m.logger.Debug("phraser unavailable, using fixed prompt", "session_id", sess.ID, "field", field)
		return FieldPrompt(field)
	}
	return text
}

// initialUnderwriting runs the eligibility check over data. Base is merged
// into the result's store so callers can record the input that triggered it.
func (m *Machine) initialUnderwriting(data domain.Data, base domain.Patch) domain.TransitionResult {
	if data.RequestedAmount == nil || data.Income == nil {
		r := missingData()
		r.Store = base
		return r
	}

	a := underwriting.Evaluate(*data.RequestedAmount, *data.Income)
	store := base
	store.HardLimit = domain.Put(a.Hard)
	store.SoftLimit = domain.Put(a.Soft)

	switch a.Outcome {
	case underwriting.Unreasonable:
		store.RequestedAmount = domain.Unset[int64]()
		store.SuggestedAmount = domain.Unset[int64]()
		r := result(domain.StateSalesRequirements,
			fmt.Sprintf("Requested amount Rs. %s is unreasonably high.", rupees(a.Requested)),
			msgLowerAmount,
		)
		r.Store = store
		r.Fault = domain.FaultPolicy
		return r

	case underwriting.Eligible:
		store.SuggestedAmount = domain.Unset[int64]()
		r := result(domain.StateSalesNegotiation,
			msgChecking,
			fmt.Sprintf("Good news, your requested amount Rs. %s is eligible.", rupees(a.Requested)),
			msgProceed,
		)
		r.Store = store
		return r
	}

	store.SuggestedAmount = domain.Put(a.Soft)
	r := result(domain.StateSalesNegotiation,
		msgChecking,
		fmt.Sprintf("Requested amount Rs. %s exceeds your limit.", rupees(a.Requested)),
		fmt.Sprintf("We can offer Rs. %s. Proceed? (yes/no/change)", rupees(a.Soft)),
	)
	r.Store = store
	return r
}

func (m *Machine) negotiation(data domain.Data, input string) domain.TransitionResult {
	switch t := command(input); t {
	case "yes", "y", "ok", "proceed":
		if data.RequestedAmount == nil || data.HardLimit == nil {
			return missingData()
		}
		offer, err := underwriting.Accept(*data.RequestedAmount, data.SuggestedAmount, *data.HardLimit, data.Tenure)
		if err != nil {
			return missingData()
		}
		r := result(domain.StateVerification,
			fmt.Sprintf("Approved amount: Rs. %s", rupees(offer.Approved)),
			fmt.Sprintf("Estimated EMI: Rs. %s", rupeesDecimal(offer.EMI)),
			msgAskPAN,
		)
		r.Store.ApprovedAmount = domain.Put(offer.Approved)
		r.Store.Tenure = domain.Put(offer.Tenure)
		r.Store.EMI = domain.Put(offer.EMI)
		return r

	case "change", "edit", "no", "n":
		r := result(domain.StateSalesRequirements, msgEnterNew)
		r.Store.RequestedAmount = domain.Unset[int64]()
		r.Store.SuggestedAmount = domain.Unset[int64]()
		return r
	}

	amt, ok := amount.Parse(input)
	if !ok || amt <= 0 {
		return fault(result(domain.StateSalesNegotiation, msgNegotiateHelp), domain.FaultValidation)
	}
	if !underwriting.IsReasonable(amt, data.HardLimit) {
		return fault(result(domain.StateSalesNegotiation,
			fmt.Sprintf("Rs. %s is still too high.", rupees(amt)),
		), domain.FaultPolicy)
	}
	r := result(domain.StateUnderwritingInitial, msgRechecking)
	r.Store.RequestedAmount = domain.Put(amt)
	return r
}

func (m *Machine) verification(input string) domain.TransitionResult {
	pan := identity.Normalize(input)
	if !identity.Valid(pan) {
		return fault(result(domain.StateVerification, msgPANInvalid), domain.FaultValidation)
	}
	r := result(domain.StateUnderwritingFinal, msgPANVerified)
	r.Store.PAN = domain.Put(pan)
	return r
}

func (m *Machine) finalUnderwriting(data domain.Data) domain.TransitionResult {
	if data.ApprovedAmount == nil || data.HardLimit == nil {
		return missingData()
	}

	if !underwriting.FinalApprove(*data.ApprovedAmount, *data.HardLimit) {
		r := fault(result(domain.StateSalesRequirements, msgFinalReject), domain.FaultPolicy)
		r.Store.ApprovedAmount = domain.Unset[int64]()
		r.Store.EMI = domain.Unset[decimal.Decimal]()
		r.Store.RequestedAmount = domain.Unset[int64]()
		r.Store.SuggestedAmount = domain.Unset[int64]()
		return r
	}

	name := "Applicant"
	if data.Name != nil {
		name = *data.Name
	}
	r := result(domain.StateSanction,
		fmt.Sprintf("Congratulations %s! Your loan of Rs. %s is approved.", name, rupees(*data.ApprovedAmount)),
		msgGenerating,
	)
	r.Store.SanctionedAt = domain.Put(m.now().UTC())
	return r
}

func (m *Machine) sanction(ctx context.Context, sess *domain.Session) domain.TransitionResult {
	data := sess.Data
	if data.ArtifactPath != nil {
		return result(domain.StatePostSanctionQuery, msgLetterReady)
	}

	view, ok := data.SanctionView(m.now())
	if !ok {
		return fault(result(domain.StateSalesRequirements, msgNoApproval), domain.FaultMissingData)
	}

	if m.artifacts == nil {
		return m.artifactFailed(sess, fmt.Errorf("no sanction letter generator configured"))
	}

	start := time.Now()
	path, err := m.artifacts.Generate(ctx, view)
	if m.hooks.OnArtifact != nil {
		m.hooks.OnArtifact(ctx, &domain.ArtifactEvent{
			EventBase: domain.EventBase{Timestamp: m.now(), Type: domain.EventArtifact, SessionID: sess.ID},
			Path:      path,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	if err != nil {
		return m.artifactFailed(sess, err)
	}

	m.logger.Info("sanction letter generated", "session_id", sess.ID, "path", path)
	r := result(domain.StatePostSanctionQuery, msgLetterReady)
	r.Store.ArtifactPath = domain.Put(path)
	return r
}

// artifactFailed keeps the session in SANCTION so the next input retries.
func (m *Machine) artifactFailed(sess *domain.Session, err error) domain.TransitionResult {
	m.logger.Warn("sanction letter generation failed", "session_id", sess.ID, "error", err)
	return domain.TransitionResult{
		Messages: []string{
			fmt.Sprintf("Failed to generate sanction letter: %v", err),
			"Send any message to try again.",
		},
		Fault: domain.FaultExternal,
	}
}

func (m *Machine) postSanctionQuery(input string) domain.TransitionResult {
	switch command(input) {
	case "yes", "y":
		return result(domain.StatePostSanctionHelp, msgHelpPrompt)
	case "no", "n":
		return result(domain.StateEnd, msgGoodbye)
	}
	return fault(result(domain.StatePostSanctionQuery, msgYesOrNo), domain.FaultValidation)
}

func (m *Machine) postSanctionHelp(data domain.Data, input string) domain.TransitionResult {
	switch command(input) {
	case "no", "n", "done":
		return result(domain.StateEnd, msgGoodbye)
	}
	msgs := summary(data)
	msgs = append(msgs, msgHelpMore)
	return result(domain.StatePostSanctionHelp, msgs...)
}

// summary describes the sanctioned loan for follow-up questions.
func summary(data domain.Data) []string {
	if data.ApprovedAmount == nil {
		return []string{msgNoApproval}
	}
	tenure := underwriting.DefaultTenure
	if data.Tenure != nil {
		tenure = *data.Tenure
	}
	line := fmt.Sprintf("Your sanctioned loan is Rs. %s over %d months", rupees(*data.ApprovedAmount), tenure)
	if data.EMI != nil {
		line += fmt.Sprintf(" with an EMI of Rs. %s", rupeesDecimal(*data.EMI))
	}
	out := []string{line + "."}
	if data.ArtifactPath != nil {
		out = append(out, fmt.Sprintf("Your sanction letter is saved at %s.", *data.ArtifactPath))
	}
	return out
}
