package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field names the applicant-supplied values collected during SALES_REQUIREMENTS.
type Field string

const (
	FieldName          Field = "name"
	FieldLoanAmount    Field = "loan_amount"
	FieldMonthlyIncome Field = "monthly_income"
)

// Data holds the values accumulated over a session.
// A nil pointer means the field is unset.
type Data struct {
	Name            *string          `json:"name,omitempty"`
	RequestedAmount *int64           `json:"requested_amount,omitempty"`
	Income          *int64           `json:"income,omitempty"`
	HardLimit       *int64           `json:"hard_limit,omitempty"`
	SoftLimit       *int64           `json:"soft_limit,omitempty"`
	SuggestedAmount *int64           `json:"suggested_amount,omitempty"`
	ApprovedAmount  *int64           `json:"approved_amount,omitempty"`
	Tenure          *int             `json:"tenure,omitempty"`
	EMI             *decimal.Decimal `json:"emi,omitempty"`
	PAN             *string          `json:"pan,omitempty"`
	ArtifactPath    *string          `json:"artifact_path,omitempty"`
	SanctionedAt    *time.Time       `json:"sanctioned_at,omitempty"`
}

// Clone returns a copy that shares no pointers with d.
func (d Data) Clone() Data {
	return Data{
		Name:            clonePtr(d.Name),
		RequestedAmount: clonePtr(d.RequestedAmount),
		Income:          clonePtr(d.Income),
		HardLimit:       clonePtr(d.HardLimit),
		SoftLimit:       clonePtr(d.SoftLimit),
		SuggestedAmount: clonePtr(d.SuggestedAmount),
		ApprovedAmount:  clonePtr(d.ApprovedAmount),
		Tenure:          clonePtr(d.Tenure),
		EMI:             clonePtr(d.EMI),
		PAN:             clonePtr(d.PAN),
		ArtifactPath:    clonePtr(d.ArtifactPath),
		SanctionedAt:    clonePtr(d.SanctionedAt),
	}
}

// NextMissing returns the next field the requirements checklist must collect.
// The order is fixed: name, then loan amount, then monthly income.
func (d Data) NextMissing() (Field, bool) {
	switch {
	case d.Name == nil:
		return FieldName, true
	case d.RequestedAmount == nil:
		return FieldLoanAmount, true
	case d.Income == nil:
		return FieldMonthlyIncome, true
	}
	return "", false
}

// Apply merges p into d. Fields p does not touch keep their value.
func (d *Data) Apply(p Patch) {
	p.Name.apply(&d.Name)
	p.RequestedAmount.apply(&d.RequestedAmount)
	p.Income.apply(&d.Income)
	p.HardLimit.apply(&d.HardLimit)
	p.SoftLimit.apply(&d.SoftLimit)
	p.SuggestedAmount.apply(&d.SuggestedAmount)
	p.ApprovedAmount.apply(&d.ApprovedAmount)
	p.Tenure.apply(&d.Tenure)
	p.EMI.apply(&d.EMI)
	p.PAN.apply(&d.PAN)
	p.ArtifactPath.apply(&d.ArtifactPath)
	p.SanctionedAt.apply(&d.SanctionedAt)
}

// With returns a copy of d with p applied.
func (d Data) With(p Patch) Data {
	out := d.Clone()
	out.Apply(p)
	return out
}

// SanctionView is the read-only input handed to the artifact generator.
type SanctionView struct {
	Name           string          `json:"name"`
	ApprovedAmount int64           `json:"approved_amount"`
	Tenure         int             `json:"tenure"`
	EMI            decimal.Decimal `json:"emi"`
	PAN            string          `json:"pan"`
	IssuedAt       time.Time       `json:"issued_at"`
}

// SanctionView builds the artifact input. It reports false when the approved
// amount is missing. Absent optional values fall back to neutral defaults.
func (d Data) SanctionView(now time.Time) (SanctionView, bool) {
	if d.ApprovedAmount == nil {
		return SanctionView{}, false
	}
	v := SanctionView{
		Name:           "Applicant",
		ApprovedAmount: *d.ApprovedAmount,
		Tenure:         12,
		IssuedAt:       now.UTC(),
	}
	if d.Name != nil {
		v.Name = *d.Name
	}
	if d.Tenure != nil {
		v.Tenure = *d.Tenure
	}
	if d.EMI != nil {
		v.EMI = *d.EMI
	}
	if d.PAN != nil {
		v.PAN = *d.PAN
	}
	if d.SanctionedAt != nil {
		v.IssuedAt = d.SanctionedAt.UTC()
	}
	return v, true
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
