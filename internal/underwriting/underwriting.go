// Package underwriting holds the eligibility rules: income based limits,
// reasonableness of a request, negotiation acceptance and the flat EMI.
//
// Every function is pure. Amounts are whole rupees.
package underwriting

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	// LimitMultiple is how many months of income the hard limit allows.
	LimitMultiple = 20
	// SoftLimitPercent is the share of the hard limit offered as a counter offer.
	SoftLimitPercent = 85
	// ReasonableMultiple caps requests at this multiple of the hard limit.
	ReasonableMultiple = 2
	// DefaultTenure is the repayment period, in months, used when none is set.
	DefaultTenure = 12
)

// ErrInvalidTenure is returned when an EMI is requested for a non-positive tenure.
var ErrInvalidTenure = errors.New("tenure must be a positive number of months")

// HardLimit is the maximum loan the income supports.
func HardLimit(income int64) int64 {
	return income * LimitMultiple
}

// SoftLimit is floor(HardLimit × 0.85), computed in integers.
func SoftLimit(income int64) int64 {
	return HardLimit(income) * SoftLimitPercent / 100
}

// IsReasonable reports whether requested is at most twice the hard limit.
// An unknown hard limit is never reasonable.
func IsReasonable(requested int64, hard *int64) bool {
	if hard == nil {
		return false
	}
	return requested <= ReasonableMultiple*(*hard)
}

// EMI is the flat monthly installment amount / tenure, rounded half away
// from zero to two decimal places. No interest is applied.
func EMI(amount int64, tenure int) (decimal.Decimal, error) {
	if tenure <= 0 {
		return decimal.Zero, ErrInvalidTenure
	}
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(int64(tenure))).Round(2), nil
}

// Outcome classifies an eligibility check.
type Outcome string

const (
	// Eligible means the request fits inside the hard limit.
	Eligible Outcome = "eligible"
	// CounterOffer means the request exceeds the hard limit but the soft limit can be offered.
	CounterOffer Outcome = "counter_offer"
	// Unreasonable means the request is more than twice the hard limit.
	Unreasonable Outcome = "unreasonable"
)

// Assessment is the result of an initial eligibility check.
type Assessment struct {
	Requested int64
	Hard      int64
	Soft      int64
	Outcome   Outcome
}

// Suggested returns the counter offer amount, if the outcome has one.
func (a Assessment) Suggested() (int64, bool) {
	if a.Outcome != CounterOffer {
		return 0, false
	}
	return a.Soft, true
}

// Evaluate runs the initial eligibility check for a request against an income.
func Evaluate(requested, income int64) Assessment {
	a := Assessment{
		Requested: requested,
		Hard:      HardLimit(income),
		Soft:      SoftLimit(income),
	}
	switch {
	case !IsReasonable(requested, &a.Hard):
		a.Outcome = Unreasonable
	case requested <= a.Hard:
		a.Outcome = Eligible
	default:
		a.Outcome = CounterOffer
	}
	return a
}

// Offer is what the applicant agrees to when accepting a negotiation.
type Offer struct {
	Approved int64
	Tenure   int
	EMI      decimal.Decimal
}

// Accept applies the negotiation acceptance rule: the suggested amount wins
// when it is set and lower than the request, and the result never exceeds the
// hard limit. A nil or non-positive tenure falls back to DefaultTenure.
func Accept(requested int64, suggested *int64, hard int64, tenure *int) (Offer, error) {
	approved := requested
	if suggested != nil && *suggested > 0 && *suggested < requested {
		approved = *suggested
	}
	approved = min(approved, hard)

	months := DefaultTenure
	if tenure != nil && *tenure > 0 {
		months = *tenure
	}

	emi, err := EMI(approved, months)
	if err != nil {
		return Offer{}, err
	}
	return Offer{Approved: approved, Tenure: months, EMI: emi}, nil
}

// FinalApprove reports whether an accepted amount passes the final check.
func FinalApprove(approved, hard int64) bool {
	return approved <= hard
}
