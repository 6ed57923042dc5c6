package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UpdateOp says what an Update does to its field.
type UpdateOp uint8

const (
	// OpKeep leaves the field untouched. It is the zero value.
	OpKeep UpdateOp = iota
	// OpPut sets the field to Value.
	OpPut
	// OpUnset clears the field.
	OpUnset
)

// Update is a single optional field change.
type Update[T any] struct {
	Op    UpdateOp
	Value T
}

// Put builds an update that sets a field.
func Put[T any](v T) Update[T] {
	return Update[T]{Op: OpPut, Value: v}
}

// Unset builds an update that clears a field.
func Unset[T any]() Update[T] {
	return Update[T]{Op: OpUnset}
}

// Touched reports whether the update changes its field.
func (u Update[T]) Touched() bool {
	return u.Op != OpKeep
}

func (u Update[T]) apply(dst **T) {
	switch u.Op {
	case OpPut:
		v := u.Value
		*dst = &v
	case OpUnset:
		*dst = nil
	}
}

// Patch is the set of field changes a transition asks to merge into Data.
type Patch struct {
	Name            Update[string]
	RequestedAmount Update[int64]
	Income          Update[int64]
	HardLimit       Update[int64]
	SoftLimit       Update[int64]
	SuggestedAmount Update[int64]
	ApprovedAmount  Update[int64]
	Tenure          Update[int]
	EMI             Update[decimal.Decimal]
	PAN             Update[string]
	ArtifactPath    Update[string]
	SanctionedAt    Update[time.Time]
}

// Fields returns the JSON names of the fields the patch touches, in declaration order.
func (p Patch) Fields() []string {
	var out []string
	add := func(touched bool, name string) {
		if touched {
			out = append(out, name)
		}
	}
	add(p.Name.Touched(), "name")
	add(p.RequestedAmount.Touched(), "requested_amount")
	add(p.Income.Touched(), "income")
	add(p.HardLimit.Touched(), "hard_limit")
	add(p.SoftLimit.Touched(), "soft_limit")
	add(p.SuggestedAmount.Touched(), "suggested_amount")
	add(p.ApprovedAmount.Touched(), "approved_amount")
	add(p.Tenure.Touched(), "tenure")
	add(p.EMI.Touched(), "emi")
	add(p.PAN.Touched(), "pan")
	add(p.ArtifactPath.Touched(), "artifact_path")
	add(p.SanctionedAt.Touched(), "sanctioned_at")
	return out
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return len(p.Fields()) == 0
}
