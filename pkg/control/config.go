package control

import (
	"github.com/aretw0/arbor/pkg/domain"
)

// Predicate decides a per-turn boolean such as required-ness or
// confirmation-required-ness. It receives the current turn number so
// neediness can vary turn to turn.
type Predicate func(turn int) bool

// Always and Never lift plain booleans into predicates.
var (
	Always Predicate = func(int) bool { return true }
	Never  Predicate = func(int) bool { return false }
)

// When returns Always or Never depending on b.
func When(b bool) Predicate {
	if b {
		return Always
	}
	return Never
}

// Validator inspects a candidate value. A nil result means the value
// passed. Failures are first-class data, never Go errors: the reason code
// and the already-rendered explanation flow back to the user through an
// InvalidValue act.
type Validator func(value any) *domain.Validation

// ValidateAll combines validators in order; the first failure wins.
func ValidateAll(validators ...Validator) Validator {
	return func(value any) *domain.Validation {
		for _, v := range validators {
			if v == nil {
				continue
			}
			if failure := v(value); failure != nil {
				return failure
			}
		}
		return nil
	}
}

// ValueConfig is the shared configuration of every value-acquiring leaf.
type ValueConfig struct {
	// ID is the tree-wide unique identifier. Required.
	ID string

	// Target is the specific, distinguishing label this control answers
	// to. Containers use it for disambiguation questions.
	Target string

	// AlsoTargets lists additional, possibly shared, labels the control
	// also answers to (e.g. a generic "name" next to "firstName").
	AlsoTargets []string

	// Required controls whether the control elicits a missing value when
	// it gets the initiative. Nil means never.
	Required Predicate

	// Confirm controls whether a freshly set value must be confirmed
	// before it settles. Nil means never.
	Confirm Predicate

	// Validators run, in order, on every path that could introduce or
	// retain a value, including after an affirmed confirmation.
	Validators []Validator
}

func (c ValueConfig) required(turn int) bool {
	return c.Required != nil && c.Required(turn)
}

func (c ValueConfig) confirmRequired(turn int) bool {
	return c.Confirm != nil && c.Confirm(turn)
}

// accepts reports whether the control answers to the given target label.
func (c ValueConfig) accepts(target string) bool {
	if target == c.Target {
		return target != ""
	}
	for _, t := range c.AlsoTargets {
		if t == target {
			return true
		}
	}
	return false
}
