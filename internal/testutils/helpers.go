// Package testutils holds shared test fixtures: resolved-input
// constructors and act assertions used across the engine's test suites.
package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/domain"
)

// Launch opens a conversation on the given turn.
func Launch(turn int) *domain.Input {
	return &domain.Input{Kind: domain.KindLaunch, Turn: turn}
}

// SessionEnd closes the conversation on the given turn.
func SessionEnd(turn int) *domain.Input {
	return &domain.Input{Kind: domain.KindSessionEnd, Turn: turn}
}

// Affirm is a bare "yes".
func Affirm(turn int) *domain.Input {
	return &domain.Input{Kind: domain.KindIntent, Turn: turn, Intent: domain.IntentAffirm}
}

// AffirmWith is a "yes" carrying an inline value ("yes, four").
func AffirmWith(turn int, raw string) *domain.Input {
	return &domain.Input{
		Kind:   domain.KindIntent,
		Turn:   turn,
		Intent: domain.IntentAffirm,
		Slots:  map[string]domain.Slot{domain.SlotValue: SlotOf(raw)},
	}
}

// Deny is a bare "no".
func Deny(turn int) *domain.Input {
	return &domain.Input{Kind: domain.KindIntent, Turn: turn, Intent: domain.IntentDeny}
}

// Fallback is the misunderstood-input signal.
func Fallback(turn int) *domain.Input {
	return &domain.Input{Kind: domain.KindIntent, Turn: turn, Intent: domain.IntentFallback}
}

// Value is a bare value utterance.
func Value(turn int, raw string) *domain.Input {
	return &domain.Input{
		Kind:   domain.KindIntent,
		Turn:   turn,
		Intent: domain.IntentValue,
		Slots:  map[string]domain.Slot{domain.SlotValue: SlotOf(raw)},
	}
}

// Values is a multi-value utterance.
func Values(turn int, raws ...string) *domain.Input {
	values := make([]domain.ResolvedValue, 0, len(raws))
	for _, raw := range raws {
		values = append(values, domain.ResolvedValue{Raw: raw, Known: true})
	}
	return &domain.Input{
		Kind:   domain.KindIntent,
		Turn:   turn,
		Intent: domain.IntentValue,
		Slots:  map[string]domain.Slot{domain.SlotValue: {Values: values}},
	}
}

// TargetedValue is a value utterance addressing a specific target label.
func TargetedValue(turn int, target, raw string) *domain.Input {
	in := Value(turn, raw)
	in.Slots[domain.SlotTarget] = SlotOf(target)
	return in
}

// Target is a bare target answer, as given to a disambiguation question.
func Target(turn int, target string) *domain.Input {
	return &domain.Input{
		Kind:   domain.KindIntent,
		Turn:   turn,
		Intent: domain.IntentValue,
		Slots:  map[string]domain.Slot{domain.SlotTarget: SlotOf(target)},
	}
}

// WithAction adds an action slot ("set", "change", "add") to the input.
func WithAction(in *domain.Input, action string) *domain.Input {
	in.Slots[domain.SlotAction] = SlotOf(action)
	return in
}

// SlotOf wraps one raw string into a resolved slot.
func SlotOf(raw string) domain.Slot {
	return domain.Slot{Values: []domain.ResolvedValue{{Raw: raw, Known: true}}}
}

// RequireActTypes asserts the exact ordered act type sequence.
func RequireActTypes(t *testing.T, acts []domain.Act, want ...domain.ActType) {
	t.Helper()
	got := make([]domain.ActType, 0, len(acts))
	for _, act := range acts {
		got = append(got, act.Type)
	}
	require.Equal(t, want, got)
}

// FindAct returns the first act of the given type, failing the test when
// none exists.
func FindAct(t *testing.T, acts []domain.Act, typ domain.ActType) domain.Act {
	t.Helper()
	for _, act := range acts {
		if act.Type == typ {
			return act
		}
	}
	require.Failf(t, "act not found", "no %s act in %v", typ, acts)
	return domain.Act{}
}
