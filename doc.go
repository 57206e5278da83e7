/*
Package arbor is a dialog-management engine for multi-turn conversational
interfaces. Developers assemble a tree of reusable controls, each
responsible for acquiring, validating and confirming one piece of
information across turns; composite controls arbitrate which child
responds to an ambiguous utterance.

Arbor sits behind an upstream language-understanding service: inputs
arrive already resolved into intent and slot data, and outputs are
ordered, data-only acts that the host renders into user-facing language.
The engine never parses free text and never emits literal strings.

# Concept

Each turn the engine rebuilds the control tree from its declarative
recipe, reattaches the previous turn's persisted state by identifier,
then runs the two-phase protocol on the root: CanHandle/Handle, and, if
nothing asked the user anything, CanTakeInitiative/TakeInitiative.
The resulting state is collated into a flat identifier-keyed map and
merged non-destructively into the session store.

# Usage

	build := func() (control.Control, error) {
		age, err := control.NewNumber(control.NumberConfig{
			ValueConfig: control.ValueConfig{
				ID:       "age",
				Target:   "age",
				Required: control.Always,
			},
		})
		if err != nil {
			return nil, err
		}
		return age, nil
	}

	eng, err := arbor.New(build)
	if err != nil {
		log.Fatal(err)
	}

	result, err := eng.Turn(ctx, "conversation-123", &domain.Input{
		Kind:   domain.KindIntent,
		Intent: domain.IntentValue,
		Slots: map[string]domain.Slot{
			domain.SlotValue: {Values: []domain.ResolvedValue{{Raw: "16"}}},
		},
	})
	// result.Acts => [{value_set age {16}}]

Sessions are persisted through a pluggable StateStore (memory, file and
redis adapters ship in internal/adapters); hosts embed the engine behind
any interface, whether CLI, HTTP or MCP.
*/
package arbor
