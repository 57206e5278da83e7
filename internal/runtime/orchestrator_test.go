package runtime_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/control"
	"github.com/aretw0/arbor/pkg/domain"
)

// bookingTree is a two-field form: a required, confirmed guest count and
// an optional size selection.
func bookingTree() (control.Control, error) {
	guests, err := control.NewNumber(control.NumberConfig{ValueConfig: control.ValueConfig{
		ID:       "guests",
		Target:   "guest_count",
		Required: control.Always,
		Confirm:  control.Always,
	}})
	if err != nil {
		return nil, err
	}
	size, err := control.NewList(control.ListConfig{
		ValueConfig: control.ValueConfig{ID: "size", Target: "size"},
		Options:     []string{"small", "large"},
	})
	if err != nil {
		return nil, err
	}
	return control.NewContainer(control.ContainerConfig{ID: "booking"}, guests, size)
}

func TestOrchestrator_FullAcquisitionCycle(t *testing.T) {
	orch := runtime.New(bookingTree)
	ctx := context.Background()

	// Turn 1: nothing to consume on launch, so the required field asks.
	result, sess, err := orch.Turn(ctx, nil, testutils.Launch(0))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Turn)
	testutils.RequireActTypes(t, result.Acts, domain.ActRequestValue)
	assert.Equal(t, "guests", result.Acts[0].ControlID)
	assert.Contains(t, sess.Controls, "guests")

	// Turn 2: the answer needs confirmation, which is itself initiative,
	// so the initiative phase does not run again.
	result, sess, err = orch.Turn(ctx, sess, testutils.Value(0, "16"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Turn)
	testutils.RequireActTypes(t, result.Acts, domain.ActConfirmValue)

	// Turn 3: the confirmation settles and nothing else needs asking.
	result, sess, err = orch.Turn(ctx, sess, testutils.Affirm(0))
	require.NoError(t, err)
	testutils.RequireActTypes(t, result.Acts, domain.ActValueConfirmed)
	assert.Equal(t, 3, sess.Turn)
}

func TestOrchestrator_MisheardNumberRepair(t *testing.T) {
	orch := runtime.New(bookingTree)
	ctx := context.Background()

	_, sess, err := orch.Turn(ctx, nil, testutils.Launch(0))
	require.NoError(t, err)

	_, sess, err = orch.Turn(ctx, sess, testutils.Value(0, "16"))
	require.NoError(t, err)

	// "No" to the confirmation: sixteen was probably sixty.
	result, sess, err := orch.Turn(ctx, sess, testutils.Deny(0))
	require.NoError(t, err)
	testutils.RequireActTypes(t, result.Acts, domain.ActValueDisconfirmed, domain.ActSuggestValue)
	assert.Equal(t, int64(60), result.Acts[1].Payload.(domain.SuggestValuePayload).Value)

	result, _, err = orch.Turn(ctx, sess, testutils.Affirm(0))
	require.NoError(t, err)
	testutils.RequireActTypes(t, result.Acts, domain.ActValueConfirmed)
	assert.Equal(t, int64(60), result.Acts[0].Payload.(domain.ValuePayload).Value)
}

func TestOrchestrator_SessionEndSuppressesInitiative(t *testing.T) {
	orch := runtime.New(bookingTree)
	ctx := context.Background()

	result, _, err := orch.Turn(ctx, nil, testutils.SessionEnd(0))
	require.NoError(t, err)
	assert.Empty(t, result.Acts, "a closing session gets no further questions")
}

func TestOrchestrator_InputStateNeverMutated(t *testing.T) {
	orch := runtime.New(bookingTree)
	ctx := context.Background()

	sess := domain.NewSessionState()
	sess.Turn = 7
	sess.Controls["guests"] = json.RawMessage(`{"value":4,"defined":true,"confirmed":true}`)

	_, next, err := orch.Turn(ctx, sess, testutils.Value(0, "6"))
	require.NoError(t, err)

	assert.Equal(t, 7, sess.Turn, "the passed-in state must stay untouched")
	assert.JSONEq(t, `{"value":4,"defined":true,"confirmed":true}`, string(sess.Controls["guests"]))
	assert.Equal(t, 8, next.Turn)
}

func TestOrchestrator_InputNeverMutated(t *testing.T) {
	orch := runtime.New(bookingTree)

	in := testutils.Launch(0)
	result, _, err := orch.Turn(context.Background(), nil, in)
	require.NoError(t, err)

	assert.Equal(t, 0, in.Turn, "defaulting the turn must not write through the caller's input")
	assert.Equal(t, 1, result.Turn)
}

func TestOrchestrator_EventFallsThroughToInitiative(t *testing.T) {
	orch := runtime.New(bookingTree)

	// No control consumes raw UI events; the turn still runs the
	// initiative phase, so the required field asks.
	in := &domain.Input{Kind: domain.KindEvent, Event: map[string]any{"selection": "large"}}
	result, _, err := orch.Turn(context.Background(), nil, in)
	require.NoError(t, err)

	testutils.RequireActTypes(t, result.Acts, domain.ActRequestValue)
	assert.Equal(t, "guests", result.Acts[0].ControlID)
}

func TestOrchestrator_MergePreservesUnknownEntries(t *testing.T) {
	orch := runtime.New(bookingTree)
	ctx := context.Background()

	// An entry from a control the current recipe no longer builds.
	sess := domain.NewSessionState()
	sess.Controls["retired"] = json.RawMessage(`{"value":"keep me"}`)

	_, next, err := orch.Turn(ctx, sess, testutils.Launch(0))
	require.NoError(t, err)

	assert.Contains(t, next.Controls, "retired",
		"persisting a turn must not drop state the tree did not touch")
}

func TestOrchestrator_DuplicateIDFailsBeforeHandling(t *testing.T) {
	build := func() (control.Control, error) {
		a, err := control.NewNumber(control.NumberConfig{ValueConfig: control.ValueConfig{ID: "guests"}})
		if err != nil {
			return nil, err
		}
		b, err := control.NewNumber(control.NumberConfig{ValueConfig: control.ValueConfig{ID: "guests"}})
		if err != nil {
			return nil, err
		}
		return control.NewContainer(control.ContainerConfig{ID: "booking"}, a, b)
	}
	orch := runtime.New(build)

	_, _, err := orch.Turn(context.Background(), nil, testutils.Launch(0))

	var cerr *domain.ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestOrchestrator_ClaimedInitiativeMustProduceAct(t *testing.T) {
	orch := runtime.New(func() (control.Control, error) {
		return &silentRoot{}, nil
	})

	_, _, err := orch.Turn(context.Background(), nil, testutils.Launch(0))

	var perr *domain.ProtocolError
	require.ErrorAs(t, err, &perr)
}

// silentRoot claims initiative but never produces an act.
type silentRoot struct{}

func (s *silentRoot) ID() string { return "silent" }

func (s *silentRoot) CanHandle(in *domain.Input) (bool, error) { return false, nil }

func (s *silentRoot) Handle(in *domain.Input, r *control.ResultBuilder) error {
	return nil
}

func (s *silentRoot) CanTakeInitiative(in *domain.Input) (bool, error) { return true, nil }

func (s *silentRoot) TakeInitiative(in *domain.Input, r *control.ResultBuilder) error {
	return nil
}

func (s *silentRoot) State() any { return struct{}{} }

func (s *silentRoot) SetState(raw json.RawMessage) error { return nil }

func (s *silentRoot) Children() []control.Control { return nil }
