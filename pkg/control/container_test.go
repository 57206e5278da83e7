package control_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/control"
	"github.com/aretw0/arbor/pkg/domain"
)

func newContainer(t *testing.T, cfg control.ContainerConfig, children ...control.Control) *control.ContainerControl {
	t.Helper()
	c, err := control.NewContainer(cfg, children...)
	require.NoError(t, err)
	return c
}

func nameLeaf(t *testing.T, id, target string) *control.ValueControl {
	t.Helper()
	c, err := control.NewValue(control.ValueConfig{
		ID:          id,
		Target:      target,
		AlsoTargets: []string{"name"},
		Required:    control.Always,
	})
	require.NoError(t, err)
	return c
}

func TestContainer_SingleClaimantDelegates(t *testing.T) {
	guests := newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "guests", Target: "guest_count"}})
	size := newList(t, control.ListConfig{
		ValueConfig: control.ValueConfig{ID: "size", Target: "size"},
		Options:     []string{"small", "large"},
	})
	c := newContainer(t, control.ContainerConfig{ID: "booking"}, guests, size)

	acts := drive(t, c, testutils.TargetedValue(1, "guest_count", "4"))

	testutils.RequireActTypes(t, acts, domain.ActValueSet)
	assert.Equal(t, "guests", acts[0].ControlID)
}

func TestContainer_FirstMatchPicksDeclarationOrder(t *testing.T) {
	first := newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "adults"}})
	second := newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "children"}})
	c := newContainer(t, control.ContainerConfig{ID: "party", Strategy: control.FirstMatch}, first, second)

	// A bare number is claimable by both children.
	acts := drive(t, c, testutils.Value(1, "3"))

	testutils.RequireActTypes(t, acts, domain.ActValueSet)
	assert.Equal(t, "adults", acts[0].ControlID)
}

func TestContainer_MostRecentInitiativeBiasesArbitration(t *testing.T) {
	adults := newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "adults"}})
	children := newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{
		ID:       "children",
		Required: control.Always,
	}})
	c := newContainer(t, control.ContainerConfig{
		ID:       "party",
		Strategy: control.MostRecentInitiative,
	}, adults, children)

	// Only the second child asks a question, so it holds the initiative.
	acts := driveInitiative(t, c, testutils.Launch(1))
	testutils.RequireActTypes(t, acts, domain.ActRequestValue)
	require.Equal(t, "children", acts[0].ControlID)

	// The ambiguous answer goes to the child that asked, not the first.
	acts = drive(t, c, testutils.Value(2, "3"))
	testutils.RequireActTypes(t, acts, domain.ActValueSet)
	assert.Equal(t, "children", acts[0].ControlID)
}

func TestContainer_FallbackWithoutInitiativeIsUnclaimed(t *testing.T) {
	adults := newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "adults"}})
	c := newContainer(t, control.ContainerConfig{ID: "party"}, adults)

	ok, err := c.CanHandle(testutils.Fallback(1))
	require.NoError(t, err)
	assert.False(t, ok, "a misunderstood utterance with no one holding initiative stays unclaimed")
}

func TestContainer_ExplicitDisambiguationAsksAndReplays(t *testing.T) {
	firstName := nameLeaf(t, "firstName", "first_name")
	lastName := nameLeaf(t, "lastName", "last_name")
	c := newContainer(t, control.ContainerConfig{
		ID:             "nameForm",
		Disambiguation: control.DisambiguationExplicit,
	}, firstName, lastName)

	// "Fred" answers to the shared "name" label of both children, so the
	// container claims the turn and asks which one was meant.
	acts := drive(t, c, testutils.TargetedValue(1, "name", "Fred"))
	testutils.RequireActTypes(t, acts, domain.ActDisambiguateTarget)
	assert.Equal(t, "nameForm", acts[0].ControlID)
	payload := acts[0].Payload.(domain.DisambiguatePayload)
	assert.Equal(t, []string{"first_name", "last_name"}, payload.Targets)

	// The answer routes the original, verbatim request to the named child.
	acts = drive(t, c, testutils.Target(2, "first_name"))
	testutils.RequireActTypes(t, acts, domain.ActValueSet)
	assert.Equal(t, "firstName", acts[0].ControlID)
	assert.Equal(t, "Fred", acts[0].Payload.(domain.ValuePayload).Value)
}

func TestContainer_DisambiguationSurvivesRoundTrip(t *testing.T) {
	build := func() *control.ContainerControl {
		return newContainer(t, control.ContainerConfig{
			ID:             "nameForm",
			Disambiguation: control.DisambiguationExplicit,
		}, nameLeaf(t, "firstName", "first_name"), nameLeaf(t, "lastName", "last_name"))
	}

	c := build()
	drive(t, c, testutils.TargetedValue(1, "name", "Fred"))

	blob, err := json.Marshal(c.State())
	require.NoError(t, err)

	// The next turn runs on a freshly built tree.
	fresh := build()
	require.NoError(t, fresh.SetState(blob))

	acts := drive(t, fresh, testutils.Target(2, "last_name"))
	testutils.RequireActTypes(t, acts, domain.ActValueSet)
	assert.Equal(t, "lastName", acts[0].ControlID)
	assert.Equal(t, "Fred", acts[0].Payload.(domain.ValuePayload).Value)
}

func TestContainer_SpecificTargetBeatsDisambiguation(t *testing.T) {
	c := newContainer(t, control.ContainerConfig{
		ID:             "nameForm",
		Disambiguation: control.DisambiguationExplicit,
	}, nameLeaf(t, "firstName", "first_name"), nameLeaf(t, "lastName", "last_name"))

	// Addressing the specific label needs no question.
	acts := drive(t, c, testutils.TargetedValue(1, "first_name", "Fred"))

	testutils.RequireActTypes(t, acts, domain.ActValueSet)
	assert.Equal(t, "firstName", acts[0].ControlID)
}

func TestContainer_ExplicitModeNeedsDistinctLabels(t *testing.T) {
	c := newContainer(t, control.ContainerConfig{
		ID:             "nameForm",
		Disambiguation: control.DisambiguationExplicit,
	}, nameLeaf(t, "a", "name_label"), nameLeaf(t, "b", "name_label"))

	_, err := c.CanHandle(testutils.TargetedValue(1, "name", "Fred"))

	var cerr *domain.ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestContainer_ImplicitModeResolvesSilently(t *testing.T) {
	c := newContainer(t, control.ContainerConfig{
		ID:             "nameForm",
		Disambiguation: control.DisambiguationImplicit,
	}, nameLeaf(t, "firstName", "first_name"), nameLeaf(t, "lastName", "last_name"))

	acts := drive(t, c, testutils.TargetedValue(1, "name", "Fred"))

	testutils.RequireActTypes(t, acts, domain.ActValueSet)
	assert.Equal(t, "firstName", acts[0].ControlID)
}

func TestContainer_HandleWithoutCanHandleIsProtocolError(t *testing.T) {
	c := newContainer(t, control.ContainerConfig{ID: "party"},
		newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "adults"}}))

	err := c.Handle(testutils.Value(1, "3"), control.NewResult())

	var perr *domain.ProtocolError
	require.ErrorAs(t, err, &perr)
}

func TestContainer_ReplayDisagreementIsProtocolError(t *testing.T) {
	fickle := &fickleControl{id: "fickle", target: "first_name", claims: 1}
	steady := nameLeaf(t, "lastName", "last_name")
	c := newContainer(t, control.ContainerConfig{
		ID:             "nameForm",
		Disambiguation: control.DisambiguationExplicit,
	}, fickle, steady)

	drive(t, c, testutils.TargetedValue(1, "name", "Fred"))

	// The fickle child stops claiming the original request, so the
	// replay's consistency check fails loudly.
	in := testutils.Target(2, "first_name")
	ok, err := c.CanHandle(in)
	require.NoError(t, err)
	require.True(t, ok)

	err = c.Handle(in, control.NewResult())
	var perr *domain.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "fickle", perr.ControlID)
}

func TestContainer_InitiativeWithoutActIsProtocolError(t *testing.T) {
	silent := &silentControl{id: "silent"}
	c := newContainer(t, control.ContainerConfig{ID: "party"}, silent)

	ok, err := c.CanTakeInitiative(testutils.Launch(1))
	require.NoError(t, err)
	require.True(t, ok)

	err = c.TakeInitiative(testutils.Launch(1), control.NewResult())
	var perr *domain.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "silent", perr.ControlID)
}

// fickleControl claims value inputs a limited number of times, to force
// a replay consistency violation.
type fickleControl struct {
	id     string
	target string
	claims int
}

func (f *fickleControl) ID() string { return f.id }
func (f *fickleControl) CanHandle(in *domain.Input) (bool, error) {
	if _, ok := in.Slot(domain.SlotValue); !ok {
		return false, nil
	}
	if f.claims <= 0 {
		return false, nil
	}
	f.claims--
	return true, nil
}
func (f *fickleControl) Handle(in *domain.Input, r *control.ResultBuilder) error { return nil }

func (f *fickleControl) CanTakeInitiative(in *domain.Input) (bool, error) { return false, nil }

func (f *fickleControl) TakeInitiative(in *domain.Input, r *control.ResultBuilder) error {
	return nil
}

func (f *fickleControl) State() any { return struct{}{} }

func (f *fickleControl) SetState(raw json.RawMessage) error { return nil }

func (f *fickleControl) Children() []control.Control { return nil }

func (f *fickleControl) Target() string { return f.target }

// silentControl claims initiative but never produces an act.
type silentControl struct {
	id string
}

func (s *silentControl) ID() string { return s.id }

func (s *silentControl) CanHandle(in *domain.Input) (bool, error) { return false, nil }

func (s *silentControl) Handle(in *domain.Input, r *control.ResultBuilder) error {
	return nil
}

func (s *silentControl) CanTakeInitiative(in *domain.Input) (bool, error) { return true, nil }

func (s *silentControl) TakeInitiative(in *domain.Input, r *control.ResultBuilder) error {
	return nil
}

func (s *silentControl) State() any { return struct{}{} }

func (s *silentControl) SetState(raw json.RawMessage) error { return nil }

func (s *silentControl) Children() []control.Control { return nil }
