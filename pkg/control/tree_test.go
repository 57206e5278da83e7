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

func TestIndex_DuplicateIDIsFatal(t *testing.T) {
	c := newContainer(t, control.ContainerConfig{ID: "form"},
		newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "guests"}}),
		newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "guests"}}),
	)

	_, err := control.Index(c)

	var cerr *domain.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, err.Error(), "guests")
}

func TestIndex_CoversWholeTree(t *testing.T) {
	inner := newContainer(t, control.ContainerConfig{ID: "party"},
		newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "adults"}}),
		newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "children"}}),
	)
	root := newContainer(t, control.ContainerConfig{ID: "booking"},
		inner,
		newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "date"}}),
	)

	index, err := control.Index(root)
	require.NoError(t, err)

	assert.Len(t, index, 5)
	for _, id := range []string{"booking", "party", "adults", "children", "date"} {
		assert.Contains(t, index, id)
	}
}

func TestCollectAndReattach(t *testing.T) {
	build := func() control.Control {
		return newContainer(t, control.ContainerConfig{ID: "booking"},
			newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "guests"}}),
		)
	}

	c := build()
	drive(t, c, testutils.Value(1, "4"))

	states, err := control.CollectState(c)
	require.NoError(t, err)
	assert.Contains(t, states, "booking")
	assert.Contains(t, states, "guests")

	// A fresh tree with the collected state behaves like the old one.
	fresh := build()
	require.NoError(t, control.Reattach(fresh, states))
	acts := drive(t, fresh, testutils.Value(2, "6"))
	testutils.RequireActTypes(t, acts, domain.ActValueChanged)
	payload := acts[0].Payload.(domain.ValuePayload)
	assert.Equal(t, int64(4), payload.Previous)
}

func TestReattach_UnknownIDsStayFresh(t *testing.T) {
	c := newContainer(t, control.ContainerConfig{ID: "booking"},
		newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "guests"}}),
	)

	// State from a control that no longer exists in the tree is ignored.
	err := control.Reattach(c, map[string]json.RawMessage{
		"removed": json.RawMessage(`{"value":1,"defined":true}`),
	})
	require.NoError(t, err)
}

func TestWalk_DepthFirstDeclarationOrder(t *testing.T) {
	inner := newContainer(t, control.ContainerConfig{ID: "party"},
		newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "adults"}}),
	)
	root := newContainer(t, control.ContainerConfig{ID: "booking"},
		inner,
		newNumber(t, control.NumberConfig{ValueConfig: control.ValueConfig{ID: "date"}}),
	)

	var visited []string
	err := control.Walk(root, func(c control.Control) error {
		visited = append(visited, c.ID())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"booking", "party", "adults", "date"}, visited)
}
