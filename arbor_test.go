package arbor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/adapters/memory"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/control"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/recipe"
)

const pizzaRecipe = `
version: 1
root:
  kind: container
  id: order
  config:
    strategy: most_recent_initiative
  children:
    - kind: number
      id: pizzas
      config:
        target: pizza_count
        required: true
        confirm: true
    - kind: multi
      id: toppings
      config:
        target: toppings
        options: [cheese, ham, olives]
`

func newPizzaEngine(t *testing.T) *arbor.Engine {
	t.Helper()
	doc, err := recipe.Parse([]byte(pizzaRecipe))
	require.NoError(t, err)
	build, err := doc.Builder()
	require.NoError(t, err)

	engine, err := arbor.New(build, arbor.WithStore(memory.NewStore()))
	require.NoError(t, err)
	return engine
}

func TestEngine_MultiTurnConversation(t *testing.T) {
	engine := newPizzaEngine(t)
	ctx := context.Background()
	conv := "order-1"

	// Turn 1: launch, the required count is elicited.
	result, err := engine.Turn(ctx, conv, testutils.Launch(0))
	require.NoError(t, err)
	testutils.RequireActTypes(t, result.Acts, domain.ActRequestValue)
	assert.Equal(t, "pizzas", result.Acts[0].ControlID)

	// Turn 2: "sixteen" is understood and asked back for confirmation.
	result, err = engine.Turn(ctx, conv, testutils.Value(0, "16"))
	require.NoError(t, err)
	testutils.RequireActTypes(t, result.Acts, domain.ActConfirmValue)

	// Turn 3: the user denies; sixteen was probably sixty.
	result, err = engine.Turn(ctx, conv, testutils.Deny(0))
	require.NoError(t, err)
	testutils.RequireActTypes(t, result.Acts, domain.ActValueDisconfirmed, domain.ActSuggestValue)
	assert.Equal(t, int64(60), result.Acts[1].Payload.(domain.SuggestValuePayload).Value)

	// Turn 4: the suggestion is accepted and settles confirmed.
	result, err = engine.Turn(ctx, conv, testutils.Affirm(0))
	require.NoError(t, err)
	testutils.RequireActTypes(t, result.Acts, domain.ActValueConfirmed)
	assert.Equal(t, int64(60), result.Acts[0].Payload.(domain.ValuePayload).Value)

	// Turn 5: toppings accumulate across turns with the add action.
	result, err = engine.Turn(ctx, conv, testutils.TargetedValue(0, "toppings", "cheese"))
	require.NoError(t, err)
	testutils.RequireActTypes(t, result.Acts, domain.ActValueSet)

	result, err = engine.Turn(ctx, conv, testutils.WithAction(testutils.TargetedValue(0, "toppings", "olives"), domain.ActionAdd))
	require.NoError(t, err)
	testutils.RequireActTypes(t, result.Acts, domain.ActValueChanged)

	// Turn 7: closing the session asks nothing further.
	result, err = engine.Turn(ctx, conv, testutils.SessionEnd(0))
	require.NoError(t, err)
	assert.Empty(t, result.Acts)
}

func TestEngine_ConversationsAreIsolated(t *testing.T) {
	engine := newPizzaEngine(t)
	ctx := context.Background()

	_, err := engine.Turn(ctx, "a", testutils.Value(0, "4"))
	require.NoError(t, err)

	// A different conversation starts from scratch: its first numeric
	// answer is a set, not a change.
	result, err := engine.Turn(ctx, "b", testutils.Value(0, "6"))
	require.NoError(t, err)
	testutils.RequireActTypes(t, result.Acts, domain.ActConfirmValue)

	conversations, err := engine.Conversations(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, conversations)

	require.NoError(t, engine.Delete(ctx, "a"))
	conversations, err = engine.Conversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, conversations)
}

func TestEngine_BrokenRecipeFailsAtStartup(t *testing.T) {
	build := func() (control.Control, error) {
		a, err := control.NewNumber(control.NumberConfig{ValueConfig: control.ValueConfig{ID: "dup"}})
		if err != nil {
			return nil, err
		}
		b, err := control.NewNumber(control.NumberConfig{ValueConfig: control.ValueConfig{ID: "dup"}})
		if err != nil {
			return nil, err
		}
		return control.NewContainer(control.ContainerConfig{ID: "root"}, a, b)
	}

	_, err := arbor.New(build)

	var cerr *domain.ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestEngine_RejectsEmptyArguments(t *testing.T) {
	engine := newPizzaEngine(t)

	_, err := engine.Turn(context.Background(), "", testutils.Launch(0))
	assert.Error(t, err)

	_, err = engine.Turn(context.Background(), "conv", nil)
	assert.Error(t, err)

	_, err = arbor.New(nil)
	assert.Error(t, err)
}
