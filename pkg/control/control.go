package control

import (
	"encoding/json"

	"github.com/aretw0/arbor/pkg/domain"
)

// Control is one node of the dialog tree. Identifiers must be unique
// across the whole tree; duplicates are a fatal configuration error.
type Control interface {
	// ID returns the stable identifier of this control.
	ID() string

	// CanHandle reports whether this control can consume the input.
	// It must be idempotent and must not mutate persisted state.
	CanHandle(in *domain.Input) (bool, error)

	// Handle consumes the input, mutating state and appending acts.
	// Calling it without a prior affirmative CanHandle on the same turn
	// returns a ProtocolError.
	Handle(in *domain.Input, result *ResultBuilder) error

	// CanTakeInitiative reports whether this control wants to drive the
	// conversation forward this turn.
	CanTakeInitiative(in *domain.Input) (bool, error)

	// TakeInitiative asks the user something, appending at least one
	// initiative act.
	TakeInitiative(in *domain.Input, result *ResultBuilder) error

	// State returns the control's serializable state blob. It must
	// survive a JSON round trip.
	State() any

	// SetState reattaches a previously persisted blob. Reattachment is
	// idempotent. A nil or empty blob leaves the control fresh.
	SetState(raw json.RawMessage) error

	// Children returns the ordered child controls, nil for leaves.
	Children() []Control
}

// Builder constructs a fresh control tree from its declarative recipe.
// The orchestrator calls it once per turn before reattaching state.
type Builder func() (Control, error)

// Targetable is implemented by controls addressable through the target
// slot. The label is the control's specific, distinguishing target; a
// container needs it to pose a disambiguation question.
type Targetable interface {
	Target() string
}

// phaseGuard enforces the phase ordering of the protocol: Handle only
// after an affirmative CanHandle, TakeInitiative only after an
// affirmative CanTakeInitiative, both within the same turn.
type phaseGuard struct {
	handleTurn int
	handleOK   bool
	initTurn   int
	initOK     bool
}

func (g *phaseGuard) noteCanHandle(turn int, ok bool) {
	g.handleTurn = turn
	g.handleOK = ok
}

func (g *phaseGuard) allowHandle(id string, turn int) error {
	if !g.handleOK || g.handleTurn != turn {
		return domain.NewProtocolError(id, "Handle", "no affirmative CanHandle recorded for turn %d", turn)
	}
	return nil
}

func (g *phaseGuard) noteCanInitiative(turn int, ok bool) {
	g.initTurn = turn
	g.initOK = ok
}

func (g *phaseGuard) allowInitiative(id string, turn int) error {
	if !g.initOK || g.initTurn != turn {
		return domain.NewProtocolError(id, "TakeInitiative", "no affirmative CanTakeInitiative recorded for turn %d", turn)
	}
	return nil
}
