package control

import (
	"encoding/json"

	"github.com/aretw0/arbor/pkg/domain"
)

// leafControl adapts a valueMachine to the Control interface, adding the
// phase-ordering guard shared by every leaf kind.
type leafControl struct {
	guard phaseGuard
	m     valueMachine
}

func (c *leafControl) ID() string {
	return c.m.owner
}

// Target returns the specific distinguishing label for disambiguation.
func (c *leafControl) Target() string {
	return c.m.cfg.Target
}

func (c *leafControl) CanHandle(in *domain.Input) (bool, error) {
	ok := c.m.canHandle(in)
	c.guard.noteCanHandle(in.Turn, ok)
	return ok, nil
}

func (c *leafControl) Handle(in *domain.Input, result *ResultBuilder) error {
	if err := c.guard.allowHandle(c.ID(), in.Turn); err != nil {
		return err
	}
	return c.m.handle(in, result)
}

func (c *leafControl) CanTakeInitiative(in *domain.Input) (bool, error) {
	ok := c.m.canTakeInitiative(in)
	c.guard.noteCanInitiative(in.Turn, ok)
	return ok, nil
}

func (c *leafControl) TakeInitiative(in *domain.Input, result *ResultBuilder) error {
	if err := c.guard.allowInitiative(c.ID(), in.Turn); err != nil {
		return err
	}
	return c.m.takeInitiative(in, result)
}

func (c *leafControl) State() any {
	st := c.m.state
	return &st
}

func (c *leafControl) SetState(raw json.RawMessage) error {
	return c.m.restore(raw)
}

func (c *leafControl) Children() []Control {
	return nil
}

// Value returns the current value and whether one is defined. Hosts use
// it to read settled results out of a finished conversation.
func (c *leafControl) Value() (any, bool) {
	return c.m.state.Value, c.m.state.Defined
}

// Confirmed reports whether the current value has been confirmed.
func (c *leafControl) Confirmed() bool {
	return c.m.state.Confirmed
}

func newLeaf(cfg ValueConfig) (leafControl, error) {
	if cfg.ID == "" {
		return leafControl{}, domain.NewConfigError("control requires a non-empty ID")
	}
	return leafControl{m: valueMachine{owner: cfg.ID, cfg: cfg}}, nil
}
