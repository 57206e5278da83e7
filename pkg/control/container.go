package control

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Strategy selects the tie-break used when several children claim the
// same input or initiative.
type Strategy string

const (
	// FirstMatch picks the first claiming child in declaration order.
	FirstMatch Strategy = "first_match"
	// MostRecentInitiative picks the child that most recently held
	// initiative when it is among the claimants, else the first.
	MostRecentInitiative Strategy = "most_recent_initiative"
)

// DisambiguationMode controls how a container resolves target ambiguity.
type DisambiguationMode string

const (
	// DisambiguationImplicit resolves ambiguity silently via the
	// tie-break strategy.
	DisambiguationImplicit DisambiguationMode = "implicit"
	// DisambiguationExplicit makes the container claim the input itself
	// and pose a disambiguation question.
	DisambiguationExplicit DisambiguationMode = "explicit"
)

// ContainerConfig configures a ContainerControl.
type ContainerConfig struct {
	ID             string
	Strategy       Strategy           // default FirstMatch
	Disambiguation DisambiguationMode // default implicit
}

type childInitiative struct {
	ControlID string `json:"control_id"`
	Turn      int    `json:"turn"`
}

type disambigCandidate struct {
	ControlID string `json:"control_id"`
	Target    string `json:"target"`
}

// disambigRecord is the in-flight disambiguation sub-dialog: the
// candidate children with their distinguishing labels plus the verbatim
// ambiguous request, so a later answer can be matched to exactly one
// candidate and the original request replayed.
type disambigRecord struct {
	Candidates []disambigCandidate `json:"candidates"`
	Original   *domain.Input       `json:"original"`
}

type containerState struct {
	LastInitiative *childInitiative `json:"last_initiative,omitempty"`
	Disambiguation *disambigRecord  `json:"disambiguation,omitempty"`
}

type planKind int

const (
	planDelegate planKind = iota
	planClaim
	planReplay
)

// containerPlan caches the arbitration decision computed during
// CanHandle for the subsequent Handle call of the same turn.
type containerPlan struct {
	kind       planKind
	turn       int
	child      Control
	original   *domain.Input
	labels     []string
	candidates []disambigCandidate
}

// ContainerControl owns an ordered sequence of children and arbitrates
// which one answers an ambiguous utterance.
type ContainerControl struct {
	cfg      ContainerConfig
	children []Control
	guard    phaseGuard
	state    containerState

	handlePlan *containerPlan
	initPlan   *containerPlan
}

// NewContainer creates a composite control over the given children, in
// declaration order.
func NewContainer(cfg ContainerConfig, children ...Control) (*ContainerControl, error) {
	if cfg.ID == "" {
		return nil, domain.NewConfigError("container requires a non-empty ID")
	}
	if len(children) == 0 {
		return nil, domain.NewConfigError("container %q requires at least one child", cfg.ID)
	}
	if cfg.Strategy == "" {
		cfg.Strategy = FirstMatch
	}
	if cfg.Disambiguation == "" {
		cfg.Disambiguation = DisambiguationImplicit
	}
	return &ContainerControl{cfg: cfg, children: children}, nil
}

func (c *ContainerControl) ID() string {
	return c.cfg.ID
}

func (c *ContainerControl) Children() []Control {
	return c.children
}

func (c *ContainerControl) childByID(id string) Control {
	for _, child := range c.children {
		if child.ID() == id {
			return child
		}
	}
	return nil
}

func (c *ContainerControl) CanHandle(in *domain.Input) (bool, error) {
	plan, err := c.planHandle(in)
	if err != nil {
		return false, err
	}
	c.handlePlan = plan
	c.guard.noteCanHandle(in.Turn, plan != nil)
	return plan != nil, nil
}

func (c *ContainerControl) planHandle(in *domain.Input) (*containerPlan, error) {
	// An in-flight disambiguation answer routes straight to the
	// recorded candidate it names.
	if rec := c.state.Disambiguation; rec != nil {
		if target := in.SlotRaw(domain.SlotTarget); target != "" {
			for _, cand := range rec.Candidates {
				if cand.Target != target {
					continue
				}
				child := c.childByID(cand.ControlID)
				if child == nil {
					return nil, domain.NewConfigError("disambiguation candidate %q is not a child of container %q", cand.ControlID, c.cfg.ID)
				}
				return &containerPlan{kind: planReplay, turn: in.Turn, child: child, original: rec.Original}, nil
			}
		}
	}

	// A misunderstood utterance may only be answered by the child that
	// most recently held initiative. An inactive child never gets it.
	if in.IsFallback() {
		last := c.state.LastInitiative
		if last == nil {
			return nil, nil
		}
		child := c.childByID(last.ControlID)
		if child == nil {
			return nil, nil
		}
		ok, err := child.CanHandle(in)
		if err != nil || !ok {
			return nil, err
		}
		return &containerPlan{kind: planDelegate, turn: in.Turn, child: child}, nil
	}

	var candidates []Control
	for _, child := range c.children {
		ok, err := child.CanHandle(in)
		if err != nil {
			return nil, err
		}
		if ok {
			candidates = append(candidates, child)
		}
	}

	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return &containerPlan{kind: planDelegate, turn: in.Turn, child: candidates[0]}, nil
	}

	// A target naming exactly one candidate's specific label removes
	// the ambiguity outright.
	if winner := specificTargetMatch(in, candidates); winner != nil {
		return &containerPlan{kind: planDelegate, turn: in.Turn, child: winner}, nil
	}

	if c.cfg.Disambiguation == DisambiguationExplicit {
		cands, labels, err := disambigLabels(c.cfg.ID, candidates)
		if err != nil {
			return nil, err
		}
		return &containerPlan{kind: planClaim, turn: in.Turn, candidates: cands, labels: labels}, nil
	}

	return &containerPlan{kind: planDelegate, turn: in.Turn, child: c.pick(candidates)}, nil
}

// specificTargetMatch returns the single candidate whose specific target
// label equals the input's target slot, or nil when the target is absent
// or shared.
func specificTargetMatch(in *domain.Input, candidates []Control) Control {
	target := in.SlotRaw(domain.SlotTarget)
	if target == "" {
		return nil
	}
	var winner Control
	for _, cand := range candidates {
		t, ok := cand.(Targetable)
		if !ok || t.Target() != target {
			continue
		}
		if winner != nil {
			return nil
		}
		winner = cand
	}
	return winner
}

// disambigLabels gathers the candidates' specific target labels in child
// order. Missing or non-distinct labels under explicit disambiguation
// are a fatal configuration error.
func disambigLabels(containerID string, candidates []Control) ([]disambigCandidate, []string, error) {
	seen := make(map[string]bool, len(candidates))
	cands := make([]disambigCandidate, 0, len(candidates))
	labels := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		t, ok := cand.(Targetable)
		if !ok || t.Target() == "" {
			return nil, nil, domain.NewConfigError("container %q: explicit disambiguation candidate %q has no specific target label", containerID, cand.ID())
		}
		label := t.Target()
		if seen[label] {
			return nil, nil, domain.NewConfigError("container %q: explicit disambiguation candidates share the target label %q", containerID, label)
		}
		seen[label] = true
		cands = append(cands, disambigCandidate{ControlID: cand.ID(), Target: label})
		labels = append(labels, label)
	}
	return cands, labels, nil
}

// pick applies the configured tie-break strategy.
func (c *ContainerControl) pick(candidates []Control) Control {
	if c.cfg.Strategy == MostRecentInitiative {
		if last := c.state.LastInitiative; last != nil {
			for _, cand := range candidates {
				if cand.ID() == last.ControlID {
					return cand
				}
			}
		}
	}
	return candidates[0]
}

func (c *ContainerControl) Handle(in *domain.Input, result *ResultBuilder) error {
	if err := c.guard.allowHandle(c.cfg.ID, in.Turn); err != nil {
		return err
	}
	plan := c.handlePlan
	if plan == nil || plan.turn != in.Turn {
		return domain.NewProtocolError(c.cfg.ID, "Handle", "no arbitration decision cached for turn %d", in.Turn)
	}

	switch plan.kind {
	case planClaim:
		c.state.Disambiguation = &disambigRecord{Candidates: plan.candidates, Original: in}
		result.Add(domain.Act{
			Type:      domain.ActDisambiguateTarget,
			ControlID: c.cfg.ID,
			Payload:   domain.DisambiguatePayload{Targets: plan.labels},
		})
		return nil

	case planReplay:
		// Consistency check: the child accepted the original request
		// when the question was posed, so it must accept the replay.
		ok, err := plan.child.CanHandle(plan.original)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewProtocolError(plan.child.ID(), "Handle", "replayed disambiguated request rejected by a child that previously accepted it")
		}
		mark := result.Len()
		if err := plan.child.Handle(plan.original, result); err != nil {
			return err
		}
		c.state.Disambiguation = nil
		c.noteChildInitiative(plan.child, in.Turn, result, mark)
		return nil

	default:
		mark := result.Len()
		if err := plan.child.Handle(in, result); err != nil {
			return err
		}
		c.noteChildInitiative(plan.child, in.Turn, result, mark)
		return nil
	}
}

func (c *ContainerControl) noteChildInitiative(child Control, turn int, result *ResultBuilder, mark int) {
	if result.InitiativeSince(mark) {
		c.state.LastInitiative = &childInitiative{ControlID: child.ID(), Turn: turn}
	}
}

func (c *ContainerControl) CanTakeInitiative(in *domain.Input) (bool, error) {
	var candidates []Control
	for _, child := range c.children {
		ok, err := child.CanTakeInitiative(in)
		if err != nil {
			return false, err
		}
		if ok {
			candidates = append(candidates, child)
		}
	}
	var plan *containerPlan
	if len(candidates) > 0 {
		plan = &containerPlan{kind: planDelegate, turn: in.Turn, child: c.pick(candidates)}
	}
	c.initPlan = plan
	c.guard.noteCanInitiative(in.Turn, plan != nil)
	return plan != nil, nil
}

func (c *ContainerControl) TakeInitiative(in *domain.Input, result *ResultBuilder) error {
	if err := c.guard.allowInitiative(c.cfg.ID, in.Turn); err != nil {
		return err
	}
	plan := c.initPlan
	if plan == nil || plan.turn != in.Turn {
		return domain.NewProtocolError(c.cfg.ID, "TakeInitiative", "no initiative decision cached for turn %d", in.Turn)
	}
	mark := result.Len()
	if err := plan.child.TakeInitiative(in, result); err != nil {
		return err
	}
	if !result.InitiativeSince(mark) {
		return domain.NewProtocolError(plan.child.ID(), "TakeInitiative", "initiative claimed but no initiative act produced")
	}
	c.state.LastInitiative = &childInitiative{ControlID: plan.child.ID(), Turn: in.Turn}
	return nil
}

func (c *ContainerControl) State() any {
	st := c.state
	return &st
}

func (c *ContainerControl) SetState(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var st containerState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("container %q: reattach state: %w", c.cfg.ID, err)
	}
	c.state = st
	return nil
}
