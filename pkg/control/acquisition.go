package control

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aretw0/arbor/pkg/domain"
)

// initiativeNote records the most recently issued initiative act so a
// later bare "yes"/"no" can be attributed correctly. Value carries the
// pending candidate while a suggestion is on the table.
type initiativeNote struct {
	Act   domain.ActType `json:"act"`
	Turn  int            `json:"turn"`
	Value any            `json:"value,omitempty"`
}

func (n *initiativeNote) confirming() bool {
	return n != nil && (n.Act == domain.ActConfirmValue || n.Act == domain.ActSuggestValue)
}

// acquisitionState is the serializable state shared by every leaf kind.
type acquisitionState struct {
	Value   any  `json:"value,omitempty"`
	Defined bool `json:"defined,omitempty"`
	// Previous keeps the prior value for "changed" framing.
	Previous  any  `json:"previous,omitempty"`
	Confirmed bool `json:"confirmed,omitempty"`
	// Initiative is the most recently issued initiative act.
	Initiative *initiativeNote `json:"initiative,omitempty"`
	// Elicitation tags an in-flight elicitation with the action that
	// started it ("set" or "change"), so a later bare value attributes
	// to the right flow.
	Elicitation string `json:"elicitation,omitempty"`
}

// valueMachine is the reusable acquisition cycle (set, validate,
// confirm, disconfirm, suggest, settle) that every leaf control
// composes instead of re-deriving.
type valueMachine struct {
	owner string
	cfg   ValueConfig

	state acquisitionState

	// coerce turns a slot into a typed candidate. A failure here is
	// validation data, not an error.
	coerce func(s domain.Slot) (any, *domain.Validation)
	// alternate computes the single likely alternate interpretation of
	// a rejected value, if one exists.
	alternate func(rejected any) (any, bool)
	// normalize repairs JSON round-trip type drift after reattachment
	// (e.g. float64 back to int64).
	normalize func(v any) any
	// merge combines the existing value with an incoming one for the
	// "add" action. Nil means add behaves like set.
	merge func(existing, incoming any) any
}

func (m *valueMachine) normalizeValue(v any) any {
	if v == nil || m.normalize == nil {
		return v
	}
	return m.normalize(v)
}

func (m *valueMachine) equal(a, b any) bool {
	return reflect.DeepEqual(m.normalizeValue(a), m.normalizeValue(b))
}

func (m *valueMachine) validate(v any) *domain.Validation {
	return ValidateAll(m.cfg.Validators...)(v)
}

// pendingValue is the value a confirmation question is currently about.
func (m *valueMachine) pendingValue() any {
	if n := m.state.Initiative; n != nil && n.Act == domain.ActSuggestValue {
		return n.Value
	}
	return m.state.Value
}

// setValue assigns a new value. Setting always clears confirmation, even
// when the value is unchanged. Reports whether a value was defined before.
func (m *valueMachine) setValue(v any) bool {
	wasDefined := m.state.Defined
	if wasDefined {
		m.state.Previous = m.state.Value
	}
	m.state.Value = v
	m.state.Defined = true
	m.state.Confirmed = false
	return wasDefined
}

func (m *valueMachine) clearValue() {
	m.state.Value = nil
	m.state.Defined = false
	m.state.Previous = nil
	m.state.Confirmed = false
}

// canHandle decides, without mutating state, whether the input belongs
// to this control's acquisition cycle.
func (m *valueMachine) canHandle(in *domain.Input) bool {
	if in.Kind != domain.KindIntent {
		return false
	}
	switch in.Intent {
	case domain.IntentAffirm, domain.IntentDeny:
		// A bare yes/no only means something while a confirmation or
		// suggestion of ours is on the table.
		return m.state.Initiative.confirming()
	case domain.IntentFallback:
		return false
	}
	if _, ok := in.Slot(domain.SlotValue); !ok {
		return false
	}
	if target := in.SlotRaw(domain.SlotTarget); target != "" {
		return m.cfg.accepts(target)
	}
	return true
}

func (m *valueMachine) handle(in *domain.Input, r *ResultBuilder) error {
	switch {
	case in.IsIntent(domain.IntentDeny):
		return m.handleDeny(in, r)
	case in.IsIntent(domain.IntentAffirm):
		return m.handleAffirm(in, r)
	}
	if slot, ok := in.Slot(domain.SlotValue); ok {
		return m.handleValue(in, slot, r)
	}
	return domain.NewProtocolError(m.owner, "Handle", "input matched CanHandle but no consume path applies")
}

// handleValue runs the set/change flow for a value-bearing input.
func (m *valueMachine) handleValue(in *domain.Input, slot domain.Slot, r *ResultBuilder) error {
	action := in.SlotRaw(domain.SlotAction)
	if action == "" {
		// Bare value: attribute to whichever action started the
		// in-flight elicitation, defaulting to set.
		action = m.state.Elicitation
	}
	if action == "" {
		action = domain.ActionSet
	}

	candidate, failure := m.coerce(slot)
	if failure != nil {
		m.invalid(in.Turn, action, slot.Raw(), failure, r)
		return nil
	}
	if action == domain.ActionAdd && m.merge != nil && m.state.Defined {
		candidate = m.merge(m.state.Value, candidate)
	}

	if m.cfg.confirmRequired(in.Turn) {
		// Validation is deferred to the affirm that settles the value.
		m.setValue(candidate)
		m.state.Elicitation = ""
		m.state.Initiative = &initiativeNote{Act: domain.ActConfirmValue, Turn: in.Turn}
		r.Add(domain.Act{
			Type:      domain.ActConfirmValue,
			ControlID: m.owner,
			Payload:   domain.ConfirmValuePayload{Value: candidate},
		})
		return nil
	}

	// Validate before assignment: a rejected candidate must never shadow
	// the prior state or satisfy required-ness.
	if failure := m.validate(candidate); failure != nil {
		m.invalid(in.Turn, action, candidate, failure, r)
		return nil
	}
	wasDefined := m.setValue(candidate)
	m.settle(wasDefined, candidate, r)
	return nil
}

// handleAffirm resolves a "yes" against the confirmation in flight.
func (m *valueMachine) handleAffirm(in *domain.Input, r *ResultBuilder) error {
	note := m.state.Initiative
	if !note.confirming() {
		return domain.NewConfigError("affirmed confirmation routed to control %q with none in flight", m.owner)
	}

	if slot, ok := in.Slot(domain.SlotValue); ok {
		candidate, failure := m.coerce(slot)
		if failure != nil {
			m.invalid(in.Turn, domain.ActionSet, slot.Raw(), failure, r)
			return nil
		}
		if !m.equal(candidate, m.pendingValue()) {
			// "Yes, four": a stated alternative is a fresh candidate
			// needing its own confirmation, never an automatic
			// confirmation of the old value.
			m.setValue(candidate)
			m.state.Elicitation = ""
			m.state.Initiative = &initiativeNote{Act: domain.ActConfirmValue, Turn: in.Turn}
			r.Add(domain.Act{
				Type:      domain.ActConfirmValue,
				ControlID: m.owner,
				Payload:   domain.ConfirmValuePayload{Value: candidate},
			})
			return nil
		}
	}

	if note.Act == domain.ActSuggestValue {
		return m.acceptSuggestion(in.Turn, note, r)
	}
	return m.affirmConfirmed(in.Turn, r)
}

// affirmConfirmed settles a plain re-confirmation. The value is
// re-validated first: it is never trusted solely because the user said yes.
func (m *valueMachine) affirmConfirmed(turn int, r *ResultBuilder) error {
	v := m.state.Value
	if failure := m.validate(v); failure != nil {
		// The held value is the rejected one; drop it so required-ness
		// re-fires on later turns.
		m.clearValue()
		m.invalid(turn, domain.ActionSet, v, failure, r)
		return nil
	}
	m.state.Confirmed = true
	m.state.Initiative = nil
	m.state.Elicitation = ""
	r.Add(domain.Act{
		Type:      domain.ActValueConfirmed,
		ControlID: m.owner,
		Payload:   domain.ValuePayload{Value: v},
	})
	return nil
}

// acceptSuggestion commits a proposed alternate the user just affirmed.
// Distinct from affirmConfirmed: the suggested value becomes the current
// value here, then settles confirmed after independent re-validation.
func (m *valueMachine) acceptSuggestion(turn int, note *initiativeNote, r *ResultBuilder) error {
	v := m.normalizeValue(note.Value)
	if failure := m.validate(v); failure != nil {
		m.invalid(turn, domain.ActionSet, v, failure, r)
		return nil
	}
	m.setValue(v)
	m.state.Confirmed = true
	m.state.Initiative = nil
	m.state.Elicitation = ""
	r.Add(domain.Act{
		Type:      domain.ActValueConfirmed,
		ControlID: m.owner,
		Payload:   domain.ValuePayload{Value: v},
	})
	return nil
}

// handleDeny resolves a "no" against the confirmation in flight.
func (m *valueMachine) handleDeny(in *domain.Input, r *ResultBuilder) error {
	note := m.state.Initiative
	if !note.confirming() {
		return domain.NewConfigError("disconfirmation routed to control %q with none in flight", m.owner)
	}

	rejected := m.pendingValue()
	m.state.Confirmed = false
	r.Add(domain.Act{
		Type:      domain.ActValueDisconfirmed,
		ControlID: m.owner,
		Payload:   domain.ValuePayload{Value: rejected},
	})

	// Only the first disconfirmation earns a suggestion; denying the
	// suggestion itself re-elicits from scratch.
	if note.Act == domain.ActConfirmValue && m.alternate != nil {
		if alt, ok := m.alternate(rejected); ok {
			m.clearValue()
			m.state.Initiative = &initiativeNote{Act: domain.ActSuggestValue, Turn: in.Turn, Value: alt}
			m.state.Elicitation = ""
			r.Add(domain.Act{
				Type:      domain.ActSuggestValue,
				ControlID: m.owner,
				Payload:   domain.SuggestValuePayload{Value: alt},
			})
			return nil
		}
	}

	m.clearValue()
	m.state.Initiative = &initiativeNote{Act: domain.ActRequestValue, Turn: in.Turn}
	m.state.Elicitation = domain.ActionSet
	r.Add(domain.Act{
		Type:      domain.ActRequestValue,
		ControlID: m.owner,
		Payload:   domain.RequestValuePayload{Action: domain.ActionSet},
	})
	return nil
}

// settle records a validated, unconfirmed-but-accepted value.
func (m *valueMachine) settle(wasDefined bool, v any, r *ResultBuilder) {
	typ := domain.ActValueSet
	payload := domain.ValuePayload{Value: v}
	if wasDefined {
		typ = domain.ActValueChanged
		payload.Previous = m.state.Previous
	}
	m.state.Elicitation = ""
	m.state.Initiative = nil
	r.Add(domain.Act{Type: typ, ControlID: m.owner, Payload: payload})
}

// invalid records a validation failure and re-elicits. Failures are data
// looping the machine back, never errors.
func (m *valueMachine) invalid(turn int, action string, value any, f *domain.Validation, r *ResultBuilder) {
	m.state.Confirmed = false
	m.state.Elicitation = action
	m.state.Initiative = &initiativeNote{Act: domain.ActRequestValue, Turn: turn}
	r.Add(domain.Act{
		Type:      domain.ActInvalidValue,
		ControlID: m.owner,
		Payload:   domain.InvalidValuePayload{Value: value, Code: f.Code, Explanation: f.Explanation},
	})
	r.Add(domain.Act{
		Type:      domain.ActRequestValue,
		ControlID: m.owner,
		Payload:   domain.RequestValuePayload{Action: action},
	})
}

func (m *valueMachine) canTakeInitiative(in *domain.Input) bool {
	if m.state.Defined && !m.state.Confirmed && m.cfg.confirmRequired(in.Turn) {
		return true
	}
	return !m.state.Defined && m.cfg.required(in.Turn)
}

func (m *valueMachine) takeInitiative(in *domain.Input, r *ResultBuilder) error {
	if m.state.Defined && !m.state.Confirmed && m.cfg.confirmRequired(in.Turn) {
		m.state.Initiative = &initiativeNote{Act: domain.ActConfirmValue, Turn: in.Turn}
		r.Add(domain.Act{
			Type:      domain.ActConfirmValue,
			ControlID: m.owner,
			Payload:   domain.ConfirmValuePayload{Value: m.state.Value},
		})
		return nil
	}
	if !m.state.Defined && m.cfg.required(in.Turn) {
		m.state.Initiative = &initiativeNote{Act: domain.ActRequestValue, Turn: in.Turn}
		if m.state.Elicitation == "" {
			m.state.Elicitation = domain.ActionSet
		}
		r.Add(domain.Act{
			Type:      domain.ActRequestValue,
			ControlID: m.owner,
			Payload:   domain.RequestValuePayload{Action: m.state.Elicitation},
		})
		return nil
	}
	return domain.NewProtocolError(m.owner, "TakeInitiative", "initiative taken with nothing to ask")
}

func (m *valueMachine) restore(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var st acquisitionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("control %q: reattach state: %w", m.owner, err)
	}
	st.Value = m.normalizeValue(st.Value)
	st.Previous = m.normalizeValue(st.Previous)
	if st.Initiative != nil {
		st.Initiative.Value = m.normalizeValue(st.Initiative.Value)
	}
	m.state = st
	return nil
}
