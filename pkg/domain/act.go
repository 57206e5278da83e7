package domain

// ActType identifies what an act records or asks.
type ActType string

// Content acts record something the turn did.
const (
	ActValueSet          ActType = "value_set"
	ActValueChanged      ActType = "value_changed"
	ActInvalidValue      ActType = "invalid_value"
	ActValueConfirmed    ActType = "value_confirmed"
	ActValueDisconfirmed ActType = "value_disconfirmed"
)

// Initiative acts ask the user something and hand them the floor.
const (
	ActRequestValue       ActType = "request_value"
	ActConfirmValue       ActType = "confirm_value"
	ActSuggestValue       ActType = "suggest_value"
	ActDisambiguateTarget ActType = "disambiguate_target"
)

// Initiative reports whether the act type drives the conversation forward
// by asking the user something.
func (t ActType) Initiative() bool {
	switch t {
	case ActRequestValue, ActConfirmValue, ActSuggestValue, ActDisambiguateTarget:
		return true
	}
	return false
}

// Act is an atomic, data-only record of something done or being asked,
// tagged with the control that produced it. Rendering acts into
// user-facing text or visuals is the host's job.
type Act struct {
	Type      ActType `json:"type"`
	ControlID string  `json:"control_id"`
	Payload   any     `json:"payload,omitempty"`
}

// ValuePayload accompanies ValueSet, ValueChanged, ValueConfirmed and
// ValueDisconfirmed acts.
type ValuePayload struct {
	Value    any `json:"value"`
	Previous any `json:"previous,omitempty"`
}

// InvalidValuePayload accompanies InvalidValue acts. Code and Explanation
// come from the failing validator, never from the engine.
type InvalidValuePayload struct {
	Value       any    `json:"value"`
	Code        string `json:"code"`
	Explanation string `json:"explanation,omitempty"`
}

// RequestValuePayload accompanies RequestValue acts. Action tells the
// renderer whether the elicitation frames a fresh set or a change.
type RequestValuePayload struct {
	Action string `json:"action"`
}

// ConfirmValuePayload accompanies ConfirmValue acts.
type ConfirmValuePayload struct {
	Value any `json:"value"`
}

// SuggestValuePayload accompanies SuggestValue acts proposing a single
// likely alternate interpretation of a disconfirmed value.
type SuggestValuePayload struct {
	Value any `json:"value"`
}

// DisambiguatePayload accompanies DisambiguateTarget acts. Targets lists
// the distinguishing labels of the candidate controls, in child order.
type DisambiguatePayload struct {
	Targets []string `json:"targets"`
}

// Validation describes a validation failure as first-class data. A nil
// *Validation means the value passed. Explanation is supplied, already
// rendered, by the caller's validator.
type Validation struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation,omitempty"`
}
