package domain

// RequestKind discriminates the inbound request types the engine accepts.
// Natural-language understanding happens upstream; by the time an Input
// reaches the engine it is already resolved into intent and slot data.
type RequestKind string

const (
	// KindLaunch opens a conversation without any intent payload.
	KindLaunch RequestKind = "launch"
	// KindIntent carries a resolved intent with named slots.
	KindIntent RequestKind = "intent"
	// KindSessionEnd signals the host is closing the session.
	KindSessionEnd RequestKind = "session_end"
	// KindEvent carries a raw UI event payload (e.g. a touch selection).
	KindEvent RequestKind = "event"
)

// Well-known intent names. Hosts map their platform's built-in intents
// onto these before calling the engine.
const (
	// IntentAffirm is a bare or value-carrying "yes".
	IntentAffirm = "affirm"
	// IntentDeny is a bare "no".
	IntentDeny = "deny"
	// IntentFallback is the platform's misunderstood-input signal.
	IntentFallback = "fallback"
	// IntentValue is the generic value-bearing intent carrying the
	// value/target/action slots.
	IntentValue = "value"
)

// Well-known slot names.
const (
	// SlotValue carries the user-supplied value(s).
	SlotValue = "value"
	// SlotTarget names the control or sub-topic the utterance refers to.
	SlotTarget = "target"
	// SlotAction distinguishes a "set" from a "change" utterance.
	SlotAction = "action"
)

// Elicitation actions carried in the action slot. ActionAdd is only
// meaningful to multi-value controls.
const (
	ActionSet    = "set"
	ActionChange = "change"
	ActionAdd    = "add"
)

// ResolvedValue is one resolved value for a slot.
type ResolvedValue struct {
	// Raw is the literal string the understanding service produced.
	Raw string `json:"raw"`
	// Known reports whether the value matched a known enumerated entry
	// in the upstream vocabulary.
	Known bool `json:"known,omitempty"`
}

// Slot holds one or more resolved values for a named slot.
type Slot struct {
	Values []ResolvedValue `json:"values"`
}

// First returns the first resolved value, if any.
func (s Slot) First() (ResolvedValue, bool) {
	if len(s.Values) == 0 {
		return ResolvedValue{}, false
	}
	return s.Values[0], true
}

// Raw returns the first raw string, or "" when the slot is empty.
func (s Slot) Raw() string {
	v, ok := s.First()
	if !ok {
		return ""
	}
	return v.Raw
}

// Input is the single opaque request the engine processes per turn.
type Input struct {
	Kind   RequestKind     `json:"kind"`
	Turn   int             `json:"turn"`
	Intent string          `json:"intent,omitempty"`
	Slots  map[string]Slot `json:"slots,omitempty"`
	// Event holds the raw payload for KindEvent requests.
	Event map[string]any `json:"event,omitempty"`
}

// Slot returns the named slot and whether it is present with at least
// one value.
func (in *Input) Slot(name string) (Slot, bool) {
	if in == nil || in.Slots == nil {
		return Slot{}, false
	}
	s, ok := in.Slots[name]
	if !ok || len(s.Values) == 0 {
		return Slot{}, false
	}
	return s, true
}

// SlotRaw returns the first raw value of the named slot, or "".
func (in *Input) SlotRaw(name string) string {
	s, ok := in.Slot(name)
	if !ok {
		return ""
	}
	return s.Raw()
}

// IsIntent reports whether the input is the named intent.
func (in *Input) IsIntent(name string) bool {
	return in != nil && in.Kind == KindIntent && in.Intent == name
}

// IsFallback reports whether the input is the misunderstood-input signal.
func (in *Input) IsFallback() bool {
	return in.IsIntent(IntentFallback)
}
