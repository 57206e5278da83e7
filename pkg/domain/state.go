package domain

import "encoding/json"

// SessionState is the externally persisted record of one conversation.
// Control state is a flat map keyed by control identifier; tree position
// is never part of the layout, the identifier is the sole join key.
type SessionState struct {
	// Turn counts inbound requests, incremented once per turn.
	Turn int `json:"turn"`
	// Controls maps every control identifier to that control's own
	// serializable state blob.
	Controls map[string]json.RawMessage `json:"controls"`
}

// NewSessionState creates an empty session at turn zero.
func NewSessionState() *SessionState {
	return &SessionState{Controls: make(map[string]json.RawMessage)}
}

// Clone returns a deep copy. Stores copy on read and write so callers can
// never mutate persisted state through a shared pointer.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := &SessionState{
		Turn:     s.Turn,
		Controls: make(map[string]json.RawMessage, len(s.Controls)),
	}
	for id, raw := range s.Controls {
		cp := make(json.RawMessage, len(raw))
		copy(cp, raw)
		out.Controls[id] = cp
	}
	return out
}

// Merge overlays updates onto the existing control map without dropping
// identifiers absent from the update. This keeps concurrent orchestrator
// instances sharing one store from clobbering each other wholesale.
func (s *SessionState) Merge(updates map[string]json.RawMessage) {
	if s.Controls == nil {
		s.Controls = make(map[string]json.RawMessage, len(updates))
	}
	for id, raw := range updates {
		s.Controls[id] = raw
	}
}

// TurnResult is what one processed turn hands back to the host: the
// ordered act list for rendering plus the turn number it belongs to.
type TurnResult struct {
	Turn int   `json:"turn"`
	Acts []Act `json:"acts"`
}
