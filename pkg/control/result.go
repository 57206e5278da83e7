package control

import "github.com/aretw0/arbor/pkg/domain"

// ResultBuilder accumulates the ordered act list of one turn. A single
// builder is threaded through the whole tree walk so a parent can observe
// what its delegate appended.
type ResultBuilder struct {
	acts []domain.Act
}

// NewResult creates an empty accumulator.
func NewResult() *ResultBuilder {
	return &ResultBuilder{}
}

// Add appends an act.
func (r *ResultBuilder) Add(act domain.Act) {
	r.acts = append(r.acts, act)
}

// Acts returns the acts appended so far, in order.
func (r *ResultBuilder) Acts() []domain.Act {
	return r.acts
}

// Len returns the number of acts appended so far. Callers use it to mark
// a position and later inspect only what a delegate produced.
func (r *ResultBuilder) Len() int {
	return len(r.acts)
}

// HasInitiative reports whether any appended act is an initiative act.
func (r *ResultBuilder) HasInitiative() bool {
	return r.InitiativeSince(0)
}

// InitiativeSince reports whether an initiative act was appended at or
// after the given mark.
func (r *ResultBuilder) InitiativeSince(mark int) bool {
	for _, act := range r.acts[mark:] {
		if act.Type.Initiative() {
			return true
		}
	}
	return false
}
