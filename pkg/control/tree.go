package control

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Walk visits the tree depth-first in declaration order, one child at a
// time. The walk stops at the first error.
func Walk(root Control, fn func(Control) error) error {
	if err := fn(root); err != nil {
		return err
	}
	for _, child := range root.Children() {
		if err := Walk(child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Index builds the flat identifier lookup table, rebuilt once per turn
// for back-reference resolution. Duplicate identifiers are fatal before
// the tree becomes usable.
func Index(root Control) (map[string]Control, error) {
	index := make(map[string]Control)
	err := Walk(root, func(c Control) error {
		id := c.ID()
		if id == "" {
			return domain.NewConfigError("tree contains a control with an empty ID")
		}
		if _, dup := index[id]; dup {
			return domain.NewConfigError("duplicate control ID %q in tree", id)
		}
		index[id] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}

// Reattach overwrites each freshly built control's state with the prior
// turn's persisted blob for the same identifier. Identifiers with no
// blob stay fresh; reattachment is idempotent.
func Reattach(root Control, states map[string]json.RawMessage) error {
	if len(states) == 0 {
		return nil
	}
	return Walk(root, func(c Control) error {
		raw, ok := states[c.ID()]
		if !ok {
			return nil
		}
		return c.SetState(raw)
	})
}

// CollectState walks the tree collecting every identifier's state into
// one flat map for persistence, rejecting duplicates.
func CollectState(root Control) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	err := Walk(root, func(c Control) error {
		id := c.ID()
		if _, dup := out[id]; dup {
			return domain.NewConfigError("duplicate control ID %q while collecting state", id)
		}
		raw, err := json.Marshal(c.State())
		if err != nil {
			return fmt.Errorf("control %q: marshal state: %w", id, err)
		}
		out[id] = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
