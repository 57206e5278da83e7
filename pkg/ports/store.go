package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// StateStore persists session state between turns. The engine merges its
// saved control map onto whatever was most recently persisted rather than
// overwriting wholesale, so multiple orchestrator instances can share one
// store.
type StateStore interface {
	// Save persists the state for a conversation ID.
	Save(ctx context.Context, conversationID string, state *domain.SessionState) error

	// Load retrieves the state for a conversation ID.
	// Returns domain.ErrSessionNotFound if the conversation does not exist.
	Load(ctx context.Context, conversationID string) (*domain.SessionState, error)

	// Delete removes the state for a conversation ID.
	Delete(ctx context.Context, conversationID string) error

	// List returns the known conversation IDs.
	List(ctx context.Context) ([]string, error)
}
