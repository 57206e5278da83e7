package arbor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/adapters/memory"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/control"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
)

// Version is the library version, surfaced by the CLI and the MCP server.
const Version = "0.3.0"

// Engine is the high-level entry point of the Arbor library. It wraps
// the turn orchestrator and a session manager behind one Turn call.
type Engine struct {
	orch     *runtime.Orchestrator
	sessions *session.Manager
	store    ports.StateStore
	locker   ports.DistributedLocker
	logger   *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithStore sets the session persistence adapter (default: in-memory).
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine over the given tree recipe. The recipe runs once
// per turn; the tree it returns must be freshly constructed each time.
func New(build control.Builder, opts ...Option) (*Engine, error) {
	if build == nil {
		return nil, fmt.Errorf("a tree builder is required")
	}

	e := &Engine{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	// Build once up front so configuration errors (duplicate IDs,
	// broken recipes) surface at startup, not mid-conversation.
	root, err := build()
	if err != nil {
		return nil, err
	}
	if _, err := control.Index(root); err != nil {
		return nil, err
	}

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, sessionOpts...)
	e.orch = runtime.New(build, runtime.WithLogger(e.logger))
	return e, nil
}

// Turn processes one inbound request for a conversation: load or start
// the session, run the turn, persist the merged state. The whole
// sequence holds the conversation lock, so turns never interleave.
func (e *Engine) Turn(ctx context.Context, conversationID string, in *domain.Input) (*domain.TurnResult, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("conversationID cannot be empty")
	}
	if in == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}

	var result *domain.TurnResult
	err := e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		sess, err := e.store.Load(ctx, conversationID)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}

		res, next, err := e.orch.Turn(ctx, sess, in)
		if err != nil {
			// Config and protocol violations are always surfaced for
			// the developer; the host decides on a fallback response.
			e.logger.Error("turn failed",
				"conversation_id", conversationID,
				"err", err,
			)
			return err
		}

		if err := e.store.Save(ctx, conversationID, next); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Conversations lists the known conversation IDs.
func (e *Engine) Conversations(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Delete removes a conversation's persisted state.
func (e *Engine) Delete(ctx context.Context, conversationID string) error {
	return e.sessions.Delete(ctx, conversationID)
}

// Sessions exposes the session manager for hosts that need direct
// store access (inspection, migration).
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}
