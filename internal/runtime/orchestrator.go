package runtime

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/control"
	"github.com/aretw0/arbor/pkg/domain"
)

// Orchestrator drives one dialog turn: rebuild the tree from its recipe,
// reattach prior state, run the consume phase, run the initiative phase
// if nothing fired, and collate state for persistence.
type Orchestrator struct {
	build  control.Builder
	logger *slog.Logger
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an orchestrator over the given tree recipe.
func New(build control.Builder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		build:  build,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Turn processes one inbound request against the given session state and
// returns the ordered act list plus the updated state. The passed-in
// state is never mutated; the returned state is a merged copy ready for
// persistence. Turns run strictly sequentially, depth-first, one child
// at a time.
func (o *Orchestrator) Turn(ctx context.Context, sess *domain.SessionState, in *domain.Input) (*domain.TurnResult, *domain.SessionState, error) {
	if sess == nil {
		sess = domain.NewSessionState()
	}

	root, err := o.build()
	if err != nil {
		return nil, nil, err
	}
	// Uniqueness is checked before the tree handles any input.
	if _, err := control.Index(root); err != nil {
		return nil, nil, err
	}
	if err := control.Reattach(root, sess.Controls); err != nil {
		return nil, nil, err
	}

	next := sess.Clone()
	next.Turn++
	if in.Turn == 0 {
		// Default the turn number on a copy; the caller's input is
		// never written to.
		defaulted := *in
		defaulted.Turn = next.Turn
		in = &defaulted
	}

	o.logger.Debug("turn started",
		"turn", in.Turn,
		"kind", in.Kind,
		"intent", in.Intent,
	)

	result := control.NewResult()

	ok, err := root.CanHandle(in)
	if err != nil {
		return nil, nil, err
	}
	if ok {
		if err := root.Handle(in, result); err != nil {
			return nil, nil, err
		}
	}

	sessionOpen := in.Kind != domain.KindSessionEnd
	if !result.HasInitiative() && sessionOpen {
		ok, err := root.CanTakeInitiative(in)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			if err := root.TakeInitiative(in, result); err != nil {
				return nil, nil, err
			}
			if !result.HasInitiative() {
				return nil, nil, domain.NewProtocolError(root.ID(), "TakeInitiative", "initiative claimed but no initiative act produced")
			}
		}
	}

	collated, err := control.CollectState(root)
	if err != nil {
		return nil, nil, err
	}
	next.Merge(collated)

	o.logger.Debug("turn finished",
		"turn", in.Turn,
		"acts", len(result.Acts()),
	)

	return &domain.TurnResult{Turn: in.Turn, Acts: result.Acts()}, next, nil
}
