// Package cli holds the shared plumbing of the arbor commands: engine
// construction from flags, the simulate REPL and its input grammar.
package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/adapters/file"
	"github.com/aretw0/arbor/internal/adapters/memory"
	redisAdapter "github.com/aretw0/arbor/internal/adapters/redis"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/recipe"
)

// Options carries the flag values shared by all arbor commands.
type Options struct {
	RecipePath string
	// StoreKind is one of memory, file, redis.
	StoreKind string
	// Dir is the base directory for the file store.
	Dir       string
	RedisAddr string
	Debug     bool
}

// NewLogger configures the command logger. Debug logs go to Stderr so
// they never corrupt the REPL or JSON-RPC on Stdout.
func NewLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// BuildEngine loads the recipe, wires the configured store and returns
// the engine plus a cleanup function for backends that hold connections.
func BuildEngine(opts Options, logger *slog.Logger) (*arbor.Engine, func() error, error) {
	doc, err := recipe.Load(opts.RecipePath)
	if err != nil {
		return nil, nil, err
	}
	build, err := doc.Builder()
	if err != nil {
		return nil, nil, err
	}

	store, locker, closer, err := buildStore(opts)
	if err != nil {
		return nil, nil, err
	}

	engineOpts := []arbor.Option{
		arbor.WithLogger(logger),
		arbor.WithStore(store),
	}
	if locker != nil {
		engineOpts = append(engineOpts, arbor.WithLocker(locker))
	}

	engine, err := arbor.New(build, engineOpts...)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return engine, closer, nil
}

// SessionStore builds just the persistence adapter, for commands that
// inspect state without running turns.
func SessionStore(opts Options) (ports.StateStore, func() error, error) {
	store, _, closer, err := buildStore(opts)
	return store, closer, err
}

func buildStore(opts Options) (ports.StateStore, ports.DistributedLocker, func() error, error) {
	noop := func() error { return nil }

	switch opts.StoreKind {
	case "", "memory":
		return memory.NewStore(), nil, noop, nil
	case "file":
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		return file.NewStore(filepath.Join(dir, ".arbor", "sessions")), nil, noop, nil
	case "redis":
		client := backend.NewClient(&backend.Options{Addr: opts.RedisAddr})
		store := redisAdapter.NewFromClient(client)
		locker := redisAdapter.NewLocker(client, "arbor:")
		return store, locker, store.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store %q (expected memory, file or redis)", opts.StoreKind)
}
