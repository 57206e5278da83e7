package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates conversation access across multiple
// engine replicas. A turn is processed strictly sequentially per
// conversation; the locker extends that guarantee beyond one process.
type DistributedLocker interface {
	// Lock acquires a distributed lock for the given key (a conversation
	// ID). It blocks until the lock is acquired, the context is canceled,
	// or the TTL expires (implementation specific). The returned
	// UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
