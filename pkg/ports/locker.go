package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes session updates across replicas of the HTTP server.
// The session manager takes it around every read-modify-write of a session.
type DistributedLocker interface {
	// Lock blocks until key is held or ctx is done. The lock lapses after ttl
	// if the holder dies; a healthy holder must call the returned UnlockFunc.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
