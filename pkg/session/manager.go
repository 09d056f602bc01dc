package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/parsetrail/internal/logging"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, sessionID)
		return err
	})
	return s, err
}

// LoadOrCreate loads a session, creating and persisting an empty one if it does not exist.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.loadOrCreate(ctx, sessionID)
		return err
	})
	return s, err
}

func (m *Manager) loadOrCreate(ctx context.Context, sessionID string) (*domain.Session, error) {
	s, created, err := m.loadOrNew(ctx, sessionID)
	if err != nil || !created {
		return s, err
	}
	if err := m.store.Save(ctx, sessionID, s); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	return s, nil
}

// loadOrNew loads the session or builds an empty one without storing it.
func (m *Manager) loadOrNew(ctx context.Context, sessionID string) (*domain.Session, bool, error) {
	s, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return s, false, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return domain.NewSession(sessionID), true, nil
}

// Update runs fn against the stored session under the session lock and persists the result.
// A missing session starts empty and is only stored if fn succeeds. If fn returns an
// error nothing is saved.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*domain.Session) error) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		current, _, err := m.loadOrNew(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(current); err != nil {
			return err
		}
		if err := m.store.Save(ctx, sessionID, current); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		s = current
		return nil
	})
	return s, err
}

// Move applies a cursor step to a stored session under the session lock.
// Unlike Update it never creates the session, and it writes back only when
// step reports that the cursor moved. from is the cursor before the step.
func (m *Manager) Move(ctx context.Context, sessionID string, step func(*domain.Session) bool) (s *domain.Session, from int, moved bool, err error) {
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		from = current.Cursor
		if moved = step(current); moved {
			if err := m.store.Save(ctx, sessionID, current); err != nil {
				return fmt.Errorf("failed to save cursor: %w", err)
			}
		}
		s = current
		return nil
	})
	return s, from, moved, err
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// WithLock executes a function while holding the lock for the session.
// It is not reentrant: fn must not call back into the Manager for the same session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The caller's ctx may already be cancelled; the lock still has to go.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
