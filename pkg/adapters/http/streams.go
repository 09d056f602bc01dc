package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/parsetrail/pkg/domain"
)

// streamBuffer is how many frames a slow browser may fall behind before frames are dropped.
const streamBuffer = 10

// StreamManager fans cursor changes out to the browsers watching a session.
type StreamManager struct {
	mu       sync.RWMutex
	watchers map[string]map[chan []byte]struct{}
	logger   *slog.Logger
}

// NewStreamManager creates a StreamManager with no watchers.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		watchers: make(map[string]map[chan []byte]struct{}),
		logger:   logger,
	}
}

// Subscribe starts watching a session. The returned func stops watching and
// closes the channel; calling it more than once is harmless.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan []byte, func()) {
	ch := make(chan []byte, streamBuffer)

	sm.mu.Lock()
	set, ok := sm.watchers[sessionID]
	if !ok {
		set = make(map[chan []byte]struct{})
		sm.watchers[sessionID] = set
	}
	set[ch] = struct{}{}
	sm.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { sm.drop(sessionID, ch) })
	}
}

func (sm *StreamManager) drop(sessionID string, ch chan []byte) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	set := sm.watchers[sessionID]
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(sm.watchers, sessionID)
	}
}

// Publish encodes diff once and hands it to every watcher of diff.SessionID.
// Watchers whose buffer is full miss the frame.
func (sm *StreamManager) Publish(diff *domain.SessionDiff) error {
	if diff == nil {
		return nil
	}
	frame, err := json.Marshal(diff)
	if err != nil {
		return fmt.Errorf("encode session diff: %w", err)
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	set := sm.watchers[diff.SessionID]
	if len(set) == 0 {
		return nil
	}
	sm.logger.Debug("Publishing cursor change", "session_id", diff.SessionID, "watchers", len(set), "bytes", len(frame))
	for ch := range set {
		select {
		case ch <- frame:
		default:
			sm.logger.Warn("Watcher is behind, dropping frame", "session_id", diff.SessionID)
		}
	}
	return nil
}

// Subscribers reports how many watchers a session has.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.watchers[sessionID])
}
