package domain

import (
	"strings"
	"time"
)

// Trace is the outcome of one successful parse request.
type Trace struct {
	Sentence  string
	Grammar   string
	Algorithm Algorithm
	Steps     []Step
}

// Session is the replay state of one parse run.
// Exactly one trace is live per session; Replace discards the previous one.
type Session struct {
	ID string `json:"id"`

	Sentence  string    `json:"sentence"`
	Grammar   string    `json:"grammar"`
	Algorithm Algorithm `json:"algorithm"`

	// Steps is the ordered trace received from the parsing service.
	Steps []Step `json:"steps"`

	// Cursor indexes Steps. It always lies in [0, len(Steps)-1], or 0 when empty.
	Cursor int `json:"cursor"`

	// Applied counts the traces installed in this session. It never goes back.
	Applied uint64 `json:"applied"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries an encrypted copy of the whole session when storage encryption is on.
	// It is empty on every session handed to callers.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Steps:     []Step{},
		UpdatedAt: time.Now().UTC(),
	}
}

// Reset drops the trace and rewinds the cursor. Applied is kept.
func (s *Session) Reset() {
	s.Sentence = ""
	s.Grammar = ""
	s.Algorithm = ""
	s.Steps = []Step{}
	s.Cursor = 0
	s.touch()
}

// Replace installs a new trace and moves the cursor to the first step.
func (s *Session) Replace(t Trace) {
	steps := make([]Step, len(t.Steps))
	copy(steps, t.Steps)

	s.Sentence = t.Sentence
	s.Grammar = t.Grammar
	s.Algorithm = t.Algorithm
	s.Steps = steps
	s.Cursor = 0
	s.touch()
}

// Outcome is the closing accept or reject step of the trace, or "" when the
// trace ends without one.
func (s *Session) Outcome() Action {
	if n := len(s.Steps); n > 0 {
		switch a := s.Steps[n-1].Action; a {
		case ActionAccept, ActionReject:
			return a
		}
	}
	return ""
}

// Len returns the number of steps held.
func (s *Session) Len() int {
	return len(s.Steps)
}

// Advance moves the cursor forward. At the last step it is a no-op and returns false.
func (s *Session) Advance() bool {
	if s.Cursor >= len(s.Steps)-1 {
		return false
	}
	s.Cursor++
	s.touch()
	return true
}

// Retreat moves the cursor backward. At the first step it is a no-op and returns false.
func (s *Session) Retreat() bool {
	if s.Cursor <= 0 {
		return false
	}
	s.Cursor--
	s.touch()
	return true
}

// Seek moves the cursor to i, clamped to the valid range. It reports whether the cursor moved.
func (s *Session) Seek(i int) bool {
	last := len(s.Steps) - 1
	if i > last {
		i = last
	}
	if i < 0 {
		i = 0
	}
	if i == s.Cursor {
		return false
	}
	s.Cursor = i
	s.touch()
	return true
}

// ReplayIndex is the last step the snapshot at the current cursor replays.
// The derivation lags the stack display by one step: cursor 0 shows the state before step 0.
func (s *Session) ReplayIndex() int {
	return s.Cursor - 1
}

// Words splits the sentence into the input words addressed by Step.InputIndex.
// The parsing service lowercases the sentence before parsing, so the words are
// lowercased too and shifted leaves match the terminals on the stack.
func (s *Session) Words() []string {
	return strings.Fields(strings.ToLower(s.Sentence))
}

// Current returns the step under the cursor.
func (s *Session) Current() (Step, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Steps) {
		return Step{}, false
	}
	return s.Steps[s.Cursor], true
}

// Clone returns a copy that shares no mutable slices with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Steps = make([]Step, len(s.Steps))
	copy(cp.Steps, s.Steps)
	return &cp
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}
