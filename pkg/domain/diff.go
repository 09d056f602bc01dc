package domain

// SessionDiff represents the changes between two session states.
// It is serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Cursor is set when the cursor moved.
	Cursor *int `json:"cursor,omitempty"`

	// Steps is set to the new step count when the trace was replaced.
	Steps *int `json:"steps,omitempty"`

	// Algorithm is set when the trace was replaced with a different strategy.
	Algorithm *Algorithm `json:"algorithm,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, the diff describes the entire newState (initial load).
// It returns nil when nothing observable changed.
func Diff(oldState, newState *Session) *SessionDiff {
	if newState == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newState.ID}

	replaced := oldState == nil || oldState.Applied != newState.Applied || len(oldState.Steps) != len(newState.Steps)
	if replaced {
		n := len(newState.Steps)
		diff.Steps = &n
	}
	if oldState == nil || oldState.Algorithm != newState.Algorithm {
		a := newState.Algorithm
		diff.Algorithm = &a
	}
	if replaced || oldState.Cursor != newState.Cursor {
		c := newState.Cursor
		diff.Cursor = &c
	}

	if diff.Cursor == nil && diff.Steps == nil && diff.Algorithm == nil {
		return nil
	}
	return diff
}
