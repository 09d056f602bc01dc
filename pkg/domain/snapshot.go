package domain

// BeforeFirstStep is the replay index that means "nothing replayed yet".
const BeforeFirstStep = -1

// Snapshot is the derivation visible at a given replay index.
// It is a pure function of (steps, index, family) and is never patched in place.
type Snapshot struct {
	Family Family `json:"family"`

	// Tree is the top-down derivation root. Nil for bottom-up snapshots.
	Tree *Node `json:"tree,omitempty"`

	// Forest is the bottom-up stack of partial trees, bottom of the stack first.
	Forest []*Node `json:"forest,omitempty"`

	// Through is the last replayed step index (BeforeFirstStep when none).
	Through int `json:"through"`

	// Applied counts the steps that were actually replayed before any early stop.
	Applied int `json:"applied"`

	// Truncated is set when replay stopped early on a malformed or exhausted trace.
	Truncated bool `json:"truncated,omitempty"`
}

// Roots returns the top-level nodes of the snapshot, regardless of family.
func (s *Snapshot) Roots() []*Node {
	if s == nil {
		return nil
	}
	if s.Tree != nil {
		return []*Node{s.Tree}
	}
	return s.Forest
}
