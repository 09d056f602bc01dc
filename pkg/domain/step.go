package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Action names the kind of move the parsing service recorded.
type Action string

const (
	// ActionExpand replaces a non-terminal with a rule's right-hand side (top-down).
	ActionExpand Action = "expand"
	// ActionLeaf matches a non-terminal against a terminal token (top-down).
	ActionLeaf Action = "leaf"
	// ActionShift pushes the next input word onto the stack (bottom-up).
	ActionShift Action = "shift"
	// ActionReduce folds the top of the stack into a rule's left-hand side (bottom-up).
	ActionReduce Action = "reduce"

	// ActionAccept and ActionReject are terminal markers emitted by the service.
	// They carry no rule and do not change the derivation.
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

// Rule is a grammar production: a left-hand symbol and its ordered right-hand symbols.
// On the wire it is encoded as a two element array: ["np", ["det", "n"]].
type Rule struct {
	LHS string
	RHS []string
}

// NewRule is a small helper for building rules in code and tests.
func NewRule(lhs string, rhs ...string) *Rule {
	return &Rule{LHS: lhs, RHS: rhs}
}

// MarshalJSON encodes the rule as [lhs, [rhs...]].
func (r Rule) MarshalJSON() ([]byte, error) {
	rhs := r.RHS
	if rhs == nil {
		rhs = []string{}
	}
	return json.Marshal([]any{r.LHS, rhs})
}

// UnmarshalJSON decodes the [lhs, [rhs...]] pair form.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("rule must be a [lhs, rhs] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("rule must have exactly 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &r.LHS); err != nil {
		return fmt.Errorf("rule lhs: %w", err)
	}
	if bytes.Equal(bytes.TrimSpace(pair[1]), []byte("null")) {
		r.RHS = nil
		return nil
	}
	if err := json.Unmarshal(pair[1], &r.RHS); err != nil {
		return fmt.Errorf("rule rhs: %w", err)
	}
	return nil
}

// String renders the rule in the grammar notation used by the service ("np --> det,n").
func (r *Rule) String() string {
	if r == nil {
		return ""
	}
	var b bytes.Buffer
	b.WriteString(r.LHS)
	b.WriteString(" --> ")
	for i, sym := range r.RHS {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(sym)
	}
	return b.String()
}

// Step is one record of the parsing service's trace.
// Steps are treated as immutable once received.
type Step struct {
	Action     Action   `json:"action"`
	Rule       *Rule    `json:"rule"`
	Stack      []string `json:"stack"`
	InputIndex int      `json:"input_index"`
}

// DisplayStack returns the stack in display order (producer order reversed).
// The step itself is never mutated.
func (s Step) DisplayStack() []string {
	out := make([]string, len(s.Stack))
	for i, sym := range s.Stack {
		out[len(s.Stack)-1-i] = sym
	}
	return out
}
