package replay

import (
	"github.com/aretw0/parsetrail/pkg/domain"
)

// TopDown replays expand/leaf steps into a single tree rooted at start.
func TopDown(steps []domain.Step, through int, start string) *domain.Snapshot {
	root := domain.NewNonTerminal(start)
	snap := &domain.Snapshot{
		Family:  domain.FamilyTopDown,
		Tree:    root,
		Through: through,
	}
	if through <= domain.BeforeFirstStep {
		snap.Through = domain.BeforeFirstStep
		return snap
	}

	last := window(steps, through)
	if last < through {
		snap.Truncated = true
	}

	for i := 0; i <= last; i++ {
		node := LeftmostUnexpanded(root)
		if node == nil {
			snap.Truncated = true
			break
		}

		step := steps[i]
		switch step.Action {
		case domain.ActionExpand:
			if step.Rule == nil {
				snap.Truncated = true
				return snap
			}
			expand(node, step.Rule)
		case domain.ActionLeaf:
			if step.Rule == nil || len(step.Rule.RHS) == 0 {
				snap.Truncated = true
				return snap
			}
			node.Children = []*domain.Node{domain.NewTerminal(StripDelimiters(step.Rule.RHS[0]))}
		}
		snap.Applied++
	}

	return snap
}

func expand(node *domain.Node, rule *domain.Rule) {
	node.Name = rule.LHS
	node.Children = make([]*domain.Node, 0, len(rule.RHS))
	for _, sym := range rule.RHS {
		if sym == domain.Epsilon {
			node.Children = append(node.Children, domain.NewTerminal(sym))
			continue
		}
		node.Children = append(node.Children, domain.NewNonTerminal(sym))
	}
}

// LeftmostUnexpanded returns the first non-terminal without children in a
// pre-order, left-to-right scan, or nil when the tree is fully expanded.
func LeftmostUnexpanded(n *domain.Node) *domain.Node {
	if n == nil {
		return nil
	}
	if n.Unexpanded() {
		return n
	}
	for _, c := range n.Children {
		if found := LeftmostUnexpanded(c); found != nil {
			return found
		}
	}
	return nil
}

// StripDelimiters removes the wrapper characters around a terminal token,
// e.g. "[cat]" or `"cat"` becomes "cat". Tokens shorter than two runes become empty.
func StripDelimiters(token string) string {
	r := []rune(token)
	if len(r) < 2 {
		return ""
	}
	return string(r[1 : len(r)-1])
}
