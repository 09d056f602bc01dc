package replay

import (
	"github.com/aretw0/parsetrail/pkg/domain"
)

// BottomUp replays shift/reduce steps into a stack of partial trees.
func BottomUp(steps []domain.Step, words []string, through int) *domain.Snapshot {
	snap := &domain.Snapshot{
		Family:  domain.FamilyBottomUp,
		Forest:  []*domain.Node{},
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

	stack := snap.Forest
	for i := 0; i <= last; i++ {
		step := steps[i]
		switch step.Action {
		case domain.ActionShift:
			if step.InputIndex < 0 || step.InputIndex >= len(words) {
				snap.Truncated = true
				snap.Forest = stack
				return snap
			}
			stack = append(stack, domain.NewTerminal(words[step.InputIndex]))

		case domain.ActionReduce:
			if step.Rule == nil {
				// The service's final acceptance marker carries no rule.
				break
			}
			k := len(step.Rule.RHS)
			if len(stack) < k {
				snap.Truncated = true
				snap.Forest = stack
				return snap
			}
			children := make([]*domain.Node, k)
			copy(children, stack[len(stack)-k:])
			stack = stack[:len(stack)-k]
			stack = append(stack, &domain.Node{Name: step.Rule.LHS, Children: children})

		default:
			// Reserved for extension.
		}
		snap.Applied++
	}

	snap.Forest = stack
	return snap
}
