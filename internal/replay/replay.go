// Package replay rebuilds derivation snapshots from parsing traces.
//
// Reconstruction is a pure function of (steps, index, family): it starts from
// scratch on every call, never suspends, and never fails. Malformed traces
// truncate the replay instead of raising errors; the snapshot records that
// through its Truncated flag.
package replay

import (
	"fmt"

	"github.com/aretw0/parsetrail/pkg/domain"
)

// DefaultStartSymbol is the root label of a top-down tree before any expansion.
const DefaultStartSymbol = "s"

// Options tune the reconstruction.
type Options struct {
	// StartSymbol names the top-down root. Defaults to DefaultStartSymbol.
	StartSymbol string
}

// Build replays steps[0..through] for the given family.
// A through value of domain.BeforeFirstStep replays nothing.
func Build(family domain.Family, steps []domain.Step, words []string, through int, opts Options) (*domain.Snapshot, error) {
	switch family {
	case domain.FamilyTopDown:
		return TopDown(steps, through, opts.startSymbol()), nil
	case domain.FamilyBottomUp:
		return BottomUp(steps, words, through), nil
	}
	return nil, fmt.Errorf("%w: family %q", domain.ErrUnknownAlgorithm, family)
}

// ForSession builds the snapshot visible at the session's cursor.
func ForSession(s *domain.Session, opts Options) (*domain.Snapshot, error) {
	family, err := s.Algorithm.Family()
	if err != nil {
		return nil, err
	}
	return Build(family, s.Steps, s.Words(), s.ReplayIndex(), opts)
}

func (o Options) startSymbol() string {
	if o.StartSymbol == "" {
		return DefaultStartSymbol
	}
	return o.StartSymbol
}

// window clamps the replay range to the available steps.
func window(steps []domain.Step, through int) int {
	if through >= len(steps) {
		return len(steps) - 1
	}
	return through
}
