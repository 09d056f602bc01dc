package domain

import (
	"fmt"
	"strings"
)

// Family groups strategies by how their traces must be replayed.
type Family string

const (
	FamilyTopDown  Family = "top-down"
	FamilyBottomUp Family = "bottom-up"
)

// BacktrackingSuffix is appended to the strategy name when backtracking is requested.
const BacktrackingSuffix = "-backtracking"

// Strategies lists the strategy names accepted from the input form.
var Strategies = []string{string(FamilyTopDown), string(FamilyBottomUp)}

// Algorithm is the composite identifier sent to the parsing service,
// e.g. "top-down" or "bottom-up-backtracking".
type Algorithm string

// ComposeAlgorithm derives the identifier from a strategy name and the backtracking flag.
func ComposeAlgorithm(strategy string, backtracking bool) (Algorithm, error) {
	strategy = strings.TrimSpace(strategy)
	if _, err := Algorithm(strategy).Family(); err != nil {
		return "", err
	}
	if backtracking {
		return Algorithm(strategy + BacktrackingSuffix), nil
	}
	return Algorithm(strategy), nil
}

// Family detects the replay family using the name-prefix convention.
func (a Algorithm) Family() (Family, error) {
	name := string(a)
	switch {
	case strings.HasPrefix(name, string(FamilyTopDown)):
		return FamilyTopDown, nil
	case strings.HasPrefix(name, string(FamilyBottomUp)):
		return FamilyBottomUp, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Backtracking reports whether the identifier carries the backtracking suffix.
func (a Algorithm) Backtracking() bool {
	return strings.HasSuffix(string(a), BacktrackingSuffix)
}
