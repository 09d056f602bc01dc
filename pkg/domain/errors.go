package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownAlgorithm is returned when an algorithm label matches no replay family.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")
