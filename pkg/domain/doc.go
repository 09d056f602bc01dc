/*
Package domain contains the core models of the parsetrail replay engine.

It defines the records received from the external parsing service (Steps),
the per-user replay state (Session), and the reconstructed derivation shown
at a cursor position (Snapshot). This package is kept pure and free of I/O,
rendering, and persistence concerns.

# Key Entities

  - Step: One unit of the parsing service's execution trace.
  - Algorithm: The strategy label, including its family (top-down or bottom-up).
  - Session: The steps of one parse run plus the navigation cursor.
  - Node: A labelled tree node; each node is owned by its parent.
  - Snapshot: The tree (top-down) or forest (bottom-up) visible at a cursor.
*/
package domain
