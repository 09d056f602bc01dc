/*
Package ports defines the driven ports (interfaces) of the parsetrail replay engine.

These interfaces decouple the coordinator and replay logic from the parsing
service transport, session persistence, and the graphics used to draw a
derivation, so the reconstruction can be exercised headlessly.

# Key Interfaces

  - TraceService: Sends one parse request and returns the ordered step list.
  - SessionStore: Persists and loads session state.
  - DistributedLocker: Coordinates access to a session across replicas.
  - Renderer: Draws a snapshot, the stack history, and the current-step indicator.
*/
package ports
