/*
Package replay drives rendering of a session's parse trace.

An Engine turns the session under a cursor into a View (stack history, step
indicator and derivation snapshot) and pushes it to a ports.Renderer.
Navigation (Next, Prev, Seek) moves the cursor under the session lock and
re-renders from scratch; snapshots are never patched incrementally.
*/
package replay
