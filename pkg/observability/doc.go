/*
Package observability exposes parsetrail's lifecycle events as Prometheus metrics.

Metrics plugs into domain.LifecycleHooks, so the coordinator and the replay
engine stay unaware of Prometheus. Collectors live in their own registry
unless the caller supplies one.
*/
package observability
