/*
Package session serializes access to replay sessions.

A Manager pairs a ports.SessionStore with per-session mutexes (reference counted so
idle sessions leave nothing behind) and an optional ports.DistributedLocker for
deployments that share one store across several replicas.
*/
package session
