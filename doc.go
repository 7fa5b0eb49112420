// Package goSession provides session-backed bearer authentication: Login
// stores a principal under a fresh random session id and returns an opaque
// token naming it, CurrentUser resolves a token back to the principal, and
// Logout deletes the session.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config],
// the error sentinels and value types (MetricsSnapshot, AuditEvent). Token
// encoding lives in token, storage in session, HTTP handling in routes and
// middleware. Id generation is internal.
//
// # What this package must NOT do
//
//   - Log. Diagnostics leave the engine only through the audit sink and metrics.
//   - Put raw session ids or passwords into audit events.
//   - Import any sub-package that re-imports goSession (no import cycles).
//
// # Performance contract
//
// CurrentUser is the hot path: one token decode and one store lookup. Login
// costs one existence check per generated id plus one conditional insert.
package goSession
