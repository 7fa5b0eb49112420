// Package middleware adapts goSession.Engine session resolution to net/http.
//
// # Guards
//
//   - [Guard] reads the access token (Authorization header, then the session
//     cookie when cookie mode is on), resolves it through the engine and stores
//     the principal in the request context.
//   - [UserFromContext] returns that principal to downstream handlers.
//
// Failures are written as {"detail": ...} JSON bodies with a
// WWW-Authenticate: Bearer challenge, using a fixed error-to-status table.
//
// # What this package must NOT do
//
//   - Decode tokens or touch the session store directly (the engine does).
//   - Log request data; audit records are produced by the engine.
package middleware
