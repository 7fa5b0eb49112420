// Package session defines the session store contract and ships in-memory and
// Redis-backed implementations of it.
//
// A store maps a server generated session id to the principal that logged in.
// An id is present if and only if its session is active.
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT generate ids, encode tokens,
// or verify credentials; those belong to the Engine.
//
// # What this package must NOT do
//
//   - Import goSession, token, or routes (no upward imports).
//   - Overwrite an existing entry on Insert.
//   - Expire sessions on its own; removal happens on logout only.
package session
