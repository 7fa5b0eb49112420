// Package internal contains helpers that are intentionally private to goSession:
// session id generation and audit fingerprints.
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Lock or serialize callers; check-then-insert atomicity belongs to the store.
package internal
