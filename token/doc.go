// Package token implements the session token wire format.
//
// A token is two period separated, standard padded base64 segments:
//
//	base64(`{"typ":"SESSION"}`) + "." + base64(`{"session":"<session id>"}`)
//
// # Security posture
//
// Tokens are neither signed nor encrypted. Decode only checks that a token is
// structurally valid; whether the session it names was ever issued is decided
// by the session store. Anyone who learns or guesses a session id can build a
// valid looking token offline, so the scheme relies entirely on the entropy of
// session ids and on transport confidentiality. Adding a MAC would change the
// wire format and is intentionally not done here.
//
// # What this package must NOT do
//
//   - Touch session storage or decide whether a session is active.
//   - Hold state: Encode and Decode are pure and safe for unbounded parallel use.
package token
