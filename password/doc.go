// Package password provides Argon2id password hashing and an in-memory user
// [Directory] whose Authenticate method can be handed to the Engine as its
// credential check.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # What this package must NOT do
//
//   - Import any other goSession package.
//   - Log plaintext passwords or hashes.
package password
