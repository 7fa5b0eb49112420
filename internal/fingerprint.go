package internal

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// SessionFingerprint returns a short, non reversible reference to a session id
// that is safe to put in audit records. The id itself is a bearer credential.
func SessionFingerprint(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:8])
}
