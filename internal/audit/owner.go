package audit

import (
	"crypto/sha256"
	"encoding/hex"
)

// Owner exposes the bearer token entries are recorded and delivered under.
type Owner interface {
	Token() string
}

// Fingerprint identifies a token without storing it in the queue.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// SessionOf fingerprints owner's current token. A nil owner has none.
func SessionOf(owner Owner) string {
	if owner == nil {
		return ""
	}
	return Fingerprint(owner.Token())
}
