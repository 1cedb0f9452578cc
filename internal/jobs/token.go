package jobs

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// newLeaseToken generates an opaque URL-safe lease token. 24 random bytes
// gives 192 bits of entropy, above the 128-bit floor the lease protocol
// requires.
func newLeaseToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
