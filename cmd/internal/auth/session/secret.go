package session

import (
	"crypto/rand"
	"encoding/base64"

	"passage/cmd/security/token"
)

// newSecret generates an opaque session secret and its storage hash.
// A failure to read randomness aborts the calling operation; there is no
// fallback source.
func newSecret(nBytes int) (plain string, hashHex string, err error) {
	b := make([]byte, nBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}

	// URL-safe, no padding: embeddable in cookies and URLs without escaping.
	plain = base64.RawURLEncoding.EncodeToString(b)

	hashHex = token.HashSecretHex(plain) // 64 hex chars

	return plain, hashHex, nil
}

func hashSecretHex(s string) string {
	return token.HashSecretHex(s)
}
