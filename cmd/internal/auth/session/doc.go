// Package session implements passage's refresh-token lifecycle.
//
// It issues opaque session secrets, rotates them (one rotation per secret),
// revokes them, and detects replay: presenting a secret that is already
// revoked or expired revokes every active record for that user in one
// conditional bulk update.
//
// Secrets are high-entropy random strings and are stored hashed only
// (HMAC-SHA256 when PASSAGE_TOKEN_HMAC_KEY is set; otherwise SHA-256 for
// dev/back-compat). Rotation runs under the store's transactional guard so
// that only one caller can ever observe a record as active.
//
// Access-token minting and transport (HTTP/cookies) are intentionally out of
// scope here; callers mint short-lived tokens via cmd/security/signer after a
// successful Issue or Rotate.
package session
