// Package token provides the hashing primitives for passage session secrets.
//
// It is the single source of truth for how secrets are digested before they
// touch storage: secrets are never persisted or logged in plaintext, only as
// a stable 64-char hex digest used as the lookup key.
//
// Modes:
//   - Default: SHA-256(secret). The secret already carries full entropy, so a
//     fast lookup hash is sufficient; a password-style slow hash is not used.
//   - Keyed: HMAC-SHA256(secret, key) when PASSAGE_TOKEN_HMAC_KEY is set.
//
// Policy:
//   - If RequireTokenHMAC=true, callers MUST enforce a minimum key size
//     (>= 32 bytes) and MUST use HMAC (no SHA fallback).
package token
