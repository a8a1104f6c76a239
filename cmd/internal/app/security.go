package app

import (
	"errors"

	"passage/cmd/security/token"
)

// ValidateSecurityConfig enforces the startup security policy.
//
// Fail-fast: a production deployment must not silently fall back to unkeyed
// hashing when policy requires HMAC. Enforcement validates the same module
// that performs the hashing (security/token).
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	// Minimum 32 bytes for an HMAC-SHA256 secret; measured in bytes, not
	// runes, because the key is used as raw bytes.
	if _, err := token.HMACKeyFromEnv(32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: PASSAGE_REQUIRE_TOKEN_HMAC=true but PASSAGE_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: PASSAGE_REQUIRE_TOKEN_HMAC=true but PASSAGE_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	if !token.HMACEnabled() {
		return errors.New("security policy: PASSAGE_REQUIRE_TOKEN_HMAC=true but secret hasher is not in HMAC mode")
	}

	return nil
}
