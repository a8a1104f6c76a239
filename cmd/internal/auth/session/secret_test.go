package session

import (
	"strings"
	"testing"

	"passage/cmd/security/token"
)

func TestNewSecret_URLSafeAndUnique(t *testing.T) {
	seen := make(map[string]struct{}, 100)

	for i := 0; i < 100; i++ {
		plain, hashHex, err := newSecret(32)
		if err != nil {
			t.Fatalf("newSecret: %v", err)
		}

		// 32 random bytes -> 43 chars of unpadded base64url.
		if len(plain) != 43 {
			t.Fatalf("expected 43-char secret, got %d", len(plain))
		}
		if strings.ContainsAny(plain, "+/=") {
			t.Fatalf("secret contains characters requiring escaping: %q", plain)
		}
		if len(hashHex) != 64 {
			t.Fatalf("expected 64 hex chars, got %d", len(hashHex))
		}

		if _, dup := seen[plain]; dup {
			t.Fatalf("duplicate secret generated")
		}
		seen[plain] = struct{}{}
	}
}

func TestHashSecretHex_Deterministic(t *testing.T) {
	a := hashSecretHex("some-secret")
	b := hashSecretHex("some-secret")
	if a != b {
		t.Fatalf("hash not deterministic: %q vs %q", a, b)
	}
	if a == hashSecretHex("other-secret") {
		t.Fatalf("distinct inputs hashed identically")
	}
}

func TestHashSecretHex_HMACModeChangesDigest(t *testing.T) {
	plain := hashSecretHex("some-secret")

	t.Setenv(token.HMACEnvKey, strings.Repeat("k", 32))
	keyed := hashSecretHex("some-secret")

	if plain == keyed {
		t.Fatalf("expected keyed digest to differ from unkeyed digest")
	}
	if keyed != token.HashHMACSHA256Hex("some-secret", []byte(strings.Repeat("k", 32))) {
		t.Fatalf("keyed digest does not match HMAC-SHA256")
	}
}
