package signer

import (
	"errors"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

func newTestSigner(t *testing.T) Signer {
	t.Helper()

	secret := paseto.NewV4AsymmetricSecretKey()
	cfg := DefaultConfig()
	cfg.SecretKeyHex = secret.ExportHex()

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestMintAndVerify(t *testing.T) {
	t.Parallel()

	s := newTestSigner(t)

	now := time.Now().UTC()
	tok, exp, err := s.Mint("01HZZZZZZZZZZZZZZZZZZZZZZZ", "01HYYYYYYYYYYYYYYYYYYYYYYY", now)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("expected exp after now")
	}

	claims, err := s.Verify(tok, now.Add(1*time.Second))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "01HZZZZZZZZZZZZZZZZZZZZZZZ" || claims.SessionID != "01HYYYYYYYYYYYYYYYYYYYYYYY" {
		t.Fatalf("missing claims: %+v", claims)
	}
}

func TestVerify_RejectsExpired(t *testing.T) {
	t.Parallel()

	s := newTestSigner(t)

	now := time.Now().UTC()
	tok, _, err := s.Mint("u", "s", now)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if _, err := s.Verify(tok, now.Add(16*time.Minute)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_RejectsForeignSigner(t *testing.T) {
	t.Parallel()

	a := newTestSigner(t)
	b := newTestSigner(t)

	now := time.Now().UTC()
	tok, _, err := a.Mint("u", "s", now)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if _, err := b.Verify(tok, now.Add(time.Second)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken across keypairs, got %v", err)
	}
}

func TestNew_RejectsBadKey(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SecretKeyHex = "not-hex"

	if _, err := New(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	secret := paseto.NewV4AsymmetricSecretKey()

	t.Setenv("PASSAGE_PASETO_V4_SECRET_KEY_HEX", secret.ExportHex())
	t.Setenv("PASSAGE_TOKEN_ISSUER", "test-issuer")
	t.Setenv("PASSAGE_ACCESS_TTL", "5m")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Issuer != "test-issuer" || cfg.AccessTokenTTL != 5*time.Minute {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	t.Setenv("PASSAGE_PASETO_V4_SECRET_KEY_HEX", "")
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig without secret key, got %v", err)
	}
}
