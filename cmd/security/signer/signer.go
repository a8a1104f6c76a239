package signer

import (
	"errors"
	"os"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

var (
	// ErrInvalidToken is returned when an access token fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// Claims is the minimal identity envelope carried by an access token.
type Claims struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
}

// Signer mints and verifies short-lived access tokens.
type Signer interface {
	Mint(userID, sessionID string, now time.Time) (token string, exp time.Time, err error)
	Verify(token string, now time.Time) (Claims, error)
	PublicKeyHex() string
}

// Config defines the signing parameters.
type Config struct {
	// Issuer is the value set in the "iss" claim.
	Issuer string

	// AccessTokenTTL defines the lifetime of minted tokens.
	AccessTokenTTL time.Duration

	// ClockSkew defines the allowed time skew during verification.
	ClockSkew time.Duration

	// SecretKeyHex is the hex-encoded Ed25519 secret key used to sign
	// v4.public tokens.
	SecretKeyHex string
}

// DefaultConfig returns defaults suitable for development; the secret key has
// no default and must be provided.
func DefaultConfig() Config {
	return Config{
		Issuer:         "passage",
		AccessTokenTTL: 15 * time.Minute,
		ClockSkew:      30 * time.Second,
	}
}

// LoadConfigFromEnv loads signer configuration from environment variables.
//
// Required:
//   - PASSAGE_PASETO_V4_SECRET_KEY_HEX
//
// Optional (durations must be valid Go duration strings):
//   - PASSAGE_TOKEN_ISSUER
//   - PASSAGE_ACCESS_TTL
//   - PASSAGE_CLOCK_SKEW
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("PASSAGE_TOKEN_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("PASSAGE_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("PASSAGE_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	cfg.SecretKeyHex = os.Getenv("PASSAGE_PASETO_V4_SECRET_KEY_HEX")
	if cfg.SecretKeyHex == "" {
		return Config{}, ErrConfig
	}

	return cfg, nil
}

type pasetoV4Public struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration

	secret paseto.V4AsymmetricSecretKey
	public paseto.V4AsymmetricPublicKey
}

// New builds a Signer based on PASETO v4.public.
//
// It uses an Ed25519 asymmetric keypair and enforces issuer and expiration
// rules. Clock skew is applied during verification via ValidAt to tolerate
// minor clock differences.
func New(cfg Config) (Signer, error) {
	secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(cfg.SecretKeyHex)
	if err != nil {
		return nil, ErrConfig
	}

	return &pasetoV4Public{
		issuer:    cfg.Issuer,
		ttl:       cfg.AccessTokenTTL,
		clockSkew: cfg.ClockSkew,
		secret:    secret,
		public:    secret.Public(),
	}, nil
}

func (m *pasetoV4Public) PublicKeyHex() string {
	return m.public.ExportHex()
}

func (m *pasetoV4Public) Mint(userID, sessionID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(m.ttl)

	tok := paseto.NewToken()
	tok.SetIssuer(m.issuer)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now) // Access tokens valid immediately.
	tok.SetExpiration(exp)

	// Minimal, explicit claims.
	_ = tok.Set("uid", userID)
	_ = tok.Set("sid", sessionID)

	signed := tok.V4Sign(m.secret, nil)
	return signed, exp, nil
}

func (m *pasetoV4Public) Verify(token string, now time.Time) (Claims, error) {
	// Clock-skew tolerance:
	// Validate slightly in the future to avoid failing "nbf" when clocks differ.
	// This also makes expiration checks slightly stricter, which is typically desirable.
	validNow := now.Add(m.clockSkew)

	// Build a fresh parser per call to avoid accumulating rules across verifies.
	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(m.issuer))
	p.AddRule(paseto.NotExpired())
	p.AddRule(paseto.ValidAt(validNow))

	parsed, err := p.ParseV4Public(m.public, token, nil)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	iss, _ := parsed.GetIssuer()
	exp, _ := parsed.GetExpiration()
	iat, _ := parsed.GetIssuedAt()

	uid, err := parsed.GetString("uid")
	if err != nil || uid == "" {
		return Claims{}, ErrInvalidToken
	}
	sid, err := parsed.GetString("sid")
	if err != nil || sid == "" {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		UserID:    uid,
		SessionID: sid,
		ExpiresAt: exp,
		IssuedAt:  iat,
		Issuer:    iss,
	}, nil
}
