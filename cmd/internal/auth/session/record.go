package session

import "time"

// Revocation reasons recorded on state transitions.
// Advisory classification only; never consulted in control flow.
const (
	ReasonRotated       = "Rotated"
	ReasonRevokedByUser = "Revoked by user"
	ReasonReuseDetected = "Attempted reuse of revoked or expired token"
)

// Record mirrors the passage.sessions row: one row per issued secret, keyed
// by the secret's hash, for the secret's entire lifetime.
type Record struct {
	ID         string
	UserID     string
	SecretHash string
	CreatedAt  time.Time
	ExpiresAt  time.Time

	// RevokedAt is set exactly once, when the record leaves the active state.
	RevokedAt *time.Time

	// ReplacedByHash links to the successor record when the revocation reason
	// is rotation. Audit trail only; never traversed for authorization.
	ReplacedByHash *string

	ReasonRevoked *string
}

// Active reports whether the record is neither revoked nor past expiry.
// Expiry is derived from ExpiresAt; it is never written explicitly.
func (r Record) Active(now time.Time) bool {
	return r.RevokedAt == nil && r.ExpiresAt.After(now)
}
