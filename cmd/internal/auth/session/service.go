package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// maxSecretLen bounds presented secrets to avoid pathological inputs.
const maxSecretLen = 4096

// Service orchestrates the session-record state machine:
//
//	Active -> {Rotated, Revoked, Expired}
//
// Rotated and Revoked are terminal and written exactly once; Expired is
// derived from expires_at and never written. The service is stateless between
// calls and treats the Store as the single source of truth; it never caches
// record state.
type Service struct {
	cfg     Config
	store   Store
	metrics *Metrics
}

// NewService constructs a Service. metrics may be nil for library users that
// do not collect instrumentation.
func NewService(cfg Config, store Store, metrics *Metrics) *Service {
	return &Service{cfg: cfg, store: store, metrics: metrics}
}

// Issue creates a new active record for userID and returns the plaintext
// secret. This is the only time the plaintext of that record is ever
// returned; only its hash is stored.
func (s *Service) Issue(ctx context.Context, now time.Time, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrEmptyUserID
	}

	plain, hash, err := newSecret(s.cfg.SecretBytes)
	if err != nil {
		return "", err
	}

	rec := Record{
		ID:         ulid.Make().String(),
		UserID:     userID,
		SecretHash: hash,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.Lifetime),
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return "", &StorageError{Op: "insert", Err: err}
	}

	s.metrics.issued()
	return plain, nil
}

// Rotate exchanges an active secret for a fresh one, extending the session.
//
// Security model:
//   - The record is read under the store's transactional lock, so only one
//     caller can observe it as active.
//   - A miss is ErrTokenNotFound.
//   - A hit on a revoked or expired record is proof of replay (the legitimate
//     client already rotated, or the secret outlived its window): every active
//     record for that user is revoked in one conditional bulk update, the
//     revocation is committed, and ErrTokenCompromised is returned.
//   - Otherwise a successor record is inserted and the old record is marked
//     rotated with replaced_by_hash linking the chain; both writes commit
//     together or not at all.
//
// A concurrent duplicate rotation loses the lock race, observes the record as
// already rotated, and lands in the reuse path. That is intentional:
// conservative, and self-healing.
func (s *Service) Rotate(ctx context.Context, now time.Time, secret string) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" || len(secret) > maxSecretLen {
		return "", ErrTokenNotFound
	}

	hash := hashSecretHex(secret)

	var (
		newPlain    string
		compromised bool
	)

	err := s.store.InTx(ctx, func(st Store) error {
		rec, err := st.FindByHash(ctx, hash)
		if err != nil {
			return &StorageError{Op: "find", Err: err}
		}
		if rec == nil {
			return ErrTokenNotFound
		}

		if !rec.Active(now) {
			// Reuse/replay. The bulk revocation must commit even though the
			// operation fails, so the failure is signalled outside fn.
			if _, err := st.BulkRevokeActiveForUser(ctx, rec.UserID, now, ReasonReuseDetected); err != nil {
				return &StorageError{Op: "bulk_revoke", Err: err}
			}
			compromised = true
			return nil
		}

		plain, succHash, err := newSecret(s.cfg.SecretBytes)
		if err != nil {
			return err
		}

		succ := Record{
			ID:         ulid.Make().String(),
			UserID:     rec.UserID,
			SecretHash: succHash,
			CreatedAt:  now,
			ExpiresAt:  now.Add(s.cfg.Lifetime),
		}
		if err := st.Insert(ctx, succ); err != nil {
			return &StorageError{Op: "insert", Err: err}
		}

		ok, err := st.UpdateRevocation(ctx, rec.SecretHash, now, ReasonRotated, &succHash)
		if err != nil {
			return &StorageError{Op: "update_revocation", Err: err}
		}
		if !ok {
			// Unreachable while the row is locked; refuse to commit a
			// divergent successor chain if a store ever breaks the contract.
			return &StorageError{Op: "update_revocation", Err: errors.New("record concurrently revoked")}
		}

		newPlain = plain
		return nil
	})
	if err != nil {
		return "", err
	}

	if compromised {
		s.metrics.reuseDetected()
		return "", ErrTokenCompromised
	}

	s.metrics.rotated()
	return newPlain, nil
}

// Revoke marks the record for a secret as revoked (explicit logout).
// Absent or already-revoked records are a no-op reporting false: logging out
// twice is not a failure, and an existing revoked_at is never overwritten.
// Unlike the reuse path, Revoke never cascades to other sessions.
func (s *Service) Revoke(ctx context.Context, now time.Time, secret, reason string) (bool, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" || len(secret) > maxSecretLen {
		return false, nil
	}
	if reason == "" {
		reason = ReasonRevokedByUser
	}

	ok, err := s.store.UpdateRevocation(ctx, hashSecretHex(secret), now, reason, nil)
	if err != nil {
		return false, &StorageError{Op: "update_revocation", Err: err}
	}

	if ok {
		s.metrics.revoked()
	}
	return ok, nil
}

// GetByHash hashes the presented secret and returns the matching record, or
// nil when no record matches. Pure lookup: the record is returned whatever
// its state, and a nil result does not distinguish never-issued from swept.
// Only Rotate differentiates the cases through its error taxonomy.
func (s *Service) GetByHash(ctx context.Context, secret string) (*Record, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" || len(secret) > maxSecretLen {
		return nil, nil
	}

	rec, err := s.store.FindByHash(ctx, hashSecretHex(secret))
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}
	return rec, nil
}
