package session

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateHash is returned by Insert on a secret-hash collision.
// Practically impossible at 256 bits of entropy, but it must surface as an
// error rather than silently overwrite.
var ErrDuplicateHash = errors.New("secret hash already exists")

// Store abstracts persistence for session records.
//
// Implementations must make the single-record transition out of active
// linearizable: UpdateRevocation and BulkRevokeActiveForUser are conditional
// on revoked_at being unset per row, and InTx must guarantee that a record
// read inside the transaction cannot be concurrently transitioned by another
// caller until the transaction ends.
type Store interface {
	// Insert atomically creates a new record. ErrDuplicateHash on collision.
	Insert(ctx context.Context, rec Record) error

	// FindByHash returns the record for a secret hash, or nil when no record
	// matches. State (revoked/expired) is not an error here.
	FindByHash(ctx context.Context, hash string) (*Record, error)

	// UpdateRevocation sets revoked_at and reason_revoked (and, for rotation,
	// replaced_by_hash) on the record with the given hash, only if it is not
	// already revoked. Reports whether a transition actually occurred.
	UpdateRevocation(ctx context.Context, hash string, revokedAt time.Time, reason string, replacedByHash *string) (bool, error)

	// BulkRevokeActiveForUser revokes every active record owned by userID in
	// one conditional update and returns the number of rows transitioned.
	BulkRevokeActiveForUser(ctx context.Context, userID string, revokedAt time.Time, reason string) (int64, error)

	// DeleteExpired removes records whose expiry is at or before the cutoff.
	// Storage hygiene for the cleanup sweeper; the lifecycle manager never
	// calls it.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	// InTx runs fn against a transactional view of the store. Reads performed
	// inside fn lock the rows they touch until fn returns; a non-nil error
	// from fn discards all writes.
	InTx(ctx context.Context, fn func(Store) error) error
}
