package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool / pgx.Tx the store needs, so the same
// SQL serves both the autocommit and the transactional paths.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using PostgreSQL (passage.sessions).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Insert(ctx context.Context, rec Record) error {
	return pgInsert(ctx, s.pool, rec)
}

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (*Record, error) {
	return pgFindByHash(ctx, s.pool, hash, false)
}

func (s *PostgresStore) UpdateRevocation(ctx context.Context, hash string, revokedAt time.Time, reason string, replacedByHash *string) (bool, error) {
	return pgUpdateRevocation(ctx, s.pool, hash, revokedAt, reason, replacedByHash)
}

func (s *PostgresStore) BulkRevokeActiveForUser(ctx context.Context, userID string, revokedAt time.Time, reason string) (int64, error) {
	return pgBulkRevoke(ctx, s.pool, userID, revokedAt, reason)
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM passage.sessions
		WHERE expires_at <= $1
	`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InTx runs fn against a transactional view whose FindByHash locks the row
// (SELECT ... FOR UPDATE), which is what makes rotation linearizable.
func (s *PostgresStore) InTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTxStore{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// pgTxStore is the transactional view handed to InTx callbacks.
type pgTxStore struct {
	tx pgx.Tx
}

func (s *pgTxStore) Insert(ctx context.Context, rec Record) error {
	return pgInsert(ctx, s.tx, rec)
}

func (s *pgTxStore) FindByHash(ctx context.Context, hash string) (*Record, error) {
	return pgFindByHash(ctx, s.tx, hash, true)
}

func (s *pgTxStore) UpdateRevocation(ctx context.Context, hash string, revokedAt time.Time, reason string, replacedByHash *string) (bool, error) {
	return pgUpdateRevocation(ctx, s.tx, hash, revokedAt, reason, replacedByHash)
}

func (s *pgTxStore) BulkRevokeActiveForUser(ctx context.Context, userID string, revokedAt time.Time, reason string) (int64, error) {
	return pgBulkRevoke(ctx, s.tx, userID, revokedAt, reason)
}

func (s *pgTxStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.tx.Exec(ctx, `
		DELETE FROM passage.sessions
		WHERE expires_at <= $1
	`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InTx on an already-transactional view just reuses the open transaction.
func (s *pgTxStore) InTx(_ context.Context, fn func(Store) error) error {
	return fn(s)
}

func pgInsert(ctx context.Context, q querier, rec Record) error {
	_, err := q.Exec(ctx, `
		INSERT INTO passage.sessions (
			id, user_id, secret_hash,
			created_at, expires_at, revoked_at,
			replaced_by_hash, reason_revoked
		) VALUES (
			$1, $2, $3,
			$4, $5, NULL,
			NULL, NULL
		)
	`, rec.ID, rec.UserID, rec.SecretHash, rec.CreatedAt, rec.ExpiresAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicateHash
	}
	return err
}

func pgFindByHash(ctx context.Context, q querier, hash string, forUpdate bool) (*Record, error) {
	sql := `
		SELECT
			id, user_id, secret_hash,
			created_at, expires_at, revoked_at,
			replaced_by_hash, reason_revoked
		FROM passage.sessions
		WHERE secret_hash = $1
	`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	var rec Record
	err := q.QueryRow(ctx, sql, hash).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.SecretHash,
		&rec.CreatedAt,
		&rec.ExpiresAt,
		&rec.RevokedAt,
		&rec.ReplacedByHash,
		&rec.ReasonRevoked,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func pgUpdateRevocation(ctx context.Context, q querier, hash string, revokedAt time.Time, reason string, replacedByHash *string) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE passage.sessions
		SET revoked_at = $2,
		    reason_revoked = $3,
		    replaced_by_hash = $4
		WHERE secret_hash = $1
		  AND revoked_at IS NULL
	`, hash, revokedAt, reason, replacedByHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func pgBulkRevoke(ctx context.Context, q querier, userID string, revokedAt time.Time, reason string) (int64, error) {
	tag, err := q.Exec(ctx, `
		UPDATE passage.sessions
		SET revoked_at = $2,
		    reason_revoked = $3
		WHERE user_id = $1
		  AND revoked_at IS NULL
	`, userID, revokedAt, reason)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
