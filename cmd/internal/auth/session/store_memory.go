package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for unit tests and DB-less dev runs.
//
// A single mutex serializes every operation; InTx holds it for the whole
// callback, which gives the same linearizability rotation relies on from the
// Postgres row lock. Writes inside InTx are journaled against a snapshot so a
// failed callback leaves no partial state.
type MemoryStore struct {
	mu     sync.Mutex
	byHash map[string]*Record
}

// NewMemoryStore constructs an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byHash: make(map[string]*Record)}
}

func (s *MemoryStore) Insert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(rec)
}

func (s *MemoryStore) FindByHash(ctx context.Context, hash string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(hash), nil
}

func (s *MemoryStore) UpdateRevocation(ctx context.Context, hash string, revokedAt time.Time, reason string, replacedByHash *string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateRevocationLocked(hash, revokedAt, reason, replacedByHash), nil
}

func (s *MemoryStore) BulkRevokeActiveForUser(ctx context.Context, userID string, revokedAt time.Time, reason string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bulkRevokeLocked(userID, revokedAt, reason), nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, rec := range s.byHash {
		if !rec.ExpiresAt.After(before) {
			delete(s.byHash, hash)
			n++
		}
	}
	return n, nil
}

// InTx serializes the callback under the store mutex and rolls the map back
// to a snapshot if the callback fails.
func (s *MemoryStore) InTx(ctx context.Context, fn func(Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]*Record, len(s.byHash))
	for hash, rec := range s.byHash {
		snapshot[hash] = copyRecord(rec)
	}

	if err := fn(&memTxStore{s: s}); err != nil {
		s.byHash = snapshot
		return err
	}
	return nil
}

// memTxStore is the view handed to InTx callbacks; the parent mutex is
// already held, so its methods touch the map directly.
type memTxStore struct {
	s *MemoryStore
}

func (t *memTxStore) Insert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.s.insertLocked(rec)
}

func (t *memTxStore) FindByHash(ctx context.Context, hash string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.s.findLocked(hash), nil
}

func (t *memTxStore) UpdateRevocation(ctx context.Context, hash string, revokedAt time.Time, reason string, replacedByHash *string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return t.s.updateRevocationLocked(hash, revokedAt, reason, replacedByHash), nil
}

func (t *memTxStore) BulkRevokeActiveForUser(ctx context.Context, userID string, revokedAt time.Time, reason string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return t.s.bulkRevokeLocked(userID, revokedAt, reason), nil
}

func (t *memTxStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int64
	for hash, rec := range t.s.byHash {
		if !rec.ExpiresAt.After(before) {
			delete(t.s.byHash, hash)
			n++
		}
	}
	return n, nil
}

func (t *memTxStore) InTx(_ context.Context, fn func(Store) error) error {
	return fn(t)
}

func (s *MemoryStore) insertLocked(rec Record) error {
	if _, exists := s.byHash[rec.SecretHash]; exists {
		return ErrDuplicateHash
	}
	s.byHash[rec.SecretHash] = copyRecord(&rec)
	return nil
}

func (s *MemoryStore) findLocked(hash string) *Record {
	rec, ok := s.byHash[hash]
	if !ok {
		return nil
	}
	return copyRecord(rec)
}

func (s *MemoryStore) updateRevocationLocked(hash string, revokedAt time.Time, reason string, replacedByHash *string) bool {
	rec, ok := s.byHash[hash]
	if !ok || rec.RevokedAt != nil {
		return false
	}

	at := revokedAt
	rec.RevokedAt = &at
	r := reason
	rec.ReasonRevoked = &r
	if replacedByHash != nil {
		h := *replacedByHash
		rec.ReplacedByHash = &h
	}
	return true
}

func (s *MemoryStore) bulkRevokeLocked(userID string, revokedAt time.Time, reason string) int64 {
	var n int64
	for _, rec := range s.byHash {
		if rec.UserID != userID || rec.RevokedAt != nil {
			continue
		}
		at := revokedAt
		rec.RevokedAt = &at
		r := reason
		rec.ReasonRevoked = &r
		n++
	}
	return n
}

// copyRecord returns a deep copy so callers never share pointers with the map.
func copyRecord(rec *Record) *Record {
	cp := *rec
	if rec.RevokedAt != nil {
		at := *rec.RevokedAt
		cp.RevokedAt = &at
	}
	if rec.ReplacedByHash != nil {
		h := *rec.ReplacedByHash
		cp.ReplacedByHash = &h
	}
	if rec.ReasonRevoked != nil {
		r := *rec.ReasonRevoked
		cp.ReasonRevoked = &r
	}
	return &cp
}
