package session

import (
	"context"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Integration tests are enabled when PASSAGE_DATABASE_URL is set.
// In non-CI runs, unreachable Postgres skips these tests to keep local runs fast.
//
// Expected schema (managed externally, see docs/schema.sql):
//
//	passage.sessions (id, user_id, secret_hash UNIQUE, created_at, expires_at,
//	                  revoked_at, replaced_by_hash, reason_revoked)

func TestPostgres_IssueAndRotate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := mustIntegrationPool(ctx, t)
	defer pool.Close()

	store := NewPostgresStore(pool)
	svc := NewService(DefaultConfig(), store, nil)

	userID := newTestULID(t)
	t.Cleanup(func() { cleanupUserSessions(ctx, t, pool, userID) })

	now := time.Now().UTC()

	s1, err := svc.Issue(ctx, now, userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	s2, err := svc.Rotate(ctx, now.Add(time.Second), s1)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if s2 == s1 {
		t.Fatalf("expected a fresh secret")
	}

	old, err := svc.GetByHash(ctx, s1)
	if err != nil {
		t.Fatalf("GetByHash(old): %v", err)
	}
	if old == nil || old.RevokedAt == nil {
		t.Fatalf("expected old record revoked")
	}
	if old.ReplacedByHash == nil || *old.ReplacedByHash != hashSecretHex(s2) {
		t.Fatalf("expected chain link to successor")
	}
	if old.ReasonRevoked == nil || *old.ReasonRevoked != ReasonRotated {
		t.Fatalf("expected rotation reason, got %v", old.ReasonRevoked)
	}

	succ, err := svc.GetByHash(ctx, s2)
	if err != nil {
		t.Fatalf("GetByHash(new): %v", err)
	}
	if succ == nil || !succ.Active(now.Add(2*time.Second)) {
		t.Fatalf("expected active successor")
	}
}

func TestPostgres_ReplayRevokesAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := mustIntegrationPool(ctx, t)
	defer pool.Close()

	store := NewPostgresStore(pool)
	svc := NewService(DefaultConfig(), store, nil)

	userID := newTestULID(t)
	t.Cleanup(func() { cleanupUserSessions(ctx, t, pool, userID) })

	now := time.Now().UTC()

	s1, err := svc.Issue(ctx, now, userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	s2, err := svc.Rotate(ctx, now.Add(time.Second), s1)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	if _, err := svc.Rotate(ctx, now.Add(2*time.Second), s1); !errors.Is(err, ErrTokenCompromised) {
		t.Fatalf("expected ErrTokenCompromised on replay, got %v", err)
	}
	if _, err := svc.Rotate(ctx, now.Add(3*time.Second), s2); !errors.Is(err, ErrTokenCompromised) {
		t.Fatalf("expected successor revoked by teardown, got %v", err)
	}
}

func TestPostgres_ConcurrentRotate_OneWinner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := mustIntegrationPool(ctx, t)
	defer pool.Close()

	store := NewPostgresStore(pool)
	svc := NewService(DefaultConfig(), store, nil)

	userID := newTestULID(t)
	t.Cleanup(func() { cleanupUserSessions(ctx, t, pool, userID) })

	now := time.Now().UTC()

	secret, err := svc.Issue(ctx, now, userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	const callers = 4
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		wins        int
		compromised int
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Rotate(ctx, now.Add(time.Second), secret)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrTokenCompromised):
				compromised++
			default:
				t.Errorf("unexpected rotate error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winning rotation, got %d (compromised=%d)", wins, compromised)
	}
}

func TestPostgres_DeleteExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := mustIntegrationPool(ctx, t)
	defer pool.Close()

	store := NewPostgresStore(pool)
	cfg := DefaultConfig()
	cfg.Lifetime = time.Minute
	svc := NewService(cfg, store, nil)

	userID := newTestULID(t)
	t.Cleanup(func() { cleanupUserSessions(ctx, t, pool, userID) })

	now := time.Now().UTC()
	secret, err := svc.Issue(ctx, now, userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := store.DeleteExpired(ctx, now.Add(2*time.Minute)); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}

	rec, err := svc.GetByHash(ctx, secret)
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected swept record gone")
	}
}

func mustIntegrationPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("PASSAGE_DATABASE_URL")
	if dbURL == "" {
		t.Skip("PASSAGE_DATABASE_URL is not set; skipping Postgres integration test")
	}

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		t.Fatalf("pgxpool.ParseConfig: %v", err)
	}

	cfg.MaxConns = 4
	cfg.MinConns = 0
	cfg.MaxConnLifetime = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("pgxpool.NewWithConfig: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		if shouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (PASSAGE_DATABASE_URL set): %v", err)
		}
		t.Fatalf("pool.Ping: %v", err)
	}

	return pool
}

func shouldSkipIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host") {
		return true
	}
	return false
}

func newTestULID(t *testing.T) string {
	t.Helper()

	entropy := ulid.Monotonic(rand.Reader, 0)

	id := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy).String()
	if len(id) != 26 {
		t.Fatalf("expected ULID length 26, got %d", len(id))
	}
	return id
}

func cleanupUserSessions(ctx context.Context, t *testing.T, pool *pgxpool.Pool, userID string) {
	t.Helper()

	_, _ = pool.Exec(ctx, `DELETE FROM passage.sessions WHERE user_id = $1`, userID)
}
