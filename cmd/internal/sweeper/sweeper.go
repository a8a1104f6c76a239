// Package sweeper deletes expired session records on an interval.
//
// Deletion is storage hygiene, not a lifecycle transition: the sweeper talks
// only to the store's DeleteExpired and never touches the session service.
// Expired secrets behave as compromised long before they are swept.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"passage/cmd/internal/auth/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sweeper periodically purges expired session records.
type Sweeper struct {
	store    session.Store
	interval time.Duration
	log      *slog.Logger

	sweptTotal prometheus.Counter
}

// New constructs a Sweeper. reg may be nil to skip metric registration.
func New(store session.Store, interval time.Duration, log *slog.Logger, reg prometheus.Registerer) *Sweeper {
	s := &Sweeper{
		store:    store,
		interval: interval,
		log:      log,
	}
	if reg != nil {
		s.sweptTotal = promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "passage_sessions_swept_total",
			Help: "Expired session records deleted by the sweeper.",
		})
	}
	return s
}

// Run sweeps once immediately, then on every interval tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

// Sweep deletes records expired as of now and returns the count removed.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if s.sweptTotal != nil {
		s.sweptTotal.Add(float64(n))
	}
	return n, nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.Sweep(ctx, time.Now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("sweeper.run.fail", "err", err)
		}
		return
	}
	if n > 0 {
		s.log.Info("sweeper.run", "deleted", n)
	}
}
