// Package app wires the passage runtime: config, logging, the session store,
// the cleanup sweeper, and the ops HTTP listener.
//
// The session lifecycle itself is a library (cmd/internal/auth/session); this
// package only hosts it and its supporting collaborators.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"passage/cmd/internal/auth/session"
	"passage/cmd/internal/sweeper"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the passage runtime: it owns the store, the sweeper, and ops HTTP wiring.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	store   session.Store
	svc     *session.Service
	sweeper *sweeper.Sweeper
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogPretty)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	var (
		store     session.Store
		dbPool    *pgxpool.Pool
		dbEnabled bool
	)

	if cfg.DatabaseURL == "" {
		// Dev fallback: records do not survive a restart.
		log.Info("db.disabled.inmemory_store")
		store = session.NewMemoryStore()
	} else {
		pool, err := NewDBPool(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		log.Info("db.enabled.postgres_store")
		store = session.NewPostgresStore(pool)
		dbPool = pool
		dbEnabled = true
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	reg := prometheus.DefaultRegisterer
	svc := session.NewService(sessCfg, store, session.NewMetrics(reg))

	var sw *sweeper.Sweeper
	if !cfg.SweepDisabled {
		sw = sweeper.New(store, cfg.SweepInterval, log, reg)
	}

	return &App{
		cfg:       cfg,
		log:       log,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		store:     store,
		svc:       svc,
		sweeper:   sw,
	}, nil
}

// SessionService exposes the lifecycle manager to embedding programs
// (the auth flow that issues and rotates secrets lives outside this binary).
func (a *App) SessionService() *session.Service { return a.svc }

// SessionStore exposes the wired store.
func (a *App) SessionStore() session.Store { return a.store }

// Run starts the sweeper and the ops HTTP server and blocks until context
// cancellation or a fatal error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerOps(mux, a.log, a.cfg, a.dbPool, a.dbEnabled)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"db_enabled", a.dbEnabled,
		"sweep_disabled", a.cfg.SweepDisabled,
	)

	errCh := make(chan error, 2)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if a.sweeper != nil {
		go func() {
			if err := a.sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}
