package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/monargent/monargent/internal/config"
	"github.com/monargent/monargent/internal/utils"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// Application wires configuration, storage, router, and server lifecycle.
type Application struct {
	cfg   config.Application
	deps  *Dependencies
	srv   *http.Server
	close func() error
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return nil, err
	}

	store, closeStore, err := OpenStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	// Build dependencies (services, handlers...)
	deps, err := BuildDependencies(store, cfg, utils.SystemClock{})
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	r := mux.NewRouter()
	SetupMiddleware(r)
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Host,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, deps: deps, srv: srv, close: closeStore}, nil
}

// Run records the recurring transactions due today, then serves the API
// until ctx is cancelled or the process receives SIGINT or SIGTERM.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		if err := a.close(); err != nil {
			log.Errorf("failed to close storage: %v", err)
		}
	}()

	if _, err := a.deps.Session.Start(ctx); err != nil {
		log.Warnf("session started with errors: %v", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
