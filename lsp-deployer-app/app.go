package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sx-network/lsp-deployer/lsp-deployer-app/config"
	"github.com/sx-network/lsp-deployer/metrics"
	apisrv "github.com/sx-network/lsp-deployer/server/api"
	apimw "github.com/sx-network/lsp-deployer/server/api/middleware"
	"github.com/sx-network/lsp-deployer/x/lsp"
	lsphttp "github.com/sx-network/lsp-deployer/x/lsp/http"
	"github.com/sx-network/lsp-deployer/x/lsp/store"
	"github.com/sx-network/lsp-deployer/x/registry"
)

// App represents the deployer application
type App struct {
	cfg *config.Config
	log zerolog.Logger

	registry *registry.Registry
	deployer *lsp.Service
	history  *store.Memory

	// API server (HTTP)
	apiServer *apisrv.Server

	started time.Time
	cancel  context.CancelFunc
}

// NewApp creates a new application instance
func NewApp(_ context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{
		cfg: cfg,
		log: log.With().Str("component", "app").Logger(),
	}

	if err := app.initialize(log); err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}

	return app, nil
}

// initialize sets up the application components
func (a *App) initialize(log zerolog.Logger) error {
	reg, deployer, err := newDeployer(a.cfg, log)
	if err != nil {
		return err
	}
	a.registry = reg
	a.deployer = deployer

	history, err := store.NewMemory(a.cfg.LSP.HistorySize)
	if err != nil {
		return err
	}
	a.history = history

	a.initializeAPIServer()
	return nil
}

// newDeployer loads the address book and builds the deployment service. Shared by
// the server and the one-shot deploy command.
func newDeployer(cfg *config.Config, log zerolog.Logger, opts ...lsp.Option) (*registry.Registry, *lsp.Service, error) {
	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return nil, nil, err
	}
	log.Info().
		Str("path", cfg.Registry.Path).
		Int("networks", reg.Networks()).
		Msg("Address registry loaded")

	opts = append([]lsp.Option{lsp.WithMetrics(lsp.NewMetrics())}, opts...)
	svc, err := lsp.NewService(cfg.LSP, cfg.Chain, reg, log, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create deployer: %w", err)
	}
	return reg, svc, nil
}

// initializeAPIServer sets up the HTTP API server with all endpoints
func (a *App) initializeAPIServer() {
	if a.cfg.API.WriteTimeout < a.cfg.RequestTimeoutHint() {
		a.log.Warn().
			Dur("write_timeout", a.cfg.API.WriteTimeout).
			Dur("deploy_timeout", a.cfg.RequestTimeoutHint()).
			Msg("API write timeout is shorter than a deployment; slow deployments will lose their response")
	}

	s := apisrv.NewServer(a.cfg.API, a.log)
	s.Use(apimw.Recover(a.log))
	s.Use(apimw.RequestID())
	s.Use(apimw.Logger(a.log, a.cfg.Chain.ReceiptTimeout))

	// Health/readiness/stats
	s.Router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	s.Router.HandleFunc("/ready", a.handleReady).Methods(http.MethodGet)
	s.Router.HandleFunc("/stats", a.handleStats).Methods(http.MethodGet)

	// Metrics
	if a.cfg.Metrics.Enabled {
		s.Router.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	// LSP API
	lspHandler := lsphttp.NewHandler(a.deployer, a.history, a.log)
	lspHandler.RegisterMux(s.Router)

	a.apiServer = s
}

// Run starts the application and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.started = time.Now()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.apiServer.Start(runCtx)
	}()

	return a.runWithGracefulShutdown(runCtx, errCh)
}

// runWithGracefulShutdown handles shutdown signals.
func (a *App) runWithGracefulShutdown(ctx context.Context, serverErr <-chan error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	a.log.Info().Msg("LSP deployer started successfully")

	var err error
	serverDone := false
	select {
	case <-ctx.Done():
		a.log.Info().Msg("Context canceled, initiating shutdown")
	case sig := <-sigCh:
		a.log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err = <-serverErr:
		serverDone = true
		if err != nil {
			a.log.Error().Err(err).Msg("API server error")
			err = fmt.Errorf("api server: %w", err)
		}
	}

	if a.cancel != nil {
		a.cancel()
	}
	// Wait for running deployments to drain.
	if !serverDone {
		if serr := <-serverErr; serr != nil && err == nil {
			err = fmt.Errorf("api server: %w", serr)
		}
	}

	a.log.Info().Msg("Graceful shutdown complete")
	return err
}

// handleHealth responds to health check requests.
func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

// handleReady reports not ready while the address book is empty, since every
// deployment needs at least the Store address.
func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	networks := a.registry.Networks()

	status := "ready"
	code := http.StatusOK
	if networks == 0 {
		status = "no_networks"
		code = http.StatusServiceUnavailable
	}

	apisrv.WriteJSON(w, code, map[string]any{"status": status, "networks": networks})
}

func (a *App) handleStats(w http.ResponseWriter, _ *http.Request) {
	apisrv.WriteJSON(w, http.StatusOK, a.GetStats())
}

// GetStats returns application statistics.
func (a *App) GetStats() map[string]any {
	return map[string]any{
		"app_version":        Version,
		"app_build_time":     BuildTime,
		"app_git_commit":     GitCommit,
		"networks":           a.registry.Networks(),
		"deployments_stored": a.history.Len(),
		"uptime_seconds":     time.Since(a.started).Seconds(),
	}
}
