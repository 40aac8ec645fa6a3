package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pkgcache "SignalDash/pkg/cache"
	"SignalDash/pkg/config"
	xhttp "SignalDash/pkg/http"
	applogger "SignalDash/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	logger      *applogger.Logger
	shared      pkgcache.Service
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, handler xhttp.Handler, logger *applogger.Logger, shared pkgcache.Service) *App {
	return &App{
		cfg:         cfg,
		httpHandler: handler,
		logger:      logger,
		shared:      shared,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("dashboard api started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("bucket", a.cfg.Storage.Bucket),
		applogger.Strings("watchlist", a.cfg.Watchlist),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.shared != nil {
		if err := a.shared.Close(); err != nil {
			a.logger.Warn("shared cache close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
