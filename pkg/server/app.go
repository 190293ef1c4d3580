package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FinTrack/internal/scheduler"
	"FinTrack/internal/service/ratelimit"
	"FinTrack/pkg/config"
	xhttp "FinTrack/pkg/http"
	applogger "FinTrack/pkg/logger"
)

const limiterSweepInterval = time.Minute

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	warmer      *scheduler.Warmer
	limiter     *ratelimit.Limiter
	closers     []closer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	warmer *scheduler.Warmer,
	limiter *ratelimit.Limiter,
) *App {
	return &App{
		cfg:         cfg,
		l:           l,
		httpHandler: handler,
		warmer:      warmer,
		limiter:     limiter,
	}
}

// AddCloser registers a resource released on shutdown, in registration order.
func (a *App) AddCloser(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold),
		xhttp.WithAllowOrigins(a.cfg.Server.AllowOrigins...),
		xhttp.WithLogger(a.l),
	)

	if a.cfg.Scheduler.Enabled && a.warmer != nil {
		if err := a.warmer.Start(a.cfg.Scheduler.Spec); err != nil {
			a.l.Error("scheduler start error", applogger.Error(err))
			return err
		}
		if a.cfg.Scheduler.RunOnBoot {
			go a.warmer.RunOnce(ctx)
		}
	}

	if a.limiter != nil {
		go a.sweepLimiter(ctx)
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("fintrack started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("provider", a.cfg.Market.Provider),
		applogger.Int("basket", len(a.cfg.Market.Basket)))

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) sweepLimiter(ctx context.Context) {
	t := time.NewTicker(limiterSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.limiter.Sweep()
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.cfg.Scheduler.Enabled && a.warmer != nil {
		if err := a.warmer.Stop(ctx); err != nil {
			a.l.Warn("scheduler stop error", applogger.Error(err))
		}
	}

	for _, c := range a.closers {
		if err := c.fn(); err != nil {
			a.l.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
			errs = append(errs, err)
		}
	}

	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
