package scheduler

import (
	"context"
	"fmt"
	"time"

	"FinTrack/internal/domain/models"
	"FinTrack/pkg/cache"
	applogger "FinTrack/pkg/logger"

	"github.com/robfig/cron/v3"
)

const lockKey = "lock:market-gains:warm"

// Computer runs one basket evaluation.
type Computer interface {
	Compute(ctx context.Context) *models.MarketSnapshot
}

// Warmer pre-computes the basket on a cron schedule so the first request of
// the day is served from the price cache. Runs across replicas are serialized
// through a cache lock.
type Warmer struct {
	cron    *cron.Cron
	uc      Computer
	lock    cache.Service
	lockTTL time.Duration
	timeout time.Duration
	l       *applogger.Logger
}

type Option func(*Warmer)

func WithLock(c cache.Service, ttl time.Duration) Option {
	return func(w *Warmer) { w.lock, w.lockTTL = c, ttl }
}

func WithRunTimeout(d time.Duration) Option {
	return func(w *Warmer) { w.timeout = d }
}

func WithLogger(l *applogger.Logger) Option {
	return func(w *Warmer) { w.l = l }
}

func NewWarmer(uc Computer, opts ...Option) *Warmer {
	w := &Warmer{
		cron:    cron.New(cron.WithSeconds()),
		uc:      uc,
		lockTTL: 5 * time.Minute,
		timeout: 2 * time.Minute,
		l:       applogger.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start schedules the warm-up with a six-field cron spec and starts the cron
// loop in its own goroutine.
func (w *Warmer) Start(spec string) error {
	if _, err := w.cron.AddFunc(spec, func() { w.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	w.cron.Start()
	w.l.Info("market warm-up scheduled", applogger.String("spec", spec))
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (w *Warmer) Stop(ctx context.Context) error {
	done := w.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce computes the basket unless another run holds the lock. It reports
// whether a computation happened.
func (w *Warmer) RunOnce(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if w.lock != nil {
		ok, err := w.lock.TryLock(ctx, lockKey, w.lockTTL)
		if err != nil {
			w.l.Warn("warm-up lock failed", applogger.Error(err))
			return false
		}
		if !ok {
			w.l.Debug("warm-up already running elsewhere")
			return false
		}
		defer func() {
			if err := w.lock.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
				w.l.Warn("warm-up unlock failed", applogger.Error(err))
			}
		}()
	}

	start := time.Now()
	snap := w.uc.Compute(ctx)
	failed := 0
	for _, r := range snap.Results {
		if r.Failed() {
			failed++
		}
	}
	w.l.Info("market warm-up done",
		applogger.Int("assets", len(snap.Results)),
		applogger.Int("failed", failed),
		applogger.Duration("took", time.Since(start)))
	return true
}
