package maintenance

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rotaiq/rotaiq/internal/services"
	"github.com/rotaiq/rotaiq/pkg/logger"
)

const defaultCloseSpec = "@hourly"

// Closer runs the background job that closes shifts whose end time has
// passed, declining any claims still pending on them.
type Closer struct {
	shifts  *services.ShiftService
	cron    *cron.Cron
	log     *zap.Logger
	enabled bool

	closeSchedule string
}

// Option customises the Closer.
type Option func(*Closer)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(closer *Closer) {
		if c != nil {
			closer.cron = c
		}
	}
}

// WithCloseSchedule overrides the cron spec for shift expiry.
func WithCloseSchedule(spec string) Option {
	return func(closer *Closer) {
		if spec != "" {
			closer.closeSchedule = spec
		}
	}
}

// WithEnabled toggles the scheduler without rewiring callers.
func WithEnabled(enabled bool) Option {
	return func(closer *Closer) {
		closer.enabled = enabled
	}
}

// NewCloser constructs a Closer with sensible defaults.
func NewCloser(shifts *services.ShiftService, opts ...Option) *Closer {
	closer := &Closer{
		shifts:        shifts,
		closeSchedule: defaultCloseSpec,
		log:           logger.WithModule("maintenance"),
		enabled:       shifts != nil,
	}

	for _, opt := range opts {
		opt(closer)
	}

	if closer.cron == nil {
		closer.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return closer
}

// Start registers the expiry job with the cron scheduler and launches it.
func (c *Closer) Start() error {
	if !c.enabled || c.shifts == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.closeSchedule, func() {
		ctx := context.Background()
		closed, err := c.shifts.CloseExpired(ctx)
		if err != nil {
			c.log.Warn("shift expiry failed", zap.Error(err))
			return
		}
		if closed > 0 {
			c.log.Info("expired shifts closed", zap.Int64("count", closed))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Closer) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes the expiry pass immediately. Used in tests and optionally
// at startup.
func (c *Closer) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.shifts == nil {
		return errors.New("maintenance: shift service is required")
	}

	var errs error
	if _, err := c.shifts.CloseExpired(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}
