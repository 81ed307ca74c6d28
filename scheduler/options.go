package scheduler

import (
	"context"
	"time"

	"github.com/rise-and-shine/redq/observability/logger"
)

// Option is a functional option for customizing a Scheduler.
type Option func(*options)

type options struct {
	interval  time.Duration
	batchSize int64
	logger    logger.Logger
	now       func() time.Time
	discover  func(ctx context.Context) ([]string, error)
}

func defaultOptions() options {
	return options{
		interval:  time.Second,
		batchSize: 100,
		now:       time.Now,
	}
}

// WithInterval sets how often due items are promoted. Intervals are rounded
// down to whole seconds with a minimum of one second.
// Default: 1s.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithBatchSize sets how many due items of one queue are promoted per run.
// Default: 100.
func WithBatchSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithLogger sets the logger. Default: the global logger named "scheduler".
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock replaces time.Now when deciding which items are due.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithDiscovery sets a function listing queue names. It is called before every
// promotion run and its names are tracked in addition to those added by Track
// and Defer.
func WithDiscovery(fn func(ctx context.Context) ([]string, error)) Option {
	return func(o *options) {
		o.discover = fn
	}
}
