package queue

import (
	"context"
	"time"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/observability/logger"
)

// ErrorHook is called after an item reached the error queue of q.
// Hook errors are logged and otherwise ignored.
type ErrorHook func(ctx context.Context, q *Queue, item *envelope.Envelope) error

// Option is a functional option for customizing a Queue.
type Option func(*options)

type options struct {
	readTimeout       time.Duration
	hidden            bool
	pausePollInterval time.Duration
	errorHooks        []ErrorHook
	logger            logger.Logger
	now               func() time.Time
}

func defaultOptions() options {
	return options{
		pausePollInterval: defaultPausePollInterval,
		now:               time.Now,
	}
}

// WithReadTimeout sets how long Pop waits for an item.
// Default: 0, wait until an item arrives.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}

// Hidden keeps the queue out of the registry.
func Hidden() Option {
	return func(o *options) {
		o.hidden = true
	}
}

// WithPausePollInterval sets how often a paused Pop re-checks the pause flag.
// Default: 1s.
func WithPausePollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pausePollInterval = d
		}
	}
}

// WithErrorHook registers a hook run by ErrorItem. It can be given multiple times.
func WithErrorHook(h ErrorHook) Option {
	return func(o *options) {
		if h != nil {
			o.errorHooks = append(o.errorHooks, h)
		}
	}
}

// WithLogger sets the logger. Default: the global logger named "queue".
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock replaces time.Now for lifecycle timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
