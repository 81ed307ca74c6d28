package worker

import (
	"context"
	"time"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/metrics"
	"github.com/rise-and-shine/redq/observability/logger"
)

// Deferrer parks items that are not runnable yet.
type Deferrer interface {
	Defer(ctx context.Context, item *envelope.Envelope) error
}

// Option is a functional option for customizing a Worker.
type Option func(*options)

type options struct {
	keepWatching   func() bool
	onFailure      FailureHandler
	logger         logger.Logger
	metrics        *metrics.Metrics
	deferrer       Deferrer
	serviceName    string
	serviceVersion string
	now            func() time.Time
}

// WithKeepWatching sets the predicate checked before every pop.
// Default: always true.
func WithKeepWatching(fn func() bool) Option {
	return func(o *options) {
		if fn != nil {
			o.keepWatching = fn
		}
	}
}

// WithFailureHandler sets what happens after a processing failure.
// Default: StopOnFailure.
func WithFailureHandler(h FailureHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onFailure = h
		}
	}
}

// WithLogger sets the logger. Default: the global logger named "worker".
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithScheduler parks items whose run_at is in the future instead of processing them.
func WithScheduler(d Deferrer) Option {
	return func(o *options) {
		o.deferrer = d
	}
}

// WithServiceInfo sets the service name and version injected into the item context.
// Default: the values registered with meta.SetServiceInfo.
func WithServiceInfo(name, version string) Option {
	return func(o *options) {
		o.serviceName = name
		o.serviceVersion = version
	}
}

// WithClock replaces time.Now for processing timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
