package admin

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rise-and-shine/redq/metrics"
	"github.com/rise-and-shine/redq/observability/logger"
)

// Option is a functional option for customizing a Handler.
type Option func(*options)

type options struct {
	metrics      *metrics.Metrics
	gatherer     prometheus.Gatherer
	logger       logger.Logger
	defaultLimit int
	maxLimit     int
	tokenHash    string
}

// WithMetrics exposes g on GET /metrics. Queue gauges of m are refreshed on
// every scrape.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(o *options) {
		o.metrics = m
		o.gatherer = g
	}
}

// WithLogger sets the logger. Default: the global logger named "admin".
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLimits sets the default and maximum number of items returned by peek
// endpoints. Defaults: 50 and 1000.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(o *options) {
		if defaultLimit > 0 {
			o.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			o.maxLimit = maxLimit
		}
	}
}

// WithTokenHash requires every /api/v1 request to carry a bearer token
// matching the bcrypt hash. An empty hash leaves the API open.
func WithTokenHash(hash string) Option {
	return func(o *options) {
		o.tokenHash = hash
	}
}
