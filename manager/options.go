package manager

import (
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/queue"
	"github.com/rise-and-shine/redq/worker"
)

// Option is a functional option for customizing a Manager.
type Option func(*options)

type options struct {
	queueOpts  []queue.Option
	workerOpts []worker.Option
	logger     logger.Logger
}

// WithQueueOptions sets options applied to every queue the manager opens.
func WithQueueOptions(opts ...queue.Option) Option {
	return func(o *options) {
		o.queueOpts = append(o.queueOpts, opts...)
	}
}

// WithWorkerOptions sets options applied to every worker the manager starts.
// Options passed to Watch are applied after these.
func WithWorkerOptions(opts ...worker.Option) Option {
	return func(o *options) {
		o.workerOpts = append(o.workerOpts, opts...)
	}
}

// WithLogger sets the logger. Default: the global logger named "manager".
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
