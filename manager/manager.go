// Package manager is the entry point for applications using redq. It owns one
// store connection and hands out cached queue handles and workers.
package manager

import (
	"context"
	"sync"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/queue"
	"github.com/rise-and-shine/redq/store"
	"github.com/rise-and-shine/redq/worker"
)

// Manager opens queues on a shared store with a shared default config.
type Manager struct {
	store    store.Store
	cfg      queue.Config
	opts     options
	log      logger.Logger
	registry *queue.Registry

	mu     sync.Mutex
	queues map[string]*queue.Queue
}

// New creates a manager. cfg is the config of every queue opened through it.
func New(s store.Store, cfg queue.Config, opts ...Option) *Manager {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("manager")
	} else {
		o.queueOpts = append([]queue.Option{queue.WithLogger(o.logger)}, o.queueOpts...)
	}

	return &Manager{
		store:    s,
		cfg:      cfg,
		opts:     o,
		log:      o.logger,
		registry: queue.NewRegistry(s),
		queues:   map[string]*queue.Queue{},
	}
}

// Store returns the underlying store.
func (m *Manager) Store() store.Store { return m.store }

// Config returns the queue config used by the manager.
func (m *Manager) Config() queue.Config { return m.cfg }

// Registry returns the registry of queue names.
func (m *Manager) Registry() *queue.Registry { return m.registry }

// Queue returns the handle of the named queue, creating and registering it on
// first use.
func (m *Manager) Queue(ctx context.Context, name string) (*queue.Queue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if q, ok := m.queues[name]; ok {
		return q, nil
	}

	q, err := queue.New(ctx, m.store, name, m.cfg, m.opts.queueOpts...)
	if err != nil {
		return nil, err
	}
	m.queues[name] = q

	return q, nil
}

// HasQueue reports whether name is registered. Unlike Queue it never creates one.
func (m *Manager) HasQueue(ctx context.Context, name string) (bool, error) {
	return m.registry.Contains(ctx, name)
}

// QueueNames returns the registered queue names in lexical order.
func (m *Manager) QueueNames(ctx context.Context) ([]string, error) {
	return m.registry.Names(ctx)
}

// AllQueues returns handles for every registered queue.
func (m *Manager) AllQueues(ctx context.Context) ([]*queue.Queue, error) {
	names, err := m.registry.Names(ctx)
	if err != nil {
		return nil, err
	}

	queues := make([]*queue.Queue, 0, len(names))
	for _, name := range names {
		q, err := m.Queue(ctx, name)
		if err != nil {
			return nil, err
		}
		queues = append(queues, q)
	}

	return queues, nil
}

// Push adds contents to the named queue and returns its new length.
func (m *Manager) Push(ctx context.Context, name string, contents any, metadata map[string]any) (int64, error) {
	q, err := m.Queue(ctx, name)
	if err != nil {
		return 0, err
	}
	return q.Push(ctx, contents, metadata)
}

// RetryItem retries item on the queue it was originally pushed to.
func (m *Manager) RetryItem(ctx context.Context, item *envelope.Envelope) (bool, error) {
	q, err := m.origin(ctx, item)
	if err != nil {
		return false, err
	}
	return q.RetryItem(ctx, item)
}

// ErrorItem dead-letters item on the queue it was originally pushed to.
func (m *Manager) ErrorItem(ctx context.Context, item *envelope.Envelope) error {
	q, err := m.origin(ctx, item)
	if err != nil {
		return err
	}
	return q.ErrorItem(ctx, item)
}

func (m *Manager) origin(ctx context.Context, item *envelope.Envelope) (*queue.Queue, error) {
	name := item.OriginQueue()
	if name == "" {
		return nil, errx.New("[manager]: item has no origin queue",
			errx.WithCode(CodeMissingOriginQueue),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"item_id": item.ItemID()}),
		)
	}
	return m.Queue(ctx, name)
}

// NewWorker creates a worker for the named queue.
func (m *Manager) NewWorker(ctx context.Context, name string, p worker.Processor, opts ...worker.Option) (*worker.Worker, error) {
	q, err := m.Queue(ctx, name)
	if err != nil {
		return nil, err
	}

	opts = append(append([]worker.Option{}, m.opts.workerOpts...), opts...)
	return worker.New(q, p, opts...)
}

// Watch processes items of the named queue with fn until ctx is done or the
// worker stops. See worker.Worker.Watch.
func (m *Manager) Watch(ctx context.Context, name string, fn worker.ProcessFunc, opts ...worker.Option) error {
	if fn == nil {
		return m.WatchWith(ctx, name, nil, opts...)
	}
	return m.WatchWith(ctx, name, fn, opts...)
}

// WatchWith is Watch for a Processor.
func (m *Manager) WatchWith(ctx context.Context, name string, p worker.Processor, opts ...worker.Option) error {
	w, err := m.NewWorker(ctx, name, p, opts...)
	if err != nil {
		return err
	}
	return w.Watch(ctx)
}

// DeleteQueue removes the named queue with its items, error queue, statistics
// and registration.
func (m *Manager) DeleteQueue(ctx context.Context, name string) error {
	q, err := m.Queue(ctx, name)
	if err != nil {
		return err
	}

	if err = q.Delete(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.queues, name)
	m.mu.Unlock()

	m.log.WithContext(ctx).With("queue", name).Info("[manager]: queue deleted")
	return nil
}

// Cached returns the names of queues with an open handle.
func (m *Manager) Cached() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return lo.Keys(m.queues)
}
