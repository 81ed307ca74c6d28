// Package queue implements named FIFO work queues on top of a store.Store.
//
// A Queue owns push/pop, a persisted pause flag, bounded retries, dead-lettering
// into a hidden "<name>:errors" queue and a rolling statistics window.
package queue

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/code19m/errx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/stats"
	"github.com/rise-and-shine/redq/store"
)

const (
	keyPaused    = "paused"
	keyIDSeq     = "id_seq"
	keyScheduled = "scheduled"
	keyErrors    = "errors"

	flagTrue  = "true"
	flagFalse = "false"
)

// Queue is a handle to one named queue. Handles are cheap; every piece of state
// lives in the store, so any number of handles may point at the same queue.
type Queue struct {
	store    store.Store
	name     string
	cfg      Config
	opts     options
	stats    *stats.Window
	registry *Registry
	log      logger.Logger

	errQueueOnce sync.Once
	errQueue     *Queue
}

// New returns a handle to the queue called name and registers it unless Hidden is given.
func New(ctx context.Context, s store.Store, name string, cfg Config, opts ...Option) (*Queue, error) {
	q, err := newQueue(s, name, cfg, opts...)
	if err != nil {
		return nil, err
	}

	if !q.opts.hidden {
		if err = q.registry.Register(ctx, name); err != nil {
			return nil, errx.Wrap(err)
		}
	}

	return q, nil
}

func newQueue(s store.Store, name string, cfg Config, opts ...Option) (*Queue, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errx.New("[queue]: queue name is required",
			errx.WithCode(CodeInvalidQueueName),
			errx.WithType(errx.T_Validation),
		)
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("queue")
	}

	return &Queue{
		store:    s,
		name:     name,
		cfg:      cfg,
		opts:     o,
		stats:    stats.NewWindow(s, name, cfg.StatTimeout()),
		registry: NewRegistry(s),
		log:      o.logger.With("queue", name),
	}, nil
}

// Name returns the queue name, which is also the store key of its list.
func (q *Queue) Name() string { return q.name }

// Hidden reports whether the queue is kept out of the registry.
func (q *Queue) Hidden() bool { return q.opts.hidden }

// Config returns the policy values of the queue.
func (q *Queue) Config() Config { return q.cfg }

// ReadTimeout returns how long Pop waits for an item; zero waits forever.
func (q *Queue) ReadTimeout() time.Duration { return q.opts.readTimeout }

// Store returns the backing store.
func (q *Queue) Store() store.Store { return q.store }

// StatWindow returns the statistics window of the queue.
func (q *Queue) StatWindow() *stats.Window { return q.stats }

// Attr returns a store key namespaced to this queue.
func (q *Queue) Attr(key string) string {
	return q.name + ":" + key
}

// ScheduledKey returns the store key holding deferred items of this queue.
func (q *Queue) ScheduledKey() string {
	return q.Attr(keyScheduled)
}

// Now returns the current time according to the queue clock.
func (q *Queue) Now() time.Time { return q.opts.now() }

// Length returns the number of pending items.
func (q *Queue) Length(ctx context.Context) (int64, error) {
	n, err := q.store.ListLength(ctx, q.name)
	return n, errx.Wrap(err)
}

// Push appends an item and returns the queue length afterwards.
//
// An *envelope.Envelope is pushed as-is and metadata is ignored. Anything else is
// wrapped by Wrap first.
func (q *Queue) Push(ctx context.Context, contents any, metadata map[string]any) (int64, error) {
	var item *envelope.Envelope

	switch c := contents.(type) {
	case *envelope.Envelope:
		item = c
	case envelope.Envelope:
		item = &c
	default:
		wrapped, err := q.Wrap(ctx, contents, metadata)
		if err != nil {
			return 0, err
		}
		item = wrapped
	}

	return q.pushEnvelope(ctx, item)
}

func (q *Queue) pushEnvelope(ctx context.Context, item *envelope.Envelope) (int64, error) {
	wire, err := item.Serialize()
	if err != nil {
		return 0, errx.Wrap(err, errx.WithDetails(errx.D{"queue": q.name}))
	}

	if err = q.store.ListPush(ctx, q.name, wire); err != nil {
		return 0, errx.Wrap(err, errx.WithDetails(errx.D{"queue": q.name}))
	}

	return q.Length(ctx)
}

// Wrap builds a new envelope for contents with the default metadata of this queue:
// the next item_id, zero retries, submitted_at and origin_queue. Defaults win over
// caller metadata. The trace context of ctx, if any, is carried in trace_ctx.
func (q *Queue) Wrap(ctx context.Context, contents any, metadata map[string]any) (*envelope.Envelope, error) {
	item := envelope.Wrap(contents, metadata)
	if _, err := item.Serialize(); err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"queue": q.name}))
	}

	id, err := q.store.CounterIncrement(ctx, q.Attr(keyIDSeq))
	if err != nil {
		return nil, errx.Wrap(err)
	}

	item.Set(envelope.FieldItemID, id)
	item.Set(envelope.FieldRetries, 0)
	item.SetTime(envelope.FieldSubmittedAt, q.Now())
	item.Set(envelope.FieldOriginQueue, q.name)

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) > 0 {
		item.Set(envelope.FieldTraceContext, map[string]string(carrier))
	}

	return item, nil
}

// Pop waits while the queue is paused, then takes the next item. It returns
// (nil, nil) when the read timeout elapsed without an item.
func (q *Queue) Pop(ctx context.Context) (*envelope.Envelope, error) {
	if err := q.blockWhilePaused(ctx); err != nil {
		return nil, err
	}

	wire, ok, err := q.store.ListPopBlocking(ctx, q.name, q.opts.readTimeout)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"queue": q.name}))
	}
	if !ok {
		return nil, nil //nolint:nilnil // timeout is not an error
	}

	item, parseErr := envelope.Parse(wire)
	if parseErr != nil {
		if err = q.store.ListPush(ctx, q.ErrorQueue().Name(), wire); err != nil {
			return nil, errx.Wrap(err)
		}
		return nil, errx.New("[queue]: popped item is not a valid envelope",
			errx.WithCode(CodeMalformedItem),
			errx.WithDetails(errx.D{
				"queue": q.name,
				"wire":  wire,
				"cause": parseErr.Error(),
			}),
		)
	}

	return item, nil
}

func (q *Queue) blockWhilePaused(ctx context.Context) error {
	for {
		paused, err := q.Paused(ctx)
		if err != nil {
			return err
		}
		if !paused {
			return nil
		}

		select {
		case <-ctx.Done():
			return errx.Wrap(ctx.Err())
		case <-time.After(q.opts.pausePollInterval):
		}
	}
}

// Pause stops Pop from taking items until Unpause is called.
func (q *Queue) Pause(ctx context.Context) error {
	return errx.Wrap(q.store.Set(ctx, q.Attr(keyPaused), flagTrue))
}

// Unpause lets Pop take items again.
func (q *Queue) Unpause(ctx context.Context) error {
	return errx.Wrap(q.store.Set(ctx, q.Attr(keyPaused), flagFalse))
}

// Paused reports whether the queue is paused.
func (q *Queue) Paused(ctx context.Context) (bool, error) {
	v, _, err := q.store.Get(ctx, q.Attr(keyPaused))
	if err != nil {
		return false, errx.Wrap(err)
	}
	return v == flagTrue, nil
}

// RetryItem pushes item back onto this queue with its retry count increased, or
// moves it to the error queue once MaxRetries is reached. retried reports which
// of the two happened.
func (q *Queue) RetryItem(ctx context.Context, item *envelope.Envelope) (retried bool, err error) {
	if item.Retries() >= q.cfg.MaxRetries {
		return false, q.ErrorItem(ctx, item)
	}

	item.Set(envelope.FieldRetries, item.Retries()+1)
	item.SetTime(envelope.FieldLastTriedAt, q.Now())

	if _, err = q.IncrementRetryStat(ctx); err != nil {
		return false, err
	}
	if _, err = q.pushEnvelope(ctx, item); err != nil {
		return false, err
	}

	q.log.WithContext(ctx).With("item_id", item.ItemID()).With("retries", item.Retries()).Debug("item retried")

	return true, nil
}

// ErrorItem stamps fatal_error_at, records an error and moves item to the error
// queue. Error hooks run afterwards.
func (q *Queue) ErrorItem(ctx context.Context, item *envelope.Envelope) error {
	item.SetTime(envelope.FieldFatalErrorAt, q.Now())

	if _, err := q.IncrementErrorStat(ctx); err != nil {
		return err
	}
	if _, err := q.ErrorQueue().pushEnvelope(ctx, item); err != nil {
		return err
	}

	log := q.log.WithContext(ctx).With("item_id", item.ItemID())
	log.With("retries", item.Retries()).Warn("item moved to error queue")

	for _, hook := range q.opts.errorHooks {
		if err := hook(ctx, q, item); err != nil {
			log.Errorx(errx.Wrap(err))
		}
	}

	return nil
}

// ErrorQueue returns the hidden queue holding items that failed permanently.
func (q *Queue) ErrorQueue() *Queue {
	q.errQueueOnce.Do(func() {
		o := q.opts
		o.hidden = true
		o.errorHooks = nil
		o.logger = q.opts.logger

		q.errQueue = &Queue{
			store:    q.store,
			name:     q.Attr(keyErrors),
			cfg:      q.cfg,
			opts:     o,
			stats:    stats.NewWindow(q.store, q.Attr(keyErrors), q.cfg.StatTimeout()),
			registry: q.registry,
			log:      o.logger.With("queue", q.Attr(keyErrors)),
		}
	})
	return q.errQueue
}

// Items returns up to limit pending items from the head of the queue without removing them.
// Messages that are not valid envelopes are skipped.
func (q *Queue) Items(ctx context.Context, limit int64) ([]*envelope.Envelope, error) {
	if limit <= 0 {
		return nil, nil
	}

	wires, err := q.store.ListRange(ctx, q.name, 0, limit-1)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	items := make([]*envelope.Envelope, 0, len(wires))
	for _, w := range wires {
		item, parseErr := envelope.Parse(w)
		if parseErr != nil {
			q.log.WithContext(ctx).Warnx(parseErr)
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// Delete removes the list, every key namespaced to the queue (pause flag, id
// sequence, statistics, scheduled and error items) and the registry entry.
func (q *Queue) Delete(ctx context.Context) error {
	keys, err := q.store.KeysMatching(ctx, escapeGlob(q.name)+":*")
	if err != nil {
		return errx.Wrap(err)
	}

	keys = append(keys, q.name)
	keys = append(keys, q.stats.Keys()...)
	if err = q.store.Delete(ctx, keys...); err != nil {
		return errx.Wrap(err)
	}

	if err = q.registry.Unregister(ctx, q.name); err != nil {
		return errx.Wrap(err)
	}

	q.log.WithContext(ctx).Info("queue deleted")

	return nil
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
