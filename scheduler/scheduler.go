// Package scheduler delays items whose run_at lies in the future.
//
// Deferred items are parked in a per-queue sorted set scored by run_at and are
// pushed back onto their origin queue once due.
package scheduler

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/code19m/errx"
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/queue"
	"github.com/rise-and-shine/redq/store"
)

const shutdownTimeout = 10 * time.Second

// Resolver returns the queue handle for a queue name.
type Resolver func(ctx context.Context, name string) (*queue.Queue, error)

// Scheduler parks and promotes deferred items.
type Scheduler struct {
	store   store.Store
	resolve Resolver
	opts    options
	logger  logger.Logger

	mu      sync.RWMutex
	tracked map[string]struct{}

	cron      *cron.Cron
	stopCh    chan struct{}
	stopOnce  sync.Once
	stoppedCh chan struct{}
}

// New creates a scheduler. resolve maps origin queue names to queue handles.
func New(s store.Store, resolve Resolver, opts ...Option) (*Scheduler, error) {
	if s == nil || resolve == nil {
		return nil, errx.New("[scheduler]: store and resolver are required",
			errx.WithCode(CodeInvalidScheduler),
			errx.WithType(errx.T_Validation))
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("scheduler")
	}

	return &Scheduler{
		store:     s,
		resolve:   resolve,
		opts:      o,
		logger:    o.logger,
		tracked:   map[string]struct{}{},
		cron:      cron.New(),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}, nil
}

// Defer parks item until its run_at. The item keeps its metadata and is tracked
// under its origin queue.
func (s *Scheduler) Defer(ctx context.Context, item *envelope.Envelope) error {
	origin := item.OriginQueue()
	runAt := item.RunAt()
	if origin == "" || runAt.IsZero() {
		return errx.New("[scheduler]: item needs origin_queue and run_at to be deferred",
			errx.WithCode(CodeNotDeferrable),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"origin_queue": origin, "item_id": item.ItemID()}),
		)
	}

	q, err := s.resolve(ctx, origin)
	if err != nil {
		return errx.Wrap(err)
	}

	wire, err := item.Serialize()
	if err != nil {
		return errx.Wrap(err)
	}

	if err = s.store.ScheduleAdd(ctx, q.ScheduledKey(), wire, runAt); err != nil {
		return errx.Wrap(err)
	}
	s.Track(q.Name())

	s.logger.WithContext(ctx).With(
		"queue", q.Name(),
		"item_id", item.ItemID(),
		"run_at", runAt,
	).Debug("[scheduler]: item deferred")

	return nil
}

// Schedule wraps contents for q and defers it until runAt.
func (s *Scheduler) Schedule(
	ctx context.Context,
	q *queue.Queue,
	contents any,
	runAt time.Time,
	metadata map[string]any,
) (*envelope.Envelope, error) {
	item, err := q.Wrap(ctx, contents, metadata)
	if err != nil {
		return nil, err
	}
	item.SetTime(envelope.FieldRunAt, runAt)

	if err = s.Defer(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// PromoteDue pushes the due items of q back onto it and returns how many were
// promoted. An item is only promoted by the caller that removed it from the
// schedule, so concurrent schedulers never push the same item twice.
func (s *Scheduler) PromoteDue(ctx context.Context, q *queue.Queue) (int, error) {
	due, err := s.store.ScheduleDue(ctx, q.ScheduledKey(), s.opts.now(), s.opts.batchSize)
	if err != nil {
		return 0, errx.Wrap(err)
	}

	promoted := 0
	for _, wire := range due {
		claimed, err := s.store.ScheduleRemove(ctx, q.ScheduledKey(), wire)
		if err != nil {
			return promoted, errx.Wrap(err)
		}
		if !claimed {
			continue
		}

		item, parseErr := envelope.Parse(wire)
		if parseErr != nil {
			s.logger.WithContext(ctx).With("queue", q.Name()).Warnx(parseErr)
			if err = s.store.ListPush(ctx, q.ErrorQueue().Name(), wire); err != nil {
				return promoted, errx.Wrap(err)
			}
			continue
		}

		if _, err = q.Push(ctx, item, nil); err != nil {
			return promoted, err
		}
		promoted++
	}

	return promoted, nil
}

// Length returns the number of items parked for q.
func (s *Scheduler) Length(ctx context.Context, q *queue.Queue) (int64, error) {
	n, err := s.store.ScheduleLength(ctx, q.ScheduledKey())
	return n, errx.Wrap(err)
}

// Track adds queue names whose schedules are promoted by the cron job.
func (s *Scheduler) Track(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range names {
		s.tracked[name] = struct{}{}
	}
}

// Tracked returns the tracked queue names in lexical order.
func (s *Scheduler) Tracked() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := lo.Keys(s.tracked)
	slices.Sort(names)
	return names
}

// PromoteAll promotes the due items of every tracked queue.
func (s *Scheduler) PromoteAll(ctx context.Context) error {
	if s.opts.discover != nil {
		names, err := s.opts.discover(ctx)
		if err != nil {
			return errx.Wrap(err)
		}
		s.Track(names...)
	}

	for _, name := range s.Tracked() {
		q, err := s.resolve(ctx, name)
		if err != nil {
			return errx.Wrap(err)
		}

		n, err := s.PromoteDue(ctx, q)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.WithContext(ctx).With("queue", name, "count", n).Info("[scheduler]: promoted due items")
		}
	}
	return nil
}

// Start runs the promotion job every interval.
// Blocks until Stop is called or context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	defer close(s.stoppedCh)

	_, err := s.cron.AddFunc("@every "+s.opts.interval.String(), func() {
		if err := s.PromoteAll(ctx); err != nil && ctx.Err() == nil {
			s.logger.WithContext(ctx).Errorx(err)
		}
	})
	if err != nil {
		return errx.Wrap(err, errx.WithDetails(errx.D{"interval": s.opts.interval.String()}))
	}

	s.cron.Start()

	select {
	case <-ctx.Done():
	case <-s.stopCh:
	}

	<-s.cron.Stop().Done()
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.stopOnce.Do(func() { close(s.stopCh) })

	select {
	case <-s.stoppedCh:
		return nil
	case <-time.After(shutdownTimeout):
		return errx.New("[scheduler]: shutdown timeout exceeded")
	}
}
