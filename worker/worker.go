// Package worker runs the pop, process, outcome loop against one queue.
package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/meta"
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/queue"
)

// Worker drives one queue. A Worker processes one item at a time; run several
// workers for concurrency.
type Worker struct {
	id        string
	queue     *queue.Queue
	processor Processor
	opts      options
	log       logger.Logger
	chain     handleFunc

	stopped   atomic.Bool
	executing atomic.Bool
}

// New creates a worker feeding items of q to p.
func New(q *queue.Queue, p Processor, opts ...Option) (*Worker, error) {
	if q == nil {
		return nil, errx.New("[worker]: queue is required",
			errx.WithCode(CodeInvalidWorker), errx.WithType(errx.T_Validation))
	}
	if p == nil {
		return nil, errx.New("[worker]: processor is required",
			errx.WithCode(CodeInvalidWorker), errx.WithType(errx.T_Validation))
	}

	o := options{
		keepWatching:   func() bool { return true },
		onFailure:      StopOnFailure,
		serviceName:    meta.Service().Name,
		serviceVersion: meta.Service().Version,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("worker")
	}

	w := &Worker{
		id:        uuid.NewString(),
		queue:     q,
		processor: p,
		opts:      o,
		log:       o.logger.With("queue", q.Name()),
	}
	w.chain = w.buildProcessChain()

	return w, nil
}

// NewFunc creates a worker from a single processing function.
func NewFunc(q *queue.Queue, fn ProcessFunc, opts ...Option) (*Worker, error) {
	if fn == nil {
		return New(q, nil, opts...)
	}
	return New(q, fn, opts...)
}

// ID returns the unique id of the worker.
func (w *Worker) ID() string { return w.id }

// Queue returns the queue the worker drains.
func (w *Worker) Queue() *queue.Queue { return w.queue }

// ExecutingJob reports whether an item is being processed right now.
func (w *Worker) ExecutingJob() bool { return w.executing.Load() }

// Stop makes Watch return before its next pop. An item in flight is finished first.
func (w *Worker) Stop() { w.stopped.Store(true) }

func (w *Worker) keepWatching(ctx context.Context) bool {
	return ctx.Err() == nil && !w.stopped.Load() && w.opts.keepWatching()
}

// Watch pops and processes items until the keep-watching predicate turns false,
// Stop is called or ctx is done. A blocked pop is not interrupted by Stop; it
// returns after the queue read timeout.
//
// Watch returns store errors, and processing failures the FailureHandler did not
// recover.
func (w *Worker) Watch(ctx context.Context) error {
	log := w.log.WithContext(ctx).With("worker_id", w.id)
	log.Info("[worker]: started watching")
	defer log.Info("[worker]: stopped watching")

	for w.keepWatching(ctx) {
		item, err := w.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errx.IsCodeIn(err, queue.CodeMalformedItem) {
				log.Warnx(err)
				continue
			}
			return err
		}
		if item == nil {
			continue
		}

		if _, err = w.Process(ctx, item); err != nil {
			return err
		}
	}

	return nil
}

// Process runs one popped item through the processor and applies its outcome.
// The error is non-nil only when the item failed and the FailureHandler did not
// recover it, or when recording the outcome failed.
func (w *Worker) Process(ctx context.Context, item *envelope.Envelope) (Outcome, error) {
	w.executing.Store(true)
	w.opts.metrics.WorkerBusy(w.queue.Name(), true)
	defer func() {
		w.executing.Store(false)
		w.opts.metrics.WorkerBusy(w.queue.Name(), false)
	}()

	start := w.opts.now()

	if w.opts.deferrer != nil && item.OpenLater(start) {
		if err := w.opts.deferrer.Defer(ctx, item); err != nil {
			return OutcomeFailed, errx.Wrap(err)
		}
		w.opts.metrics.ObserveItem(w.queue.Name(), string(OutcomeDeferred), 0)
		return OutcomeDeferred, nil
	}

	item.SetTime(envelope.FieldStartedProcessingAt, start)

	h := newHandle(w.queue)
	outcome, err := w.dispatch(ctx, item, h, w.chain(ctx, item, h), start)

	w.opts.metrics.ObserveItem(w.queue.Name(), string(outcome), w.opts.now().Sub(start))

	return outcome, err
}

func (w *Worker) dispatch(
	ctx context.Context,
	item *envelope.Envelope,
	h *Handle,
	procErr error,
	start time.Time,
) (Outcome, error) {
	if outcome, ok := h.outcome(); ok {
		if procErr != nil && !IsSignal(procErr) {
			w.log.WithContext(ctx).With("item_id", item.ItemID()).Warnx(procErr)
		}
		return outcome, nil
	}

	if procErr != nil {
		if err := w.opts.onFailure(ctx, item, h, procErr); err != nil {
			return OutcomeFailed, err
		}
		if outcome, ok := h.outcome(); ok {
			return outcome, nil
		}
		return OutcomeFailed, nil
	}

	finished := w.opts.now()
	item.SetTime(envelope.FieldFinishedProcessingAt, finished)

	if _, err := w.queue.IncrementRunTimeBy(ctx, finished.Sub(start)); err != nil {
		return OutcomeSucceeded, err
	}
	if _, err := w.queue.IncrementSuccessStat(ctx); err != nil {
		return OutcomeSucceeded, err
	}

	return OutcomeSucceeded, nil
}
