package worker

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/queue"
)

// Outcome is the terminal state of one processed item.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeRetried   Outcome = "retried"
	OutcomeErrored   Outcome = "errored"
	OutcomeDeferred  Outcome = "deferred"
	OutcomeFailed    Outcome = "failed"
)

// Signal is returned by Handle.RetryItem and Handle.ErrorItem. It tells the
// loop the item was already routed and must not be counted as a success.
// Processors should return it unchanged.
type Signal struct {
	outcome Outcome
	itemID  int64
}

func (s *Signal) Error() string {
	return "[worker]: item " + strconv.FormatInt(s.itemID, 10) + " " + string(s.outcome)
}

// Outcome returns the outcome the signal stands for.
func (s *Signal) Outcome() Outcome { return s.outcome }

// IsSignal reports whether err is a retry or error signal.
func IsSignal(err error) bool {
	var s *Signal
	return errors.As(err, &s)
}

// Handle gives a processor access to the retry and error paths of the queue
// the item came from.
type Handle struct {
	q *queue.Queue

	mu     sync.Mutex
	signal *Signal
}

func newHandle(q *queue.Queue) *Handle {
	return &Handle{q: q}
}

// Queue returns the queue the item was popped from.
func (h *Handle) Queue() *queue.Queue { return h.q }

// RetryItem re-enqueues item, or moves it to the error queue once its retries
// are spent. It returns a *Signal on success and a plain error if the store
// call failed. Only the first RetryItem or ErrorItem call of a handle has effect.
func (h *Handle) RetryItem(ctx context.Context, item *envelope.Envelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.signal != nil {
		return h.signal
	}

	retried, err := h.q.RetryItem(ctx, item)
	if err != nil {
		return errx.Wrap(err)
	}

	outcome := OutcomeRetried
	if !retried {
		outcome = OutcomeErrored
	}
	h.signal = &Signal{outcome: outcome, itemID: item.ItemID()}

	return h.signal
}

// ErrorItem moves item to the error queue. It returns a *Signal on success and a
// plain error if the store call failed.
func (h *Handle) ErrorItem(ctx context.Context, item *envelope.Envelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.signal != nil {
		return h.signal
	}

	if err := h.q.ErrorItem(ctx, item); err != nil {
		return errx.Wrap(err)
	}
	h.signal = &Signal{outcome: OutcomeErrored, itemID: item.ItemID()}

	return h.signal
}

func (h *Handle) outcome() (Outcome, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.signal == nil {
		return "", false
	}
	return h.signal.outcome, true
}
