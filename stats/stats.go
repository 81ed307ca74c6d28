// Package stats keeps per-queue execution statistics over a rolling time window.
//
// A window of one kind expires as a whole once the configured timeout has
// passed since its last event; every new event restarts that timeout.
// Lifetime totals are kept next to the windows and are never expired.
package stats

import (
	"context"
	"strconv"
	"time"

	"github.com/code19m/errx"
	"github.com/spf13/cast"

	"github.com/rise-and-shine/redq/store"
)

// Kind identifies one of the windowed statistics.
type Kind string

const (
	KindRetry   Kind = "retry"
	KindError   Kind = "error"
	KindSuccess Kind = "success"
	KindRunTime Kind = "run_time"
)

// Kinds lists every statistic kept per queue.
func Kinds() []Kind {
	return []Kind{KindRetry, KindError, KindSuccess, KindRunTime}
}

// Snapshot is a point-in-time view of a queue's statistics.
type Snapshot struct {
	Retries   int64 `json:"retries"`
	Errors    int64 `json:"errors"`
	Successes int64 `json:"successes"`

	// TotalRunDuration is the summed run time of successful items, in seconds.
	TotalRunDuration float64 `json:"total_run_duration"`
	// AverageExecutionTime is TotalRunDuration/Successes, or 0 without successes.
	AverageExecutionTime float64 `json:"average_execution_time"`

	RetriesTotal   int64 `json:"retries_total"`
	ErrorsTotal    int64 `json:"errors_total"`
	SuccessesTotal int64 `json:"successes_total"`
}

// Window records statistics for one queue.
type Window struct {
	store   store.Store
	prefix  string
	timeout time.Duration
}

// NewWindow returns the window of the queue named name. A window expires
// timeout after its last event.
func NewWindow(s store.Store, name string, timeout time.Duration) *Window {
	return &Window{
		store:   s,
		prefix:  name + ":",
		timeout: timeout,
	}
}

// Timeout returns how long a window outlives its last event.
func (w *Window) Timeout() time.Duration { return w.timeout }

// WindowKey returns the store key of the window for kind.
func (w *Window) WindowKey(kind Kind) string {
	return w.prefix + string(kind) + "_stats"
}

// TotalKey returns the store key of the lifetime counter for kind.
func (w *Window) TotalKey(kind Kind) string {
	return w.prefix + string(kind) + "_total"
}

// Keys returns every key owned by the window.
func (w *Window) Keys() []string {
	keys := make([]string, 0, 2*len(Kinds()))
	for _, k := range Kinds() {
		keys = append(keys, w.WindowKey(k), w.TotalKey(k))
	}
	return keys
}

// Increment records one event of kind and returns the window count afterwards.
func (w *Window) Increment(ctx context.Context, kind Kind) (int64, error) {
	if err := w.store.ExpiringAdd(ctx, w.WindowKey(kind), "1", w.timeout); err != nil {
		return 0, errx.Wrap(err)
	}
	if _, err := w.store.CounterIncrement(ctx, w.TotalKey(kind)); err != nil {
		return 0, errx.Wrap(err)
	}

	return w.Count(ctx, kind)
}

// AddRunTime records d of successful run time and returns the windowed total in seconds.
func (w *Window) AddRunTime(ctx context.Context, d time.Duration) (float64, error) {
	secs := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	if err := w.store.ExpiringAdd(ctx, w.WindowKey(KindRunTime), secs, w.timeout); err != nil {
		return 0, errx.Wrap(err)
	}
	if _, err := w.store.CounterIncrementBy(ctx, w.TotalKey(KindRunTime), d.Milliseconds()); err != nil {
		return 0, errx.Wrap(err)
	}

	return w.TotalRunDuration(ctx)
}

// Count returns the number of events of kind in the live window.
func (w *Window) Count(ctx context.Context, kind Kind) (int64, error) {
	n, err := w.store.ExpiringCount(ctx, w.WindowKey(kind))
	return n, errx.Wrap(err)
}

// Total returns the lifetime counter of kind. For KindRunTime it is milliseconds.
func (w *Window) Total(ctx context.Context, kind Kind) (int64, error) {
	v, ok, err := w.store.Get(ctx, w.TotalKey(kind))
	if err != nil || !ok {
		return 0, errx.Wrap(err)
	}
	return cast.ToInt64(v), nil
}

// TotalRunDuration returns the summed run time in the window, in seconds.
func (w *Window) TotalRunDuration(ctx context.Context) (float64, error) {
	members, err := w.store.ExpiringMembers(ctx, w.WindowKey(KindRunTime))
	if err != nil {
		return 0, errx.Wrap(err)
	}

	var total float64
	for _, m := range members {
		total += cast.ToFloat64(m)
	}
	return total, nil
}

// AverageExecutionTime returns the mean run time of successes in the window,
// or 0 when there were none.
func (w *Window) AverageExecutionTime(ctx context.Context) (float64, error) {
	successes, err := w.Count(ctx, KindSuccess)
	if err != nil {
		return 0, err
	}
	if successes == 0 {
		return 0, nil
	}

	total, err := w.TotalRunDuration(ctx)
	if err != nil {
		return 0, err
	}
	return total / float64(successes), nil
}

// Reset clears the windows. Lifetime totals are kept.
func (w *Window) Reset(ctx context.Context) error {
	keys := make([]string, 0, len(Kinds()))
	for _, k := range Kinds() {
		keys = append(keys, w.WindowKey(k))
	}
	return errx.Wrap(w.store.Delete(ctx, keys...))
}

// Snapshot reads every statistic of the window.
func (w *Window) Snapshot(ctx context.Context) (Snapshot, error) {
	var (
		s   Snapshot
		err error
	)

	counts := []struct {
		kind       Kind
		win, total *int64
	}{
		{KindRetry, &s.Retries, &s.RetriesTotal},
		{KindError, &s.Errors, &s.ErrorsTotal},
		{KindSuccess, &s.Successes, &s.SuccessesTotal},
	}
	for _, c := range counts {
		if *c.win, err = w.Count(ctx, c.kind); err != nil {
			return Snapshot{}, err
		}
		if *c.total, err = w.Total(ctx, c.kind); err != nil {
			return Snapshot{}, err
		}
	}

	if s.TotalRunDuration, err = w.TotalRunDuration(ctx); err != nil {
		return Snapshot{}, err
	}
	if s.Successes > 0 {
		s.AverageExecutionTime = s.TotalRunDuration / float64(s.Successes)
	}

	return s, nil
}
