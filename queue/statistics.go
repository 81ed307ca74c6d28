package queue

import (
	"context"
	"time"

	"github.com/rise-and-shine/redq/stats"
)

// IncrementRetryStat records a retry and returns the windowed retry count.
func (q *Queue) IncrementRetryStat(ctx context.Context) (int64, error) {
	return q.stats.Increment(ctx, stats.KindRetry)
}

// IncrementErrorStat records a fatal error and returns the windowed error count.
func (q *Queue) IncrementErrorStat(ctx context.Context) (int64, error) {
	return q.stats.Increment(ctx, stats.KindError)
}

// IncrementSuccessStat records a success and returns the windowed success count.
func (q *Queue) IncrementSuccessStat(ctx context.Context) (int64, error) {
	return q.stats.Increment(ctx, stats.KindSuccess)
}

// IncrementRunTimeBy adds d to the windowed run time and returns the total in seconds.
func (q *Queue) IncrementRunTimeBy(ctx context.Context, d time.Duration) (float64, error) {
	return q.stats.AddRunTime(ctx, d)
}

// ResetStatistics clears the statistics window.
func (q *Queue) ResetStatistics(ctx context.Context) error {
	return q.stats.Reset(ctx)
}

// NumberRetries returns the retries recorded in the current window.
func (q *Queue) NumberRetries(ctx context.Context) (int64, error) {
	return q.stats.Count(ctx, stats.KindRetry)
}

// NumberErrors returns the fatal errors recorded in the current window.
func (q *Queue) NumberErrors(ctx context.Context) (int64, error) {
	return q.stats.Count(ctx, stats.KindError)
}

// NumberSuccesses returns the successes recorded in the current window.
func (q *Queue) NumberSuccesses(ctx context.Context) (int64, error) {
	return q.stats.Count(ctx, stats.KindSuccess)
}

// TotalRunDuration returns the run time of successes in the current window, in seconds.
func (q *Queue) TotalRunDuration(ctx context.Context) (float64, error) {
	return q.stats.TotalRunDuration(ctx)
}

// AverageExecutionTime returns the mean run time of successes in the current
// window, in seconds. It is 0 when nothing succeeded.
func (q *Queue) AverageExecutionTime(ctx context.Context) (float64, error) {
	return q.stats.AverageExecutionTime(ctx)
}

// Stats returns a snapshot of every statistic.
func (q *Queue) Stats(ctx context.Context) (stats.Snapshot, error) {
	return q.stats.Snapshot(ctx)
}
