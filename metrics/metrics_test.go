package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redqtest "github.com/rise-and-shine/redq/internal/testutil"
	"github.com/rise-and-shine/redq/metrics"
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/queue"
)

func TestObserveItem(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveItem("emails", "succeeded", 20*time.Millisecond)
	m.ObserveItem("emails", "succeeded", 30*time.Millisecond)
	m.ObserveItem("emails", "retried", time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "redq_items_processed_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(reg, "redq_item_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWorkerBusy(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.WorkerBusy("emails", true)
	m.WorkerBusy("emails", true)
	m.WorkerBusy("emails", false)

	count, err := testutil.GatherAndCount(reg, "redq_worker_busy")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRefresh(t *testing.T) {
	s, _ := redqtest.NewStore(t)
	ctx := t.Context()

	q, err := queue.New(ctx, s, "emails", queue.DefaultConfig(), queue.WithLogger(logger.Nop()))
	require.NoError(t, err)
	_, err = q.Push(ctx, "a", nil)
	require.NoError(t, err)
	_, err = q.Push(ctx, "b", nil)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	require.NoError(t, m.Refresh(ctx, []*queue.Queue{q}))

	count, err := testutil.GatherAndCount(reg, "redq_queue_length", "redq_error_queue_length")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveItem("q", "failed", time.Second)
		m.WorkerBusy("q", true)
		assert.NoError(t, m.Refresh(t.Context(), nil))
	})
}
