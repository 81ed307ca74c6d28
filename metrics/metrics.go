// Package metrics exposes Prometheus collectors for queues and workers.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rise-and-shine/redq/queue"
)

const namespace = "redq"

// Metrics holds the collectors of one registry.
type Metrics struct {
	processed        *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	busy             *prometheus.GaugeVec
	queueLength      *prometheus.GaugeVec
	errorQueueLength *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		processed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_processed_total",
			Help:      "Total number of processed items by queue and outcome.",
		}, []string{"queue", "outcome"}),

		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_duration_seconds",
			Help:      "Time spent processing one item.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"queue"}),

		busy: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_busy",
			Help:      "Number of workers currently processing an item.",
		}, []string{"queue"}),

		queueLength: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Number of pending items.",
		}, []string{"queue"}),

		errorQueueLength: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "error_queue_length",
			Help:      "Number of items in the error queue.",
		}, []string{"queue"}),
	}
}

// ObserveItem records one processed item.
func (m *Metrics) ObserveItem(queueName, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(queueName, outcome).Inc()
	m.duration.WithLabelValues(queueName).Observe(d.Seconds())
}

// WorkerBusy marks a worker of queueName as busy or idle.
func (m *Metrics) WorkerBusy(queueName string, busy bool) {
	if m == nil {
		return
	}
	if busy {
		m.busy.WithLabelValues(queueName).Inc()
	} else {
		m.busy.WithLabelValues(queueName).Dec()
	}
}

// Refresh updates the length gauges of the given queues.
func (m *Metrics) Refresh(ctx context.Context, queues []*queue.Queue) error {
	if m == nil {
		return nil
	}

	for _, q := range queues {
		n, err := q.Length(ctx)
		if err != nil {
			return errx.Wrap(err)
		}
		m.queueLength.WithLabelValues(q.Name()).Set(float64(n))

		n, err = q.ErrorQueue().Length(ctx)
		if err != nil {
			return errx.Wrap(err)
		}
		m.errorQueueLength.WithLabelValues(q.Name()).Set(float64(n))
	}

	return nil
}
