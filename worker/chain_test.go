package worker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/meta"
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/queue"
	"github.com/rise-and-shine/redq/worker"
)

func setupTracing(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()

	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	return sr, tp
}

func TestTracingContinuesProducerTrace(t *testing.T) {
	sr, tp := setupTracing(t)
	q := newQueue(t, "foo", queue.DefaultConfig())

	producerCtx, producerSpan := tp.Tracer("test").Start(t.Context(), "produce")
	_, err := q.Push(producerCtx, "apple", nil)
	require.NoError(t, err)
	producerSpan.End()

	var injected map[meta.ContextKey]string
	w, err := worker.NewFunc(q, func(ctx context.Context, _ *envelope.Envelope, _ *worker.Handle) error {
		injected = meta.ExtractMetaFromContext(ctx)
		return nil
	}, worker.WithLogger(logger.Nop()), worker.WithServiceInfo("mailer", "1.2.3"))
	require.NoError(t, err)

	item, err := q.Pop(t.Context())
	require.NoError(t, err)
	_, err = w.Process(t.Context(), item)
	require.NoError(t, err)

	var processSpan sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.Name() == "PROCESS foo" {
			processSpan = s
		}
	}
	require.NotNil(t, processSpan)
	assert.Equal(t, trace.SpanKindConsumer, processSpan.SpanKind())
	assert.Equal(t, producerSpan.SpanContext().TraceID(), processSpan.SpanContext().TraceID())
	assert.Equal(t, codes.Unset, processSpan.Status().Code)

	assert.Equal(t, processSpan.SpanContext().TraceID().String(), injected[meta.TraceID])
	assert.Equal(t, "mailer", injected[meta.ServiceName])
	assert.Equal(t, "1.2.3", injected[meta.ServiceVersion])
	assert.Equal(t, "foo", injected[meta.QueueName])
	assert.Equal(t, "foo", injected[meta.OriginQueue])
	assert.Equal(t, "1", injected[meta.ItemID])
	assert.Equal(t, "0", injected[meta.Retries])
	assert.Equal(t, w.ID(), injected[meta.WorkerID])
}

func TestTracingMarksFailures(t *testing.T) {
	sr, _ := setupTracing(t)
	q := newQueue(t, "foo", queue.DefaultConfig())

	w, err := worker.NewFunc(q, func(ctx context.Context, item *envelope.Envelope, h *worker.Handle) error {
		if item.Contents == "retry" {
			return h.RetryItem(ctx, item)
		}
		return errors.New("boom")
	},
		worker.WithLogger(logger.Nop()),
		worker.WithFailureHandler(worker.LogAndContinue(logger.Nop())),
	)
	require.NoError(t, err)

	_, err = w.Process(t.Context(), pushAndPop(t, q, "retry"))
	require.NoError(t, err)
	_, err = w.Process(t.Context(), pushAndPop(t, q, "fail"))
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
