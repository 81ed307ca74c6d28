package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/observability/alert"
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/queue"
	"github.com/rise-and-shine/redq/worker"
)

type failingProvider struct {
	calls atomic.Int32
}

func (p *failingProvider) SendError(context.Context, string, string, string, map[string]string) error {
	p.calls.Add(1)
	return errors.New("notifier down")
}

func TestAlertSendFailureIsLogged(t *testing.T) {
	p := &failingProvider{}
	require.NoError(t, alert.SetGlobalProvider(p))

	core, logs := observer.New(zapcore.WarnLevel)
	q := newQueue(t, "foo", queue.DefaultConfig())

	w, err := worker.NewFunc(q, func(_ context.Context, item *envelope.Envelope, _ *worker.Handle) error {
		if item.Contents == "panic" {
			panic("kaboom")
		}
		return errors.New("boom")
	},
		worker.WithLogger(logger.FromZap(zap.New(core))),
		worker.WithFailureHandler(worker.LogAndContinue(logger.Nop())),
	)
	require.NoError(t, err)

	_, err = w.Process(t.Context(), pushAndPop(t, q, "fail"))
	require.NoError(t, err)
	_, err = w.Process(t.Context(), pushAndPop(t, q, "panic"))
	require.NoError(t, err)

	// The send happens inline, so both failures are visible right away.
	assert.Equal(t, int32(2), p.calls.Load())
	failures := logs.FilterMessage("[worker]: failed to send error alert").All()
	require.Len(t, failures, 2)
	assert.Equal(t, "notifier down", failures[0].ContextMap()["alert_send_error"])
}
