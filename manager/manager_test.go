package manager_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/internal/testutil"
	"github.com/rise-and-shine/redq/manager"
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/queue"
	"github.com/rise-and-shine/redq/worker"
)

func newManager(t *testing.T, cfg queue.Config) *manager.Manager {
	t.Helper()

	s, _ := testutil.NewStore(t)
	return manager.New(s, cfg,
		manager.WithLogger(logger.Nop()),
		manager.WithQueueOptions(queue.WithReadTimeout(time.Second)),
		manager.WithWorkerOptions(worker.WithLogger(logger.Nop())),
	)
}

func TestQueue_CachedAndRegistered(t *testing.T) {
	m := newManager(t, queue.DefaultConfig())
	ctx := t.Context()

	q1, err := m.Queue(ctx, "b")
	require.NoError(t, err)
	q2, err := m.Queue(ctx, "b")
	require.NoError(t, err)
	assert.Same(t, q1, q2)

	_, err = m.Queue(ctx, "a")
	require.NoError(t, err)

	names, err := m.QueueNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	all, err := m.AllQueues(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name())
	assert.Same(t, q1, all[1])

	ok, err := m.HasQueue(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Queue(ctx, "")
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, queue.CodeInvalidQueueName))
}

func TestPush(t *testing.T) {
	m := newManager(t, queue.DefaultConfig())
	ctx := t.Context()

	n, err := m.Push(ctx, "mail", "hi", map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	q, err := m.Queue(ctx, "mail")
	require.NoError(t, err)

	item, err := q.Pop(ctx)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "hi", item.Contents)
	assert.Equal(t, "v", item.Get("k"))
	assert.Equal(t, "mail", item.OriginQueue())
}

func TestRetryAndErrorItem_ResolveOriginQueue(t *testing.T) {
	m := newManager(t, queue.Config{MaxRetries: 1})
	ctx := t.Context()

	_, err := m.Push(ctx, "mail", "hi", nil)
	require.NoError(t, err)
	q, err := m.Queue(ctx, "mail")
	require.NoError(t, err)

	item, err := q.Pop(ctx)
	require.NoError(t, err)
	require.NotNil(t, item)

	retried, err := m.RetryItem(ctx, item)
	require.NoError(t, err)
	assert.True(t, retried)

	item, err = q.Pop(ctx)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, 1, item.Retries())

	retried, err = m.RetryItem(ctx, item)
	require.NoError(t, err)
	assert.False(t, retried)

	errored, err := q.ErrorQueue().Length(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, errored)

	t.Run("missing origin queue", func(t *testing.T) {
		orphan := envelope.Wrap("x", nil)

		_, err := m.RetryItem(ctx, orphan)
		require.Error(t, err)
		assert.True(t, errx.IsCodeIn(err, manager.CodeMissingOriginQueue))

		err = m.ErrorItem(ctx, orphan)
		require.Error(t, err)
		assert.True(t, errx.IsCodeIn(err, manager.CodeMissingOriginQueue))
	})
}

func TestWatch(t *testing.T) {
	m := newManager(t, queue.DefaultConfig())
	ctx := t.Context()

	for _, c := range []string{"a", "b", "c"} {
		_, err := m.Push(ctx, "jobs", c, nil)
		require.NoError(t, err)
	}

	var seen []any
	err := m.Watch(ctx, "jobs", func(_ context.Context, item *envelope.Envelope, _ *worker.Handle) error {
		seen = append(seen, item.Contents)
		return nil
	}, worker.WithKeepWatching(func() bool { return len(seen) < 3 }))
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, seen)

	q, err := m.Queue(ctx, "jobs")
	require.NoError(t, err)
	successes, err := q.NumberSuccesses(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, successes)
}

func TestWatchWith_FailureStops(t *testing.T) {
	m := newManager(t, queue.DefaultConfig())
	ctx := t.Context()

	_, err := m.Push(ctx, "jobs", "boom", nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.WatchWith(ctx, "jobs", worker.ProcessFunc(func(context.Context, *envelope.Envelope, *worker.Handle) error {
		return boom
	}))
	require.Error(t, err)

	q, err := m.Queue(ctx, "jobs")
	require.NoError(t, err)
	successes, err := q.NumberSuccesses(ctx)
	require.NoError(t, err)
	assert.Zero(t, successes)
}

func TestWatch_NilFunc(t *testing.T) {
	m := newManager(t, queue.DefaultConfig())

	err := m.Watch(t.Context(), "jobs", nil)
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, worker.CodeInvalidWorker))
}

func TestDeleteQueue(t *testing.T) {
	m := newManager(t, queue.DefaultConfig())
	ctx := t.Context()

	_, err := m.Push(ctx, "mail", "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"mail"}, m.Cached())

	require.NoError(t, m.DeleteQueue(ctx, "mail"))
	assert.Empty(t, m.Cached())

	ok, err := m.HasQueue(ctx, "mail")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := m.Store().KeysMatching(ctx, "mail*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
