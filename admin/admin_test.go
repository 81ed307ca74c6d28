package admin_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/redq/admin"
	"github.com/rise-and-shine/redq/envelope"
	"github.com/rise-and-shine/redq/hasher"
	"github.com/rise-and-shine/redq/http/server"
	"github.com/rise-and-shine/redq/http/server/middleware"
	"github.com/rise-and-shine/redq/internal/testutil"
	"github.com/rise-and-shine/redq/manager"
	"github.com/rise-and-shine/redq/metrics"
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/pagination"
	"github.com/rise-and-shine/redq/queue"
	"github.com/rise-and-shine/redq/token"
	"github.com/rise-and-shine/redq/val"
)

type fixture struct {
	app *fiber.App
	mgr *manager.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, _ := testutil.NewStore(t)
	mgr := manager.New(s, queue.Config{MaxRetries: 3},
		manager.WithLogger(logger.Nop()),
		manager.WithQueueOptions(queue.WithReadTimeout(time.Second)),
	)

	reg := prometheus.NewRegistry()
	h := admin.New(mgr,
		admin.WithLogger(logger.Nop()),
		admin.WithMetrics(metrics.New(reg), reg),
		admin.WithLimits(2, 10),
	)

	cfg := serverConfig()
	srv := server.NewHTTPServer(cfg, middleware.Defaults(cfg, logger.Nop(), "redq", "test"))
	srv.RegisterRouter(h.Register)

	return &fixture{app: srv.App(), mgr: mgr}
}

func serverConfig() server.Config {
	return server.Config{
		Host:          "127.0.0.1",
		Port:          0,
		ReadTimeout:   time.Second,
		WriteTimeout:  time.Second,
		IdleTimeout:   time.Second,
		HandleTimeout: 5 * time.Second,
		BodyLimit:     1 << 20,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := f.app.Test(req, 5000)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type errorBody struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func TestPushAndInspect(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, fiber.MethodPost, "/api/v1/queues/mail/items", `{"contents":{"to":"a@b.c"},"metadata":{"tenant":"acme"}}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 1, decode[admin.PushResponse](t, resp).Length)

	resp = f.do(t, fiber.MethodPost, "/api/v1/queues/mail/items", `{"contents":"second"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = f.do(t, fiber.MethodGet, "/api/v1/queues", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := decode[pagination.Response[admin.QueueView]](t, resp)
	assert.EqualValues(t, 1, page.TotalCount)
	list := page.PageContent
	require.Len(t, list, 1)
	assert.Equal(t, "mail", list[0].Name)
	assert.EqualValues(t, 2, list[0].Length)
	assert.Equal(t, 3, list[0].MaxRetries)
	assert.False(t, list[0].Paused)

	resp = f.do(t, fiber.MethodGet, "/api/v1/queues/mail/items?limit=1", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	items := decode[[]admin.ItemView](t, resp)
	require.Len(t, items, 1)

	item, err := envelope.Parse(string(items[0].Item))
	require.NoError(t, err)
	assert.Equal(t, "acme", item.Get("tenant"))
	assert.Equal(t, "mail", item.OriginQueue())
}

func TestPush_Validation(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, fiber.MethodPost, "/api/v1/queues/mail/items", `{"contents":""}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, envelope.CodeMissingContent, decode[errorBody](t, resp).Error.Code)

	resp = f.do(t, fiber.MethodPost, "/api/v1/queues/mail/items", `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, admin.CodeInvalidBody, decode[errorBody](t, resp).Error.Code)
}

func TestQueueNotFound(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct{ method, path string }{
		{fiber.MethodGet, "/api/v1/queues/ghost"},
		{fiber.MethodGet, "/api/v1/queues/ghost/errors"},
		{fiber.MethodPost, "/api/v1/queues/ghost/pause"},
		{fiber.MethodPost, "/api/v1/queues/ghost/stats/reset"},
		{fiber.MethodDelete, "/api/v1/queues/ghost"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp := f.do(t, tc.method, tc.path, "")
			assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
			assert.Equal(t, admin.CodeQueueNotFound, decode[errorBody](t, resp).Error.Code)
		})
	}

	ok, err := f.mgr.HasQueue(t.Context(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPauseUnpause(t *testing.T) {
	f := newFixture(t)

	_, err := f.mgr.Push(t.Context(), "mail", "x", nil)
	require.NoError(t, err)

	resp := f.do(t, fiber.MethodPost, "/api/v1/queues/mail/pause", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = f.do(t, fiber.MethodGet, "/api/v1/queues/mail", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, decode[admin.QueueView](t, resp).Paused)

	resp = f.do(t, fiber.MethodPost, "/api/v1/queues/mail/unpause", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = f.do(t, fiber.MethodGet, "/api/v1/queues/mail", "")
	assert.False(t, decode[admin.QueueView](t, resp).Paused)
}

func TestErrorsAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	q, err := f.mgr.Queue(ctx, "mail")
	require.NoError(t, err)

	for _, c := range []string{"a", "b", "c"} {
		_, err = q.Push(ctx, c, nil)
		require.NoError(t, err)
		item, err := q.Pop(ctx)
		require.NoError(t, err)
		require.NoError(t, q.ErrorItem(ctx, item))
	}
	require.NoError(t, q.Store().ListPush(ctx, q.ErrorQueue().Name(), "{broken"))

	resp := f.do(t, fiber.MethodGet, "/api/v1/queues/mail/errors", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]admin.ItemView](t, resp), 2)

	resp = f.do(t, fiber.MethodGet, "/api/v1/queues/mail/errors?limit=10", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	errs := decode[[]admin.ItemView](t, resp)
	require.Len(t, errs, 4)
	assert.Equal(t, "{broken", errs[3].Raw)
	assert.Empty(t, errs[3].Item)

	for _, limit := range []string{"0", "-1", "11", "abc"} {
		resp = f.do(t, fiber.MethodGet, "/api/v1/queues/mail/errors?limit="+limit, "")
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, limit)
		assert.Equal(t, admin.CodeInvalidLimit, decode[errorBody](t, resp).Error.Code)
	}

	resp = f.do(t, fiber.MethodGet, "/api/v1/queues/mail", "")
	view := decode[admin.QueueView](t, resp)
	assert.EqualValues(t, 4, view.ErrorLength)
	assert.EqualValues(t, 3, view.Stats.Errors)

	resp = f.do(t, fiber.MethodPost, "/api/v1/queues/mail/stats/reset", "")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = f.do(t, fiber.MethodGet, "/api/v1/queues/mail", "")
	view = decode[admin.QueueView](t, resp)
	assert.Zero(t, view.Stats.Errors)
	assert.EqualValues(t, 3, view.Stats.ErrorsTotal)
}

func TestDeleteQueue(t *testing.T) {
	f := newFixture(t)

	_, err := f.mgr.Push(t.Context(), "mail", "x", nil)
	require.NoError(t, err)

	resp := f.do(t, fiber.MethodDelete, "/api/v1/queues/mail", "")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = f.do(t, fiber.MethodGet, "/api/v1/queues/mail", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)

	_, err := f.mgr.Push(t.Context(), "mail", "x", nil)
	require.NoError(t, err)

	resp := f.do(t, fiber.MethodGet, "/metrics", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `redq_queue_length{queue="mail"} 1`)
}

func TestListQueues_SortAndPage(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	for name, n := range map[string]int{"a": 1, "b": 3, "c": 2} {
		for range n {
			_, err := f.mgr.Push(ctx, name, "x", nil)
			require.NoError(t, err)
		}
	}

	resp := f.do(t, fiber.MethodGet, "/api/v1/queues?sort=length:desc&page_size=2", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := decode[pagination.Response[admin.QueueView]](t, resp)
	assert.EqualValues(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.PageCount)
	require.Len(t, page.PageContent, 2)
	assert.Equal(t, "b", page.PageContent[0].Name)
	assert.Equal(t, "c", page.PageContent[1].Name)

	resp = f.do(t, fiber.MethodGet, "/api/v1/queues?sort=length:desc&page_size=2&page_number=2", "")
	page = decode[pagination.Response[admin.QueueView]](t, resp)
	require.Len(t, page.PageContent, 1)
	assert.Equal(t, "a", page.PageContent[0].Name)

	resp = f.do(t, fiber.MethodGet, "/api/v1/queues?page_size=abc", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, admin.CodeInvalidQuery, decode[errorBody](t, resp).Error.Code)

	resp = f.do(t, fiber.MethodGet, "/api/v1/queues?page_number=-1", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, val.CodeValidationFailed, decode[errorBody](t, resp).Error.Code)
}

func TestTokenAuth(t *testing.T) {
	s, _ := testutil.NewStore(t)
	mgr := manager.New(s, queue.Config{MaxRetries: 3}, manager.WithLogger(logger.Nop()))

	tok, err := token.NewOpaqueToken()
	require.NoError(t, err)
	hash, err := hasher.Hash(tok)
	require.NoError(t, err)

	cfg := serverConfig()
	srv := server.NewHTTPServer(cfg, middleware.Defaults(cfg, logger.Nop(), "redq", "test"))
	srv.RegisterRouter(admin.New(mgr, admin.WithLogger(logger.Nop()), admin.WithTokenHash(hash)).Register)
	f := &fixture{app: srv.App(), mgr: mgr}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + tok, fiber.StatusUnauthorized},
		{"wrong token", "Bearer nope", fiber.StatusUnauthorized},
		{"valid", "Bearer " + tok, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/api/v1/queues", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := f.app.Test(req, 5000)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
