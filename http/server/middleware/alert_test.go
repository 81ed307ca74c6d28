package middleware_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rise-and-shine/redq/http/server"
	"github.com/rise-and-shine/redq/http/server/middleware"
	"github.com/rise-and-shine/redq/observability/alert"
	"github.com/rise-and-shine/redq/observability/logger"
)

type failingProvider struct {
	calls atomic.Int32
}

func (p *failingProvider) SendError(context.Context, string, string, string, map[string]string) error {
	p.calls.Add(1)
	return errors.New("notifier down")
}

func TestAlerting_LogsSendFailure(t *testing.T) {
	p := &failingProvider{}
	require.NoError(t, alert.SetGlobalProvider(p))

	core, logs := observer.New(zapcore.WarnLevel)
	srv := server.NewHTTPServer(server.Config{}, []server.Middleware{
		middleware.NewAlertingMW(logger.FromZap(zap.New(core))),
		middleware.NewErrorHandlerMW(false),
	})
	srv.RegisterRouter(func(r fiber.Router) {
		r.Get("/boom", func(*fiber.Ctx) error {
			return errx.New("boom", errx.WithCode("BOOM"), errx.WithType(errx.T_Internal))
		})
		r.Get("/missing", func(*fiber.Ctx) error {
			return errx.New("nope", errx.WithCode("THING_NOT_FOUND"), errx.WithType(errx.T_NotFound))
		})
	})

	resp, err := srv.App().Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	assert.Equal(t, int32(1), p.calls.Load())
	failures := logs.FilterMessage("failed to send error alert").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "notifier down", failures[0].ContextMap()["alert_send_error"])

	resp, err = srv.App().Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), p.calls.Load())
}
