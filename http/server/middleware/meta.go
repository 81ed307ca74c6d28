package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/redq/http/server"
	"github.com/rise-and-shine/redq/meta"
	"github.com/rise-and-shine/redq/observability/tracing"
)

// HeaderTraceID is the response header carrying the request trace id.
const HeaderTraceID = "X-Trace-ID"

// NewMetaInjectMW creates a middleware that injects request metadata into the
// request context and echoes the trace id in the response.
func NewMetaInjectMW(serviceName, serviceVersion string) server.Middleware {
	return server.Middleware{
		Priority: 700,
		Handler: func(c *fiber.Ctx) error {
			traceID := tracing.GetStartingTraceID(c.UserContext())

			ctx := meta.InjectMetaToContext(c.UserContext(), map[meta.ContextKey]string{
				meta.TraceID:        traceID,
				meta.IPAddress:      c.IP(),
				meta.UserAgent:      c.Get(fiber.HeaderUserAgent),
				meta.ServiceName:    serviceName,
				meta.ServiceVersion: serviceVersion,
			})
			c.SetUserContext(ctx)
			c.Set(HeaderTraceID, traceID)

			return c.Next()
		},
	}
}
