package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/redq/http/server"
)

const tracerName = "redq/http"

// NewTracingMW starts a server span per request. A traceparent sent by the caller
// is continued, so items pushed through the API join the caller's trace.
func NewTracingMW() server.Middleware {
	return server.Middleware{
		Priority: 900,
		Handler: func(c *fiber.Ctx) error {
			ctx := otel.GetTextMapPropagator().Extract(c.UserContext(),
				propagation.HeaderCarrier(http.Header(c.GetReqHeaders())))

			ctx, span := otel.Tracer(tracerName).Start(ctx, c.Method(),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPMethod(c.Method()),
					semconv.HTTPTarget(c.OriginalURL()),
				),
			)
			defer span.End()
			c.SetUserContext(ctx)

			err := c.Next()

			if route := c.Route().Path; route != "" {
				span.SetName(c.Method() + " " + route)
				span.SetAttributes(semconv.HTTPRoute(route))
			}

			status := c.Response().StatusCode()
			if err != nil && status < fiber.StatusBadRequest {
				status = server.StatusCode(err)
			}
			span.SetAttributes(semconv.HTTPStatusCode(status))

			if err != nil {
				span.RecordError(err)
			}
			if status >= fiber.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			return err
		},
	}
}
