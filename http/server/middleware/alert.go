package middleware

import (
	"fmt"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/redq/http/server"
	"github.com/rise-and-shine/redq/meta"
	"github.com/rise-and-shine/redq/observability/alert"
	"github.com/rise-and-shine/redq/observability/logger"
)

// NewAlertingMW creates a middleware that sends alerts for internal server errors.
// Only errors of type errx.T_Internal are reported.
func NewAlertingMW(base logger.Logger) server.Middleware {
	base = base.Named("http.alerting")

	return server.Middleware{
		Priority: 600,
		Handler: func(c *fiber.Ctx) error {
			err := c.Next()
			if err == nil {
				return nil
			}

			e := errx.AsErrorX(err)
			if e.Type() != errx.T_Internal {
				return err
			}

			ctx := c.UserContext()
			details := map[string]string{"error_trace": e.Trace()}
			for k, v := range meta.ExtractMetaFromContext(ctx) {
				details[string(k)] = v
			}

			operation := fmt.Sprintf("%s %s", c.Method(), c.Route().Path)

			// Delivery itself happens in the background.
			if sendErr := alert.SendError(ctx, e.Code(), e.Error(), operation, details); sendErr != nil {
				base.WithContext(ctx).
					With("alert_send_error", sendErr.Error()).
					Warn("failed to send error alert")
			}

			return err
		},
	}
}
