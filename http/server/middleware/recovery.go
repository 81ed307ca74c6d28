package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/redq/http/server"
	"github.com/rise-and-shine/redq/observability/logger"
)

// CodePanicRecovered is the code of errors built from recovered handler panics.
const CodePanicRecovered = "PANIC_RECOVERED"

// NewRecoveryMW turns a panic anywhere below it into a T_Internal error and
// writes the error response itself, since later middlewares never returned.
func NewRecoveryMW(base logger.Logger) server.Middleware {
	base = base.Named("http.recovery")

	return server.Middleware{
		Priority: 1000,
		Handler: func(c *fiber.Ctx) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				stack := string(debug.Stack())
				panicMsg := fmt.Sprint(r)

				base.WithContext(c.UserContext()).
					With("panic_message", panicMsg, "stack_trace", stack).
					Error("recovered from panic")

				err = errx.New("[middleware]: panic recovered",
					errx.WithCode(CodePanicRecovered),
					errx.WithType(errx.T_Internal),
					errx.WithDetails(errx.D{"panic_message": panicMsg, "stack_trace": stack}),
				)
				_ = server.WriteErrorResponse(c, err, true)
			}()

			return c.Next()
		},
	}
}
