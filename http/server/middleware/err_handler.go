package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/redq/http/server"
)

// NewErrorHandlerMW writes handler errors as JSON responses and passes them on,
// so the outer middlewares still see them.
func NewErrorHandlerMW(hideDetails bool) server.Middleware {
	return server.Middleware{
		Priority: 400,
		Handler: func(c *fiber.Ctx) error {
			err := c.Next()
			if err == nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
				return err
			}
			return server.WriteErrorResponse(c, err, hideDetails)
		},
	}
}
