package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/redq/http/server"
)

// NewTimeoutMW bounds the request context by d, so store calls of a slow handler
// are abandoned. A non-positive d disables the bound.
func NewTimeoutMW(d time.Duration) server.Middleware {
	return server.Middleware{
		Priority: 800,
		Handler: func(c *fiber.Ctx) error {
			if d <= 0 {
				return c.Next()
			}

			ctx, cancel := context.WithTimeout(c.UserContext(), d)
			defer cancel()
			c.SetUserContext(ctx)

			return c.Next()
		},
	}
}
