package server

import (
	"cmp"
	"slices"

	"github.com/gofiber/fiber/v2"
)

// Middleware is a fiber handler with a position in the chain. Larger Priority
// values run earlier.
type Middleware struct {
	Priority int
	Handler  fiber.Handler
}

// use mounts middlewares on app, highest priority first. Equal priorities keep
// their order and nil handlers are skipped.
func use(app *fiber.App, middlewares []Middleware) {
	ordered := slices.Clone(middlewares)
	slices.SortStableFunc(ordered, func(a, b Middleware) int {
		return cmp.Compare(b.Priority, a.Priority)
	})

	for _, mw := range ordered {
		if mw.Handler != nil {
			app.Use(mw.Handler)
		}
	}
}
