// Package server runs the fiber application behind the redq admin API.
package server

import (
	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"
)

// HTTPServer is a fiber application with prioritized middlewares and errx-aware
// error responses.
type HTTPServer struct {
	cfg Config
	app *fiber.App
}

// NewHTTPServer creates a server and mounts middlewares by descending priority.
func NewHTTPServer(cfg Config, middlewares []Middleware) *HTTPServer {
	app := fiber.New(fiber.Config{
		AppName:                  "redq",
		ReadTimeout:              cfg.ReadTimeout,
		WriteTimeout:             cfg.WriteTimeout,
		IdleTimeout:              cfg.IdleTimeout,
		BodyLimit:                cfg.BodyLimit,
		ErrorHandler:             customErrorHandler(cfg.HideErrorDetails),
		DisableStartupMessage:    true,
		Immutable:                true,
		EnableSplittingOnParsers: true,
	})

	use(app, middlewares)

	return &HTTPServer{cfg: cfg, app: app}
}

// RegisterRouter lets register mount routes on the server.
func (s *HTTPServer) RegisterRouter(register func(r fiber.Router)) {
	register(s.app)
}

// App returns the fiber application, mainly for App.Test in tests.
func (s *HTTPServer) App() *fiber.App { return s.app }

// Start listens on the configured address and blocks until the server stops.
func (s *HTTPServer) Start() error {
	return errx.Wrap(s.app.Listen(s.cfg.Address()))
}

// Stop shuts the server down, waiting up to ShutdownTimeout for requests in flight.
// A zero ShutdownTimeout waits indefinitely.
func (s *HTTPServer) Stop() error {
	if s.cfg.ShutdownTimeout <= 0 {
		return errx.Wrap(s.app.Shutdown())
	}
	return errx.Wrap(s.app.ShutdownWithTimeout(s.cfg.ShutdownTimeout))
}
