package middleware

import (
	"github.com/rise-and-shine/redq/http/server"
	"github.com/rise-and-shine/redq/observability/logger"
)

// Defaults returns the full middleware stack for a server configured by cfg.
func Defaults(cfg server.Config, log logger.Logger, serviceName, serviceVersion string) []server.Middleware {
	return []server.Middleware{
		NewRecoveryMW(log),
		NewTracingMW(),
		NewTimeoutMW(cfg.HandleTimeout),
		NewMetaInjectMW(serviceName, serviceVersion),
		NewAlertingMW(log),
		NewLoggerMW(log),
		NewErrorHandlerMW(cfg.HideErrorDetails),
	}
}
