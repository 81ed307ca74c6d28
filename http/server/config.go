package server

import (
	"net"
	"strconv"
	"time"
)

// Config configures the admin HTTP server.
type Config struct {
	Host string `yaml:"host" validate:"required"       default:"0.0.0.0"`
	Port int    `yaml:"port" validate:"gte=0,lte=65535" default:"8080"`

	// HideErrorDetails drops trace and details from error responses.
	HideErrorDetails bool `yaml:"hide_error_details"`

	ReadTimeout  time.Duration `yaml:"read_timeout"  validate:"required" default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"required" default:"5s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"  validate:"required" default:"120s"`

	// HandleTimeout bounds the context of one request, store calls included.
	HandleTimeout time.Duration `yaml:"request_timeout" validate:"required" default:"10s"`

	// ShutdownTimeout bounds how long Stop waits for requests in flight.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`

	// BodyLimit is the largest accepted request body, in bytes.
	BodyLimit int `yaml:"body_limit" validate:"required" default:"4194304"`
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
