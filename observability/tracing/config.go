package tracing

import (
	"net"
	"strconv"
	"time"
)

// Config configures span export to an OTLP/gRPC collector.
type Config struct {
	// Disable installs a no-op tracer provider. Context propagation keeps working.
	Disable bool `yaml:"disable" default:"false"`

	SampleRate   float64 `yaml:"sample_rate"   default:"1" validate:"gte=0,lte=1"`
	ExporterHost string  `yaml:"exporter_host" validate:"required_unless=Disable true"`
	ExporterPort int     `yaml:"exporter_port" validate:"required_unless=Disable true"`

	ExportTimeout  time.Duration `yaml:"export_timeout"   default:"30s"`
	BatchTimeout   time.Duration `yaml:"batch_timeout"    default:"5s"`
	MaxQueueSize   int           `yaml:"max_queue_size"   default:"10000"`
	MaxExportBatch int           `yaml:"max_export_batch" default:"1024"`

	// Tags become resource attributes on every span.
	Tags map[string]string `yaml:"tags"`
}

func (c Config) endpoint() string {
	return net.JoinHostPort(c.ExporterHost, strconv.Itoa(c.ExporterPort))
}
