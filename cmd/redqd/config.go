package main

import (
	"time"

	"github.com/code19m/errx"
	"gopkg.in/yaml.v3"

	"github.com/rise-and-shine/redq/http/server"
	"github.com/rise-and-shine/redq/kafka"
	"github.com/rise-and-shine/redq/observability/alert"
	"github.com/rise-and-shine/redq/observability/logger"
	"github.com/rise-and-shine/redq/observability/tracing"
	"github.com/rise-and-shine/redq/queue"
	"github.com/rise-and-shine/redq/rediswr"
)

// Config is the configuration of the redqd daemon.
type Config struct {
	ServiceName    string `yaml:"service_name"    default:"redqd"`
	ServiceVersion string `yaml:"service_version" default:"dev"`

	Logger  logger.Config  `yaml:"logger"`
	Tracing tracing.Config `yaml:"tracing"`
	Alert   alert.Config   `yaml:"alert"`
	Redis   rediswr.Config `yaml:"redis"`
	Queue   queue.Config   `yaml:"queue"`
	Admin   server.Config  `yaml:"admin"`
	Kafka   kafka.Config   `yaml:"kafka"`

	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Queues are opened and registered at startup so their schedules are
	// promoted and their gauges exported before anything is pushed.
	Queues []string `yaml:"queues" validate:"dive,required"`

	// AdminTokenHash is the bcrypt hash of the admin API bearer token, as
	// printed by "redqd token". Empty leaves the API unauthenticated.
	AdminTokenHash string `yaml:"admin_token_hash" mask:"true"`

	// AlertOnDeadLetter sends an alert for every dead-lettered item.
	AlertOnDeadLetter bool `yaml:"alert_on_dead_letter"`
}

// SchedulerConfig configures promotion of deferred items.
type SchedulerConfig struct {
	Interval  time.Duration `yaml:"interval"   default:"1s"`
	BatchSize int64         `yaml:"batch_size" default:"100" validate:"min=1"`
}

// UnmarshalYAML seeds the queue policy with queue.DefaultConfig so a file
// without a queue section still gets the default retry limit.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type plain Config

	out := plain{Queue: queue.DefaultConfig()}
	if err := node.Decode(&out); err != nil {
		return errx.Wrap(err)
	}
	*c = Config(out)
	return nil
}
