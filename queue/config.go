package queue

import (
	"time"

	"github.com/code19m/errx"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxRetries         = 5
	defaultStatTimeoutMinutes = 60
	defaultPausePollInterval  = time.Second
)

// Config holds the policy values shared by every queue of a process.
type Config struct {
	// MaxRetries is how many times RetryItem re-enqueues an item before it is
	// moved to the error queue. Zero disables retrying. Decoding YAML starts
	// from DefaultConfig, so an omitted key means 5.
	MaxRetries int `yaml:"max_retries" validate:"min=0"`

	// StatTimeoutMinutes is how long a recorded statistic stays in the window.
	// Zero means the default of 60 minutes.
	StatTimeoutMinutes int `yaml:"stat_timeout" default:"60" validate:"min=0"`
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() Config {
	return Config{
		MaxRetries:         defaultMaxRetries,
		StatTimeoutMinutes: defaultStatTimeoutMinutes,
	}
}

// UnmarshalYAML decodes node on top of DefaultConfig. Keys present in node,
// zero values included, win over the defaults.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type plain Config

	out := plain(DefaultConfig())
	if err := node.Decode(&out); err != nil {
		return errx.Wrap(err)
	}
	*c = Config(out)
	return nil
}

// StatTimeout returns the statistics window as a duration.
func (c Config) StatTimeout() time.Duration {
	return time.Duration(c.StatTimeoutMinutes) * time.Minute
}

func (c *Config) setDefaults() {
	if c.StatTimeoutMinutes == 0 {
		c.StatTimeoutMinutes = defaultStatTimeoutMinutes
	}
}

func (c *Config) validate() error {
	if c.MaxRetries < 0 {
		return errx.New("[queue]: MaxRetries must not be negative",
			errx.WithCode(CodeInvalidQueueConfig),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"max_retries": c.MaxRetries}),
		)
	}
	if c.StatTimeoutMinutes < 0 {
		return errx.New("[queue]: StatTimeoutMinutes must not be negative",
			errx.WithCode(CodeInvalidQueueConfig),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"stat_timeout": c.StatTimeoutMinutes}),
		)
	}
	return nil
}
