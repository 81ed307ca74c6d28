package rediswr

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// Config configures the Redis connection used as queue storage.
type Config struct {
	// Addrs is a comma separated host:port list.
	Addrs    string `yaml:"addrs"    validate:"required"`
	Username string `yaml:"username"`
	Password string `yaml:"password" mask:"true"`

	// DB is ignored in cluster mode.
	DB            int  `yaml:"db"              validate:"min=0"`
	IsClusterMode bool `yaml:"is_cluster_mode"`
	PoolSize      int  `yaml:"pool_size"       validate:"min=0"`

	// Namespace prefixes every key the store writes.
	Namespace string `yaml:"namespace" default:"redq"`

	DialRetries    uint          `yaml:"dial_retries"     default:"5" validate:"min=1"`
	DialRetryDelay time.Duration `yaml:"dial_retry_delay" default:"200ms"`
}

func (c Config) addrList() []string {
	return lo.Compact(lo.Map(strings.Split(c.Addrs, ","), func(a string, _ int) string {
		return strings.TrimSpace(a)
	}))
}
