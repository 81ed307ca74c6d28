package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rise-and-shine/redq/queue"
)

func TestConfigUnmarshalYAML(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		wantRetries int
		wantWindow  time.Duration
	}{
		{name: "empty keeps defaults", doc: "{}", wantRetries: 5, wantWindow: time.Hour},
		{name: "explicit zero retries", doc: "max_retries: 0", wantRetries: 0, wantWindow: time.Hour},
		{name: "both set", doc: "max_retries: 2\nstat_timeout: 5", wantRetries: 2, wantWindow: 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg queue.Config
			require.NoError(t, yaml.Unmarshal([]byte(tt.doc), &cfg))

			assert.Equal(t, tt.wantRetries, cfg.MaxRetries)
			assert.Equal(t, tt.wantWindow, cfg.StatTimeout())
		})
	}
}
