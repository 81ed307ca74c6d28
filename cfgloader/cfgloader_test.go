package cfgloader_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/redq/cfgloader"
)

type redisConfig struct {
	Addr     string `yaml:"addr"     validate:"required"`
	Password string `yaml:"password"                     mask:"true"`
}

type appConfig struct {
	Name    string        `yaml:"name"    default:"redq"`
	Workers int           `yaml:"workers" default:"2"  validate:"min=1"`
	Poll    time.Duration `yaml:"poll"    default:"1s"`
	Redis   redisConfig   `yaml:"redis"`
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()

	t.Setenv(cfgloader.EnvVarConfigPath, "")
	t.Setenv(cfgloader.EnvVarEnvironment, "")
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDQ_TEST_PASSWORD", "s3cret")

	path := writeFile(t, `
workers: 4
redis:
  addr: localhost:6379
  password: ${REDQ_TEST_PASSWORD}
`)

	cfg, err := cfgloader.Load[appConfig](cfgloader.WithPath(path), cfgloader.WithSilent())
	require.NoError(t, err)

	assert.Equal(t, "redq", cfg.Name)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, time.Second, cfg.Poll)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "s3cret", cfg.Redis.Password)
}

func TestLoad_PathFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(cfgloader.EnvVarConfigPath, writeFile(t, "redis:\n  addr: cache:6379\n"))

	cfg, err := cfgloader.Load[appConfig](cfgloader.WithSilent())
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
}

func TestLoad_EnvFiles(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("REDQ_TEST_ADDR=from-dotenv:6379\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("REDQ_TEST_ADDR") })

	path := writeFile(t, "redis:\n  addr: ${REDQ_TEST_ADDR}\n")

	cfg, err := cfgloader.Load[appConfig](
		cfgloader.WithPath(path),
		cfgloader.WithEnvFiles(envFile, filepath.Join(t.TempDir(), "missing.env")),
		cfgloader.WithSilent(),
	)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv:6379", cfg.Redis.Addr)
}

func TestLoad_DefaultsOnly(t *testing.T) {
	clearEnv(t)

	type defaultsOnly struct {
		Level string `yaml:"level" default:"info"`
	}

	cfg, err := cfgloader.Load[defaultsOnly](cfgloader.WithSilent())
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Level)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T) error
	}{
		{
			name: "missing file",
			run: func(t *testing.T) error {
				_, err := cfgloader.Load[appConfig](cfgloader.WithPath(filepath.Join(t.TempDir(), "nope.yaml")))
				return err
			},
		},
		{
			name: "invalid yaml",
			run: func(t *testing.T) error {
				_, err := cfgloader.Load[appConfig](cfgloader.WithPath(writeFile(t, "workers: [")))
				return err
			},
		},
		{
			name: "validation",
			run: func(t *testing.T) error {
				_, err := cfgloader.Load[appConfig](cfgloader.WithPath(writeFile(t, "redis:\n  password: x\n")))
				return err
			},
		},
		{
			name: "pointer type",
			run: func(*testing.T) error {
				_, err := cfgloader.Load[*appConfig]()
				return err
			},
		},
		{
			name: "invalid environment",
			run: func(t *testing.T) error {
				t.Setenv(cfgloader.EnvVarEnvironment, "moon")
				_, err := cfgloader.Load[appConfig]()
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			err := tt.run(t)
			require.Error(t, err)
			assert.True(t, errx.IsCodeIn(err, cfgloader.CodeConfigurationError))
		})
	}
}
