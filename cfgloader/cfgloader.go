// Package cfgloader provides a simple way to load and validate configuration at the start of an application.
package cfgloader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CodeConfigurationError is the code of every error returned by Load.
const CodeConfigurationError = "CONFIGURATION_ERROR"

// Environment variables consulted by Load.
const (
	EnvVarConfigPath  = "CONFIG_PATH"
	EnvVarEnvironment = "ENVIRONMENT"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvLocal      = "local"
	EnvTest       = "test"
)

// MustLoad is Load that logs the error and exits the process on failure.
func MustLoad[T any](opts ...Option) T {
	config, err := Load[T](opts...)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	return config
}

// Load reads, expands, defaults and validates a configuration of type T.
//
// The file is chosen by WithPath, else the CONFIG_PATH env variable, else
// ./config/${ENVIRONMENT}.yaml when ENVIRONMENT is set. Without any of them the
// config is built from `default` struct tags alone. ${VAR} references in the
// file are replaced from the environment, which includes .env files.
//
// Validations are done using the go-playground/validator package.
// See https://pkg.go.dev/github.com/go-playground/validator/v10 for more information.
//
// Example:
//
//	type Config struct {
//	    Host     string `yaml:"host" validate:"required"`
//	    Port     int    `yaml:"port" default:"8080"`
//	    Password string `yaml:"password" mask:"true"`
//	}
func Load[T any](opts ...Option) (T, error) {
	var config T

	o := Options{EnvFiles: []string{".env"}}
	for _, opt := range opts {
		opt(&o)
	}

	if reflect.ValueOf(&config).Elem().Kind() == reflect.Ptr {
		return config, configError("config type must not be a pointer", nil)
	}

	loadEnvFiles(o.EnvFiles)

	path, err := resolvePath(o.Path)
	if err != nil {
		return config, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, configError("failed to read config file", err, "path", path)
		}

		data = []byte(os.ExpandEnv(string(data)))
		if err = yaml.Unmarshal(data, &config); err != nil {
			return config, configError("failed to unmarshal config file", err, "path", path)
		}
	}

	if err = defaults.Set(&config); err != nil {
		return config, configError("failed to set default values", err)
	}

	if err = validate(&config); err != nil {
		return config, err
	}

	if !o.Silent {
		printConfig(path, &config)
	}

	return config, nil
}

func loadEnvFiles(files []string) {
	existing := slices.DeleteFunc(slices.Clone(files), func(f string) bool {
		_, err := os.Stat(f)
		return err != nil
	})
	if len(existing) > 0 {
		_ = godotenv.Load(existing...)
	}
}

func resolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := os.Getenv(EnvVarConfigPath); p != "" {
		return p, nil
	}

	env := os.Getenv(EnvVarEnvironment)
	if env == "" {
		return "", nil
	}

	choices := []string{EnvProduction, EnvStaging, EnvDev, EnvLocal, EnvTest}
	if !slices.Contains(choices, env) {
		return "", configError("ENVIRONMENT env variable is invalid", nil,
			"environment", env, "choices", strings.Join(choices, ", "))
	}

	return fmt.Sprintf("./config/%s.yaml", env), nil
}

func validate(config any) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(config)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return configError("failed to validate config", err)
	}

	failedFields := make([]string, 0, len(errs))
	for _, fe := range errs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		failedFields = append(failedFields, fmt.Sprintf("%s: %s", fe.Namespace(), tag))
	}

	return configError("invalid config fields", nil, "fields", strings.Join(failedFields, ", "))
}

func configError(msg string, cause error, kv ...string) error {
	details := errx.D{}
	for i := 0; i+1 < len(kv); i += 2 {
		details[kv[i]] = kv[i+1]
	}
	if cause != nil {
		details["cause"] = cause.Error()
	}

	return errx.New("[cfgloader]: "+msg,
		errx.WithCode(CodeConfigurationError),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(details),
	)
}
