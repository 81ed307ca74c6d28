// Package logger provides the structured logger used by every redq component.
package logger

import (
	"os"

	"github.com/code19m/errx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	encJSON   = "json"
	encPretty = "pretty"
)

// Config defines configuration options for the logger.
type Config struct {
	// Level is the minimum level emitted: debug, info, warn or error.
	Level string `yaml:"level" validate:"oneof=debug info warn error" default:"info"`

	// Encoding is "json" for log pipelines or "pretty" for colored console output.
	Encoding string `yaml:"encoding" validate:"oneof=json pretty" default:"json"`

	// Disable makes New return a no-op logger.
	Disable bool `yaml:"disable" default:"false"`
}

func (c Config) level() (zap.AtomicLevel, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return lvl, errx.Wrap(err, errx.WithDetails(errx.D{"level": c.Level}))
	}
	return lvl, nil
}

func (c Config) encoder() zapcore.Encoder {
	enc := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		TimeKey:        "time",
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if c.Encoding == encPretty {
		return zapcore.NewConsoleEncoder(prettyEncoderConfig(enc))
	}
	return zapcore.NewJSONEncoder(enc)
}

func (c Config) build() (*zap.Logger, error) {
	lvl, err := c.level()
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(c.encoder(), zapcore.Lock(os.Stdout), lvl)
	return zap.New(core, zap.ErrorOutput(zapcore.Lock(os.Stderr))), nil
}
