package logger

import (
	"context"
	"errors"

	"github.com/code19m/errx"
	"go.uber.org/zap"

	"github.com/rise-and-shine/redq/meta"
)

// Logger is the leveled, structured logger passed to redq components.
// The *x methods expand errx.ErrorX attributes into fields.
type Logger interface {
	Debug(msg any)
	Info(msg any)
	Warn(msg any)
	Error(msg any)
	Fatal(msg any)

	Warnx(err error)
	Errorx(err error)
	Fatalx(err error)

	// With returns a child logger carrying the given key-value pairs.
	With(keysAndValues ...any) Logger
	// WithContext returns a child logger carrying the request metadata in ctx.
	WithContext(ctx context.Context) Logger
	// Named appends name to the logger's scope.
	Named(name string) Logger

	Sync() error
}

type sugared struct {
	s *zap.SugaredLogger
}

// New builds a Logger from cfg.
func New(cfg Config) (Logger, error) {
	if cfg.Disable {
		return Nop(), nil
	}

	z, err := cfg.build()
	if err != nil {
		return nil, err
	}
	return sugared{z.Sugar()}, nil
}

// FromZap wraps an already built zap logger.
func FromZap(z *zap.Logger) Logger {
	return sugared{z.Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return sugared{zap.NewNop().Sugar()}
}

func (l sugared) Debug(msg any) { l.s.Debug(msg) }
func (l sugared) Info(msg any)  { l.s.Info(msg) }
func (l sugared) Warn(msg any)  { l.s.Warn(msg) }
func (l sugared) Error(msg any) { l.s.Error(msg) }
func (l sugared) Fatal(msg any) { l.s.Fatal(msg) }

func (l sugared) Warnx(err error)  { l.withErr(err).s.Warn(err.Error()) }
func (l sugared) Errorx(err error) { l.withErr(err).s.Error(err.Error()) }
func (l sugared) Fatalx(err error) { l.withErr(err).s.Fatal(err.Error()) }

func (l sugared) With(keysAndValues ...any) Logger {
	return sugared{l.s.With(keysAndValues...)}
}

func (l sugared) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}

	md := meta.ExtractMetaFromContext(ctx)
	if len(md) == 0 {
		return l
	}

	kv := make([]any, 0, len(md)*2)
	for k, v := range md {
		kv = append(kv, string(k), v)
	}
	return sugared{l.s.With(kv...)}
}

func (l sugared) Named(name string) Logger {
	return sugared{l.s.Named(name)}
}

func (l sugared) Sync() error {
	return l.s.Sync()
}

func (l sugared) withErr(err error) sugared {
	var e errx.ErrorX
	if !errors.As(err, &e) {
		return l
	}
	return sugared{l.s.With(
		"error_code", e.Code(),
		"error_type", e.Type().String(),
		"error_trace", e.Trace(),
		"error_fields", e.Fields(),
		"error_details", e.Details(),
	)}
}
