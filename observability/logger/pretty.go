package logger

import (
	"github.com/fatih/color"
	"go.uber.org/zap/zapcore"
)

//nolint:gochecknoglobals // static palette
var levelColors = map[zapcore.Level]*color.Color{
	zapcore.DebugLevel:  color.New(color.FgMagenta),
	zapcore.InfoLevel:   color.New(color.FgGreen),
	zapcore.WarnLevel:   color.New(color.FgYellow),
	zapcore.ErrorLevel:  color.New(color.FgRed),
	zapcore.DPanicLevel: color.New(color.FgRed, color.Bold),
	zapcore.PanicLevel:  color.New(color.FgRed, color.Bold),
	zapcore.FatalLevel:  color.New(color.FgHiRed, color.Bold),
}

func colorLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if c, ok := levelColors[l]; ok {
		enc.AppendString(c.Sprint(l.CapitalString()))
		return
	}
	enc.AppendString(l.CapitalString())
}

func prettyEncoderConfig(base zapcore.EncoderConfig) zapcore.EncoderConfig {
	base.EncodeLevel = colorLevelEncoder
	base.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	base.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(color.CyanString(name))
	}
	return base
}
