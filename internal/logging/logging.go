package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var levelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// Logger is the printf-style logging surface passed through the run context.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Fatal(format string, args ...any)
}

type logger struct {
	sugar *zap.SugaredLogger
}

// Options control sink selection. Console output always goes to stderr so
// stdout stays clean for machine-readable summaries.
type Options struct {
	Level   string
	LogFile string
}

func New(opts Options) Logger {
	level, ok := levelMap[strings.ToLower(opts.Level)]
	if !ok {
		level = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)

	core := consoleCore
	if opts.LogFile != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
			LocalTime:  true,
		})
		core = zapcore.NewTee(
			consoleCore,
			zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, level),
		)
	}

	return &logger{sugar: zap.New(core).Sugar()}
}

func (l *logger) Debug(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *logger) Info(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *logger) Warn(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *logger) Error(format string, args ...any) { l.sugar.Errorf(format, args...) }
func (l *logger) Fatal(format string, args ...any) { l.sugar.Fatalf(format, args...) }

// Nop discards everything. Used by tests and --quiet runs.
func Nop() Logger {
	return &logger{sugar: zap.NewNop().Sugar()}
}
