// Package logger builds zap loggers and adapts them to the encompass.Logger
// and retryablehttp.LeveledLogger interfaces.
package logger

import (
	"fmt"

	"github.com/fivetwenty-io/encompass-client/pkg/encompass"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvDevelopment selects the console encoder with colored levels.
const EnvDevelopment = "dev"

// New builds a zap logger. env "dev" gives a development config, anything
// else a JSON production config. An unparsable level keeps the default.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config

	if env == EnvDevelopment {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	// Level override
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	return logger, nil
}

// Adapter implements encompass.Logger on top of zap.
type Adapter struct {
	logger *zap.Logger
}

// NewAdapter wraps logger, reporting the caller of the Adapter method. A nil
// logger discards everything.
func NewAdapter(logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

var _ encompass.Logger = (*Adapter)(nil)

// Debug implements encompass.Logger.
func (a *Adapter) Debug(msg string, fields map[string]interface{}) {
	a.logger.Debug(msg, toZapFields(fields)...)
}

// Info implements encompass.Logger.
func (a *Adapter) Info(msg string, fields map[string]interface{}) {
	a.logger.Info(msg, toZapFields(fields)...)
}

// Warn implements encompass.Logger.
func (a *Adapter) Warn(msg string, fields map[string]interface{}) {
	a.logger.Warn(msg, toZapFields(fields)...)
}

// Error implements encompass.Logger.
func (a *Adapter) Error(msg string, fields map[string]interface{}) {
	a.logger.Error(msg, toZapFields(fields)...)
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		zapFields = append(zapFields, zap.Any(key, value))
	}

	return zapFields
}

// RetryableLogger implements retryablehttp.LeveledLogger with a sugared zap logger.
type RetryableLogger struct {
	sugar *zap.SugaredLogger
}

// NewRetryableLogger wraps logger for use as retryablehttp.Client.Logger.
func NewRetryableLogger(logger *zap.Logger) *RetryableLogger {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RetryableLogger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

var _ retryablehttp.LeveledLogger = (*RetryableLogger)(nil)

// Error implements retryablehttp.LeveledLogger.
func (l *RetryableLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Info implements retryablehttp.LeveledLogger.
func (l *RetryableLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Debug implements retryablehttp.LeveledLogger.
func (l *RetryableLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Warn implements retryablehttp.LeveledLogger.
func (l *RetryableLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}
