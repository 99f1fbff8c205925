package common

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// rwLogger implements the ILogger interface on top of a named zap logger.
// Level filtering happens here, the zap core itself logs everything.
type rwLogger struct {
	level  logger.LogLevel
	logger *zap.SugaredLogger
}

func (l *rwLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *rwLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.logger.Debugf(format, args...)
	}
}

func (l *rwLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.logger.Infof(format, args...)
	}
}

func (l *rwLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.logger.Warnf(format, args...)
	}
}

func (l *rwLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.logger.Errorf(format, args...)
	}
}

func (l *rwLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		l.logger.Panicf(format, args...)
	}
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

var (
	baseOnce   sync.Once
	baseLogger *zap.Logger
)

// base returns the shared zap logger all package loggers derive from.
func base() *zap.Logger {
	baseOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.DisableStacktrace = true

		l, err := cfg.Build()
		if err != nil {
			l = zap.NewNop()
		}
		baseLogger = l
	})
	return baseLogger
}

// CreateLogger implements the logger.Factory interface
func CreateLogger(pkgName string) logger.ILogger {
	return &rwLogger{
		level:  logger.INFO,
		logger: base().Named(pkgName).Sugar(),
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseLogLevel converts a string level to logger.LogLevel
func parseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// LoggerNames lists every package logger of the application.
var LoggerNames = []string{"db", "store", "api", "client"}

// InitLoggers installs the zap backed logger factory and applies the
// configured level to all package loggers.
func InitLoggers(config ServerConfig) error {
	level, err := parseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)
	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(level)
	}
	return nil
}

// SyncLoggers flushes buffered log entries.
func SyncLoggers() {
	_ = base().Sync()
}
