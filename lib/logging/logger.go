// Package logging provides the log output of dSer.
//
// The library packages obtain their loggers from dragonboat's logger
// registry (logger.GetLogger). InitLoggers installs the dSer format and sets
// the level of every package logger:
//
//	2025/01/02 15:04:05 INFO  | cmd             | wrote 3 payloads
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
)

// Packages lists the logger names used by dSer
var Packages = []string{"serial", "dataio", "backend", "compress", "cmd"}

// --------------------------------------------------------------------------
// Logger (implements dragonboat's logger.ILogger)
// --------------------------------------------------------------------------

type dSerLogger struct {
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

func (l *dSerLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *dSerLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *dSerLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log("INFO", format, args...)
	}
}

func (l *dSerLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *dSerLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *dSerLogger) Panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func (l *dSerLogger) log(levelStr string, format string, args ...interface{}) {
	l.logger.Printf("%-5s | %-15s | %s", levelStr, l.name, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Factory
// --------------------------------------------------------------------------

// NewFactory returns a logger factory writing to w
func NewFactory(w io.Writer) logger.Factory {
	return func(pkgName string) logger.ILogger {
		return &dSerLogger{
			name:   pkgName,
			level:  logger.INFO,
			logger: log.New(w, "", log.Ldate|log.Ltime),
		}
	}
}

// CreateLogger creates a logger writing to stderr, so that payloads written
// to stdout stay clean
func CreateLogger(pkgName string) logger.ILogger {
	return NewFactory(os.Stderr)(pkgName)
}

// ParseLogLevel converts debug, info, warn or error to a log level
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, errors.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// InitLoggers installs the dSer logger factory and sets the level of all
// package loggers
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)
	for _, name := range Packages {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
