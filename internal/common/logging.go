// Package common provides shared utilities for the workbench.
package common

import (
	"os"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"
)

const (
	defaultLogLevel      = "info"
	defaultLogFile       = "logs/mcp-workbench.log"
	defaultLogMaxBytes   = 500 * 1024
	defaultLogMaxBackups = 20
	logTimeFormat        = "2006-01-02T15:04:05Z07:00"
)

// LoggingConfig selects the log level and writers. Outputs may name
// "console" (stderr) and "file"; unknown names are ignored.
type LoggingConfig struct {
	Level      string
	Outputs    []string
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
}

func (c LoggingConfig) level() string {
	if c.Level == "" {
		return defaultLogLevel
	}
	return c.Level
}

func (c LoggingConfig) outputs() []string {
	if len(c.Outputs) == 0 {
		return []string{"console"}
	}
	return c.Outputs
}

func (c LoggingConfig) fileWriter() models.WriterConfiguration {
	wc := models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   c.FilePath,
		MaxSize:    int64(c.MaxSizeMB) * 1024 * 1024,
		MaxBackups: c.MaxBackups,
		TimeFormat: logTimeFormat,
	}
	if wc.FileName == "" {
		wc.FileName = defaultLogFile
	}
	if wc.MaxSize <= 0 {
		wc.MaxSize = defaultLogMaxBytes
	}
	if wc.MaxBackups <= 0 {
		wc.MaxBackups = defaultLogMaxBackups
	}
	return wc
}

// Logger wraps arbor.ILogger so callers depend on one concrete type.
type Logger struct {
	arbor.ILogger
}

// NewLogger creates a stderr logger at the given level.
func NewLogger(level string) *Logger {
	return NewLoggerFromConfig(LoggingConfig{Level: level})
}

// NewLoggerFromConfig builds a logger with the writers cfg names plus
// arbor's in-memory writer.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	l := arbor.NewLogger()
	for _, out := range cfg.outputs() {
		switch out {
		case "console":
			l = l.WithConsoleWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeConsole,
				Writer:     os.Stderr,
				TimeFormat: logTimeFormat,
			})
		case "file":
			l = l.WithFileWriter(cfg.fileWriter())
		}
	}

	l = l.WithMemoryWriter(models.WriterConfiguration{Type: models.LogWriterTypeMemory})
	return &Logger{ILogger: l.WithLevelFromString(cfg.level())}
}

// NewSilentLogger returns a logger whose only writer drops everything, so
// nothing reaches writers registered globally by other loggers.
func NewSilentLogger() *Logger {
	return &Logger{ILogger: arbor.NewLogger().WithWriters([]writers.IWriter{discard{}})}
}

// WithCorrelationId returns a child logger tagged with the request's
// correlation ID.
func (l *Logger) WithCorrelationId(id string) *Logger {
	return &Logger{ILogger: l.ILogger.WithCorrelationId(id)}
}

type discard struct{}

func (discard) Write(p []byte) (int, error)           { return len(p), nil }
func (d discard) WithLevel(log.Level) writers.IWriter { return d }
func (discard) GetFilePath() string                   { return "" }
func (discard) Close() error                          { return nil }
