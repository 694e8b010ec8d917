package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/writers"
)

func TestNewLogger_ReturnsNonNil(t *testing.T) {
	logger := NewLogger("info")
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}
}

func TestNewLogger_FluentAPI(t *testing.T) {
	logger := NewLogger("error")
	logger.Info().Str("url", "http://localhost:8443").Msg("connecting")
	logger.Warn().Int("status", 500).Msg("manifest fetch failed")
	logger.Error().Err(nil).Msg("call failed")
	logger.Debug().Int64("duration_ms", 12).Bool("stale", true).Msg("response discarded")
}

func TestNewLoggerFromConfig_UnknownOutputIgnored(t *testing.T) {
	logger := NewLoggerFromConfig(LoggingConfig{Level: "warn", Outputs: []string{"carrier-pigeon"}})
	if logger == nil {
		t.Fatal("NewLoggerFromConfig returned nil")
	}
	logger.Warn().Msg("still usable")
}

func TestNewLoggerFromConfig_FileOutput(t *testing.T) {
	dir := t.TempDir()
	logger := NewLoggerFromConfig(LoggingConfig{
		Level:    "info",
		Outputs:  []string{"file"},
		FilePath: dir + "/workbench.log",
	})
	if logger == nil {
		t.Fatal("NewLoggerFromConfig returned nil")
	}
	logger.Info().Str("tool", "echo").Msg("file writer accepts entries")
}

// captureWriter records whatever arbor dispatches to it.
type captureWriter struct {
	buf bytes.Buffer
}

func (c *captureWriter) Write(p []byte) (int, error)           { return c.buf.Write(p) }
func (c *captureWriter) WithLevel(_ log.Level) writers.IWriter { return c }
func (c *captureWriter) GetFilePath() string                   { return "" }
func (c *captureWriter) Close() error                          { return nil }

func TestNewSilentLogger_DoesNotWriteToGlobalWriters(t *testing.T) {
	capture := &captureWriter{}
	arbor.RegisterWriter(arbor.WRITER_CONSOLE, capture)

	silent := NewSilentLogger()
	silent.Info().Str("key", "value").Msg("this should NOT appear")
	silent.Error().Msg("this should NOT appear either")

	if strings.Contains(capture.buf.String(), "should NOT appear") {
		t.Errorf("silent logger wrote to global writer: %s", capture.buf.String())
	}
}

func TestLoggingConfig_FileWriterDefaults(t *testing.T) {
	tests := []struct {
		name        string
		cfg         LoggingConfig
		wantFile    string
		wantSize    int64
		wantBackups int
	}{
		{name: "defaults", wantFile: "logs/mcp-workbench.log", wantSize: 500 * 1024, wantBackups: 20},
		{name: "configured", cfg: LoggingConfig{FilePath: "/tmp/wb.log", MaxSizeMB: 2, MaxBackups: 3}, wantFile: "/tmp/wb.log", wantSize: 2 * 1024 * 1024, wantBackups: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wc := tt.cfg.fileWriter()
			if wc.FileName != tt.wantFile {
				t.Errorf("expected file %s, got %s", tt.wantFile, wc.FileName)
			}
			if wc.MaxSize != tt.wantSize {
				t.Errorf("expected max size %d, got %d", tt.wantSize, wc.MaxSize)
			}
			if wc.MaxBackups != tt.wantBackups {
				t.Errorf("expected %d backups, got %d", tt.wantBackups, wc.MaxBackups)
			}
		})
	}
}

func TestLoggingConfig_LevelAndOutputDefaults(t *testing.T) {
	var cfg LoggingConfig
	if cfg.level() != "info" {
		t.Errorf("expected info, got %s", cfg.level())
	}
	if out := cfg.outputs(); len(out) != 1 || out[0] != "console" {
		t.Errorf("expected [console], got %v", out)
	}
}

func TestWithCorrelationId_ReturnsNewLogger(t *testing.T) {
	logger := NewLogger("info")
	correlated := logger.WithCorrelationId("req-123")

	if correlated == nil {
		t.Fatal("WithCorrelationId returned nil")
	}
	if correlated == logger {
		t.Error("WithCorrelationId should return a new Logger instance")
	}
	correlated.Info().Str("path", "/run").Msg("handler start")
}
