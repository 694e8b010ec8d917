// Package output renders call results for display, copy and download.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Mode selects the JSON layout of the result panel.
type Mode int

const (
	ModePretty Mode = iota
	ModeCompact
)

func (m Mode) String() string {
	if m == ModeCompact {
		return "raw"
	}
	return "pretty"
}

// ParseMode accepts "pretty", or "raw"/"compact" for single-line JSON.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "pretty":
		return ModePretty, nil
	case "raw", "compact":
		return ModeCompact, nil
	}
	return ModePretty, fmt.Errorf("unknown output mode %q", s)
}

// IdleText is shown before any tool has run.
const IdleText = "Run a tool to see output here"

// Meta describes the HTTP exchange behind a result or error.
type Meta struct {
	StatusCode int
	Status     string
	Duration   time.Duration
}

// IsError reports whether the status should be shown as a failure.
func (m Meta) IsError() bool {
	return m.StatusCode >= 400
}

// DurationMs returns the duration in whole milliseconds.
func (m Meta) DurationMs() int64 {
	return m.Duration.Milliseconds()
}

// PanelKind is which of the three output panels to show.
type PanelKind int

const (
	PanelIdle PanelKind = iota
	PanelError
	PanelResult
)

// Panel is the rendered output area.
type Panel struct {
	Kind  PanelKind
	Mode  Mode
	Error string
	Meta  *Meta
	Text  string
}

// Render picks the panel for the given result, metadata and error text.
// The result bytes are never modified.
func Render(result json.RawMessage, meta *Meta, errText string, mode Mode) Panel {
	switch {
	case errText != "":
		return Panel{Kind: PanelError, Mode: mode, Error: errText, Meta: meta}
	case len(result) == 0:
		return Panel{Kind: PanelIdle, Mode: mode}
	default:
		return Panel{Kind: PanelResult, Mode: mode, Meta: meta, Text: Format(result, mode)}
	}
}

// Format lays out raw JSON in the given mode. Bytes that are not valid JSON
// are returned as-is.
func Format(raw json.RawMessage, mode Mode) string {
	var (
		s   string
		err error
	)
	if mode == ModeCompact {
		s, err = Compact(raw)
	} else {
		s, err = Pretty(raw)
	}
	if err != nil {
		return string(raw)
	}
	return s
}

// Pretty returns the value indented by two spaces.
func Pretty(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Compact returns the value on a single line.
func Compact(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
