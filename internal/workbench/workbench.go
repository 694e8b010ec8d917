// Package workbench is the session controller behind the portal. It owns the
// connection settings, the loaded manifest, the selected tool's draft and the
// last call result, and performs manifest and call requests for the user.
package workbench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/mcp-workbench/internal/common"
	"github.com/bobmcallan/mcp-workbench/internal/form"
	"github.com/bobmcallan/mcp-workbench/internal/mcp"
	"github.com/bobmcallan/mcp-workbench/internal/output"
	"github.com/bobmcallan/mcp-workbench/internal/settings"
)

var (
	ErrNotConnected   = errors.New("not connected to a tool server")
	ErrNoToolSelected = errors.New("no tool selected")
	ErrUnknownTool    = errors.New("unknown tool")
	// ErrSuperseded is returned when a newer connect or run started while
	// this one was in flight; its response was discarded.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Sentinel metadata for call failures that never received an HTTP status.
const (
	fallbackStatusCode = 500
	fallbackStatus     = "Error"
)

// SettingsStore persists connection settings.
type SettingsStore interface {
	Load(ctx context.Context) (settings.ConnectionSettings, error)
	Save(ctx context.Context, cs settings.ConnectionSettings) error
	Clear(ctx context.Context) error
	Defaults() settings.ConnectionSettings
}

// ToolClient is the subset of mcp.Client the workbench uses.
type ToolClient interface {
	FetchManifest(ctx context.Context) (*mcp.Manifest, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallResult, error)
}

// ClientFactory builds a client for one request.
type ClientFactory func(baseURL, apiKey string) ToolClient

// Option configures a Workbench.
type Option func(*Workbench)

// WithClientFactory replaces the default mcp.Client constructor.
func WithClientFactory(f ClientFactory) Option {
	return func(w *Workbench) { w.newClient = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Workbench) { w.now = now }
}

// Workbench is safe for concurrent use. Network requests run outside the
// lock; each connect and run takes a generation number and only the latest
// generation may commit its response.
type Workbench struct {
	store     SettingsStore
	newClient ClientFactory
	logger    *common.Logger
	now       func() time.Time

	mu sync.Mutex

	settings settings.ConnectionSettings

	manifest   *mcp.Manifest
	connected  bool
	connecting bool
	connectErr string
	connectGen uint64

	selected string
	draft    *form.Controller

	running bool
	runGen  uint64
	result  json.RawMessage
	meta    *output.Meta
	runErr  string
	outMode output.Mode
	copied  output.CopyFeedback
}

// New creates a workbench and loads persisted settings once. A load failure
// is logged and the defaults are used.
func New(ctx context.Context, store SettingsStore, logger *common.Logger, opts ...Option) *Workbench {
	w := &Workbench{
		store:  store,
		logger: logger,
		now:    time.Now,
		draft:  form.NewController(),
	}
	w.newClient = func(baseURL, apiKey string) ToolClient {
		return mcp.NewClient(baseURL, apiKey, mcp.WithLogger(w.logger))
	}
	for _, opt := range opts {
		opt(w)
	}

	cs, err := store.Load(ctx)
	if err != nil {
		logger.Warn().Str("error", err.Error()).Msg("failed to load connection settings, using defaults")
		cs = store.Defaults()
	}
	w.settings = cs
	return w
}

// Settings returns the current connection settings.
func (w *Workbench) Settings() settings.ConnectionSettings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings
}

// Connect saves the settings and loads the manifest from url. On success the
// first tool is selected. On failure the workbench is disconnected and the
// error is kept for display.
func (w *Workbench) Connect(ctx context.Context, url, apiKey string) error {
	cs := settings.ConnectionSettings{ServerURL: url, APIKey: apiKey}

	// Saving under the lock orders it against ClearStorage.
	w.mu.Lock()
	w.settings = cs
	w.connectGen++
	gen := w.connectGen
	w.connecting = true
	w.connectErr = ""
	w.runErr = ""
	if err := w.store.Save(ctx, cs); err != nil {
		w.logger.Warn().Str("error", err.Error()).Msg("failed to persist connection settings")
	}
	w.mu.Unlock()

	manifest, err := w.newClient(url, apiKey).FetchManifest(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.connectGen {
		w.logger.Debug().Str("server_url", url).Msg("discarding superseded connect response")
		return ErrSuperseded
	}
	w.connecting = false

	if err != nil {
		w.connected = false
		w.connectErr = fmt.Sprintf("Failed to connect to MCP server: %s", err.Error())
		w.logger.Warn().Str("server_url", url).Str("error", err.Error()).Msg("connect failed")
		return fmt.Errorf("connect %s: %w", url, err)
	}

	w.manifest = manifest
	w.connected = true
	w.logger.Info().Str("server_url", url).Int("tools", len(manifest.Tools)).Msg("connected to tool server")

	if len(manifest.Tools) > 0 {
		w.selectLocked(manifest.Tools[0])
	} else {
		w.selected = ""
		w.draft.Reset(mcp.Tool{})
	}
	return nil
}

// SelectTool makes name the selected tool and resets the draft.
func (w *Workbench) SelectTool(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.connected {
		return ErrNotConnected
	}
	tool, ok := w.manifest.Tool(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	w.selectLocked(tool)
	return nil
}

func (w *Workbench) selectLocked(tool mcp.Tool) {
	w.selected = tool.Name
	w.draft.Reset(tool)
}

// SetField records one structured field value for the selected tool.
func (w *Workbench) SetField(name, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.selected == "" {
		return ErrNoToolSelected
	}
	return w.draft.SetField(name, text)
}

// MergeField records a field from a whole-form post, skipping blank inputs
// the user never touched.
func (w *Workbench) MergeField(name, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.selected == "" {
		return ErrNoToolSelected
	}
	return w.draft.MergeField(name, text)
}

// SetRaw replaces the raw JSON buffer for the selected tool.
func (w *Workbench) SetRaw(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.selected == "" {
		return ErrNoToolSelected
	}
	w.draft.SetRaw(text)
	return nil
}

// ToggleMode switches the selected tool's draft between fields and raw JSON.
func (w *Workbench) ToggleMode() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.selected == "" {
		return ErrNoToolSelected
	}
	return w.draft.ToggleMode()
}

// SetFormMode selects fields or raw JSON explicitly.
func (w *Workbench) SetFormMode(m form.Mode) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.selected == "" {
		return ErrNoToolSelected
	}
	return w.draft.SetMode(m)
}

// Run submits the draft and calls the selected tool. A raw JSON parse
// failure returns form.ErrInvalidJSON without any request being made.
func (w *Workbench) Run(ctx context.Context) error {
	w.mu.Lock()
	if !w.connected {
		w.mu.Unlock()
		return ErrNotConnected
	}
	if w.selected == "" {
		w.mu.Unlock()
		return ErrNoToolSelected
	}
	args, err := w.draft.Submit()
	if err != nil {
		w.mu.Unlock()
		return err
	}

	w.runGen++
	gen := w.runGen
	w.running = true
	w.result = nil
	w.meta = nil
	w.runErr = ""
	w.copied.Reset()
	cs := w.settings
	tool := w.selected
	w.mu.Unlock()

	start := w.now()
	res, err := w.newClient(cs.ServerURL, cs.APIKey).CallTool(ctx, tool, args)
	duration := w.now().Sub(start)

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.runGen {
		w.logger.Debug().Str("tool", tool).Msg("discarding superseded call response")
		return ErrSuperseded
	}
	w.running = false
	w.draft.Finish()

	if err != nil {
		meta := &output.Meta{StatusCode: fallbackStatusCode, Status: fallbackStatus, Duration: duration}
		var se *mcp.StatusError
		if errors.As(err, &se) {
			meta.StatusCode = se.StatusCode
			meta.Status = se.Status
		}
		w.meta = meta
		w.runErr = err.Error()
		w.logger.Warn().Str("tool", tool).Int("status", meta.StatusCode).Dur("duration", duration).Str("error", err.Error()).Msg("tool call failed")
		return err
	}

	w.result = res.Raw
	w.meta = &output.Meta{StatusCode: res.StatusCode, Status: res.Status, Duration: duration}
	w.logger.Info().Str("tool", tool).Int("status", res.StatusCode).Dur("duration", duration).Bool("is_error", res.IsError).Msg("tool call completed")
	return nil
}

// SetOutputMode selects pretty or compact result display.
func (w *Workbench) SetOutputMode(m output.Mode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.outMode = m
}

// MarkCopied starts the copy confirmation window.
func (w *Workbench) MarkCopied() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.copied.Mark(w.now())
}

// Export returns the indented result and its download file name. ok is
// false when there is no result.
func (w *Workbench) Export() (name string, body []byte, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.result) == 0 {
		return "", nil, false
	}
	return output.DownloadName(w.now()), []byte(output.Format(w.result, output.ModePretty)), true
}

// ClearStorage removes persisted settings, restores defaults and
// disconnects. An in-flight connect is discarded.
func (w *Workbench) ClearStorage(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Clear(ctx); err != nil {
		return err
	}

	w.settings = w.store.Defaults()
	w.connectGen++
	w.connecting = false
	w.connected = false
	w.connectErr = ""
	w.manifest = nil
	w.selected = ""
	w.draft.Reset(mcp.Tool{})
	return nil
}
