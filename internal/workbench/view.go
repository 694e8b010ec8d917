package workbench

import (
	"strconv"
	"time"

	"github.com/bobmcallan/mcp-workbench/internal/form"
	"github.com/bobmcallan/mcp-workbench/internal/mcp"
	"github.com/bobmcallan/mcp-workbench/internal/output"
	"github.com/bobmcallan/mcp-workbench/internal/schema"
)

// View is a point-in-time copy of the workbench state for rendering.
type View struct {
	ServerURL    string `json:"server_url"`
	APIKey       string `json:"-"`
	HasAPIKey    bool   `json:"has_api_key"`
	Connected    bool   `json:"connected"`
	Connecting   bool   `json:"connecting"`
	ConnectLabel string `json:"connect_label"`
	ConnectError string `json:"connect_error,omitempty"`

	ManifestName    string     `json:"manifest_name,omitempty"`
	ManifestVersion string     `json:"manifest_version,omitempty"`
	Filter          string     `json:"filter,omitempty"`
	Tools           []ToolView `json:"tools"`
	ToolCount       int        `json:"tool_count"`

	Selected *SelectedView `json:"selected,omitempty"`

	Running  bool       `json:"running"`
	RunLabel string     `json:"run_label"`
	Output   OutputView `json:"output"`
}

// ToolView is one entry of the tool list.
type ToolView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Selected    bool   `json:"selected"`
}

// SelectedView is the selected tool and its draft.
type SelectedView struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Fields      []FieldView `json:"fields"`
	Mode        string      `json:"mode"`
	RawMode     bool        `json:"raw_mode"`
	CanToggle   bool        `json:"can_toggle"`
	Notice      string      `json:"notice,omitempty"`
	Raw         string      `json:"raw"`
	ParseError  string      `json:"parse_error,omitempty"`
	State       string      `json:"state"`
}

// FieldView is one structured input.
type FieldView struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Type        string `json:"type,omitempty"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
	Notice      string `json:"notice,omitempty"`
	Value       string `json:"value,omitempty"`
	Checked     bool   `json:"checked"`
}

// OutputView is the output panel.
type OutputView struct {
	Kind          string `json:"kind"`
	Mode          string `json:"mode"`
	Text          string `json:"text,omitempty"`
	Pretty        string `json:"-"`
	Error         string `json:"error,omitempty"`
	HasMeta       bool   `json:"has_meta"`
	StatusCode    int    `json:"status_code,omitempty"`
	Status        string `json:"status,omitempty"`
	StatusIsError bool   `json:"status_is_error"`
	DurationMs    int64  `json:"duration_ms"`
	CopyLabel     string `json:"copy_label"`
	Copied        bool   `json:"copied"`
	CopyRemaining int64  `json:"copy_remaining_ms"`
	IdleText      string `json:"idle_text,omitempty"`
}

// Snapshot returns the current state with the tool list filtered by filter.
func (w *Workbench) Snapshot(filter string) View {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	v := View{
		ServerURL:    w.settings.ServerURL,
		APIKey:       w.settings.APIKey,
		HasAPIKey:    w.settings.HasAPIKey(),
		Connected:    w.connected,
		Connecting:   w.connecting,
		ConnectLabel: connectLabel(w.connecting, w.connected),
		ConnectError: w.connectErr,
		Filter:       filter,
		Running:      w.running,
		RunLabel:     "Run Tool",
	}
	if w.running {
		v.RunLabel = "Running..."
	}

	if w.connected && w.manifest != nil {
		v.ManifestName = w.manifest.Name
		v.ManifestVersion = w.manifest.Version
		v.ToolCount = len(w.manifest.Tools)
		for _, t := range mcp.FilterTools(w.manifest.Tools, filter) {
			v.Tools = append(v.Tools, ToolView{
				Name:        t.Name,
				Description: t.Description,
				Selected:    t.Name == w.selected,
			})
		}
		if tool, ok := w.manifest.Tool(w.selected); ok {
			v.Selected = w.selectedView(tool)
		}
	}

	v.Output = w.outputView(now)
	return v
}

func (w *Workbench) selectedView(tool mcp.Tool) *SelectedView {
	d := w.draft
	sv := &SelectedView{
		Name:        tool.Name,
		Description: tool.Description,
		Mode:        d.Mode().String(),
		RawMode:     d.Mode() == form.ModeRaw,
		CanToggle:   d.CanToggle(),
		Raw:         d.Raw(),
		ParseError:  d.ParseError(),
		State:       d.State().String(),
	}
	if !d.CanToggle() {
		sv.Notice = schema.ForcedRawNotice
	}

	args := d.Args()
	for _, f := range d.Form().Fields {
		fv := FieldView{
			Name:        f.Name,
			Kind:        f.Kind.String(),
			Type:        f.Type,
			Required:    f.Required,
			Description: f.Description,
			Notice:      f.Notice,
			Value:       d.Text(f.Name),
		}
		if f.Kind == schema.KindCheckbox {
			b, _ := args[f.Name].(bool)
			fv.Checked = b
			fv.Value = strconv.FormatBool(b)
		}
		sv.Fields = append(sv.Fields, fv)
	}
	return sv
}

func (w *Workbench) outputView(now time.Time) OutputView {
	panel := output.Render(w.result, w.meta, w.runErr, w.outMode)
	ov := OutputView{
		Mode:          panel.Mode.String(),
		Text:          panel.Text,
		Error:         panel.Error,
		CopyLabel:     w.copied.Label(now),
		Copied:        w.copied.Active(now),
		CopyRemaining: w.copied.Remaining(now).Milliseconds(),
	}
	switch panel.Kind {
	case output.PanelIdle:
		ov.Kind = "idle"
		ov.IdleText = output.IdleText
	case output.PanelError:
		ov.Kind = "error"
	default:
		ov.Kind = "result"
		ov.Pretty = output.Format(w.result, output.ModePretty)
	}
	if panel.Meta != nil {
		ov.HasMeta = true
		ov.StatusCode = panel.Meta.StatusCode
		ov.Status = panel.Meta.Status
		ov.StatusIsError = panel.Meta.IsError()
		ov.DurationMs = panel.Meta.DurationMs()
	}
	return ov
}

func connectLabel(connecting, connected bool) string {
	switch {
	case connecting:
		return "Connecting..."
	case connected:
		return "Refresh"
	default:
		return "Connect"
	}
}
