package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/mcp-workbench/internal/common"
	"github.com/bobmcallan/mcp-workbench/internal/form"
	"github.com/bobmcallan/mcp-workbench/internal/output"
	"github.com/bobmcallan/mcp-workbench/internal/workbench"
)

// fieldPrefix namespaces structured inputs in the run form.
const fieldPrefix = "field."

// WorkbenchHandler handles the form posts of the workbench page. Every action
// redirects back to the page.
type WorkbenchHandler struct {
	logger *common.Logger
	wb     *workbench.Workbench
}

// NewWorkbenchHandler creates the action handler.
func NewWorkbenchHandler(logger *common.Logger, wb *workbench.Workbench) *WorkbenchHandler {
	return &WorkbenchHandler{logger: logger, wb: wb}
}

// HandleConnect handles POST /connect.
func (h *WorkbenchHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	serverURL := strings.TrimSpace(r.PostFormValue("server_url"))
	apiKey := strings.TrimSpace(r.PostFormValue("api_key"))

	// The connect outlives a browser that navigates away.
	ctx := context.WithoutCancel(r.Context())
	if err := h.wb.Connect(ctx, serverURL, apiKey); err != nil && !errors.Is(err, workbench.ErrSuperseded) {
		h.logger.Debug().Str("error", err.Error()).Msg("connect action failed")
	}
	redirectHome(w, r)
}

// HandleClear handles POST /settings/clear.
func (h *WorkbenchHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := h.wb.ClearStorage(r.Context()); err != nil {
		h.logger.Error().Str("error", err.Error()).Msg("failed to clear settings")
		http.Error(w, "failed to clear settings", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleSelectTool handles POST /tools/select.
func (h *WorkbenchHandler) HandleSelectTool(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	name := r.PostFormValue("tool")
	if err := h.wb.SelectTool(name); err != nil {
		h.logger.Debug().Str("tool", name).Str("error", err.Error()).Msg("select tool failed")
	}
	redirectHome(w, r)
}

// HandleFormMode handles POST /form/mode. The current draft is applied first
// so nothing typed is lost when switching.
func (h *WorkbenchHandler) HandleFormMode(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	h.applyDraft(r)

	var err error
	if m := r.PostFormValue("mode"); m != "" {
		var mode form.Mode
		if mode, err = form.ParseMode(m); err == nil {
			err = h.wb.SetFormMode(mode)
		}
	} else {
		err = h.wb.ToggleMode()
	}
	if err != nil {
		h.logger.Debug().Str("error", err.Error()).Msg("form mode change rejected")
	}
	redirectHome(w, r)
}

// HandleRun handles POST /run.
func (h *WorkbenchHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	h.applyDraft(r)

	ctx := context.WithoutCancel(r.Context())
	if err := h.wb.Run(ctx); err != nil && !errors.Is(err, workbench.ErrSuperseded) {
		h.logger.Debug().Str("error", err.Error()).Msg("run action failed")
	}
	redirectHome(w, r)
}

// applyDraft copies submitted field values and the raw buffer into the
// selected tool's draft.
func (h *WorkbenchHandler) applyDraft(r *http.Request) {
	for key := range r.PostForm {
		if !strings.HasPrefix(key, fieldPrefix) {
			continue
		}
		name := strings.TrimPrefix(key, fieldPrefix)
		value, _ := lastValue(r.PostForm, key)
		if err := h.wb.MergeField(name, value); err != nil {
			h.logger.Debug().Str("field", name).Str("error", err.Error()).Msg("field ignored")
		}
	}
	if raw, ok := lastValue(r.PostForm, "raw"); ok {
		if err := h.wb.SetRaw(raw); err != nil {
			h.logger.Debug().Str("error", err.Error()).Msg("raw input ignored")
		}
	}
}

// HandleOutputView handles POST /output/view.
func (h *WorkbenchHandler) HandleOutputView(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	mode, err := output.ParseMode(r.PostFormValue("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.wb.SetOutputMode(mode)
	redirectHome(w, r)
}

// HandleCopy handles POST /output/copy. The page script writes the clipboard
// and posts here to start the confirmation window.
func (h *WorkbenchHandler) HandleCopy(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	h.wb.MarkCopied()

	if wantsJSON(r) {
		out := h.wb.Snapshot("").Output
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"copy_label":   out.CopyLabel,
			"remaining_ms": out.CopyRemaining,
		})
		return
	}
	redirectHome(w, r)
}

// HandleDownload handles GET /output/download.
func (h *WorkbenchHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	name, body, ok := h.wb.Export()
	if !ok {
		http.Error(w, "no result to download", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", output.DownloadContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
