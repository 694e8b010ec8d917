package handlers

import (
	"net/http"

	"github.com/bobmcallan/mcp-workbench/internal/common"
	"github.com/bobmcallan/mcp-workbench/internal/workbench"
)

// APIHandler serves the JSON view of the workbench.
type APIHandler struct {
	logger *common.Logger
	wb     *workbench.Workbench
}

// NewAPIHandler creates the JSON API handler.
func NewAPIHandler(logger *common.Logger, wb *workbench.Workbench) *APIHandler {
	return &APIHandler{logger: logger, wb: wb}
}

// HandleState handles GET /api/state.
func (h *APIHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.wb.Snapshot(r.URL.Query().Get("q")))
}

// HandleGetSettings handles GET /api/settings. The API key itself is never
// returned.
func (h *APIHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	cs := h.wb.Settings()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"server_url":  cs.ServerURL,
		"has_api_key": cs.HasAPIKey(),
	})
}

// HandleDeleteSettings handles DELETE /api/settings.
func (h *APIHandler) HandleDeleteSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.wb.ClearStorage(r.Context()); err != nil {
		h.logger.Error().Str("error", err.Error()).Msg("failed to clear settings")
		WriteError(w, http.StatusInternalServerError, "failed to clear settings")
		return
	}
	cs := h.wb.Settings()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "cleared",
		"server_url":  cs.ServerURL,
		"has_api_key": cs.HasAPIKey(),
	})
}
