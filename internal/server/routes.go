package server

import "net/http"

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	pages := s.app.PageHandler
	actions := s.app.WorkbenchHandler
	api := s.app.APIHandler

	// UI page (HTML template)
	mux.HandleFunc("/", pages.ServeWorkbench)

	// Static files (CSS, JS)
	mux.HandleFunc("/static/", pages.StaticFileHandler)

	// Page actions (form posts, redirect back to /)
	mux.HandleFunc("/connect", actions.HandleConnect)
	mux.HandleFunc("/settings/clear", actions.HandleClear)
	mux.HandleFunc("/tools/select", actions.HandleSelectTool)
	mux.HandleFunc("/form/mode", actions.HandleFormMode)
	mux.HandleFunc("/run", actions.HandleRun)
	mux.HandleFunc("/output/view", actions.HandleOutputView)
	mux.HandleFunc("/output/copy", actions.HandleCopy)
	mux.HandleFunc("/output/download", actions.HandleDownload)

	// API routes
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)
	mux.HandleFunc("/api/state", api.HandleState)
	mux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		RouteResourceItem(w, r, api.HandleGetSettings, nil, api.HandleDeleteSettings)
	})

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}
