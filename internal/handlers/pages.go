package handlers

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/mcp-workbench/internal/common"
	"github.com/bobmcallan/mcp-workbench/internal/config"
	"github.com/bobmcallan/mcp-workbench/internal/workbench"
)

// PageHandler serves HTML pages rendered with Go templates.
type PageHandler struct {
	logger    *common.Logger
	templates *template.Template
	wb        *workbench.Workbench
	devMode   bool
}

// NewPageHandler creates a new page handler that loads templates from the pages directory.
func NewPageHandler(logger *common.Logger, wb *workbench.Workbench, devMode bool) *PageHandler {
	pagesDir := FindPagesDir()

	templates := template.Must(template.New("").Funcs(templateFuncs).ParseGlob(filepath.Join(pagesDir, "*.html")))
	template.Must(templates.ParseGlob(filepath.Join(pagesDir, "partials", "*.html")))

	return &PageHandler{
		logger:    logger,
		templates: templates,
		wb:        wb,
		devMode:   devMode,
	}
}

var templateFuncs = template.FuncMap{
	"inputType": func(kind string) string {
		switch kind {
		case "number":
			return "number"
		case "checkbox":
			return "checkbox"
		}
		return "text"
	},
}

// FindPagesDir locates the pages directory.
func FindPagesDir() string {
	dirs := []string{
		"./pages",
		"../pages",
		"../../pages",
		".",
	}

	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}

	return "."
}

// ServeWorkbench renders the workbench page. The "q" query parameter filters
// the tool list.
func (h *PageHandler) ServeWorkbench(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	filter := strings.TrimSpace(r.URL.Query().Get("q"))
	data := map[string]interface{}{
		"Page":      "workbench",
		"DevMode":   h.devMode,
		"Version":   config.GetVersion(),
		"CSRFToken": CSRFToken(r),
		"View":      h.wb.Snapshot(filter),
	}

	w.Header().Set("Cache-Control", "no-store")
	if err := h.templates.ExecuteTemplate(w, "workbench.html", data); err != nil {
		if h.logger != nil {
			h.logger.Error().Str("template", "workbench.html").Str("error", err.Error()).Msg("failed to render page")
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// StaticFileHandler serves static files (CSS, JS, images).
func (h *PageHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	pagesDir := FindPagesDir()
	staticDir := filepath.Join(pagesDir, "static")

	// Remove /static/ prefix from URL path
	path := strings.TrimPrefix(r.URL.Path, "/static/")
	fullPath := filepath.Join(staticDir, path)

	// Security: prevent directory traversal
	absStaticDir, _ := filepath.Abs(staticDir)
	absFullPath, _ := filepath.Abs(fullPath)
	if !strings.HasPrefix(absFullPath, absStaticDir+string(filepath.Separator)) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, fullPath)
}
