// Package bridge serves the tools of an mcp-go server over the plain HTTP
// manifest and call endpoints that the workbench client speaks.
package bridge

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/mcp-workbench/internal/common"
)

const (
	manifestPath = "/.well-known/mcp-manifest.json"
	callPath     = "/mcp/call"
)

// Bridge adapts an MCPServer to the manifest/call contract.
type Bridge struct {
	srv     *server.MCPServer
	name    string
	version string
	token   string
	logger  *common.Logger
	router  *chi.Mux
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithToken requires "Authorization: Bearer <token>" on the manifest and call
// endpoints. An empty token disables the check.
func WithToken(token string) Option {
	return func(b *Bridge) { b.token = token }
}

// WithLogger sets the bridge logger.
func WithLogger(logger *common.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// New builds a bridge for srv. name and version are reported in the manifest.
func New(srv *server.MCPServer, name, version string, opts ...Option) *Bridge {
	b := &Bridge{
		srv:     srv,
		name:    name,
		version: version,
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = common.NewSilentLogger()
	}

	b.router.Use(middleware.RequestID)
	b.router.Use(middleware.RealIP)
	b.router.Use(middleware.Recoverer)

	b.router.Get("/health", b.handleHealth)
	b.router.Group(func(r chi.Router) {
		r.Use(b.auth)
		r.Get(manifestPath, b.handleManifest)
		r.Post(callPath, b.handleCall)
	})

	return b
}

// Handler returns the HTTP handler.
func (b *Bridge) Handler() http.Handler { return b.router }

func (b *Bridge) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+b.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Bridge) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type manifestResponse struct {
	Name    string     `json:"name,omitempty"`
	Version string     `json:"version,omitempty"`
	Tools   []mcp.Tool `json:"tools"`
}

func (b *Bridge) handleManifest(w http.ResponseWriter, _ *http.Request) {
	registered := b.srv.ListTools()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]mcp.Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, registered[name].Tool)
	}

	writeJSON(w, http.StatusOK, manifestResponse{Name: b.name, Version: b.version, Tools: tools})
}

// callRequest accepts both naming conventions for the tool and its arguments.
type callRequest struct {
	Tool      string         `json:"tool"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Inputs    map[string]any `json:"inputs"`
}

func (c callRequest) toolName() string {
	if c.Tool != "" {
		return c.Tool
	}
	return c.Name
}

func (c callRequest) args() map[string]any {
	if c.Arguments != nil {
		return c.Arguments
	}
	if c.Inputs != nil {
		return c.Inputs
	}
	return map[string]any{}
}

func (b *Bridge) handleCall(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	name := req.toolName()
	st := b.srv.GetTool(name)
	if st == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown tool"})
		return
	}

	callReq := mcp.CallToolRequest{
		Request: mcp.Request{Method: string(mcp.MethodToolsCall)},
		Header:  r.Header.Clone(),
		Params:  mcp.CallToolParams{Name: name, Arguments: req.args()},
	}

	start := time.Now()
	result, err := st.Handler(r.Context(), callReq)
	duration := time.Since(start)
	if err != nil {
		b.logger.Warn().Str("tool", name).Str("error", err.Error()).Dur("duration", duration).Msg("tool handler failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if result == nil {
		result = &mcp.CallToolResult{Content: []mcp.Content{}}
	}

	b.logger.Debug().Str("tool", name).Bool("is_error", result.IsError).Dur("duration", duration).Msg("tool call served")
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
