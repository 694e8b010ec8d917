package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bobmcallan/mcp-workbench/internal/common"
	"github.com/bobmcallan/mcp-workbench/internal/handlers"
)

func newTestServer() *Server {
	return &Server{logger: common.NewSilentLogger()}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// --- Correlation ID ---

func TestCorrelationIDMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "generated"},
		{name: "request id", headers: map[string]string{"X-Request-ID": "req-1"}, want: "req-1"},
		{name: "correlation id", headers: map[string]string{"X-Correlation-ID": "corr-1"}, want: "corr-1"},
		{name: "request id wins", headers: map[string]string{"X-Request-ID": "req-2", "X-Correlation-ID": "corr-2"}, want: "req-2"},
	}

	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := s.correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = r.Context().Value(correlationIDKey).(string)
			}))

			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			got := w.Header().Get("X-Correlation-ID")
			if got == "" || got != seen {
				t.Fatalf("header %q and context %q should match and be set", got, seen)
			}
			if tt.want != "" && got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

// --- Origin ---

func TestOriginMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		origin     string
		want       int
		wantACAO   string
		wantCalled bool
	}{
		{name: "no origin", method: "GET", path: "/api/state", want: http.StatusOK, wantCalled: true},
		{name: "same origin", method: "GET", path: "/api/state", origin: "http://example.com", want: http.StatusOK, wantACAO: "http://example.com", wantCalled: true},
		{name: "same origin other case", method: "POST", path: "/run", origin: "http://EXAMPLE.com", want: http.StatusOK, wantACAO: "http://EXAMPLE.com", wantCalled: true},
		{name: "foreign origin read", method: "GET", path: "/api/state", origin: "https://evil.test", want: http.StatusForbidden},
		{name: "foreign origin delete", method: "DELETE", path: "/api/settings", origin: "https://evil.test", want: http.StatusForbidden},
		{name: "other port", method: "GET", path: "/api/state", origin: "http://example.com:9999", want: http.StatusForbidden},
		{name: "opaque origin", method: "POST", path: "/connect", origin: "null", want: http.StatusForbidden},
		{name: "same origin preflight", method: "OPTIONS", path: "/output/copy", origin: "http://example.com", want: http.StatusNoContent, wantACAO: "http://example.com"},
	}

	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := s.originMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
			if called != tt.wantCalled {
				t.Errorf("expected next called=%v, got %v", tt.wantCalled, called)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantACAO {
				t.Errorf("expected Access-Control-Allow-Origin %q, got %q", tt.wantACAO, got)
			}
		})
	}
}

func TestOriginMiddleware_AllowsCSRFHeader(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest("OPTIONS", "/output/copy", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	s.originMiddleware(okHandler()).ServeHTTP(w, req)

	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-CSRF-Token") {
		t.Errorf("expected X-CSRF-Token in allowed headers, got %s", w.Header().Get("Access-Control-Allow-Headers"))
	}
	if w.Header().Get("Vary") != "Origin" {
		t.Errorf("expected Vary: Origin, got %q", w.Header().Get("Vary"))
	}
}

// --- Recovery and logging ---

func TestRecoveryMiddleware_CatchesPanic(t *testing.T) {
	s := newTestServer()

	handler := s.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("render failed")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500 after panic, got %d", w.Code)
	}
}

func TestLoggingMiddleware_KeepsStatusAndCountsBytes(t *testing.T) {
	s := newTestServer()

	var rec *statusRecorder
	handler := s.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec = w.(*statusRecorder)
		w.WriteHeader(http.StatusSeeOther)
		w.Write([]byte("see other"))
	}))

	req := httptest.NewRequest("POST", "/run", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("expected status 303, got %d", w.Code)
	}
	if rec.status != http.StatusSeeOther || rec.bytes != len("see other") {
		t.Errorf("unexpected capture: status=%d bytes=%d", rec.status, rec.bytes)
	}
}

// --- Security headers ---

func TestSecurityHeadersMiddleware(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	s.securityHeadersMiddleware(okHandler()).ServeHTTP(w, req)

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-XSS-Protection":       "1; mode=block",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("%s: expected %q, got %q", k, v, got)
		}
	}

	csp := w.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "script-src 'self'") {
		t.Errorf("expected self-only scripts, got %s", csp)
	}
	if strings.Contains(csp, "unsafe-inline") {
		t.Errorf("page uses no inline script or style, got %s", csp)
	}
}

// --- Body limit ---

func TestMaxBodySizeMiddleware(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "small raw payload", body: `{"msg":"hi"}`},
		{name: "oversized payload", body: strings.Repeat("x", 100), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var readErr error
			handler := s.maxBodySizeMiddleware(32)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, readErr = io.ReadAll(r.Body)
			}))

			req := httptest.NewRequest("POST", "/run", strings.NewReader(tt.body))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if (readErr != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, readErr)
			}
		})
	}
}

// --- CSRF ---

func TestCSRFMiddleware_SafeMethodsPass(t *testing.T) {
	s := newTestServer()
	handler := s.csrfMiddleware(okHandler())

	for _, method := range []string{"GET", "HEAD", "OPTIONS"} {
		req := httptest.NewRequest(method, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", method, w.Code)
		}
	}
}

func TestCSRFMiddleware_UnsafeMethods(t *testing.T) {
	const token = "valid-token"

	tests := []struct {
		name   string
		method string
		path   string
		cookie string
		header string
		field  string
		want   int
	}{
		{name: "no token", method: "POST", path: "/connect", want: http.StatusForbidden},
		{name: "no token put", method: "PUT", path: "/run", want: http.StatusForbidden},
		{name: "no token delete", method: "DELETE", path: "/settings/clear", want: http.StatusForbidden},
		{name: "header matches", method: "POST", path: "/output/copy", cookie: token, header: token, want: http.StatusOK},
		{name: "header mismatch", method: "POST", path: "/output/copy", cookie: token, header: "other", want: http.StatusForbidden},
		{name: "form field matches", method: "POST", path: "/run", cookie: token, field: token, want: http.StatusOK},
		{name: "form field mismatch", method: "POST", path: "/run", cookie: token, field: "other", want: http.StatusForbidden},
		{name: "cookie only", method: "POST", path: "/run", cookie: token, want: http.StatusForbidden},
		{name: "api route without token", method: "DELETE", path: "/api/settings", want: http.StatusForbidden},
		{name: "api route cookie only", method: "DELETE", path: "/api/settings", cookie: token, want: http.StatusForbidden},
		{name: "api route header matches", method: "DELETE", path: "/api/settings", cookie: token, header: token, want: http.StatusOK},
	}

	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.field != "" {
				body = strings.NewReader(url.Values{"_csrf": {tt.field}}.Encode())
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.field != "" {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "_csrf", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("X-CSRF-Token", tt.header)
			}

			w := httptest.NewRecorder()
			s.csrfMiddleware(okHandler()).ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestCSRFMiddleware_IssuesTokenOnGET(t *testing.T) {
	s := newTestServer()

	var inContext string
	handler := s.csrfMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inContext = handlers.CSRFToken(r)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "_csrf" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected _csrf cookie")
	}
	if len(cookie.Value) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(cookie.Value))
	}
	if cookie.HttpOnly {
		t.Error("page script reads the cookie, HttpOnly must be false")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("expected SameSite=Strict, got %v", cookie.SameSite)
	}
	if inContext != cookie.Value {
		t.Errorf("expected context token %q to match cookie %q", inContext, cookie.Value)
	}
}

func TestCSRFMiddleware_ReusesExistingCookie(t *testing.T) {
	s := newTestServer()

	var inContext string
	handler := s.csrfMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inContext = handlers.CSRFToken(r)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "_csrf", Value: "kept"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if len(w.Result().Cookies()) != 0 {
		t.Error("expected no new cookie when one is present")
	}
	if inContext != "kept" {
		t.Errorf("expected kept, got %q", inContext)
	}
}
