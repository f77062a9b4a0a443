package server_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nutrichat/nutrichat/internal/config"
)

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := env.do(t, req)

	header := w.Header()
	if got := header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if got := header.Get("Referrer-Policy"); got != "strict-origin-when-cross-origin" {
		t.Errorf("Referrer-Policy = %q", got)
	}
	csp := header.Get("Content-Security-Policy")
	if !strings.Contains(csp, "default-src 'self'") {
		t.Errorf("Content-Security-Policy = %q, want a default-src 'self' policy", csp)
	}
	if !strings.Contains(csp, "script-src 'self' 'unsafe-inline'") {
		t.Errorf("development CSP = %q, want inline scripts allowed", csp)
	}
}

func TestProductionCSPForbidsInlineScripts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Env = "production" })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := env.do(t, req)

	csp := w.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "script-src 'self';") {
		t.Errorf("production CSP = %q, want a bare script-src 'self'", csp)
	}
	if strings.Contains(csp, "script-src 'self' 'unsafe-inline'") {
		t.Errorf("production CSP = %q, must not allow inline scripts", csp)
	}
}

func TestProductionErrorsOmitDetail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Env = "production" })

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("hello"))
	req.Header.Set("Content-Type", "text/plain")
	w := env.do(t, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if _, ok := decodeBody(t, w)["detail"]; ok {
		t.Error("production error response carries a detail field")
	}
}

func TestCORSEchoesAllowedOrigin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(chatBody("sess-cors")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://app.example.com")
	w := env.do(t, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want the origin echoed back", got)
	}
	if !strings.Contains(strings.Join(w.Header().Values("Vary"), ","), "Origin") {
		t.Errorf("Vary = %v, want Origin listed", w.Header().Values("Vary"))
	}
}

func TestCORSIgnoresUnknownOrigin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(chatBody("sess-cors2")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://evil.example.com")
	w := env.do(t, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want no CORS headers for unknown origins", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := env.do(t, req)

	if w.Code != http.StatusOK {
		t.Fatalf("preflight status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.Len() != 0 {
		t.Errorf("preflight body = %q, want empty", w.Body.String())
	}
	header := w.Header()
	if got := header.Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Access-Control-Allow-Methods = %q, want POST included", got)
	}
	if got := header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Content-Type") {
		t.Errorf("Access-Control-Allow-Headers = %q, want Content-Type included", got)
	}
	if got := header.Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("Access-Control-Max-Age = %q, want 86400", got)
	}
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(cfg *config.Config) { cfg.RateLimit.Limit = 3 })
	start := time.Now()

	for i := 0; i < 3; i++ {
		if w := env.postJSON(t, chatBody("sess-rl")); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, w.Code, http.StatusOK)
		}
	}

	w := env.postJSON(t, chatBody("sess-rl"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("request 4: status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	header := w.Header()
	if got := header.Get("X-RateLimit-Limit"); got != "3" {
		t.Errorf("X-RateLimit-Limit = %q, want 3", got)
	}
	if header.Get("Retry-After") == "" {
		t.Error("429 response is missing Retry-After")
	}
	if reset, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64); err != nil || reset < start.Unix() {
		t.Errorf("X-RateLimit-Reset = %q, want a unix time at or after the test start", header.Get("X-RateLimit-Reset"))
	}

	body := decodeBody(t, w)
	if body["reply"] != env.cfg.Messages.RateLimited {
		t.Errorf("reply = %q, want %q", body["reply"], env.cfg.Messages.RateLimited)
	}
	resetRaw, _ := body["resetTime"].(string)
	reset, err := time.Parse(time.RFC3339Nano, resetRaw)
	if err != nil {
		t.Fatalf("resetTime %q did not parse: %v", resetRaw, err)
	}
	if reset.Before(start) {
		t.Errorf("resetTime %v is before the test started at %v", reset, start)
	}
}

func TestRateLimitTracksClientsSeparately(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(cfg *config.Config) { cfg.RateLimit.Limit = 1 })

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(chatBody("sess-rl2")))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = remoteAddr
		return env.do(t, req).Code
	}

	if code := send("10.0.0.1:1111"); code != http.StatusOK {
		t.Fatalf("first client: status = %d, want %d", code, http.StatusOK)
	}
	if code := send("10.0.0.2:2222"); code != http.StatusOK {
		t.Errorf("second client: status = %d, want %d despite the first client's usage", code, http.StatusOK)
	}
	if code := send("10.0.0.1:3333"); code != http.StatusTooManyRequests {
		t.Errorf("first client again: status = %d, want %d", code, http.StatusTooManyRequests)
	}
}

func TestStaticServesPublicDir(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	page := "<!doctype html><title>NutriChat</title>"
	if err := os.WriteFile(filepath.Join(env.cfg.Server.PublicDir, "index.html"), []byte(page), 0o644); err != nil {
		t.Fatalf("writing index.html failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := env.do(t, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "NutriChat") {
		t.Errorf("body = %q, want the page content", w.Body.String())
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Error("static responses are missing security headers")
	}
}

func TestUnknownAPIPathStaysJSON(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	w := env.do(t, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if reply := decodeBody(t, w)["reply"]; reply == nil {
		t.Error("unknown API path did not answer with the JSON envelope")
	}
}

func TestBodyLimitCapsRequestSize(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Server.MaxBodyBytes = 1024 })

	huge := `{"message":"` + strings.Repeat("a", 2048) + `"}`
	w := env.postJSON(t, huge)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d for an oversized body", w.Code, http.StatusBadRequest)
	}
}
