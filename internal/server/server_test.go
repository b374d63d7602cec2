package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipstream/internal/api"
	"clipstream/internal/auth"
	"clipstream/internal/observability/metrics"
	"clipstream/internal/storage"
)

func newTestHandler(t *testing.T) (*api.Handler, storage.Repository) {
	t.Helper()
	store, err := storage.NewJSONRepository(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatalf("NewJSONRepository: %v", err)
	}
	tokens, err := auth.NewTokenManager("access-secret", "refresh-secret")
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return api.NewHandler(store, tokens), store
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	handler, _ := newTestHandler(t)
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	srv, err := New(handler, cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return srv
}

func TestServerRecordsRequestMetrics(t *testing.T) {
	recorder := metrics.New()
	srv := newTestServer(t, Config{Metrics: recorder})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var buf bytes.Buffer
	recorder.Write(&buf)
	want := `clipstream_http_requests_total{method="GET",path="/healthz",status="200"} 1`
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("expected metrics output to contain %q, got:\n%s", want, buf.String())
	}
}

func registerThroughServer(t *testing.T, srv *Server, username string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"fullName": "Test " + username,
		"password": "correct horse",
	} {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("WriteField(%s): %v", name, err)
		}
	}
	part, err := writer.CreateFormFile("avatar", username+".png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte("fake bytes")); err != nil {
		t.Fatalf("write avatar: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/users/register", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register through server: status %d body %s", rec.Code, rec.Body.String())
	}
}

func loginThroughServer(t *testing.T, srv *Server, username string) []*http.Cookie {
	t.Helper()
	payload := fmt.Sprintf(`{"username":%q,"password":"correct horse"}`, username)
	req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login through server: status %d body %s", rec.Code, rec.Body.String())
	}
	return rec.Result().Cookies()
}

func TestServerAllowsPublicPathsWithoutToken(t *testing.T) {
	srv := newTestServer(t, Config{})
	for _, path := range []string{"/healthz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.httpServer.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status %d", path, rec.Code)
		}
	}
}

func TestServerRejectsMissingTokenOnProtectedRoutes(t *testing.T) {
	srv := newTestServer(t, Config{})
	req := httptest.NewRequest(http.MethodGet, "/users/current-user", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var payload struct {
		Success bool     `json:"success"`
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	if payload.Success || payload.Message == "" {
		t.Fatalf("unexpected error payload: %+v", payload)
	}
}

func TestServerServesVideoListingAnonymously(t *testing.T) {
	srv := newTestServer(t, Config{})
	req := httptest.NewRequest(http.MethodGet, "/videos", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous video listing: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestServerInjectsAuthenticatedUser(t *testing.T) {
	srv := newTestServer(t, Config{})
	registerThroughServer(t, srv, "alice")
	cookies := loginThroughServer(t, srv, "alice")

	req := httptest.NewRequest(http.MethodGet, "/users/current-user", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("current user via cookie: status %d body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"username":"alice"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestServerRejectsGarbageToken(t *testing.T) {
	srv := newTestServer(t, Config{})
	req := httptest.NewRequest(http.MethodGet, "/users/current-user", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "not-a-token"})
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginRateLimitPerIP(t *testing.T) {
	srv := newTestServer(t, Config{
		RateLimit: RateLimitConfig{LoginLimit: 2, LoginWindow: time.Minute},
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(`{"username":"ghost","password":"x"}`))
		req.RemoteAddr = "198.51.100.1:1234"
		rec := httptest.NewRecorder()
		srv.httpServer.Handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			t.Fatalf("attempt %d throttled too early", i+1)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(`{"username":"ghost","password":"x"}`))
	req.RemoteAddr = "198.51.100.1:1234"
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected throttle on third attempt, got %d", rec.Code)
	}

	other := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(`{"username":"ghost","password":"x"}`))
	other.RemoteAddr = "198.51.100.2:1234"
	rec = httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, other)
	if rec.Code == http.StatusTooManyRequests {
		t.Fatal("different IP should not share the login bucket")
	}
}

func TestGlobalRateLimit(t *testing.T) {
	rl, err := newRateLimiter(RateLimitConfig{GlobalRPS: 1, GlobalBurst: 1})
	if err != nil {
		t.Fatalf("newRateLimiter error: %v", err)
	}
	handler := rateLimitMiddleware(rl, nil, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/videos", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/videos", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status %d", rec.Code)
	}
}

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{name: "remote addr only", remoteAddr: "203.0.113.9:4321", want: "203.0.113.9"},
		{name: "forwarded first hop", remoteAddr: "10.0.0.1:1", forwarded: "203.0.113.7, 10.0.0.1", want: "203.0.113.7"},
		{name: "real ip header", remoteAddr: "10.0.0.1:1", realIP: "203.0.113.8", want: "203.0.113.8"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := extractClientIP(req); got != tc.want {
				t.Fatalf("extractClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestShouldAudit(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   bool
	}{
		{http.MethodGet, "/videos", false},
		{http.MethodPost, "/videos", true},
		{http.MethodPost, "/healthz", false},
		{http.MethodDelete, "/playlists/abc", true},
		{http.MethodHead, "/users/c/alice", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if got := shouldAudit(req); got != tc.want {
			t.Errorf("shouldAudit(%s %s) = %v, want %v", tc.method, tc.path, got, tc.want)
		}
	}
}
