package httpx

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(okHandler(), mk("a"), mk("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(order, ",") != "a,b" {
		t.Fatalf("expected a,b got %v", order)
	}
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if seen != "abc" || rw.Header().Get(RequestIDHeader) != "abc" {
		t.Fatalf("expected inbound id to be kept, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if len(seen) != 36 {
		t.Fatalf("expected generated uuid for oversized id, got %q", seen)
	}
}

func TestWithRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := WithRecover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rw.Code)
	}
	if !strings.Contains(buf.String(), "http handler panic") {
		t.Fatalf("expected panic to be logged, got %s", buf.String())
	}
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware()(okHandler())

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		return rw.Code
	}
	if do() != http.StatusOK || do() != http.StatusOK {
		t.Fatal("expected first two requests to pass")
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	now = now.Add(61 * time.Second)
	if code := do(); code != http.StatusOK {
		t.Fatalf("expected new window to pass, got %d", code)
	}
}

func TestWithCORS(t *testing.T) {
	h := WithCORS(CORSPolicy{
		AllowedOrigins: SplitList("https://app.padel.example, https://*.clubs.example"),
		AllowedMethods: []string{"GET", "POST"},
	})(okHandler())

	cases := map[string]string{
		"https://app.padel.example":   "https://app.padel.example",
		"https://norte.clubs.example": "https://norte.clubs.example",
		"https://clubs.example":       "",
		"https://evil.example":        "",
	}
	for origin, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", origin)
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		if got := rw.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Fatalf("origin %s: expected %q, got %q", origin, want, got)
		}
	}

	pre := httptest.NewRequest(http.MethodOptions, "/", nil)
	pre.Header.Set("Origin", "https://app.padel.example")
	pre.Header.Set("Access-Control-Request-Method", "POST")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, pre)
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rw.Code)
	}
}
