package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
	})

	rr := httptest.NewRecorder()
	RequestID(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Error("Expected a generated request id")
	}
	if rr.Header().Get("X-Request-ID") != seen {
		t.Error("Expected the same id on the response header")
	}
}

func TestRequestIDPreserved(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-id")

	rr := httptest.NewRecorder()
	RequestID(okHandler()).ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "client-id" {
		t.Errorf("Expected client id preserved, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	rr := httptest.NewRecorder()

	CORS("http://localhost:3000")(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Unexpected allow-origin: %q", got)
	}
}

func TestJWTAuthDisabledPassesThrough(t *testing.T) {
	auth := NewJWTAuth("")

	rr := httptest.NewRecorder()
	auth.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected pass-through without a secret, got %d", rr.Code)
	}
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	auth := NewJWTAuth("secret")

	rr := httptest.NewRecorder()
	auth.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a token, got %d", rr.Code)
	}
}

func TestJWTAuthAcceptsIssuedToken(t *testing.T) {
	auth := NewJWTAuth("secret")

	token, err := auth.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	auth.Middleware(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected issued token accepted, got %d", rr.Code)
	}

	if err := auth.VerifyToken(token); err != nil {
		t.Errorf("Expected VerifyToken to accept the issued token: %v", err)
	}
}

func TestJWTAuthRejectsForeignToken(t *testing.T) {
	other := NewJWTAuth("other-secret")
	token, _ := other.GenerateToken()

	auth := NewJWTAuth("secret")
	if err := auth.VerifyToken(token); err == nil {
		t.Error("Expected a token signed with a different secret to be rejected")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	handler := rl.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 over the limit, got %d", rr.Code)
	}

	// A different client is unaffected.
	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected other client unaffected, got %d", rr.Code)
	}
}
