package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsRequest(t *testing.T, allowed []string, method, origin string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(method, "/api/bookings", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	rec := httptest.NewRecorder()
	CORS(allowed)(handler).ServeHTTP(rec, req)
	return rec, called
}

func TestCORSOrigins(t *testing.T) {
	site := "https://goldtouchmobile.com"
	cases := []struct {
		name      string
		allowed   []string
		origin    string
		wantAllow string
	}{
		{"listed origin echoed", []string{site}, site, site},
		{"unlisted origin gets nothing", []string{site}, "https://spoof.example", ""},
		{"wildcard echoes any origin", []string{"*"}, "https://anything.example", "https://anything.example"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, called := corsRequest(t, tc.allowed, http.MethodPost, tc.origin)
			if !called {
				t.Fatalf("expected handler to run")
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantAllow {
				t.Fatalf("allow origin = %q, want %q", got, tc.wantAllow)
			}
		})
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	site := "https://goldtouchmobile.com"
	rec, called := corsRequest(t, []string{site}, http.MethodOptions, site)

	if called {
		t.Fatalf("preflight must not reach the handler")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatalf("expected allow methods header on preflight")
	}
}
