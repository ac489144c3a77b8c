package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/campusclinic/libs/auth"
	"github.com/md-rashed-zaman/campusclinic/libs/runtime"
)

func testHandler(t *testing.T, ready ...runtime.ReadyCheck) http.Handler {
	t.Helper()
	issuer, err := auth.NewIssuer("routes-test-secret-0123", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	return buildHandler(routeDeps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Settings: settings{BodyLimit: 1 << 20, RequestTimeout: time.Second},
		Verifier: issuer,
		Ready:    ready,
	})
}

func TestHealthAndReady(t *testing.T) {
	h := testHandler(t, runtime.ReadyCheck{Name: "db", Check: func(context.Context) error { return errors.New("down") }})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"db":"down"`) {
		t.Fatalf("readyz: expected 503 naming db, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json error, got %q", ct)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestAPIRoutesRequireAuth(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://portal.campus.test/"})
	cases := []struct {
		origin, host string
		want         bool
	}{
		{"", "api.campus.test", true},
		{"https://portal.campus.test", "api.campus.test", true},
		{"https://evil.test", "api.campus.test", false},
		{"https://api.campus.test", "api.campus.test", true},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/notifications/stream", nil)
		r.Host = tc.host
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		if got := check(r); got != tc.want {
			t.Fatalf("origin %q host %q: expected %v, got %v", tc.origin, tc.host, tc.want, got)
		}
	}
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://clinic@localhost/clinic")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("CLINIC_TIMEZONE", "Asia/Dhaka")

	s, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings failed: %v", err)
	}
	if s.Port != "8080" || !s.Migrate || s.RequestTimeout != 15*time.Second || s.Location.String() != "Asia/Dhaka" {
		t.Fatalf("unexpected settings: %+v", s)
	}

	t.Setenv("PORT", "99999")
	t.Setenv("CLINIC_TIMEZONE", "Mars/Olympus")
	t.Setenv("JWT_SECRET", "")
	_, err = loadSettings()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"PORT", "JWT_SECRET", "CLINIC_TIMEZONE"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %q", want, err.Error())
		}
	}
}
