package main

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/md-rashed-zaman/campusclinic/libs/auth"
	"github.com/md-rashed-zaman/campusclinic/libs/db"
	"github.com/md-rashed-zaman/campusclinic/libs/httpx"
	"github.com/md-rashed-zaman/campusclinic/libs/kafkax"
	"github.com/md-rashed-zaman/campusclinic/libs/runtime"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/handlers"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	Logger      *slog.Logger
	Settings    settings
	Verifier    auth.Verifier
	AuthLimiter httpx.Middleware

	Accounts   handlers.AccountService
	Bookings   handlers.BookingService
	Scheduling handlers.SchedulingService
	Content    handlers.ContentService
	Stream     handlers.Streamer

	Ready []runtime.ReadyCheck
}

// buildHandler assembles the API router and the shared middleware chain.
func buildHandler(d routeDeps) http.Handler {
	base := runtime.NewBaseMuxWithReady(d.Ready...)
	r := mux.NewRouter()
	r.Handle("/healthz", base).Methods(http.MethodGet)
	r.Handle("/readyz", base).Methods(http.MethodGet)

	handlers.NewRouter(r, handlers.RouterConfig{
		Auth:        handlers.NewAuthHandler(d.Accounts, d.Logger),
		Staff:       handlers.NewStaffHandler(d.Scheduling, d.Bookings, d.Accounts, d.Logger),
		Student:     handlers.NewStudentHandler(d.Bookings, d.Content, d.Logger),
		Content:     handlers.NewContentHandler(d.Content, d.Stream, d.Logger),
		Admin:       handlers.NewAdminHandler(d.Accounts, d.Bookings, d.Content, d.Logger),
		Verifier:    d.Verifier,
		AuthLimiter: d.AuthLimiter,
		Timeout:     d.Settings.RequestTimeout,
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return httpx.Chain(r,
		httpx.WithCORS(httpx.DefaultCORSPolicy(d.Settings.CORSOrigins)),
		httpx.WithRequestID,
		httpx.WithAccessLog(d.Logger),
		httpx.WithRecover(d.Logger),
		httpx.WithBodyLimit(d.Settings.BodyLimit),
	)
}

func readyChecks(pool *db.Pool, brokers string, rdb *redis.Client) []runtime.ReadyCheck {
	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if strings.TrimSpace(brokers) != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	if rdb != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}
	return checks
}

// originChecker gates websocket upgrades with the CORS allow-list. With no
// list configured only same-host or origin-less clients are accepted.
func originChecker(allowed []string) func(*http.Request) bool {
	set := map[string]struct{}{}
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
