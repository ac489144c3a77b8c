package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/md-rashed-zaman/campusclinic/libs/auth"
	"github.com/md-rashed-zaman/campusclinic/libs/config"
	"github.com/md-rashed-zaman/campusclinic/libs/db"
	"github.com/md-rashed-zaman/campusclinic/libs/httpx"
	otelx "github.com/md-rashed-zaman/campusclinic/libs/otel"
	"github.com/md-rashed-zaman/campusclinic/libs/runtime"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/accounts"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/booking"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/content"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/notify"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/outbox"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/scheduling"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/sms"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.Load(); err != nil {
		slog.Error("load env file", "err", err)
		os.Exit(1)
	}
	cfg, err := loadSettings()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := runtime.NewLogger(cfg.Service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelCfg, err := otelx.ConfigFromEnv(cfg.Service)
	if err != nil {
		logger.Error("invalid tracing configuration", "err", err)
		os.Exit(1)
	}
	otelShutdown, err := otelx.Setup(ctx, otelCfg)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Migrate {
		if err := storage.Migrate(ctx, pool, logger); err != nil {
			logger.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Error("jwt issuer init failed", "err", err)
		os.Exit(1)
	}

	store := storage.New(pool)
	hub := notify.NewHub(logger, originChecker(cfg.CORSOrigins))
	sender := sms.NewSender(cfg.SMSWebhookURL, cfg.SMSWebhookToken)
	dispatcher := notify.NewDispatcher(hub, sender, store, logger)

	accountSvc := accounts.NewService(store.Accounts(), issuer)
	bookingSvc := booking.NewService(store.Booking(), dispatcher, logger, booking.WithLocation(cfg.Location))
	schedulingSvc := scheduling.NewService(store.Scheduling(), logger, scheduling.WithLocation(cfg.Location))
	contentSvc := content.NewService(store.Content())

	publisher := outbox.NewPublisher(pool, outbox.NewRepository(), logger, outbox.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: cfg.OutboxPollEvery,
		BatchSize: 50,
	})
	go publisher.Run(ctx)

	var rdb *redis.Client
	authLimiter := httpx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		authLimiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "clinic-auth").Middleware(logger, true)
		logger.Info("auth rate limiting enabled (redis)", "per_minute", cfg.RateLimitPerMinute)
	} else {
		logger.Info("auth rate limiting enabled (in-memory)", "rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	}

	handler := buildHandler(routeDeps{
		Logger:      logger,
		Settings:    cfg,
		Verifier:    accounts.NewLiveVerifier(issuer, store.Accounts()),
		AuthLimiter: authLimiter,
		Accounts:    accountSvc,
		Bookings:    bookingSvc,
		Scheduling:  schedulingSvc,
		Content:     contentSvc,
		Stream:      hub,
		Ready:       readyChecks(pool, cfg.KafkaBrokers, rdb),
	})
	handler = otelhttp.NewHandler(handler, "clinic")

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("clinic service configured", "timezone", cfg.Location.String(), "migrate", cfg.Migrate)
	runtime.Serve(ctx, stop, srv, logger, 10*time.Second)
}
