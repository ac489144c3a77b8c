package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/campusclinic/libs/config"
)

type settings struct {
	Service     string
	Port        string
	DatabaseURL string
	DBMaxConns  int32
	Migrate     bool

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigins        []string
	RateLimitRPS       float64
	RateLimitBurst     int
	RateLimitPerMinute int
	RedisURL           string
	BodyLimit          int64
	RequestTimeout     time.Duration

	KafkaBrokers    string
	OutboxPollEvery time.Duration

	SMSWebhookURL   string
	SMSWebhookToken string

	Location *time.Location
}

// loadSettings reads the environment. Every malformed value is reported at
// once so a bad deploy fails with the full list.
func loadSettings() (settings, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	s := settings{
		Service:         config.String("SERVICE_NAME", "clinic-service"),
		CORSOrigins:     config.List("CORS_ALLOWED_ORIGINS"),
		RedisURL:        config.String("REDIS_URL", ""),
		KafkaBrokers:    config.String("KAFKA_BROKERS", ""),
		SMSWebhookURL:   config.String("SMS_WEBHOOK_URL", ""),
		SMSWebhookToken: config.String("SMS_WEBHOOK_TOKEN", ""),
	}
	var err error
	s.Port, err = config.Port("PORT", "8080")
	collect(err)
	s.DatabaseURL, err = config.RequiredString("DATABASE_URL")
	collect(err)
	s.JWTSecret, err = config.RequiredString("JWT_SECRET")
	collect(err)
	s.Migrate, err = config.Bool("DB_MIGRATE", true)
	collect(err)
	maxConns, err := config.Int("DB_MAX_CONNS", 10)
	collect(err)
	s.DBMaxConns = int32(maxConns)
	s.JWTTTL, err = config.Duration("JWT_TTL", 24*time.Hour)
	collect(err)
	s.RateLimitRPS, err = config.Float("RATE_LIMIT_RPS", 5)
	collect(err)
	s.RateLimitBurst, err = config.Int("RATE_LIMIT_BURST", 10)
	collect(err)
	s.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 60)
	collect(err)
	s.RequestTimeout, err = config.Duration("REQUEST_TIMEOUT", 15*time.Second)
	collect(err)
	s.OutboxPollEvery, err = config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second)
	collect(err)
	bodyLimit, err := config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20)
	collect(err)
	s.BodyLimit = int64(bodyLimit)
	if s.BodyLimit <= 0 {
		collect(errors.New("REQUEST_BODY_LIMIT_BYTES must be positive"))
	}

	zone := config.String("CLINIC_TIMEZONE", "UTC")
	s.Location, err = time.LoadLocation(zone)
	if err != nil {
		collect(fmt.Errorf("CLINIC_TIMEZONE %q: %w", zone, err))
	}
	return s, errors.Join(errs...)
}
