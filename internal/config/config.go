// Package config assembles the service configuration from the environment
// and an optional provider overrides file.
package config

import (
	"fmt"
	"time"

	pkgconfig "wpdesk/internal/pkg/config"
	envconfig "wpdesk/pkg/config"
)

// Config is the complete runtime configuration.
type Config struct {
	Server    Server
	Database  Database
	Auth      Auth
	Admission Admission
	Retry     Retry
	Jobs      Jobs
	Providers Providers

	// Warnings lists settings that fell back to their default.
	Warnings []string
}

// Server configures the HTTP listener and the middleware chain.
type Server struct {
	Addr            string
	Version         string
	RequestTimeout  time.Duration
	UploadTimeout   time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	CORSOrigins     []string
	TrustedProxies  []string
}

// Database selects the site store. An empty URL means the default SQLite file.
type Database struct {
	URL string
}

// Auth enables bearer-token authentication when JWTSecret is set.
type Auth struct {
	JWTSecret string
}

// Enabled reports whether requests must carry a token.
func (a Auth) Enabled() bool { return a.JWTSecret != "" }

// Admission configures the inbound sliding-window limiter.
type Admission struct {
	MaxRequests int
	Window      time.Duration
	MaxKeys     int
}

// Retry holds the retry defaults shared by every upstream.
type Retry struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Jobs holds cron schedules for background maintenance.
type Jobs struct {
	LimiterCleanup string
	MetricsRefresh string
}

// Providers holds stock-image credentials and per-provider overrides.
// Every credential is optional; a provider without one is skipped.
type Providers struct {
	OpenverseClientID     string
	OpenverseClientSecret string
	PixabayAPIKey         string
	UnsplashAccessKey     string
	PexelsAPIKey          string

	Overrides map[string]ProviderSettings
}

// Load reads the configuration. Invalid values fall back to defaults and are
// reported in Warnings; only an unreadable or invalid PROVIDERS_CONFIG file is
// an error. m may be nil.
func Load(m *pkgconfig.Metrics) (*Config, error) {
	rec := pkgconfig.NewRecorder(m)
	positive := pkgconfig.ValidatePositiveDuration

	cfg := &Config{
		Server: Server{
			Addr:            envconfig.GetEnvString("HTTP_ADDR", ":8080"),
			Version:         envconfig.GetEnvString("VERSION", "dev"),
			RequestTimeout:  pkgconfig.Track(rec, pkgconfig.LoadEnvDuration("REQUEST_TIMEOUT", 60*time.Second, positive)),
			UploadTimeout:   pkgconfig.Track(rec, pkgconfig.LoadEnvDuration("UPLOAD_TIMEOUT", 150*time.Second, positive)),
			ShutdownTimeout: pkgconfig.Track(rec, pkgconfig.LoadEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second, positive)),
			MaxBodyBytes:    int64(pkgconfig.Track(rec, pkgconfig.LoadEnvInt("MAX_BODY_BYTES", 1<<20, pkgconfig.IntRange(1<<10, 64<<20)))),
			CORSOrigins:     envconfig.GetEnvStringList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			TrustedProxies:  envconfig.GetEnvStringList("TRUSTED_PROXIES", nil),
		},
		Database: Database{
			URL: envconfig.GetEnvString("DATABASE_URL", ""),
		},
		Auth: Auth{
			JWTSecret: envconfig.GetEnvString("JWT_SECRET", ""),
		},
		Admission: Admission{
			MaxRequests: pkgconfig.Track(rec, pkgconfig.LoadEnvInt("ADMISSION_MAX_REQUESTS", 100, pkgconfig.IntRange(1, 1_000_000))),
			Window:      pkgconfig.Track(rec, pkgconfig.LoadEnvDuration("ADMISSION_WINDOW", time.Minute, positive)),
			MaxKeys:     pkgconfig.Track(rec, pkgconfig.LoadEnvInt("ADMISSION_MAX_KEYS", 10000, pkgconfig.IntRange(1, 10_000_000))),
		},
		Retry: Retry{
			MaxRetries: pkgconfig.Track(rec, pkgconfig.LoadEnvInt("PROVIDER_MAX_RETRIES", 3, pkgconfig.IntRange(0, 10))),
			BaseDelay:  pkgconfig.Track(rec, pkgconfig.LoadEnvDuration("PROVIDER_BASE_DELAY", time.Second, positive)),
			MaxDelay:   pkgconfig.Track(rec, pkgconfig.LoadEnvDuration("PROVIDER_MAX_DELAY", 0, pkgconfig.DurationRange(0, 10*time.Minute))),
		},
		Jobs: Jobs{
			LimiterCleanup: pkgconfig.Track(rec, pkgconfig.LoadEnvString("LIMITER_CLEANUP_SCHEDULE", "@every 5m", pkgconfig.ValidateCronSchedule)),
			MetricsRefresh: pkgconfig.Track(rec, pkgconfig.LoadEnvString("METRICS_REFRESH_SCHEDULE", "@every 1m", pkgconfig.ValidateCronSchedule)),
		},
		Providers: Providers{
			OpenverseClientID:     envconfig.GetEnvString("OPENVERSE_CLIENT_ID", ""),
			OpenverseClientSecret: envconfig.GetEnvString("OPENVERSE_CLIENT_SECRET", ""),
			PixabayAPIKey:         envconfig.GetEnvString("PIXABAY_API_KEY", ""),
			UnsplashAccessKey:     envconfig.GetEnvString("UNSPLASH_ACCESS_KEY", ""),
			PexelsAPIKey:          envconfig.GetEnvString("PEXELS_API_KEY", ""),
		},
	}

	pixabayPace := pkgconfig.Track(rec, pkgconfig.LoadEnvFloat("PIXABAY_PACE", 0, pkgconfig.ValidateNonNegativeFloat))
	rec.Finish()
	cfg.Warnings = rec.Warnings

	overrides := map[string]ProviderSettings{}
	if path := envconfig.GetEnvString("PROVIDERS_CONFIG", ""); path != "" {
		var err error
		overrides, err = LoadProviderOverrides(path)
		if err != nil {
			return nil, fmt.Errorf("providers config: %w", err)
		}
	}
	if pixabayPace > 0 {
		s := overrides[ProviderPixabay]
		if s.Pace == 0 {
			s.Pace = pixabayPace
			overrides[ProviderPixabay] = s
		}
	}
	cfg.Providers.Overrides = overrides

	return cfg, nil
}
