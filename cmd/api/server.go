package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"wpdesk/internal/config"
	"wpdesk/internal/domain/entity"
	hhttp "wpdesk/internal/handler/http"
	"wpdesk/internal/handler/http/auth"
	himages "wpdesk/internal/handler/http/images"
	"wpdesk/internal/handler/http/mediaproxy"
	"wpdesk/internal/handler/http/middleware"
	"wpdesk/internal/handler/http/pathutil"
	hposts "wpdesk/internal/handler/http/posts"
	"wpdesk/internal/handler/http/requestid"
	hsites "wpdesk/internal/handler/http/sites"
	pgRepo "wpdesk/internal/infra/adapter/persistence/postgres"
	sqliteRepo "wpdesk/internal/infra/adapter/persistence/sqlite"
	"wpdesk/internal/infra/db"
	"wpdesk/internal/infra/imageprovider"
	"wpdesk/internal/infra/queue"
	"wpdesk/internal/infra/wordpress"
	"wpdesk/internal/observability/tracing"
	"wpdesk/internal/repository"
	"wpdesk/internal/resilience/retry"
	"wpdesk/internal/usecase/imagesearch"
	postUC "wpdesk/internal/usecase/post"
	siteUC "wpdesk/internal/usecase/site"
	"wpdesk/pkg/ratelimit"
	"wpdesk/pkg/security/csp"
)

// Admission groups. Each client gets an independent budget per group.
const (
	groupImages     = "images"
	groupSites      = "sites"
	groupMediaProxy = "media-proxy"

	proxyPath = "/media/proxy"
)

// application is everything runServer needs to serve and shut down.
type application struct {
	handler   http.Handler
	queues    []*queue.Queue
	limiter   *ratelimit.Limiter
	sites     *siteUC.Service
	db        store
	providers []string
}

func build(logger *slog.Logger, cfg *config.Config, st store) (*application, error) {
	registry, queues, err := buildProviders(cfg)
	if err != nil {
		return nil, err
	}

	var repo repository.SiteRepository
	if st.dialect == db.Postgres {
		repo = pgRepo.NewSiteRepo(st.db)
	} else {
		repo = sqliteRepo.NewSiteRepo(st.db)
	}

	connector := wordpress.NewConnector(wordpressOptions(cfg)...)
	siteSvc := &siteUC.Service{
		Repo: repo,
		Verify: func(ctx context.Context, site *entity.Site) error {
			_, err := connector.Client(site).VerifyCredentials(ctx)
			return err
		},
	}
	postSvc := &postUC.Service{
		Sites:   siteSvc,
		Connect: func(site *entity.Site) postUC.CMS { return connector.Client(site) },
	}
	searchSvc := &imagesearch.Service{Registry: registry, ProxyPath: proxyPath}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		MaxRequests: cfg.Admission.MaxRequests,
		Window:      cfg.Admission.Window,
		MaxKeys:     cfg.Admission.MaxKeys,
	}, ratelimit.WithMetrics(ratelimit.NewPrometheusMetrics("admission", prometheus.DefaultRegisterer)))

	ips, err := ipExtractor(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}
	guard := func(group string) func(http.Handler) http.Handler {
		return middleware.Admission(limiter, group, ips)
	}

	mux := http.NewServeMux()
	himages.Register(mux, searchSvc, guard(groupImages))
	hsites.Register(mux, siteSvc, guard(groupSites))
	hposts.Register(mux, postSvc, guard(groupSites))
	mediaproxy.Register(mux, mediaproxy.New(registry), guard(groupMediaProxy))

	mux.Handle("GET /health", &hhttp.HealthHandler{
		DB:        st.db,
		Version:   cfg.Server.Version,
		Providers: registry,
		Queues:    queues,
	})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: st.db})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	authn := func(next http.Handler) http.Handler { return next }
	if cfg.Auth.Enabled() {
		a, err := auth.New(cfg.Auth.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("JWT_SECRET: %w", err)
		}
		authn = a.Middleware
	} else {
		logger.Warn("JWT_SECRET not set: API is unauthenticated")
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.Server.CORSOrigins

	handler := hhttp.Chain(mux,
		csp.Headers(csp.APIPolicy()),
		middleware.CORS(cors),
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Logging(logger),
		hhttp.Recover(logger),
		hhttp.MetricsMiddleware,
		routeLimits(cfg.Server),
		authn,
	)

	var configured []string
	for _, p := range registry.All() {
		if p.Configured() {
			configured = append(configured, p.Name())
		}
	}

	return &application{
		handler:   handler,
		queues:    queues,
		limiter:   limiter,
		sites:     siteSvc,
		db:        st,
		providers: configured,
	}, nil
}

// buildProviders creates every stock-image adapter. Their HTTP clients carry
// the inbound request id onto provider calls. Each owns its token cache
// or queue; the returned queues must be started and closed by the caller.
func buildProviders(cfg *config.Config) (*imageprovider.Registry, []*queue.Queue, error) {
	pix := cfg.For(config.ProviderPixabay)
	pixabayQueue := queue.New(imageprovider.NamePixabay, queue.Options{
		Pace:  rate.Limit(pix.Pace),
		Burst: pix.Burst,
	})

	registry, err := imageprovider.NewRegistry(
		imageprovider.NewOpenverse(cfg.Providers.OpenverseClientID, cfg.Providers.OpenverseClientSecret,
			providerConfig(cfg, config.ProviderOpenverse)),
		imageprovider.NewPixabay(cfg.Providers.PixabayAPIKey, pixabayQueue,
			providerConfig(cfg, config.ProviderPixabay)),
		imageprovider.NewUnsplash(cfg.Providers.UnsplashAccessKey,
			providerConfig(cfg, config.ProviderUnsplash)),
		imageprovider.NewPexels(cfg.Providers.PexelsAPIKey,
			providerConfig(cfg, config.ProviderPexels)),
	)
	if err != nil {
		return nil, nil, err
	}
	return registry, []*queue.Queue{pixabayQueue}, nil
}

func providerConfig(cfg *config.Config, name string) imageprovider.Config {
	r := cfg.For(name)
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = imageprovider.DefaultTimeout
	}
	return imageprovider.Config{
		BaseURL:    r.BaseURL,
		HTTPClient: requestid.Client(timeout),
		Retry: retry.Config{
			MaxRetries: r.MaxRetries,
			BaseDelay:  r.BaseDelay,
			MaxDelay:   r.MaxDelay,
		},
	}
}

func wordpressOptions(cfg *config.Config) []wordpress.Option {
	r := cfg.For(config.ProviderWordPress)
	rc := retry.CMSConfig()
	rc.MaxRetries = r.MaxRetries
	rc.BaseDelay = r.BaseDelay
	if r.MaxDelay > 0 {
		rc.MaxDelay = r.MaxDelay
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = wordpress.DefaultTimeout
	}
	return []wordpress.Option{
		wordpress.WithRetry(rc),
		wordpress.WithHTTPClient(requestid.Client(timeout)),
		wordpress.WithUploadHTTPClient(requestid.Client(wordpress.UploadTimeout)),
	}
}

func ipExtractor(trusted []string) (middleware.IPExtractor, error) {
	if len(trusted) == 0 {
		return &middleware.RemoteAddrExtractor{}, nil
	}
	prefixes, err := middleware.ParseTrustedProxies(trusted)
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	return middleware.NewTrustedProxyExtractor(prefixes), nil
}

// routeLimits applies the body and time limits. Media uploads get the upload
// budget; every other route gets the ordinary one.
func routeLimits(s config.Server) func(http.Handler) http.Handler {
	const uploadRoute = "/sites/:id/media"
	uploadBody := int64(wordpress.MaxUploadSize) + 1<<20

	return func(next http.Handler) http.Handler {
		std := hhttp.Chain(next, hhttp.InputValidation(s.MaxBodyBytes), hhttp.Timeout(s.RequestTimeout))
		upload := hhttp.Chain(next, hhttp.InputValidation(uploadBody), hhttp.Timeout(s.UploadTimeout))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && pathutil.NormalizePath(r.URL.Path) == uploadRoute {
				upload.ServeHTTP(w, r)
				return
			}
			std.ServeHTTP(w, r)
		})
	}
}
