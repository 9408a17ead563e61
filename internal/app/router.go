package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/checkout"
	"github.com/noah-isme/toko-checkout/internal/health"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/ratelimit"
	"github.com/noah-isme/toko-checkout/internal/receipt"
	"github.com/noah-isme/toko-checkout/internal/security"
)

// NewRouter mounts health, metrics and the /api/v1 checkout routes.
func NewRouter(deps *Dependencies, store *Store) http.Handler {
	cfg := deps.Config
	svc := checkout.NewService(store.Reader, store.Offers, deps.Logger)
	checkoutHandler := &checkout.Handler{
		Service:  svc,
		Printer:  receipt.Printer{Columns: cfg.ReceiptColumns},
		Validate: deps.Validator,
		Limits: cart.Limits{
			MaxQuantity:       decimal.NewFromInt(int64(cfg.MaxItemQuantity)),
			MaxFractionDigits: int32(cfg.QuantityDecimals),
		},
	}
	healthHandler := health.Handler{Probes: store.Probes}

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.EnablePrometheus {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBucketsMS), deps.MetricsRegistry)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Obs.EnableTracing {
		r.Use(obs.Tracing("toko-checkout"))
	}
	r.Use(obs.RoutePatternMiddleware(r))
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: deps.Logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeaders, EnableHSTS: cfg.EnableHSTS}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Receipt-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if cfg.Obs.EnablePrometheus {
		r.Handle("/metrics", metricsHandler(deps.Gatherer))
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	limit := ratelimit.Handler{
		Limiter: deps.Limiter,
		OnError: func(err error) {
			deps.Logger.Warn().Err(err).Msg("rate_limit_store_error")
		},
	}
	r.Route("/api/v1", func(v chi.Router) {
		v.With(limit.Middleware, security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware).
			Post("/checkout", checkoutHandler.Checkout)
		v.Get("/offers", checkoutHandler.Offers)
		v.Get("/products/{unit}/{name}/price", checkoutHandler.ProductPrice)
	})
	return r
}

func metricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
