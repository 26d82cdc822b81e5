// 文件路径: internal/api/router.go
// 模块说明: 这是 internal 模块里的 router 逻辑，组装中间件链与偏好相关路由。
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creamcroissant/xpref/internal/api/cookie"
	"github.com/creamcroissant/xpref/internal/api/handler"
	"github.com/creamcroissant/xpref/internal/api/middleware"
	"github.com/creamcroissant/xpref/internal/config"
	"github.com/creamcroissant/xpref/internal/service"
	"github.com/creamcroissant/xpref/internal/support/i18n"
)

var healthPaths = []string{"/health", "/healthz", "/_internal/ready", "/metrics"}

// Services 是路由依赖的组件集合。
type Services struct {
	Preferences service.PreferenceService
	Codec       *service.PreferenceCodec
	Tokens      middleware.TokenVerifier
	I18n        *i18n.Manager
	// Ready reports dependency health for /_internal/ready; nil means always ready.
	Ready func(*http.Request) error
}

// Metrics 指定 Prometheus 注册表；nil 时使用默认注册表。
type Metrics struct {
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter wires the middleware chain and routes.
func NewRouter(logger *slog.Logger, services Services, cfg *config.Config, metrics Metrics) (http.Handler, error) {
	if services.Preferences == nil {
		panic("router requires PreferenceService")
	}
	if services.Codec == nil {
		panic("router requires PreferenceCodec")
	}
	if services.I18n == nil {
		panic("router requires I18n Manager")
	}
	if logger == nil {
		logger = slog.Default()
	}
	sameSite, err := cfg.Cookie.SameSiteMode()
	if err != nil {
		return nil, err
	}
	cookieOpts := cookie.Options{
		Path:     cfg.Cookie.Path,
		Domain:   cfg.Cookie.Domain,
		Secure:   cfg.Cookie.Secure,
		HTTPOnly: cfg.Cookie.HTTPOnly,
		SameSite: sameSite,
	}

	r := chi.NewRouter()
	r.Use(
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
	)

	if cfg.Metrics.Enabled {
		m := middleware.NewMetrics(middleware.MetricsConfig{
			Namespace:  cfg.Metrics.Namespace,
			Subsystem:  cfg.Metrics.Subsystem,
			Buckets:    cfg.Metrics.Buckets,
			SkipPaths:  healthPaths,
			Registerer: metrics.Registerer,
		})
		r.Use(m.Middleware)
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.CORS(middleware.CORSConfig{
			AllowedOrigins:   cfg.HTTP.AllowedOrigins,
			AllowCredentials: cfg.HTTP.AllowCredentials,
		}),
		middleware.BodyLimit(cfg.HTTP.MaxBodyBytes),
		// 语言检测放在限流之前，限流提示也能按请求语言输出
		middleware.Language(services.Codec, cfg.Cookie.Name),
	}
	if cfg.RateLimit.Enabled {
		middlewares = append(middlewares, middleware.RateLimit(middleware.RateLimitConfig{
			Limit:      cfg.RateLimit.Limit,
			Window:     cfg.RateLimit.Window,
			SkipPaths:  healthPaths,
			Translator: services.I18n,
		}))
	}
	middlewares = append(middlewares,
		middleware.StructuredLogger(middleware.LoggingConfig{
			Logger:        logger,
			SlowThreshold: 500 * time.Millisecond,
			SkipPaths:     healthPaths,
		}),
		chiMiddleware.Recoverer,
	)
	r.Use(middlewares...)

	health := func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
	r.Get("/healthz", health)
	// Alias for Docker health check
	r.Get("/health", health)

	r.Get("/_internal/ready", func(w http.ResponseWriter, req *http.Request) {
		if services.Ready != nil {
			if err := services.Ready(req); err != nil {
				logger.Warn("readiness check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	if cfg.Metrics.Enabled {
		gatherer := metrics.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		metricsHandler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
		if cfg.Metrics.Token != "" {
			r.With(middleware.MetricsGuard(cfg.Metrics.Token)).Handle("/metrics", metricsHandler)
		} else {
			r.Handle("/metrics", metricsHandler)
		}
	}

	prefHandler := handler.NewPreferenceHandler(services.Preferences, cookieOpts, services.I18n, logger)
	localeHandler := handler.NewLocaleHandler(services.I18n)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/locales", localeHandler.List)
		api.Group(func(authed chi.Router) {
			authed.Use(middleware.Identity(services.Tokens, services.I18n, logger))
			authed.Get("/preference", prefHandler.Get)
			authed.Post("/preference", prefHandler.Update)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		logger.Warn("unmapped route hit", "method", req.Method, "path", req.URL.Path)
		handler.RespondNotFound(services.I18n)(w, req)
	})

	return r, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
