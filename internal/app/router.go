package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/api-telemetry/internal/adapter/httpserver"
	"github.com/fairyhunter13/api-telemetry/internal/adapter/observability"
	"github.com/fairyhunter13/api-telemetry/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// CaptureOptions maps configuration onto capture middleware options.
func CaptureOptions(cfg config.Config) []httpserver.CaptureOption {
	return []httpserver.CaptureOption{
		httpserver.WithMaxBodyBytes(cfg.CaptureMaxBodyBytes),
		httpserver.WithMaxRequestBytes(cfg.CaptureMaxRequestBytes),
		httpserver.WithJSONNormalization(cfg.CaptureNormalizeJSON),
		httpserver.WithRedactedHeaders(cfg.CaptureRedactHeaders...),
		httpserver.WithFaultHook(observability.RecordCaptureFault),
	}
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
// Extra capture options are appended after the configuration-derived ones.
func BuildRouter(cfg config.Config, srv *httpserver.Server, extra ...httpserver.CaptureOption) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.RequestID())
	if cfg.RequestTimeout > 0 {
		r.Use(httpserver.TimeoutMiddleware(cfg.RequestTimeout))
	}
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id", "Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httpserver.CaptureMiddleware(append(CaptureOptions(cfg), extra...)...))

	var mutate []func(http.Handler) http.Handler
	if cfg.RateLimitPerMin > 0 {
		mutate = append(mutate, httprate.Limit(cfg.RateLimitPerMin, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(httpserver.TooManyRequests),
		))
	}
	srv.MountProducts(r, mutate...)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })
	r.Get("/openapi.yaml", srv.OpenAPIServe())

	return httpserver.SecurityHeaders(r)
}
