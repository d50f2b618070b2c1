// Package api exposes the intake pipeline over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"invoice-intake/internal/common/logger"
)

// RouterOptions configures middleware shared by every route.
type RouterOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         logger.Logger
}

// NewRouter sets up the chi router with middleware and routes.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.HandleFunc("/submit-invoice", h.SubmitInvoice)
		r.Get("/brands", h.ListBrands)
		r.Get("/brands/{key}", h.GetBrand)
		r.Get("/health", h.Health)
	})

	return r
}

// requestLogger tags each request with an id and a scoped logger, then logs its completion.
func requestLogger(base logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			log := base.WithFields(map[string]interface{}{"requestId": id})
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(logger.IntoContext(r.Context(), log)))

			log.Info("Request completed", map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).Milliseconds(),
			})
		})
	}
}
