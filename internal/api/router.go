package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/orderwatch/dupguard/internal/config"
	"github.com/orderwatch/dupguard/internal/detection"
	"github.com/orderwatch/dupguard/internal/repository"
)

type RouterOptions struct {
	Defaults    config.Settings
	MaxUploadMB int
	Logger      *zap.Logger
}

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(runs *repository.RunRepo, svc *detection.Service, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxUpload := int64(opts.MaxUploadMB) << 20
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}

	h := &Handlers{
		runs:      runs,
		svc:       svc,
		defaults:  opts.Defaults,
		maxUpload: maxUpload,
		logger:    logger.Named("api"),
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Reports.
		r.Post("/reports/detect", h.DetectReport)
		r.Post("/reports/dispatch", h.Dispatch)

		// Runs.
		r.Get("/runs", h.ListRuns)
		r.Route("/runs/{id}", func(r chi.Router) {
			r.Get("/", h.GetRun)
			r.Get("/exact", h.GetExact)
			r.Get("/similar", h.GetSimilar)
			r.Get("/clients", h.GetClients)
			r.Get("/message", h.GetMessage)
		})
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
