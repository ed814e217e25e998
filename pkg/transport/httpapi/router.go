package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coldvault/core/internal/logger"
)

// NewBucketRouter builds the chi router serving one bucket's wire
// operations, with the teacher's standard request-id/logging/recovery
// middleware stack.
func NewBucketRouter(h *BucketHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", healthz)

	r.Route("/api/v1", func(api chi.Router) {
		h.Routes(api)
	})
	return r
}

// NewIndexRouter builds the chi router serving the index's wire operations.
func NewIndexRouter(h *IndexHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", healthz)

	r.Route("/api/v1", func(api chi.Router) {
		h.Routes(api)
	})
	return r
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// requestLogger logs request start at DEBUG and request completion at INFO,
// mirroring the control-plane's own request logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("request started", logger.RequestID(requestID), "method", r.Method, "path", r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("request completed",
			logger.RequestID(requestID), "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), logger.DurationMs(logger.Duration(start)),
		)
	})
}
