package http

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"daily-problem-service/internal/app"
	"daily-problem-service/internal/infra/filesystem"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// ProblemsDir enables image serving from the bundle tree when non-empty.
	ProblemsDir string
	AssetPrefix string
	// TrustProxy keys clients on X-Forwarded-For/X-Real-IP instead of the socket address.
	TrustProxy bool
	Logger     *slog.Logger
}

// NewRouter wires the API, websocket feed, static images, health and metrics.
func NewRouter(service *app.ProblemService, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	if opts.TrustProxy {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(requestLogger(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	NewAPIHandler(service, logger).RegisterRoutes(r)
	r.Get("/ws", NewWSHandler(service, logger).ServeWS)

	if opts.ProblemsDir != "" {
		prefix := strings.TrimRight(opts.AssetPrefix, "/")
		if prefix == "" {
			prefix = "/problems"
		}
		r.Get(prefix+"/{index}/"+filesystem.ImageFile, problemImage(opts.ProblemsDir))
	}
	return r
}

// problemImage serves only the image artifact; the other bundle files hold the answer.
func problemImage(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil || index < 1 {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, strconv.Itoa(index), filesystem.ImageFile))
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"remote", r.RemoteAddr,
				"request_id", chiMiddleware.GetReqID(r.Context()),
				"duration", time.Since(start))
		})
	}
}
