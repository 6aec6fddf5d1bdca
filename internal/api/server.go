// Package api serves drainfield selection over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/redbay-eng/drainfield-placer/internal/catalog"
	"github.com/redbay-eng/drainfield-placer/internal/placer"
)

// maxBodyBytes bounds request bodies; CAD documents with many polylines fit
// comfortably.
const maxBodyBytes = 10 << 20

// Options configures the router.
type Options struct {
	// RateLimit is requests per second per client. Zero disables limiting.
	RateLimit float64
	Burst     int
	// CORSOrigins lists allowed origins. Empty allows any.
	CORSOrigins []string
	// BoundaryLayer names the CAD layer read from request documents.
	BoundaryLayer string
}

// Server holds the handler dependencies.
type Server struct {
	svc     *placer.Service
	catalog *catalog.Catalog
	opts    Options
	log     *zap.Logger
}

// NewRouter returns the HTTP handler for the API.
func NewRouter(svc *placer.Service, cat *catalog.Catalog, opts Options) http.Handler {
	s := &Server{
		svc:     svc,
		catalog: cat,
		opts:    opts,
		log:     zap.L().With(zap.String("component", "api")),
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(newClientLimiter(opts.RateLimit, opts.Burst).middleware)
		}
		r.Post("/select", s.handleSelect)
		r.Post("/place", s.handlePlace)
		r.Post("/sizing", s.handleSizing)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
