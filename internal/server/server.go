// Package server exposes the engine over HTTP so a declaration can be
// previewed without touching the file system.
//
// Routes:
//
//	GET  /healthz      liveness
//	GET  /v1/catalog   entities and rules in force
//	POST /v1/rewrite   {path, content} -> {content, changed, changes}
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/koustreak/idwiden/internal/catalog"
	"github.com/koustreak/idwiden/internal/engine"
	"github.com/koustreak/idwiden/internal/logger"
)

// Config controls the HTTP listener and the result cache.
type Config struct {
	Addr         string
	CacheSize    int
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig listens on :8080 and caches 256 previews.
func DefaultConfig() *Config {
	return &Config{
		Addr:         ":8080",
		CacheSize:    256,
		MaxBodyBytes: 4 << 20,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server serves previews for one catalog.
type Server struct {
	cfg   Config
	cat   *catalog.Catalog
	eng   *engine.Engine
	cache *lru.Cache[string, rewriteResponse]
	log   *logger.Logger

	httpServer *http.Server
}

// New builds the server. The engine must have been built over cat.
func New(cfg *Config, cat *catalog.Catalog, eng *engine.Engine, log *logger.Logger) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.Nop()
	}
	c := *cfg
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultConfig().CacheSize
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}

	cache, err := lru.New[string, rewriteResponse](c.CacheSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:   c,
		cat:   cat,
		eng:   eng,
		cache: cache,
		log:   log.Component("server"),
	}
	s.httpServer = &http.Server{
		Addr:         c.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
	return s, nil
}

// Routes returns the router; exported for tests and embedding.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Post("/rewrite", s.handleRewrite)
	})
	return r
}

// Start blocks serving until Shutdown is called.
func (s *Server) Start() error {
	s.log.Infof("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		reqLog := s.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))
		reqLog.RequestEvent().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
