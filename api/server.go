package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Kuljeet1998/healthcare-nlp/pipeline"
	"github.com/Kuljeet1998/healthcare-nlp/types"
	"github.com/Kuljeet1998/healthcare-nlp/utils"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	ServiceName    = "FHIR Query API"
	ServiceVersion = "1.0.0"
	MaxSuggestions = 10
)

type Config struct {
	CacheTTL       time.Duration
	CORSOrigins    []string
	MaxQueryLength int
	BodyLimit      string
}

func DefaultConfig() Config {
	return Config{
		CacheTTL:       5 * time.Minute,
		CORSOrigins:    []string{"*"},
		MaxQueryLength: 2000,
		BodyLimit:      "64K",
	}
}

type Server struct {
	echo     *echo.Echo
	analyzer *pipeline.Analyzer
	results  *cache.Cache
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

func NewServer(analyzer *pipeline.Analyzer, cfg Config) *Server {
	s := &Server{
		echo:     echo.New(),
		analyzer: analyzer,
		cfg:      cfg,
		log:      defaultLogger,
		now:      time.Now,
	}
	if cfg.CacheTTL > 0 {
		s.results = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(Recovery(s.log))
	e.Use(RequestID())
	e.Use(Logger(s.log))
	if cfg.BodyLimit != "" {
		e.Use(echomw.BodyLimit(cfg.BodyLimit))
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", RequestIDHeader},
	}))

	group := e.Group("/api")
	group.GET("/health", s.health)
	group.POST("/query", s.query)
	group.GET("/suggestions", s.suggestions)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Msg("starting server")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) cacheKey(query string) string {
	return fmt.Sprintf("%016x", utils.HashStrings(s.analyzer.Lexicon().Fingerprint(), query))
}

// analyze serves repeated queries from the cache. Results are pure functions
// of lexicon and query, but date bounds move with the clock, so entries
// expire.
func (s *Server) analyze(query string) (types.Result, bool) {
	if s.results == nil {
		return s.analyzer.Analyze(query), false
	}
	key := s.cacheKey(query)
	if cached, ok := s.results.Get(key); ok {
		return cached.(types.Result), true
	}
	result := s.analyzer.Analyze(query)
	s.results.Set(key, result, cache.DefaultExpiration)
	return result, false
}
