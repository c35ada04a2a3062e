// Package api serves heroes, powers and hero_powers over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marshallshelly/superheroes/internal/store"
)

// Pinger is implemented by stores that can check their backing connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	store    store.Store
	logger   *slog.Logger
	metrics  *metrics
	registry *prometheus.Registry
}

// NewServer returns a Server over s. Metrics are kept in a registry owned by
// the server so several servers can coexist in one process.
func NewServer(s store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Server{
		store:    s,
		logger:   logger.With("component", "api"),
		metrics:  newMetrics(reg),
		registry: reg,
	}
}

// Handler returns the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.observe())
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes adds the routes to r.
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/heroes", s.listHeroes)
	r.GET("/heroes/:id", s.getHero)
	r.DELETE("/heroes/:id", s.deleteHero)

	r.GET("/powers", s.listPowers)
	r.GET("/powers/:id", s.getPower)
	r.PATCH("/powers/:id", s.patchPower)
	r.DELETE("/powers/:id", s.deletePower)

	r.POST("/hero_powers", s.createHeroPower)

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}

func (s *Server) healthz(c *gin.Context) {
	if p, ok := s.store.(Pinger); ok {
		if err := p.Ping(c.Request.Context()); err != nil {
			s.logger.ErrorContext(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
