package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"signal-core/internal/engine"
	"signal-core/internal/events"
	"signal-core/internal/monitor"
)

// Server exposes the engine's read-only view over HTTP and a websocket.
type Server struct {
	Router  *gin.Engine
	Bus     *events.Bus
	Svc     engine.Service
	Metrics *monitor.SystemMetrics
	log     zerolog.Logger
	limiter *ipLimiter
}

func NewServer(svc engine.Service, bus *events.Bus, metrics *monitor.SystemMetrics, log zerolog.Logger) *Server {
	r := gin.New()
	log = log.With().Str("component", "api").Logger()
	limiter := newIPLimiter(20, 50)

	// order matters
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(log))
	r.Use(RateLimitMiddleware(limiter, log))
	r.Use(CORSMiddleware())

	s := &Server{
		Router:  r,
		Bus:     bus,
		Svc:     svc,
		Metrics: metrics,
		log:     log,
		limiter: limiter,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)
	if s.Metrics != nil {
		s.Router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	api := s.Router.Group("/api")
	{
		api.GET("/system/status", s.getSystemStatus)
		api.GET("/symbols", s.getSymbols)
		api.GET("/symbols/:symbol/history", s.getHistory)
		api.GET("/correlations", s.getCorrelations)
		api.GET("/beta", s.getBeta)
		api.GET("/risk", s.getRisk)
		api.GET("/orders", s.getOrders)
		api.GET("/positions", s.getPositions)
		api.GET("/metrics", s.getMetrics)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Start serves on addr until ctx is done, then shuts down within 5s.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.limiter.sweep(ctx, 5*time.Minute)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("http shutdown")
		}
		return nil
	}
}
