package ops

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campusdesk/complaint-console/internal/service"
	"github.com/campusdesk/complaint-console/pkg/config"
	"github.com/campusdesk/complaint-console/pkg/logger"
	"github.com/campusdesk/complaint-console/pkg/middleware/requestid"
)

// Server exposes health and Prometheus metrics while the console runs in
// watch mode. It serves nothing outside that mode.
type Server struct {
	addr    string
	logger  *zap.Logger
	metrics *service.MetricsService
	srv     *http.Server
}

// New constructs an ops server.
func New(cfg *config.Config, l *zap.Logger, metrics *service.MetricsService) *Server {
	return &Server{addr: cfg.Ops.Addr, logger: l, metrics: metrics}
}

// Start serves in the background until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(s.logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.srv = &http.Server{Addr: s.addr, Handler: r}

	go func() {
		s.logger.Info("ops endpoint listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("ops endpoint failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()
}
