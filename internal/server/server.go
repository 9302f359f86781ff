// Package server exposes the marketplace over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/blockmart/blockmart/internal/archive"
	"github.com/blockmart/blockmart/internal/config"
	"github.com/blockmart/blockmart/internal/marketplace"
)

// Server is the HTTP API for the marketplace.
type Server struct {
	mkt     *marketplace.Marketplace
	archive *archive.Archive
	logger  *zap.Logger
	http    *http.Server
}

// New builds the server. arch may be nil when archiving is disabled; the
// event-history endpoints are omitted in that case.
func New(cfg config.ServerConfig, mkt *marketplace.Marketplace, arch *archive.Archive, logger *zap.Logger) *Server {
	s := &Server{mkt: mkt, archive: arch, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/items", s.createItem)
		v1.GET("/items/:id", s.getItem)
		v1.POST("/items/:id/list", s.listItem)
		v1.POST("/items/:id/delist", s.cancelListing)
		v1.POST("/items/:id/buy", s.buyItem)

		v1.POST("/items/:id/auction", s.startAuction)
		v1.GET("/items/:id/auction", s.getAuction)
		v1.POST("/items/:id/bids", s.placeBid)
		v1.POST("/items/:id/auction/finish", s.finishAuction)
		v1.POST("/items/:id/auction/cancel", s.cancelAuction)

		v1.POST("/funds/deposits", s.deposit)
		v1.POST("/funds/withdrawals", s.withdraw)
		v1.GET("/funds/:address", s.balance)

		if arch != nil {
			v1.GET("/items/:id/events", s.itemEvents)
			v1.GET("/events", s.recentEvents)
		}
	}

	s.http = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the underlying HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
