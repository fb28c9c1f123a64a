package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/tcpchat/internal/config"
	"github.com/vovakirdan/tcpchat/internal/core"
)

const readHeaderTimeout = 5 * time.Second

// ClientLister returns a consistent copy of the connected clients.
// *core.Hub implements it.
type ClientLister interface {
	Snapshot(ctx context.Context) ([]core.ClientInfo, error)
}

// NewServer builds the admin HTTP server.
func NewServer(clients ClientLister, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(RateLimitMiddleware(cfg.AdminRateLimit))

	router.GET("/health", healthHandler)

	handlers := NewConnectionHandlers(clients, logger)
	api := router.Group("/api")
	{
		api.GET("/connections", handlers.ListConnections)
		api.GET("/connections/:nickname", handlers.GetConnection)
	}

	return &stdhttp.Server{
		Addr:              cfg.AdminAddr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
