package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/tcpchat/internal/core"
)

const snapshotTimeout = 2 * time.Second

// ConnectionHandlers exposes the hub's registry read-only.
type ConnectionHandlers struct {
	clients ClientLister
	log     *zerolog.Logger
}

// NewConnectionHandlers creates a new connection handlers instance.
func NewConnectionHandlers(clients ClientLister, logger *zerolog.Logger) *ConnectionHandlers {
	return &ConnectionHandlers{
		clients: clients,
		log:     logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListConnectionsResponse is the body of GET /api/connections.
type ListConnectionsResponse struct {
	Total       int                  `json:"total"`
	Registered  int                  `json:"registered"`
	Connections []ConnectionResponse `json:"connections"`
}

// ListConnections returns every live connection.
// GET /api/connections
func (h *ConnectionHandlers) ListConnections(c *gin.Context) {
	infos, ok := h.snapshot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ListConnectionsResponse{
		Total: len(infos),
		Registered: lo.CountBy(infos, func(info core.ClientInfo) bool {
			return info.Registered
		}),
		Connections: lo.Map(infos, func(info core.ClientInfo, _ int) ConnectionResponse {
			return toConnectionResponse(info)
		}),
	})
}

// GetConnection returns the connection holding a nickname.
// GET /api/connections/:nickname
func (h *ConnectionHandlers) GetConnection(c *gin.Context) {
	nickname := c.Param("nickname")

	infos, ok := h.snapshot(c)
	if !ok {
		return
	}

	info, found := lo.Find(infos, func(info core.ClientInfo) bool {
		return info.Registered && info.Nickname == nickname
	})
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "nickname not found"})
		return
	}
	c.JSON(http.StatusOK, toConnectionResponse(info))
}

func (h *ConnectionHandlers) snapshot(c *gin.Context) ([]core.ClientInfo, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), snapshotTimeout)
	defer cancel()

	infos, err := h.clients.Snapshot(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to snapshot connections")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "chat loop unavailable"})
		return nil, false
	}
	return infos, true
}
