package http

import (
	"time"

	"github.com/vovakirdan/tcpchat/internal/core"
)

// ConnectionResponse represents a connection in API responses.
type ConnectionResponse struct {
	ID          string `json:"id"`
	RemoteAddr  string `json:"remote_addr"`
	Nickname    string `json:"nickname,omitempty"`
	Registered  bool   `json:"registered"`
	ConnectedAt string `json:"connected_at"`
}

func toConnectionResponse(info core.ClientInfo) ConnectionResponse {
	return ConnectionResponse{
		ID:          info.ID,
		RemoteAddr:  info.RemoteAddr,
		Nickname:    info.Nickname,
		Registered:  info.Registered,
		ConnectedAt: info.ConnectedAt.UTC().Format(time.RFC3339),
	}
}
