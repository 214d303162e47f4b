package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/socket"
)

// newUpgrader accepts requests without an Origin header (non-browser
// clients) and browser requests from the configured origins.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		},
	}
}

// WsHandler upgrades the connection and subscribes it to the caller's user
// channel. The read pump runs on the handler goroutine; the write pump on
// its own.
func WsHandler(hub *socket.Hub, log *logger.Logger, allowedOrigins []string) gin.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)
	wsLog := log.With("handler", "WsHandler")
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			wsLog.Warn("Failed to upgrade to websocket", "error", err)
			return
		}

		ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
		client := socket.NewClient(conn, hub, rd.UserID, cancel, wsLog)
		hub.Subscribe(client, []string{socket.UserChannel(rd.UserID)})

		go client.WriteLoop(ctx)
		client.ReadLoop(ctx)
	}
}
