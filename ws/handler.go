package ws

import (
	"net/http"

	"messaging_backend/internal/logger"
	"messaging_backend/internal/middleware"
	"messaging_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	Manager  *WebSocketManager
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts any origin when origins is empty or "*".
func NewWebSocketHandler(manager *WebSocketManager, origins []string) *WebSocketHandler {
	allowed := make(map[string]struct{}, len(origins))
	anyOrigin := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			anyOrigin = true
		}
		allowed[o] = struct{}{}
	}

	return &WebSocketHandler{
		Manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if anyOrigin || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// ServeWS upgrades an authenticated request to a notification stream.
// @Summary      Live notification stream
// @Tags         notifications
// @Security     BearerAuth
// @Success      101
// @Failure      401 {object} apperrors.ErrorResponse
// @Router       /ws/notifications [get]
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	id := middleware.GetIdentity(c)
	if !id.Authenticated() {
		apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		UserID:  id.UserID,
		Conn:    conn,
		Send:    make(chan any, sendBuffer),
		Manager: h.Manager,
	}
	if !h.Manager.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
