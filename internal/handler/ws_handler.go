package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/satprep-api/internal/websocket"
	"github.com/yourusername/satprep-api/pkg/auth"
)

// WSHandler обрабатывает WebSocket соединения для событий сессии
// (тики таймера, автосабмит, готовность результатов)
type WSHandler struct {
	hub        *websocket.Hub
	jwtService *auth.JWTService
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(hub *websocket.Hub, jwtService *auth.JWTService) *WSHandler {
	return &WSHandler{
		hub:        hub,
		jwtService: jwtService,
	}
}

// HandleConnection обрабатывает входящее WebSocket соединение.
// Браузерный WebSocket API не умеет выставлять заголовки, поэтому
// токен передается query-параметром (?token=...).
// GET /ws?token=...
func (h *WSHandler) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	claims, err := h.jwtService.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	if err := h.hub.HandleConnection(c.Writer, c.Request, claims.UserID); err != nil {
		// Upgrade уже ответил клиенту сам
		log.Printf("[WSHandler] Ошибка апгрейда соединения (user %d): %v", claims.UserID, err)
	}
}
