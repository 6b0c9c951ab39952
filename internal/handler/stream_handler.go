package handler

import (
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/service"
	internalWS "rag-chat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// StreamHandler upgrades chat connections to websocket and runs turns
// with token streaming.
type StreamHandler struct {
	hub         *internalWS.Hub
	chatService service.IChatService
	logger      logger.ILogger
}

func NewStreamHandler(hub *internalWS.Hub, chatService service.IChatService, log logger.ILogger) *StreamHandler {
	return &StreamHandler{
		hub:         hub,
		chatService: chatService,
		logger:      log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *StreamHandler) ServeWs(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("session_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("StreamHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
			internalWS.ServeWs(h.hub, conn, sessionID, h.chatService)
			h.logger.Info("StreamHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *StreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/chat/v1/sessions/:session_id/ws", h.ServeWs)
}
