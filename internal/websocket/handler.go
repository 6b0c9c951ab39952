package websocket

import (
	"context"

	"rag-chat-be/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ChatStreamer runs one chat turn, invoking onDelta as tokens arrive.
type ChatStreamer interface {
	SendChatStream(ctx context.Context, request *dto.SendChatRequest, onDelta func(delta string) error) (*dto.SendChatResponse, error)
}

// ServeWs registers the connection with the hub and blocks until it closes.
func ServeWs(hub *Hub, conn *websocket.Conn, sessionID uuid.UUID, streamer ChatStreamer) {
	client := &Client{
		hub:       hub,
		conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, 256),
		streamer:  streamer,
	}

	client.hub.register <- client

	go client.writePump()
	client.readPump()
}
