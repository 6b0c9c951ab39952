package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"rag-chat-be/internal/dto"
	"rag-chat-be/pkg/rag/pipeline"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is a single websocket connection bound to a chat session.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	SessionID uuid.UUID

	// Buffered channel of outbound frames
	Send chan []byte

	streamer ChatStreamer
}

// inboundFrame is what the browser sends to start a streamed turn. The
// session is taken from the connection, not the frame.
type inboundFrame struct {
	Message string   `json:"message"`
	Model   string   `json:"model"`
	TopK    int      `json:"top_k"`
	UseMMR  *bool    `json:"use_mmr"`
	Lambda  *float64 `json:"lambda"`
}

// readPump reads chat requests from the socket and runs each turn with
// deltas pushed back through the Send channel.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.sendFrame("error", map[string]string{"code": "invalid_payload", "message": "invalid request payload"})
			continue
		}

		c.runTurn(frame)
	}
}

func (c *Client) runTurn(frame inboundFrame) {
	req := &dto.SendChatRequest{
		ChatSessionId: c.SessionID,
		Message:       frame.Message,
		Model:         frame.Model,
		TopK:          frame.TopK,
		UseMMR:        frame.UseMMR,
		Lambda:        frame.Lambda,
	}

	// Deltas go only to the connection that asked; the finished turn is
	// fanned out so other tabs watching the session stay in sync.
	resp, err := c.streamer.SendChatStream(context.Background(), req, func(delta string) error {
		c.sendFrame("delta", map[string]string{"content": delta})
		return nil
	})
	if err != nil {
		c.sendFrame("error", map[string]string{"code": errorCode(err), "message": err.Error()})
		return
	}

	c.hub.Notify(c.SessionID, "done", resp)
}

// errorCode maps a turn failure onto the stable code clients branch on.
func errorCode(err error) string {
	var pipeErr *pipeline.PipelineError
	if errors.As(err, &pipeErr) {
		return string(pipeErr.Code)
	}
	return "internal_error"
}

func (c *Client) sendFrame(frameType string, data interface{}) {
	payload, err := json.Marshal(map[string]interface{}{
		"type": frameType,
		"data": data,
	})
	if err != nil {
		return
	}

	select {
	case c.Send <- payload:
	default:
		log.Printf("websocket send buffer full, dropping %s frame for session %s", frameType, c.SessionID)
	}
}

// writePump drains the Send channel onto the wire and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
