package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Client is one WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	// send carries hub fan-out and is closed by the hub. replies carries pong and error frames
	// produced by this client's own reader and is never closed.
	send    chan []byte
	replies chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		userID:  userID,
		send:    make(chan []byte, sendBufSize),
		replies: make(chan []byte, 16),
	}
}

// ReadPump reads client frames until the connection drops, then leaves the hub.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.leave(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		var event Event
		if err := wsjson.Read(ctx, c.conn, &event); err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Debug("ws client closed", "user_id", c.userID)
			} else {
				log.Debug("ws read error", "user_id", c.userID, "err", err)
			}
			return
		}

		c.handleEvent(ctx, &event)
	}
}

// WritePump writes hub events and replies, and pings to keep the connection alive.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, message); err != nil {
				log.Debug("ws write error", "user_id", c.userID, "err", err)
				return
			}

		case message := <-c.replies:
			if err := c.write(ctx, message); err != nil {
				log.Debug("ws write error", "user_id", c.userID, "err", err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Debug("ws ping error", "user_id", c.userID, "err", err)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, message []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, message)
}

func (c *Client) handleEvent(ctx context.Context, event *Event) {
	switch event.Type {
	case EventTypeTypingStart, EventTypeTypingStop:
		if event.ConversationID == nil {
			c.sendError("INVALID_PAYLOAD", "conversation_id required for typing events")
			return
		}
		c.hub.handleTyping(ctx, c, event)

	case EventTypePing:
		c.reply(&Event{Type: EventTypePong})

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventTypeError, nil, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	c.reply(evt)
}

func (c *Client) reply(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.replies <- data:
	default:
	}
}
