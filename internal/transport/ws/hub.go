package ws

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/service"
)

// typingErrors are shown to the client as is; anything else gets a generic message.
var typingErrors = []error{
	service.ErrConversationNotFound,
	service.ErrNotConversationMember,
}

// TypingFunc records a typing change coming in over the socket.
type TypingFunc func(ctx context.Context, userID, conversationID uuid.UUID, typing bool) error

// Hub tracks connected clients and fans events out to users. A user may hold several connections.
type Hub struct {
	// clients maps userID → that user's connections. Only Run touches it.
	clients map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	deliveries chan *delivery
	done       chan struct{}

	onTyping TypingFunc
}

type delivery struct {
	userIDs   []uuid.UUID
	data      []byte
	excludeID *uuid.UUID
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan *delivery, 256),
		done:       make(chan struct{}),
	}
}

// SetTypingHandler lets clients send typing.start / typing.stop frames.
func (h *Hub) SetTypingHandler(fn TypingFunc) {
	h.onTyping = fn
}

// Run is the hub's event loop. It returns when ctx is cancelled, after closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for client := range conns {
					close(client.send)
				}
			}
			h.clients = map[uuid.UUID]map[*Client]struct{}{}
			return

		case client := <-h.register:
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID] = conns
			}
			conns[client] = struct{}{}
			log.Debug("ws connected", "user_id", client.userID, "connections", len(conns))

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliveries:
			for _, userID := range d.userIDs {
				if d.excludeID != nil && userID == *d.excludeID {
					continue
				}
				for client := range h.clients[userID] {
					select {
					case client.send <- d.data:
					default:
						// Buffer full: drop the client, it can resync over HTTP.
						log.Warn("ws client too slow, disconnecting", "user_id", userID)
						h.remove(client)
					}
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	log.Debug("ws disconnected", "user_id", client.userID, "connections", len(conns))
}

// Send delivers an event to every connection of the given users, optionally skipping one user.
// It never blocks the caller on slow clients; events are dropped when the hub is stopped or backed up.
func (h *Hub) Send(userIDs []uuid.UUID, event *Event, excludeUserID *uuid.UUID) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error("ws marshal event", "type", event.Type, "err", err)
		return
	}

	d := &delivery{userIDs: slices.Clone(userIDs), data: data, excludeID: excludeUserID}
	select {
	case h.deliveries <- d:
	case <-h.done:
	default:
		log.Warn("ws hub backed up, dropping event", "type", event.Type)
	}
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) handleTyping(ctx context.Context, client *Client, event *Event) {
	if h.onTyping == nil {
		client.sendError("UNSUPPORTED", "typing over websocket is not enabled")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.onTyping(ctx, client.userID, *event.ConversationID, event.Type == EventTypeTypingStart); err != nil {
		client.sendError("TYPING_FAILED", typingErrorMessage(client, err))
	}
}

func typingErrorMessage(client *Client, err error) string {
	for _, known := range typingErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	log.Error("ws typing", "user_id", client.userID, "err", err)
	return "could not update typing state"
}
