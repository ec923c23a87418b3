package ws

import (
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/service"
)

var _ service.Notifier = (*HubNotifier)(nil)

// HubNotifier pushes chat events to the members of a conversation.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(conv *domain.Conversation, msg *domain.Message) {
	n.push(conv, EventTypeMessageNew, msg, nil)
}

func (n *HubNotifier) NotifyEditedMessage(conv *domain.Conversation, msg *domain.Message) {
	n.push(conv, EventTypeMessageEdited, msg, nil)
}

func (n *HubNotifier) NotifyDeletedMessage(conv *domain.Conversation, messageID uuid.UUID) {
	n.push(conv, EventTypeMessageDeleted, MessageDeletedPayload{ID: messageID}, nil)
}

func (n *HubNotifier) NotifyReaction(conv *domain.Conversation, msg *domain.Message) {
	n.push(conv, EventTypeMessageReaction, msg, nil)
}

func (n *HubNotifier) NotifyConversationUpdated(conv *domain.Conversation) {
	n.push(conv, EventTypeConversationUpdated, conv, nil)
}

// NotifyTyping skips the typing user.
func (n *HubNotifier) NotifyTyping(conv *domain.Conversation, userID uuid.UUID, typing bool) {
	n.push(conv, EventTypeTyping, TypingPayload{UserID: userID, Typing: typing}, &userID)
}

func (n *HubNotifier) push(conv *domain.Conversation, eventType string, payload any, exclude *uuid.UUID) {
	evt, err := NewEvent(eventType, &conv.ID, payload)
	if err != nil {
		log.Error("ws notifier marshal", "type", eventType, "err", err)
		return
	}
	n.hub.Send(conv.Members, evt, exclude)
}
