package handlers

import (
	"net/http"

	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/internal/transport/http/middleware"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	convID, ok := pathID(w, r, "conversation")
	if !ok {
		return
	}

	var input service.SendMessageInput
	if !decode(w, r, &input) {
		return
	}

	msg, err := h.messageService.Send(r.Context(), middleware.GetUserID(r.Context()), convID, input)
	if err != nil {
		writeServiceError(w, "send message", err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) Reply(w http.ResponseWriter, r *http.Request) {
	convID, ok := pathID(w, r, "conversation")
	if !ok {
		return
	}

	var input service.ReplyMessageInput
	if !decode(w, r, &input) {
		return
	}

	msg, err := h.messageService.Reply(r.Context(), middleware.GetUserID(r.Context()), convID, input)
	if err != nil {
		writeServiceError(w, "reply to message", err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	convID, ok := pathID(w, r, "conversation")
	if !ok {
		return
	}

	resp, err := h.messageService.List(r.Context(), middleware.GetUserID(r.Context()), convID, pageParams(r))
	if err != nil {
		writeServiceError(w, "list messages", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	messageID, ok := pathID(w, r, "message")
	if !ok {
		return
	}

	var input service.EditMessageInput
	if !decode(w, r, &input) {
		return
	}

	msg, err := h.messageService.Edit(r.Context(), middleware.GetUserID(r.Context()), messageID, input)
	if err != nil {
		writeServiceError(w, "edit message", err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// Delete soft-deletes and returns the tombstone so clients can render it in place.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	messageID, ok := pathID(w, r, "message")
	if !ok {
		return
	}

	msg, err := h.messageService.Delete(r.Context(), middleware.GetUserID(r.Context()), messageID)
	if err != nil {
		writeServiceError(w, "delete message", err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) React(w http.ResponseWriter, r *http.Request) {
	messageID, ok := pathID(w, r, "message")
	if !ok {
		return
	}

	var input service.ReactInput
	if !decode(w, r, &input) {
		return
	}

	msg, err := h.messageService.React(r.Context(), middleware.GetUserID(r.Context()), messageID, input)
	if err != nil {
		writeServiceError(w, "react to message", err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
