package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/internal/transport/http/middleware"
)

type ConversationHandler struct {
	convService *service.ConversationService
}

func NewConversationHandler(convService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	includePending, _ := strconv.ParseBool(r.URL.Query().Get("includePending"))

	resp, err := h.convService.List(r.Context(), middleware.GetUserID(r.Context()), includePending, pageParams(r))
	if err != nil {
		writeServiceError(w, "list conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ConversationHandler) Requests(w http.ResponseWriter, r *http.Request) {
	resp, err := h.convService.ListRequests(r.Context(), middleware.GetUserID(r.Context()), pageParams(r))
	if err != nil {
		writeServiceError(w, "list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	convID, ok := pathID(w, r, "conversation")
	if !ok {
		return
	}

	conv, err := h.convService.Get(r.Context(), middleware.GetUserID(r.Context()), convID)
	if err != nil {
		writeServiceError(w, "get conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// StartDirect answers 201 when a conversation was created and 200 when an existing one was found.
func (h *ConversationHandler) StartDirect(w http.ResponseWriter, r *http.Request) {
	var input service.StartDirectInput
	if !decode(w, r, &input) {
		return
	}

	conv, created, err := h.convService.StartDirect(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeServiceError(w, "start direct conversation", err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, conv)
}

func (h *ConversationHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var input service.CreateGroupInput
	if !decode(w, r, &input) {
		return
	}

	conv, err := h.convService.CreateGroup(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeServiceError(w, "create group", err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (h *ConversationHandler) Join(w http.ResponseWriter, r *http.Request) {
	var input service.JoinInput
	if !decode(w, r, &input) {
		return
	}

	conv, err := h.convService.Join(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeServiceError(w, "join group", err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var input service.RespondInput
	h.update(w, r, "respond to request", &input, func(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
		return h.convService.Respond(ctx, userID, convID, input)
	})
}

func (h *ConversationHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var input service.RenameInput
	h.update(w, r, "rename group", &input, func(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
		return h.convService.Rename(ctx, userID, convID, input)
	})
}

func (h *ConversationHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var input service.SetRoleInput
	h.update(w, r, "set role", &input, func(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
		return h.convService.SetRole(ctx, userID, convID, input)
	})
}

func (h *ConversationHandler) SetNickname(w http.ResponseWriter, r *http.Request) {
	var input service.NicknameInput
	h.update(w, r, "set nickname", &input, func(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
		return h.convService.SetNickname(ctx, userID, convID, input)
	})
}

func (h *ConversationHandler) ResetInvite(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, "reset invite", nil, h.convService.ResetInvite)
}

func (h *ConversationHandler) Pin(w http.ResponseWriter, r *http.Request) {
	var input service.PinInput
	h.update(w, r, "pin message", &input, func(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
		return h.convService.Pin(ctx, userID, convID, input)
	})
}

func (h *ConversationHandler) Mute(w http.ResponseWriter, r *http.Request) {
	var input service.MuteInput
	h.update(w, r, "mute conversation", &input, func(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
		return h.convService.Mute(ctx, userID, convID, input)
	})
}

func (h *ConversationHandler) Typing(w http.ResponseWriter, r *http.Request) {
	var input service.TypingInput
	h.update(w, r, "typing", &input, func(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
		return h.convService.Typing(ctx, userID, convID, input)
	})
}

func (h *ConversationHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var input service.TransferInput
	h.update(w, r, "transfer ownership", &input, func(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
		return h.convService.TransferOwnership(ctx, userID, convID, input)
	})
}

// Seen answers with the message marked seen, or 204 when the conversation has no messages yet.
func (h *ConversationHandler) Seen(w http.ResponseWriter, r *http.Request) {
	convID, ok := pathID(w, r, "conversation")
	if !ok {
		return
	}

	msg, err := h.convService.Seen(r.Context(), middleware.GetUserID(r.Context()), convID)
	if err != nil {
		writeServiceError(w, "mark seen", err)
		return
	}
	if msg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// Leave answers 204 when the last member left and the conversation was deleted.
func (h *ConversationHandler) Leave(w http.ResponseWriter, r *http.Request) {
	convID, ok := pathID(w, r, "conversation")
	if !ok {
		return
	}

	conv, err := h.convService.Leave(r.Context(), middleware.GetUserID(r.Context()), convID)
	if err != nil {
		writeServiceError(w, "leave conversation", err)
		return
	}
	if conv == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// update runs a mutation on /chat/conversations/{id}; a nil input means the request has no body.
func (h *ConversationHandler) update(w http.ResponseWriter, r *http.Request, op string, input any,
	apply func(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error),
) {
	convID, ok := pathID(w, r, "conversation")
	if !ok {
		return
	}
	if input != nil && !decode(w, r, input) {
		return
	}

	conv, err := apply(r.Context(), middleware.GetUserID(r.Context()), convID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}
