package handlers

import (
	"net/http"

	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	feedService         *service.FeedService
}

func NewNotificationHandler(notificationService *service.NotificationService, feedService *service.FeedService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, feedService: feedService}
}

func (h *NotificationHandler) Feed(w http.ResponseWriter, r *http.Request) {
	resp, err := h.feedService.Feed(r.Context(), middleware.GetUserID(r.Context()), pageParams(r))
	if err != nil {
		writeServiceError(w, "feed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.notificationService.List(r.Context(), middleware.GetUserID(r.Context()), pageParams(r))
	if err != nil {
		writeServiceError(w, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationService.UnreadCount(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, "unread count", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "notification")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeServiceError(w, "mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notificationService.MarkAllRead(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, "mark all notifications read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "notification")
	if !ok {
		return
	}

	if err := h.notificationService.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeServiceError(w, "delete notification", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
