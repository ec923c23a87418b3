package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/internal/storage"
	"github.com/vedran77/circle/internal/transport/http/middleware"
)

type UserHandler struct {
	userService *service.UserService
	uploads     *storage.Uploads
}

func NewUserHandler(userService *service.UserService, uploads *storage.Uploads) *UserHandler {
	return &UserHandler{userService: userService, uploads: uploads}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, "get me", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateProfileInput
	if !decode(w, r, &input) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeServiceError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateSettingsInput
	if !decode(w, r, &input) {
		return
	}

	user, err := h.userService.UpdateSettings(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeServiceError(w, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, "set avatar", h.userService.SetAvatar)
}

func (h *UserHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, "set cover", h.userService.SetCover)
}

func (h *UserHandler) uploadImage(w http.ResponseWriter, r *http.Request, op string,
	set func(ctx context.Context, userID uuid.UUID, url string) (*domain.User, error),
) {
	url, ok := saveUpload(w, r, h.uploads)
	if !ok {
		return
	}

	user, err := set(r.Context(), middleware.GetUserID(r.Context()), url)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "MISSING_QUERY", "Search query is required")
		return
	}

	resp, err := h.userService.Search(r.Context(), q, pageParams(r))
	if err != nil {
		writeServiceError(w, "search users", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	profile, err := h.userService.Profile(r.Context(), middleware.GetUserID(r.Context()), userID)
	if err != nil {
		writeServiceError(w, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) Followers(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	resp, err := h.userService.Followers(r.Context(), middleware.GetUserID(r.Context()), userID, pageParams(r))
	if err != nil {
		writeServiceError(w, "list followers", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) Following(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	resp, err := h.userService.Following(r.Context(), middleware.GetUserID(r.Context()), userID, pageParams(r))
	if err != nil {
		writeServiceError(w, "list following", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	if err := h.userService.Follow(r.Context(), middleware.GetUserID(r.Context()), userID); err != nil {
		writeServiceError(w, "follow", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	if err := h.userService.Unfollow(r.Context(), middleware.GetUserID(r.Context()), userID); err != nil {
		writeServiceError(w, "unfollow", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
