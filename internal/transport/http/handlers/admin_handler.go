package handlers

import (
	"net/http"

	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/internal/transport/http/middleware"
)

// AdminHandler routes must be wrapped in middleware.RequireAdmin.
type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	resp, err := h.adminService.ListUsers(r.Context(), r.URL.Query().Get("q"), pageParams(r))
	if err != nil {
		writeServiceError(w, "admin list users", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	var input service.ChangeRoleInput
	if !decode(w, r, &input) {
		return
	}

	user, err := h.adminService.ChangeRole(r.Context(), middleware.GetUserID(r.Context()), userID, input)
	if err != nil {
		writeServiceError(w, "admin change role", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(r.Context(), middleware.GetUserID(r.Context()), userID); err != nil {
		writeServiceError(w, "admin delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post")
	if !ok {
		return
	}

	if err := h.adminService.DeletePost(r.Context(), middleware.GetUserID(r.Context()), postID); err != nil {
		writeServiceError(w, "admin delete post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
