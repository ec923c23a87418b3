package handlers

import (
	"net/http"

	"github.com/vedran77/circle/internal/service"
	"github.com/vedran77/circle/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreatePostInput
	if !decode(w, r, &input) {
		return
	}

	post, err := h.postService.Create(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		writeServiceError(w, "create post", err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post")
	if !ok {
		return
	}

	post, err := h.postService.Get(r.Context(), middleware.GetUserID(r.Context()), postID)
	if err != nil {
		writeServiceError(w, "get post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	resp, err := h.postService.ListByAuthor(r.Context(), middleware.GetUserID(r.Context()), authorID, pageParams(r))
	if err != nil {
		writeServiceError(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "MISSING_QUERY", "Search query is required")
		return
	}

	resp, err := h.postService.Search(r.Context(), middleware.GetUserID(r.Context()), q, pageParams(r))
	if err != nil {
		writeServiceError(w, "search posts", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post")
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.postService.Delete(ctx, middleware.GetUserID(ctx), middleware.IsAdmin(ctx), postID); err != nil {
		writeServiceError(w, "delete post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) React(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post")
	if !ok {
		return
	}

	var input service.ReactInput
	if !decode(w, r, &input) {
		return
	}

	post, err := h.postService.React(r.Context(), middleware.GetUserID(r.Context()), postID, input)
	if err != nil {
		writeServiceError(w, "react to post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Comments(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post")
	if !ok {
		return
	}

	resp, err := h.postService.Comments(r.Context(), middleware.GetUserID(r.Context()), postID, pageParams(r))
	if err != nil {
		writeServiceError(w, "list comments", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post")
	if !ok {
		return
	}

	var input service.CreateCommentInput
	if !decode(w, r, &input) {
		return
	}

	comment, err := h.postService.AddComment(r.Context(), middleware.GetUserID(r.Context()), postID, input)
	if err != nil {
		writeServiceError(w, "add comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := pathID(w, r, "comment")
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.postService.DeleteComment(ctx, middleware.GetUserID(ctx), middleware.IsAdmin(ctx), commentID); err != nil {
		writeServiceError(w, "delete comment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) Bookmark(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post")
	if !ok {
		return
	}

	if err := h.postService.Bookmark(r.Context(), middleware.GetUserID(r.Context()), postID); err != nil {
		writeServiceError(w, "bookmark post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "post")
	if !ok {
		return
	}

	if err := h.postService.RemoveBookmark(r.Context(), middleware.GetUserID(r.Context()), postID); err != nil {
		writeServiceError(w, "remove bookmark", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostHandler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	resp, err := h.postService.Bookmarks(r.Context(), middleware.GetUserID(r.Context()), pageParams(r))
	if err != nil {
		writeServiceError(w, "list bookmarks", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
