package handlers

import (
	"net/http"

	"github.com/vedran77/circle/internal/transport/http/middleware"
)

type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Posts         *PostHandler
	Notifications *NotificationHandler
	Uploads       *UploadHandler
	Conversations *ConversationHandler
	Messages      *MessageHandler
	Admin         *AdminHandler
}

// Register mounts every /api/v1 route on mux.
func Register(mux *http.ServeMux, h Handlers, jwtSecret string) {
	auth := middleware.Auth(jwtSecret)
	protected := func(fn http.HandlerFunc) http.Handler {
		return auth(fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return auth(middleware.RequireAdmin(fn))
	}

	// Public
	mux.HandleFunc("POST /api/v1/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/v1/auth/register/init", h.Auth.InitRegistration)
	mux.HandleFunc("POST /api/v1/auth/register/verify", h.Auth.VerifyRegistration)
	mux.HandleFunc("POST /api/v1/auth/register/resend", h.Auth.ResendCode)
	mux.HandleFunc("POST /api/v1/auth/forgot-password", h.Auth.ForgotPassword)
	mux.HandleFunc("POST /api/v1/auth/reset-password", h.Auth.ResetPassword)

	// Users
	mux.Handle("GET /api/v1/users/me", protected(h.Users.Me))
	mux.Handle("PUT /api/v1/users/me", protected(h.Users.UpdateMe))
	mux.Handle("PUT /api/v1/users/me/settings", protected(h.Users.UpdateSettings))
	mux.Handle("POST /api/v1/users/me/avatar", protected(h.Users.UploadAvatar))
	mux.Handle("POST /api/v1/users/me/cover", protected(h.Users.UploadCover))
	mux.Handle("GET /api/v1/users/me/bookmarks", protected(h.Posts.Bookmarks))
	mux.Handle("GET /api/v1/users/search", protected(h.Users.Search))
	mux.Handle("GET /api/v1/users/{id}", protected(h.Users.Get))
	mux.Handle("GET /api/v1/users/{id}/followers", protected(h.Users.Followers))
	mux.Handle("GET /api/v1/users/{id}/following", protected(h.Users.Following))
	mux.Handle("GET /api/v1/users/{id}/posts", protected(h.Posts.ListByAuthor))
	mux.Handle("POST /api/v1/users/{id}/follow", protected(h.Users.Follow))
	mux.Handle("DELETE /api/v1/users/{id}/follow", protected(h.Users.Unfollow))

	// Posts
	mux.Handle("POST /api/v1/posts", protected(h.Posts.Create))
	mux.Handle("GET /api/v1/posts/search", protected(h.Posts.Search))
	mux.Handle("GET /api/v1/posts/{id}", protected(h.Posts.Get))
	mux.Handle("DELETE /api/v1/posts/{id}", protected(h.Posts.Delete))
	mux.Handle("PUT /api/v1/posts/{id}/react", protected(h.Posts.React))
	mux.Handle("GET /api/v1/posts/{id}/comments", protected(h.Posts.Comments))
	mux.Handle("POST /api/v1/posts/{id}/comments", protected(h.Posts.AddComment))
	mux.Handle("POST /api/v1/posts/{id}/bookmark", protected(h.Posts.Bookmark))
	mux.Handle("DELETE /api/v1/posts/{id}/bookmark", protected(h.Posts.RemoveBookmark))
	mux.Handle("DELETE /api/v1/comments/{id}", protected(h.Posts.DeleteComment))

	// Feed & notifications
	mux.Handle("GET /api/v1/feed", protected(h.Notifications.Feed))
	mux.Handle("GET /api/v1/notifications", protected(h.Notifications.List))
	mux.Handle("GET /api/v1/notifications/unread-count", protected(h.Notifications.UnreadCount))
	mux.Handle("PUT /api/v1/notifications/read-all", protected(h.Notifications.MarkAllRead))
	mux.Handle("PUT /api/v1/notifications/{id}/read", protected(h.Notifications.MarkRead))
	mux.Handle("DELETE /api/v1/notifications/{id}", protected(h.Notifications.Delete))

	mux.Handle("POST /api/v1/uploads", protected(h.Uploads.Upload))

	// Chat - conversations
	mux.Handle("GET /api/v1/chat/conversations", protected(h.Conversations.List))
	mux.Handle("GET /api/v1/chat/requests", protected(h.Conversations.Requests))
	mux.Handle("POST /api/v1/chat/conversations/direct", protected(h.Conversations.StartDirect))
	mux.Handle("POST /api/v1/chat/conversations/group", protected(h.Conversations.CreateGroup))
	mux.Handle("POST /api/v1/chat/conversations/join", protected(h.Conversations.Join))
	mux.Handle("GET /api/v1/chat/conversations/{id}", protected(h.Conversations.Get))
	mux.Handle("PUT /api/v1/chat/conversations/{id}/respond", protected(h.Conversations.Respond))
	mux.Handle("PUT /api/v1/chat/conversations/{id}/rename", protected(h.Conversations.Rename))
	mux.Handle("PUT /api/v1/chat/conversations/{id}/role", protected(h.Conversations.SetRole))
	mux.Handle("PUT /api/v1/chat/conversations/{id}/nickname", protected(h.Conversations.SetNickname))
	mux.Handle("PUT /api/v1/chat/conversations/{id}/invite/reset", protected(h.Conversations.ResetInvite))
	mux.Handle("PUT /api/v1/chat/conversations/{id}/pin", protected(h.Conversations.Pin))
	mux.Handle("PUT /api/v1/chat/conversations/{id}/mute", protected(h.Conversations.Mute))
	mux.Handle("PUT /api/v1/chat/conversations/{id}/typing", protected(h.Conversations.Typing))
	mux.Handle("PUT /api/v1/chat/conversations/{id}/seen", protected(h.Conversations.Seen))
	mux.Handle("PUT /api/v1/chat/conversations/{id}/transfer", protected(h.Conversations.Transfer))
	mux.Handle("POST /api/v1/chat/conversations/{id}/leave", protected(h.Conversations.Leave))

	// Chat - messages
	mux.Handle("GET /api/v1/chat/conversations/{id}/messages", protected(h.Messages.List))
	mux.Handle("POST /api/v1/chat/conversations/{id}/messages", protected(h.Messages.Send))
	mux.Handle("POST /api/v1/chat/conversations/{id}/messages/reply", protected(h.Messages.Reply))
	mux.Handle("PUT /api/v1/chat/messages/{id}/react", protected(h.Messages.React))
	mux.Handle("PUT /api/v1/chat/messages/{id}/edit", protected(h.Messages.Edit))
	mux.Handle("DELETE /api/v1/chat/messages/{id}", protected(h.Messages.Delete))

	// Admin
	mux.Handle("GET /api/v1/admin/users", admin(h.Admin.ListUsers))
	mux.Handle("PUT /api/v1/admin/users/{id}/role", admin(h.Admin.ChangeRole))
	mux.Handle("DELETE /api/v1/admin/users/{id}", admin(h.Admin.DeleteUser))
	mux.Handle("DELETE /api/v1/admin/posts/{id}", admin(h.Admin.DeletePost))
}
