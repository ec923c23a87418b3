package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
)

func TestNotifySkipsActor(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "alice")

	env.notifications.Notify(ctx, a.ID, a.ID, domain.NotificationFollow, nil)
	if len(env.db.Notifications) != 0 || len(env.mailer.sent) != 0 {
		t.Fatal("actor must not be notified about their own action")
	}
}

func TestNotifyRespectsChannels(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.addUser(t, "alice"), env.addUser(t, "bob")

	// Defaults: push for everything, email for follow and message only.
	env.notifications.Notify(ctx, b.ID, a.ID, domain.NotificationLike, nil)
	if len(env.db.Notifications) != 1 || len(env.mailer.sent) != 0 {
		t.Fatalf("like: notifications=%d mails=%d", len(env.db.Notifications), len(env.mailer.sent))
	}

	env.notifications.Notify(ctx, b.ID, a.ID, domain.NotificationFollow, nil)
	if len(env.db.Notifications) != 2 || len(env.mailer.sent) != 1 {
		t.Fatalf("follow: notifications=%d mails=%d", len(env.db.Notifications), len(env.mailer.sent))
	}
	if env.mailer.sent[0].Subject != "New follower" {
		t.Fatalf("unexpected subject %q", env.mailer.sent[0].Subject)
	}

	env.mailer.err = errors.New("smtp down")
	env.notifications.Notify(ctx, b.ID, a.ID, domain.NotificationMessage, nil)
	if len(env.db.Notifications) != 3 {
		t.Fatal("a mail failure must not drop the in-app notification")
	}
}

func TestNotificationInbox(t *testing.T) {
	env := newTestEnv(t)
	a, b, c := env.addUser(t, "alice"), env.addUser(t, "bob"), env.addUser(t, "carol")

	env.notifications.Notify(ctx, b.ID, a.ID, domain.NotificationLike, nil)
	env.notifications.Notify(ctx, b.ID, c.ID, domain.NotificationComment, nil)

	list, err := env.notifications.List(ctx, b.ID, firstPage())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Items) != 2 || list.Items[0].Type != domain.NotificationComment {
		t.Fatalf("expected newest first, got %+v", list.Items)
	}

	count, _ := env.notifications.UnreadCount(ctx, b.ID)
	if count != 2 {
		t.Fatalf("expected 2 unread, got %d", count)
	}

	first := list.Items[0].ID
	if err := env.notifications.MarkRead(ctx, a.ID, first); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("someone else's notification: expected ErrNotificationNotFound, got %v", err)
	}
	if err := env.notifications.MarkRead(ctx, b.ID, first); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	count, _ = env.notifications.UnreadCount(ctx, b.ID)
	if count != 1 {
		t.Fatalf("expected 1 unread, got %d", count)
	}

	if err := env.notifications.MarkAllRead(ctx, b.ID); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	count, _ = env.notifications.UnreadCount(ctx, b.ID)
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}

	if err := env.notifications.Delete(ctx, b.ID, first); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := env.notifications.Delete(ctx, b.ID, uuid.New()); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestAdminOperations(t *testing.T) {
	env := newTestEnv(t)
	admin, a := env.addUser(t, "root"), env.addUser(t, "alice")
	post, _ := env.posts.Create(ctx, a.ID, CreatePostInput{Text: "spam"})

	users, err := env.admin.ListUsers(ctx, "ali", firstPage())
	if err != nil || len(users.Items) != 1 {
		t.Fatalf("ListUsers: %v %+v", err, users)
	}

	if _, err := env.admin.ChangeRole(ctx, admin.ID, admin.ID, ChangeRoleInput{Role: domain.RoleUser}); !errors.Is(err, ErrCannotDemoteSelf) {
		t.Fatalf("expected ErrCannotDemoteSelf, got %v", err)
	}
	if _, err := env.admin.ChangeRole(ctx, admin.ID, a.ID, ChangeRoleInput{Role: "god"}); !errors.Is(err, ErrInvalidUserRole) {
		t.Fatalf("expected ErrInvalidUserRole, got %v", err)
	}
	promoted, err := env.admin.ChangeRole(ctx, admin.ID, a.ID, ChangeRoleInput{Role: domain.RoleAdmin})
	if err != nil || !promoted.IsAdmin() {
		t.Fatalf("ChangeRole: %v %+v", err, promoted)
	}

	if err := env.admin.DeletePost(ctx, admin.ID, post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if err := env.admin.DeletePost(ctx, admin.ID, post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}

	if err := env.admin.DeleteUser(ctx, admin.ID, a.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, ok := env.db.Users[a.ID]; ok {
		t.Fatal("user not deleted")
	}
	if err := env.admin.DeleteUser(ctx, admin.ID, a.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestNewPageClamps(t *testing.T) {
	p := NewPage(0, 0)
	if p.Page != 1 || p.Limit != defaultPageSize {
		t.Fatalf("unexpected defaults %+v", p)
	}
	if p := NewPage(3, 1000); p.Limit != maxPageSize || p.Offset() != 2*maxPageSize {
		t.Fatalf("unexpected clamp %+v", p)
	}
}
