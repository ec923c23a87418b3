package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
)

func TestGroupMessageScenario(t *testing.T) {
	env := newTestEnv(t)
	a, b, c := env.addUser(t, "alice"), env.addUser(t, "bob"), env.addUser(t, "carol")

	group, err := env.convs.CreateGroup(ctx, a.ID, CreateGroupInput{Name: "G", Members: []uuid.UUID{b.ID}})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if !group.IsOwner(a.ID) || !group.IsAdmin(a.ID) {
		t.Fatal("creator should be owner and admin")
	}

	msg, err := env.messages.Send(ctx, a.ID, group.ID, SendMessageInput{Text: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if env.conv(t, group.ID).LastMessageAt == nil {
		t.Fatal("last_message_at not bumped")
	}

	reacted, err := env.messages.React(ctx, b.ID, msg.ID, ReactInput{Type: "love"})
	if err != nil {
		t.Fatalf("React: %v", err)
	}
	want := []domain.Reaction{{UserID: b.ID, Type: "love"}}
	if len(reacted.Reactions) != 1 || reacted.Reactions[0] != want[0] {
		t.Fatalf("expected %v, got %v", want, reacted.Reactions)
	}

	toggled, err := env.messages.React(ctx, b.ID, msg.ID, ReactInput{Type: "love"})
	if err != nil {
		t.Fatalf("React again: %v", err)
	}
	if len(toggled.Reactions) != 0 || len(env.message(t, msg.ID).Reactions) != 0 {
		t.Fatalf("expected reactions cleared, got %v", toggled.Reactions)
	}

	if _, err := env.convs.SetRole(ctx, a.ID, group.ID, SetRoleInput{UserID: c.ID, Role: GroupRoleAdmin}); !errors.Is(err, ErrTargetNotMember) {
		t.Fatalf("expected ErrTargetNotMember, got %v", err)
	}
}

func TestSendToPendingConversationCreatesNothing(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.addUser(t, "alice"), env.addUser(t, "bob")
	conv, _, _ := env.convs.StartDirect(ctx, a.ID, StartDirectInput{UserID: b.ID})

	for _, sender := range []domain.User{a, b} {
		if _, err := env.messages.Send(ctx, sender.ID, conv.ID, SendMessageInput{Text: "hello"}); !errors.Is(err, ErrConversationNotAccepted) {
			t.Fatalf("expected ErrConversationNotAccepted, got %v", err)
		}
	}
	if len(env.db.Messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(env.db.Messages))
	}
	if env.conv(t, conv.ID).LastMessageAt != nil {
		t.Fatal("last_message_at must not change")
	}
}

func TestSendRequiresMembershipAndContent(t *testing.T) {
	env := newTestEnv(t)
	a, b, eve := env.addUser(t, "alice"), env.addUser(t, "bob"), env.addUser(t, "eve")
	group, _ := env.convs.CreateGroup(ctx, a.ID, CreateGroupInput{Name: "G", Members: []uuid.UUID{b.ID}})

	if _, err := env.messages.Send(ctx, eve.ID, group.ID, SendMessageInput{Text: "hey"}); !errors.Is(err, ErrNotConversationMember) {
		t.Fatalf("expected ErrNotConversationMember, got %v", err)
	}
	if _, err := env.messages.Send(ctx, a.ID, group.ID, SendMessageInput{Text: "   "}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := env.messages.Send(ctx, a.ID, uuid.New(), SendMessageInput{Text: "hey"}); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}

	withMedia, err := env.messages.Send(ctx, a.ID, group.ID, SendMessageInput{Attachments: []string{"/uploads/a.png"}})
	if err != nil {
		t.Fatalf("attachment-only Send: %v", err)
	}
	if len(withMedia.Attachments) != 1 || withMedia.Text != "" {
		t.Fatalf("unexpected message %+v", withMedia)
	}
}

func TestReplyTargetMustBeInSameConversation(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.addUser(t, "alice"), env.addUser(t, "bob")
	g1, _ := env.convs.CreateGroup(ctx, a.ID, CreateGroupInput{Name: "one", Members: []uuid.UUID{b.ID}})
	g2, _ := env.convs.CreateGroup(ctx, a.ID, CreateGroupInput{Name: "two", Members: []uuid.UUID{b.ID}})

	original, _ := env.messages.Send(ctx, a.ID, g1.ID, SendMessageInput{Text: "first"})

	_, err := env.messages.Reply(ctx, b.ID, g2.ID, ReplyMessageInput{
		SendMessageInput: SendMessageInput{Text: "wrong room"},
		ReplyTo:          original.ID,
	})
	if !errors.Is(err, ErrReplyTargetAbsent) {
		t.Fatalf("expected ErrReplyTargetAbsent, got %v", err)
	}

	reply, err := env.messages.Reply(ctx, b.ID, g1.ID, ReplyMessageInput{
		SendMessageInput: SendMessageInput{Text: "answer"},
		ReplyTo:          original.ID,
	})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply.ReplyTo == nil || *reply.ReplyTo != original.ID {
		t.Fatalf("reply_to not stored: %+v", reply)
	}
}

func TestSoftDeleteKeepsMessageResolvable(t *testing.T) {
	env := newTestEnv(t)
	a, b, c := env.addUser(t, "alice"), env.addUser(t, "bob"), env.addUser(t, "carol")
	group, _ := env.convs.CreateGroup(ctx, a.ID, CreateGroupInput{Name: "G", Members: []uuid.UUID{b.ID, c.ID}})

	msg, _ := env.messages.Send(ctx, b.ID, group.ID, SendMessageInput{Text: "oops", Attachments: []string{"/uploads/x.png"}})

	if _, err := env.messages.Delete(ctx, c.ID, msg.ID); !errors.Is(err, ErrNotMessageOwner) {
		t.Fatalf("expected ErrNotMessageOwner, got %v", err)
	}

	deleted, err := env.messages.Delete(ctx, a.ID, msg.ID)
	if err != nil {
		t.Fatalf("admin Delete: %v", err)
	}
	if !deleted.IsDeleted || deleted.Text != "" || len(deleted.Attachments) != 0 {
		t.Fatalf("message not cleared: %+v", deleted)
	}

	stored := env.message(t, msg.ID)
	if stored == nil || !stored.IsDeleted || stored.Text != "" {
		t.Fatalf("deleted message should still exist: %+v", stored)
	}

	reply, err := env.messages.Reply(ctx, c.ID, group.ID, ReplyMessageInput{
		SendMessageInput: SendMessageInput{Text: "what was that?"},
		ReplyTo:          msg.ID,
	})
	if err != nil || *reply.ReplyTo != msg.ID {
		t.Fatalf("reply to deleted message: %v", err)
	}

	if _, err := env.messages.Edit(ctx, b.ID, msg.ID, EditMessageInput{Text: "again"}); !errors.Is(err, ErrMessageDeleted) {
		t.Fatalf("expected ErrMessageDeleted, got %v", err)
	}
}

func TestEditMessage(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.addUser(t, "alice"), env.addUser(t, "bob")
	group, _ := env.convs.CreateGroup(ctx, a.ID, CreateGroupInput{Name: "G", Members: []uuid.UUID{b.ID}})
	msg, _ := env.messages.Send(ctx, b.ID, group.ID, SendMessageInput{Text: "helo"})

	if _, err := env.messages.Edit(ctx, a.ID, msg.ID, EditMessageInput{Text: "hijacked"}); !errors.Is(err, ErrNotMessageOwner) {
		t.Fatalf("owner must not edit others' messages, got %v", err)
	}

	edited, err := env.messages.Edit(ctx, b.ID, msg.ID, EditMessageInput{Text: "hello"})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.Text != "hello" || edited.EditedAt == nil {
		t.Fatalf("unexpected edit result %+v", edited)
	}
	if _, err := env.messages.Edit(ctx, b.ID, uuid.New(), EditMessageInput{Text: "x"}); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestListMessagesChronological(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.addUser(t, "alice"), env.addUser(t, "bob")
	group, _ := env.convs.CreateGroup(ctx, a.ID, CreateGroupInput{Name: "G", Members: []uuid.UUID{b.ID}})

	texts := []string{"one", "two", "three", "four", "five"}
	for _, text := range texts {
		if _, err := env.messages.Send(ctx, a.ID, group.ID, SendMessageInput{Text: text}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	latest, err := env.messages.List(ctx, b.ID, group.ID, NewPage(1, 2))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(latest.Items) != 2 || latest.Items[0].Text != "four" || latest.Items[1].Text != "five" {
		t.Fatalf("expected [four five], got %+v", latest.Items)
	}
	if !latest.HasMore {
		t.Fatal("expected more pages")
	}

	older, _ := env.messages.List(ctx, b.ID, group.ID, NewPage(3, 2))
	if len(older.Items) != 1 || older.Items[0].Text != "one" || older.HasMore {
		t.Fatalf("expected [one], got %+v", older.Items)
	}

	eve := env.addUser(t, "eve")
	if _, err := env.messages.List(ctx, eve.ID, group.ID, firstPage()); !errors.Is(err, ErrNotConversationMember) {
		t.Fatalf("expected ErrNotConversationMember, got %v", err)
	}
}

func TestMessageNotifiesUnmutedMembers(t *testing.T) {
	env := newTestEnv(t)
	a, b, c := env.addUser(t, "alice"), env.addUser(t, "bob"), env.addUser(t, "carol")
	group, _ := env.convs.CreateGroup(ctx, a.ID, CreateGroupInput{Name: "G", Members: []uuid.UUID{b.ID, c.ID}})
	if _, err := env.convs.Mute(ctx, c.ID, group.ID, MuteInput{Muted: true}); err != nil {
		t.Fatalf("Mute: %v", err)
	}

	if _, err := env.messages.Send(ctx, a.ID, group.ID, SendMessageInput{Text: "ping"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(env.db.Notifications) != 1 || env.db.Notifications[0].UserID != b.ID {
		t.Fatalf("expected one notification for bob, got %+v", env.db.Notifications)
	}
	n := env.db.Notifications[0]
	if n.Type != domain.NotificationMessage || n.ActorID != a.ID || n.TargetID == nil || *n.TargetID != group.ID {
		t.Fatalf("unexpected notification %+v", n)
	}
	if len(env.mailer.sent) != 1 || env.mailer.sent[0].To != b.Email {
		t.Fatalf("expected one message email to bob, got %+v", env.mailer.sent)
	}
}
