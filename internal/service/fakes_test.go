package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
	"github.com/vedran77/circle/internal/repository/memory"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// recordingNotifier captures real-time events.
type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) NotifyNewMessage(_ *domain.Conversation, _ *domain.Message) {
	n.events = append(n.events, "message.new")
}

func (n *recordingNotifier) NotifyEditedMessage(_ *domain.Conversation, _ *domain.Message) {
	n.events = append(n.events, "message.edited")
}

func (n *recordingNotifier) NotifyDeletedMessage(_ *domain.Conversation, _ uuid.UUID) {
	n.events = append(n.events, "message.deleted")
}

func (n *recordingNotifier) NotifyReaction(_ *domain.Conversation, _ *domain.Message) {
	n.events = append(n.events, "message.reaction")
}

func (n *recordingNotifier) NotifyConversationUpdated(_ *domain.Conversation) {
	n.events = append(n.events, "conversation.updated")
}

func (n *recordingNotifier) NotifyTyping(_ *domain.Conversation, _ uuid.UUID, _ bool) {
	n.events = append(n.events, "typing")
}

// --- wiring ---

type testEnv struct {
	db            *memory.DB
	mailer        *fakeMailer
	notifier      *recordingNotifier
	auth          *AuthService
	users         *UserService
	posts         *PostService
	feed          *FeedService
	notifications *NotificationService
	convs         *ConversationService
	messages      *MessageService
	admin         *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := memory.New()
	userRepo := memory.NewUserRepo(db)
	followRepo := memory.NewFollowRepo(db)
	postRepo := memory.NewPostRepo(db)
	commentRepo := memory.NewCommentRepo(db)
	convRepo := memory.NewConversationRepo(db)
	messageRepo := memory.NewMessageRepo(db)
	mailer := &fakeMailer{}
	notifier := &recordingNotifier{}

	notifications := NewNotificationService(memory.NewNotificationRepo(db), userRepo, mailer)
	feed := NewFeedService(memory.NewActivityRepo(db), followRepo, userRepo, postRepo, commentRepo)
	convs := NewConversationService(convRepo, messageRepo, userRepo, followRepo)
	convs.SetNotifier(notifier)
	messages := NewMessageService(messageRepo, convRepo, notifications)
	messages.SetNotifier(notifier)

	return &testEnv{
		db:            db,
		mailer:        mailer,
		notifier:      notifier,
		auth:          NewAuthService(userRepo, memory.NewResetTokenRepo(db), memory.NewOTPStore(db), mailer, AuthConfig{JWTSecret: "test-secret", PublicURL: "http://localhost:3000"}),
		users:         NewUserService(userRepo, followRepo, notifications, feed),
		posts:         NewPostService(postRepo, commentRepo, userRepo, followRepo, notifications, feed),
		feed:          feed,
		notifications: notifications,
		convs:         convs,
		messages:      messages,
		admin:         NewAdminService(userRepo, postRepo),
	}
}

func (e *testEnv) addUser(t *testing.T, username string) domain.User {
	t.Helper()
	now := time.Now()
	u := domain.User{
		ID:        uuid.New(),
		Email:     username + "@example.com",
		Username:  username,
		Role:      domain.RoleUser,
		Settings:  domain.DefaultSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.db.Users[u.ID] = u
	return u
}

func (e *testEnv) follow(a, b domain.User) {
	e.db.Follows[[2]uuid.UUID{a.ID, b.ID}] = true
}

func (e *testEnv) conv(t *testing.T, id uuid.UUID) *domain.Conversation {
	t.Helper()
	c, ok := e.db.Conversations[id]
	if !ok {
		return nil
	}
	return memory.CloneConversation(c)
}

func (e *testEnv) message(t *testing.T, id uuid.UUID) *domain.Message {
	t.Helper()
	for _, m := range e.db.Messages {
		if m.ID == id {
			return memory.CloneMessage(m)
		}
	}
	return nil
}

var ctx = context.Background()

func firstPage() repository.Page {
	return NewPage(1, 20)
}
