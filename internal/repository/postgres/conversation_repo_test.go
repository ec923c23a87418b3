package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/circle/internal/database"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

// testPool connects to TEST_DATABASE_URL and applies the schema. Tests skip without it.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return pool
}

func newDirect(a, b uuid.UUID, state string, created time.Time) *domain.Conversation {
	return &domain.Conversation{
		ID:        uuid.New(),
		Members:   []uuid.UUID{a, b},
		Admins:    []uuid.UUID{},
		State:     state,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func createConv(t *testing.T, repo *ConversationRepo, conv *domain.Conversation) {
	t.Helper()
	ctx := context.Background()
	if err := repo.Create(ctx, conv); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { repo.Delete(context.Background(), conv.ID) })
}

func TestConversationRepoFindDirect(t *testing.T) {
	repo := NewConversationRepo(testPool(t))
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	rejected := newDirect(a, b, domain.StateRejected, now.Add(-time.Hour))
	createConv(t, repo, rejected)

	got, err := repo.FindDirect(ctx, b, a)
	if err != nil || got != nil {
		t.Fatalf("rejected conversation must not be found, got %v (%v)", got, err)
	}

	pending := newDirect(a, b, domain.StatePending, now)
	pending.RequestedBy, pending.PendingFor = &a, &b
	createConv(t, repo, pending)

	group := &domain.Conversation{
		ID: uuid.New(), IsGroup: true, Members: []uuid.UUID{a, b, c}, Admins: []uuid.UUID{a},
		State: domain.StateAccepted, CreatedAt: now, UpdatedAt: now,
	}
	createConv(t, repo, group)

	got, err = repo.FindDirect(ctx, b, a)
	if err != nil {
		t.Fatalf("FindDirect: %v", err)
	}
	if got == nil || got.ID != pending.ID {
		t.Fatalf("expected the pending direct conversation, got %+v", got)
	}
	if got.PendingFor == nil || *got.PendingFor != b {
		t.Fatalf("pending_for not round-tripped: %+v", got)
	}
}

func TestConversationRepoListByMemberOrder(t *testing.T) {
	repo := NewConversationRepo(testPool(t))
	ctx := context.Background()
	me := uuid.New()
	now := time.Now()

	quiet := newDirect(me, uuid.New(), domain.StateAccepted, now)
	older := newDirect(me, uuid.New(), domain.StateAccepted, now)
	newer := newDirect(me, uuid.New(), domain.StateAccepted, now)
	for _, c := range []*domain.Conversation{quiet, older, newer} {
		createConv(t, repo, c)
	}
	if err := repo.TouchLastMessage(ctx, older.ID, now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := repo.TouchLastMessage(ctx, newer.ID, now.Add(2*time.Minute)); err != nil {
		t.Fatal(err)
	}

	list, err := repo.ListByMember(ctx, me, []string{domain.StateAccepted}, repository.Page{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListByMember: %v", err)
	}
	if len(list) != 3 || list[0].ID != newer.ID || list[1].ID != older.ID || list[2].ID != quiet.ID {
		t.Fatalf("expected [newer older quiet], got %d items", len(list))
	}
}

func TestConversationRepoMapsRoundTrip(t *testing.T) {
	repo := NewConversationRepo(testPool(t))
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	conv := newDirect(a, b, domain.StatePending, time.Now())
	conv.PendingFor = &b
	createConv(t, repo, conv)

	typedAt := time.Now().UTC().Truncate(time.Second)
	conv.Muted[a] = true
	conv.Nicknames[b] = "bobby"
	conv.Typing[a] = typedAt
	if err := repo.Update(ctx, conv); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.GetByID(ctx, conv.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Muted[a] || got.Muted[b] {
		t.Fatalf("muted not round-tripped: %v", got.Muted)
	}
	if got.Nicknames[b] != "bobby" {
		t.Fatalf("nicknames not round-tripped: %v", got.Nicknames)
	}
	if !got.Typing[a].Equal(typedAt) {
		t.Fatalf("typing not round-tripped: %v", got.Typing)
	}

	requests, err := repo.ListRequests(ctx, b, repository.Page{Page: 1, Limit: 10})
	if err != nil || len(requests) != 1 {
		t.Fatalf("expected one request for b, got %d (%v)", len(requests), err)
	}
	got.RemoveMember(b)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	requests, err = repo.ListRequests(ctx, b, repository.Page{Page: 1, Limit: 10})
	if err != nil || len(requests) != 0 {
		t.Fatalf("request still listed after leaving, got %d (%v)", len(requests), err)
	}
}
