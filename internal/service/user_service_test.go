package service

import (
	"errors"
	"testing"

	"github.com/vedran77/circle/internal/domain"
)

func TestFollowIsIdempotentAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.addUser(t, "alice"), env.addUser(t, "bob")

	if err := env.users.Follow(ctx, a.ID, a.ID); !errors.Is(err, ErrCannotFollowSelf) {
		t.Fatalf("expected ErrCannotFollowSelf, got %v", err)
	}

	for range 2 {
		if err := env.users.Follow(ctx, a.ID, b.ID); err != nil {
			t.Fatalf("Follow: %v", err)
		}
	}

	if len(env.db.Notifications) != 1 || env.db.Notifications[0].Type != domain.NotificationFollow {
		t.Fatalf("expected one follow notification, got %+v", env.db.Notifications)
	}
	if len(env.db.Activities) != 1 || env.db.Activities[0].TargetID != b.ID {
		t.Fatalf("expected one follow activity, got %+v", env.db.Activities)
	}

	profile, err := env.users.Profile(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if !profile.IsFollowing || profile.FollowerCount != 1 {
		t.Fatalf("unexpected profile %+v", profile)
	}

	if err := env.users.Unfollow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	followers, _ := env.users.Followers(ctx, a.ID, b.ID, firstPage())
	if len(followers.Items) != 0 {
		t.Fatalf("expected no followers, got %+v", followers.Items)
	}
}

func TestPrivateProfileRestricted(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.addUser(t, "alice"), env.addUser(t, "bob")

	private := true
	bio := "secret life"
	if _, err := env.users.UpdateSettings(ctx, b.ID, UpdateSettingsInput{IsPrivate: &private}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if _, err := env.users.UpdateProfile(ctx, b.ID, UpdateProfileInput{Bio: &bio}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	profile, err := env.users.Profile(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if !profile.Restricted || profile.Bio != "" {
		t.Fatalf("stranger should see a restricted profile: %+v", profile)
	}
	if _, err := env.users.Following(ctx, a.ID, b.ID, firstPage()); !errors.Is(err, ErrProfileRestricted) {
		t.Fatalf("expected ErrProfileRestricted, got %v", err)
	}

	own, _ := env.users.Profile(ctx, b.ID, b.ID)
	if own.Restricted || own.Bio != bio {
		t.Fatalf("owner should see full profile: %+v", own)
	}

	env.follow(a, b)
	followed, _ := env.users.Profile(ctx, a.ID, b.ID)
	if followed.Restricted || followed.Bio != bio {
		t.Fatalf("follower should see full profile: %+v", followed)
	}
}

func TestUpdateSettingsTogglesNotifications(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.addUser(t, "alice"), env.addUser(t, "bob")

	off := domain.NotificationToggles{}
	if _, err := env.users.UpdateSettings(ctx, b.ID, UpdateSettingsInput{Push: &off, Email: &off}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if err := env.users.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(env.db.Notifications) != 0 || len(env.mailer.sent) != 0 {
		t.Fatal("notifications are switched off")
	}
}

func TestSearchUsersAndAvatar(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "alice")
	env.addUser(t, "albert")
	env.addUser(t, "bob")

	res, err := env.users.Search(ctx, "al", firstPage())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 2 || res.Items[0].Username != "albert" {
		t.Fatalf("unexpected results %+v", res.Items)
	}

	user, err := env.users.SetAvatar(ctx, a.ID, "/uploads/me.png")
	if err != nil || user.AvatarURL == nil || *user.AvatarURL != "/uploads/me.png" {
		t.Fatalf("SetAvatar: %v %+v", err, user)
	}
}

func TestFeedResolvesActivities(t *testing.T) {
	env := newTestEnv(t)
	a, b, c := env.addUser(t, "alice"), env.addUser(t, "bob"), env.addUser(t, "carol")

	if err := env.users.Follow(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	post, err := env.posts.Create(ctx, b.ID, CreatePostInput{Text: "hello world"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.posts.AddComment(ctx, b.ID, post.ID, CreateCommentInput{Text: "first!"}); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if _, err := env.posts.Create(ctx, c.ID, CreatePostInput{Text: "not followed"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	doomed, _ := env.posts.Create(ctx, b.ID, CreatePostInput{Text: "gone soon"})
	if err := env.posts.Delete(ctx, b.ID, false, doomed.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	feed, err := env.feed.Feed(ctx, a.ID, firstPage())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed.Items) != 3 {
		t.Fatalf("expected comment, post and follow items, got %d", len(feed.Items))
	}

	comment, postItem, follow := feed.Items[0], feed.Items[1], feed.Items[2]
	if comment.Type != domain.ActivityComment || comment.Comment == nil || comment.Post != nil {
		t.Fatalf("unexpected comment item %+v", comment)
	}
	if postItem.Type != domain.ActivityPost || postItem.Post == nil || postItem.Post.ID != post.ID {
		t.Fatalf("unexpected post item %+v", postItem)
	}
	if follow.Type != domain.ActivityFollow || follow.User == nil || follow.User.ID != b.ID || follow.Actor.ID != a.ID {
		t.Fatalf("unexpected follow item %+v", follow)
	}
}

func TestFeedHidesCommentsOnPrivatePosts(t *testing.T) {
	env := newTestEnv(t)
	a, b, c := env.addUser(t, "alice"), env.addUser(t, "bob"), env.addUser(t, "carol")

	hidden := env.db.Users[c.ID]
	hidden.IsPrivate = true
	env.db.Users[c.ID] = hidden

	env.follow(b, c)
	env.follow(a, b)
	post, err := env.posts.Create(ctx, c.ID, CreatePostInput{Text: "friends only"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.posts.AddComment(ctx, b.ID, post.ID, CreateCommentInput{Text: "nice"}); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	countComments := func(viewer domain.User) int {
		t.Helper()
		feed, err := env.feed.Feed(ctx, viewer.ID, firstPage())
		if err != nil {
			t.Fatalf("Feed: %v", err)
		}
		n := 0
		for _, item := range feed.Items {
			if item.Type == domain.ActivityComment {
				n++
			}
		}
		return n
	}

	if n := countComments(a); n != 0 {
		t.Fatalf("comment on a private post leaked into the feed: %d", n)
	}
	if n := countComments(b); n != 1 {
		t.Fatalf("commenter should see their own comment, got %d", n)
	}

	env.follow(a, c)
	if n := countComments(a); n != 1 {
		t.Fatalf("follower of the author should see the comment, got %d", n)
	}
}
