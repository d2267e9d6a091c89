package services

import (
	"context"
	"testing"
	"time"

	"moment-backend/internal/apperr"
	"moment-backend/internal/models"

	"github.com/google/uuid"
)

type publicationFixture struct {
	svc           *PublicationService
	publications  *fakePublicationStore
	notifications *fakeNotificationStore
	comments      *fakeCommentStore
	friendships   *fakeFriendshipStore
	users         *fakeUserStore
	images        *fakeImageStore
	notifier      *fakeNotifier
}

func newPublicationFixture() *publicationFixture {
	f := &publicationFixture{
		publications:  newFakePublicationStore(),
		notifications: &fakeNotificationStore{},
		comments:      newFakeCommentStore(),
		friendships:   newFakeFriendshipStore(),
		users:         newFakeUserStore(),
		images:        newFakeImageStore(),
		notifier:      &fakeNotifier{},
	}
	friendshipSvc := NewFriendshipService(f.friendships, f.users, f.notifier)
	f.svc = NewPublicationService(
		f.publications, f.notifications, f.comments, friendshipSvc, f.images, f.notifier,
	)
	return f
}

func (f *publicationFixture) makeFriends(t *testing.T, a, b string) {
	t.Helper()
	userA, userB := a, b
	if userA > userB {
		userA, userB = userB, userA
	}
	err := f.friendships.Create(context.Background(), &models.Friendship{
		ID:          uuid.New().String(),
		UserAID:     userA,
		UserBID:     userB,
		RequesterID: a,
		Status:      models.FriendshipAccepted,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to seed friendship: %v", err)
	}
}

func (f *publicationFixture) addTrigger(sentAt time.Time) {
	f.notifications.notifications = append(f.notifications.notifications, &models.Notification{
		ID:     uuid.New().String(),
		Type:   models.NotificationTypeBeReal,
		SentAt: sentAt,
	})
}

func (f *publicationFixture) addPost(userID string, createdAt time.Time) *models.Publication {
	p := &models.Publication{
		ID:         uuid.New().String(),
		UserID:     userID,
		FrontImage: models.Image{URL: "u", ObjectKey: "publications/" + userID + "/front.jpg"},
		BackImage:  models.Image{URL: "u", ObjectKey: "publications/" + userID + "/back.jpg"},
		CreatedAt:  createdAt,
	}
	f.publications.publications[p.ID] = p
	return p
}

func testUpload() ImageUpload {
	return ImageUpload{Filename: "capture.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")}
}

func TestPostingWindowNoTriggerEverFired(t *testing.T) {
	f := newPublicationFixture()
	ctx := context.Background()
	f.svc.now = func() time.Time { return time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC) }

	// Without any trigger there is nothing to gate on.
	if _, err := f.svc.Create(ctx, "alice", models.RoleUser, testUpload(), testUpload(), 2.35, 48.85); err != nil {
		t.Fatalf("post without any trigger failed: %v", err)
	}
}

func TestPostingWindowGate(t *testing.T) {
	f := newPublicationFixture()
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	f.addTrigger(base.Add(-time.Hour))

	// Trigger fired, user has never posted: allowed.
	f.svc.now = func() time.Time { return base }
	if _, err := f.svc.Create(ctx, "alice", models.RoleUser, testUpload(), testUpload(), 2.35, 48.85); err != nil {
		t.Fatalf("initial post failed: %v", err)
	}

	// Second post before any new trigger: rejected.
	f.svc.now = func() time.Time { return base.Add(time.Hour) }
	_, err := f.svc.Create(ctx, "alice", models.RoleUser, testUpload(), testUpload(), 2.35, 48.85)
	if !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden before next trigger, got %v", err)
	}

	// A new trigger after the last post reopens the window.
	f.addTrigger(base.Add(2 * time.Hour))
	f.svc.now = func() time.Time { return base.Add(3 * time.Hour) }
	if _, err := f.svc.Create(ctx, "alice", models.RoleUser, testUpload(), testUpload(), 2.35, 48.85); err != nil {
		t.Fatalf("post after new trigger failed: %v", err)
	}

	// And once used, the window is closed again.
	f.svc.now = func() time.Time { return base.Add(4 * time.Hour) }
	if _, err := f.svc.Create(ctx, "alice", models.RoleUser, testUpload(), testUpload(), 2.35, 48.85); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden after posting in window, got %v", err)
	}

	// Administrators bypass the gate unconditionally.
	if _, err := f.svc.Create(ctx, "alice", models.RoleAdmin, testUpload(), testUpload(), 2.35, 48.85); err != nil {
		t.Fatalf("admin bypass failed: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newPublicationFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "alice", models.RoleUser, ImageUpload{}, testUpload(), 0, 0)
	if !apperr.IsKind(err, apperr.InvalidArgument) {
		t.Fatalf("expected InvalidArgument for missing front image, got %v", err)
	}
	_, err = f.svc.Create(ctx, "alice", models.RoleUser, testUpload(), testUpload(), 0, 200)
	if !apperr.IsKind(err, apperr.InvalidArgument) {
		t.Fatalf("expected InvalidArgument for out-of-range latitude, got %v", err)
	}
	if len(f.publications.publications) != 0 {
		t.Fatal("no record should be created on validation failure")
	}
}

func TestCreateBackUploadFailureCleansUpFront(t *testing.T) {
	f := newPublicationFixture()
	f.images.failUpload["back"] = true
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "alice", models.RoleUser, testUpload(), testUpload(), 2.35, 48.85)
	if !apperr.IsKind(err, apperr.DependencyFailure) {
		t.Fatalf("expected DependencyFailure, got %v", err)
	}
	if len(f.publications.publications) != 0 {
		t.Fatal("no record should be persisted on upload failure")
	}
	if len(f.images.uploads) != 0 {
		t.Fatalf("front image should have been cleaned up, %d objects remain", len(f.images.uploads))
	}
}

func TestCreateNotifiesFriends(t *testing.T) {
	f := newPublicationFixture()
	f.makeFriends(t, "alice", "bob")
	f.makeFriends(t, "alice", "carol")
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, "alice", models.RoleUser, testUpload(), testUpload(), 2.35, 48.85); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(f.notifier.notices) != 1 {
		t.Fatalf("expected one notice, got %d", len(f.notifier.notices))
	}
	notice := f.notifier.notices[0]
	if notice.message.Type != "publication_created" {
		t.Fatalf("unexpected notice type %s", notice.message.Type)
	}
	if len(notice.userIDs) != 2 {
		t.Fatalf("expected notice to both friends, got %v", notice.userIDs)
	}
}

func TestFeedFiltering(t *testing.T) {
	f := newPublicationFixture()
	ctx := context.Background()
	trigger := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	f.makeFriends(t, "u", "f")
	f.addTrigger(trigger)

	prePost := f.addPost("f", trigger.Add(-time.Hour))
	postPost := f.addPost("f", trigger.Add(time.Hour))
	f.addPost("s", trigger.Add(time.Hour)) // stranger, posts after the trigger

	feed, total, err := f.svc.Feed(ctx, "u", models.RoleUser, "", 1, 10)
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if total != 1 || len(feed) != 1 {
		t.Fatalf("expected exactly one visible post, got total=%d len=%d", total, len(feed))
	}
	if feed[0].ID != postPost.ID {
		t.Fatalf("expected post-trigger post %s, got %s", postPost.ID, feed[0].ID)
	}
	if feed[0].ID == prePost.ID {
		t.Fatal("pre-trigger post must not appear")
	}
}

func TestFeedNoFriendsIsEmpty(t *testing.T) {
	f := newPublicationFixture()
	f.addPost("s", time.Now())

	feed, total, err := f.svc.Feed(context.Background(), "u", models.RoleUser, "", 1, 10)
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if total != 0 || len(feed) != 0 {
		t.Fatalf("expected empty feed, got total=%d len=%d", total, len(feed))
	}
}

func TestTargetedVisibility(t *testing.T) {
	f := newPublicationFixture()
	ctx := context.Background()
	trigger := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f.addTrigger(trigger)
	f.makeFriends(t, "u", "f")
	f.addPost("s", trigger.Add(time.Hour))
	f.addPost("u", trigger.Add(time.Hour))
	f.addPost("f", trigger.Add(-time.Hour))
	f.addPost("f", trigger.Add(time.Hour))

	// Not a friend: Forbidden.
	if _, _, err := f.svc.Feed(ctx, "u", models.RoleUser, "s", 1, 10); !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden for stranger's feed, got %v", err)
	}

	// Self: always allowed, regardless of the friend graph.
	own, total, err := f.svc.Feed(ctx, "u", models.RoleUser, "u", 1, 10)
	if err != nil {
		t.Fatalf("self feed failed: %v", err)
	}
	if total != 1 || own[0].UserID != "u" {
		t.Fatalf("expected own post, got total=%d", total)
	}

	// Friend: gated to posts after the trigger.
	friendPosts, total, err := f.svc.Feed(ctx, "u", models.RoleUser, "f", 1, 10)
	if err != nil {
		t.Fatalf("friend feed failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected only the post-trigger post, got total=%d", total)
	}
	if !friendPosts[0].CreatedAt.After(trigger) {
		t.Fatal("pre-trigger post leaked into the targeted feed")
	}

	// An administrator may target anyone.
	if _, _, err := f.svc.Feed(ctx, "admin", models.RoleAdmin, "s", 1, 10); err != nil {
		t.Fatalf("admin targeted feed failed: %v", err)
	}
}

func TestAdminBypassListsEverything(t *testing.T) {
	f := newPublicationFixture()
	ctx := context.Background()
	trigger := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f.addTrigger(trigger)
	f.addPost("a", trigger.Add(-time.Hour))
	f.addPost("b", trigger.Add(time.Hour))

	all, total, err := f.svc.Feed(ctx, "admin", models.RoleAdmin, "", 1, 10)
	if err != nil {
		t.Fatalf("admin listing failed: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("expected un-gated listing of 2, got total=%d len=%d", total, len(all))
	}
	if !all[0].CreatedAt.After(all[1].CreatedAt) {
		t.Fatal("expected newest-first ordering")
	}
}

func TestFeedPagination(t *testing.T) {
	f := newPublicationFixture()
	ctx := context.Background()
	f.makeFriends(t, "u", "f")
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.addPost("f", base.Add(time.Duration(i)*time.Minute))
	}

	page2, total, err := f.svc.Feed(ctx, "u", models.RoleUser, "", 2, 2)
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
	if len(page2) != 2 {
		t.Fatalf("expected 2 items on page 2, got %d", len(page2))
	}

	// Out-of-range values fall back to the defaults.
	all, _, err := f.svc.Feed(ctx, "u", models.RoleUser, "", 0, -3)
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected default page size to cover all 5, got %d", len(all))
	}
}

func TestDeleteCascadesImagesAndComments(t *testing.T) {
	f := newPublicationFixture()
	ctx := context.Background()

	p := f.addPost("alice", time.Now())
	f.comments.comments["c1"] = &models.Comment{ID: "c1", PublicationID: p.ID, UserID: "bob"}
	f.comments.comments["c2"] = &models.Comment{ID: "c2", PublicationID: p.ID, UserID: "carol"}

	if err := f.svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(f.images.deleted) != 2 {
		t.Fatalf("expected exactly two external deletions, got %d", len(f.images.deleted))
	}
	if len(f.comments.comments) != 0 {
		t.Fatalf("expected comments cascaded, %d remain", len(f.comments.comments))
	}
	if len(f.publications.publications) != 0 {
		t.Fatal("expected publication record removed")
	}
}

func TestDeleteAbortsWhenImageDeletionFails(t *testing.T) {
	f := newPublicationFixture()
	f.images.failDelete = true
	ctx := context.Background()

	p := f.addPost("alice", time.Now())
	f.comments.comments["c1"] = &models.Comment{ID: "c1", PublicationID: p.ID, UserID: "bob"}

	err := f.svc.Delete(ctx, p.ID)
	if !apperr.IsKind(err, apperr.DependencyFailure) {
		t.Fatalf("expected DependencyFailure, got %v", err)
	}
	if len(f.publications.publications) != 1 {
		t.Fatal("publication record must survive a failed external cleanup")
	}
	if len(f.comments.comments) != 1 {
		t.Fatal("comments must survive a failed external cleanup")
	}
}
