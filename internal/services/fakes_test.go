package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"moment-backend/internal/apperr"
	"moment-backend/internal/models"
)

// In-memory stand-ins for the storage and collaborator ports. They mirror
// the constraints the real Postgres schema enforces, in particular the
// unique indexes that surface as Conflict.

type fakeUserStore struct {
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email || u.Phone == user.Phone {
			return apperr.New(apperr.Conflict, "email or phone already in use")
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "user not found")
}

func (f *fakeUserStore) List(_ context.Context, limit, offset int) ([]*models.User, int, error) {
	var users []*models.User
	for _, u := range f.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return paginate(users, limit, offset), len(users), nil
}

func (f *fakeUserStore) Update(_ context.Context, user *models.User) error {
	stored, ok := f.users[user.ID]
	if !ok {
		return apperr.New(apperr.NotFound, "user not found")
	}
	for _, u := range f.users {
		if u.ID != user.ID && (u.Email == user.Email || u.Phone == user.Phone) {
			return apperr.New(apperr.Conflict, "email or phone already in use")
		}
	}
	stored.Name = user.Name
	stored.Email = user.Email
	stored.Phone = user.Phone
	return nil
}

func (f *fakeUserStore) UpdateProfilePicture(_ context.Context, userID string, picture *models.Image) error {
	u, ok := f.users[userID]
	if !ok {
		return apperr.New(apperr.NotFound, "user not found")
	}
	u.ProfilePicture = picture
	return nil
}

func (f *fakeUserStore) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	u, ok := f.users[userID]
	if !ok {
		return apperr.New(apperr.NotFound, "user not found")
	}
	u.PushToken = pushToken
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return apperr.New(apperr.NotFound, "user not found")
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) addUser(id string, role models.Role) *models.User {
	u := &models.User{
		ID:        id,
		Name:      id,
		Email:     id + "@example.com",
		Phone:     "+1" + id,
		Role:      role,
		CreatedAt: time.Now(),
	}
	f.users[id] = u
	return u
}

type fakeFriendshipStore struct {
	friendships map[string]*models.Friendship
}

func newFakeFriendshipStore() *fakeFriendshipStore {
	return &fakeFriendshipStore{friendships: make(map[string]*models.Friendship)}
}

func (f *fakeFriendshipStore) Create(_ context.Context, fr *models.Friendship) error {
	for _, existing := range f.friendships {
		if existing.UserAID == fr.UserAID && existing.UserBID == fr.UserBID {
			return apperr.New(apperr.Conflict, "friendship already exists")
		}
	}
	copied := *fr
	f.friendships[fr.ID] = &copied
	return nil
}

func (f *fakeFriendshipStore) GetByID(_ context.Context, id string) (*models.Friendship, error) {
	fr, ok := f.friendships[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "friendship not found")
	}
	copied := *fr
	return &copied, nil
}

func (f *fakeFriendshipStore) UpdateStatus(_ context.Context, id string, status models.FriendshipStatus) error {
	fr, ok := f.friendships[id]
	if !ok {
		return apperr.New(apperr.NotFound, "friendship not found")
	}
	fr.Status = status
	return nil
}

func (f *fakeFriendshipStore) Delete(_ context.Context, id string) error {
	if _, ok := f.friendships[id]; !ok {
		return apperr.New(apperr.NotFound, "friendship not found")
	}
	delete(f.friendships, id)
	return nil
}

func (f *fakeFriendshipStore) ListByUser(_ context.Context, userID string, statusFilter models.FriendshipStatus, limit, offset int) ([]*models.Friendship, int, error) {
	var matches []*models.Friendship
	for _, fr := range f.friendships {
		if !fr.Involves(userID) {
			continue
		}
		if statusFilter != "" {
			if fr.Status == statusFilter {
				matches = append(matches, fr)
			}
			continue
		}
		if fr.Status == models.FriendshipAccepted ||
			(fr.Status == models.FriendshipPending && fr.RequesterID != userID) {
			matches = append(matches, fr)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return paginate(matches, limit, offset), len(matches), nil
}

func (f *fakeFriendshipStore) IsFriend(_ context.Context, userAID, userBID string) (bool, error) {
	for _, fr := range f.friendships {
		if fr.UserAID == userAID && fr.UserBID == userBID && fr.Status == models.FriendshipAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFriendshipStore) AcceptedFriendIDs(_ context.Context, userID string) ([]string, error) {
	seen := make(map[string]bool)
	var friendIDs []string
	for _, fr := range f.friendships {
		if !fr.Involves(userID) || fr.Status != models.FriendshipAccepted {
			continue
		}
		other := fr.OtherUser(userID)
		if other == userID || seen[other] {
			continue
		}
		seen[other] = true
		friendIDs = append(friendIDs, other)
	}
	sort.Strings(friendIDs)
	return friendIDs, nil
}

func (f *fakeFriendshipStore) DeleteByUser(_ context.Context, userID string) error {
	for id, fr := range f.friendships {
		if fr.Involves(userID) {
			delete(f.friendships, id)
		}
	}
	return nil
}

type fakePublicationStore struct {
	publications map[string]*models.Publication
}

func newFakePublicationStore() *fakePublicationStore {
	return &fakePublicationStore{publications: make(map[string]*models.Publication)}
}

func (f *fakePublicationStore) Create(_ context.Context, p *models.Publication) error {
	copied := *p
	f.publications[p.ID] = &copied
	return nil
}

func (f *fakePublicationStore) GetByID(_ context.Context, id string) (*models.Publication, error) {
	p, ok := f.publications[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "publication not found")
	}
	copied := *p
	return &copied, nil
}

func (f *fakePublicationStore) LatestByUser(_ context.Context, userID string) (*models.Publication, error) {
	var latest *models.Publication
	for _, p := range f.publications {
		if p.UserID != userID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (f *fakePublicationStore) ListByAuthors(_ context.Context, authorIDs []string, after *time.Time, limit, offset int) ([]*models.Publication, int, error) {
	authors := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = true
	}
	var matches []*models.Publication
	for _, p := range f.publications {
		if !authors[p.UserID] {
			continue
		}
		if after != nil && !p.CreatedAt.After(*after) {
			continue
		}
		matches = append(matches, p)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return paginate(matches, limit, offset), len(matches), nil
}

func (f *fakePublicationStore) ListAll(_ context.Context, limit, offset int) ([]*models.Publication, int, error) {
	var all []*models.Publication
	for _, p := range f.publications {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, limit, offset), len(all), nil
}

func (f *fakePublicationStore) AllByUser(_ context.Context, userID string) ([]*models.Publication, error) {
	var matches []*models.Publication
	for _, p := range f.publications {
		if p.UserID == userID {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func (f *fakePublicationStore) Delete(_ context.Context, id string) error {
	if _, ok := f.publications[id]; !ok {
		return apperr.New(apperr.NotFound, "publication not found")
	}
	delete(f.publications, id)
	return nil
}

type fakeNotificationStore struct {
	notifications []*models.Notification
}

func (f *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	if n.Type == models.NotificationTypeBeReal {
		for _, existing := range f.notifications {
			if existing.Type != models.NotificationTypeBeReal {
				continue
			}
			if sameDay(existing.SentAt, n.SentAt) {
				return apperr.New(apperr.Conflict, "notification already sent today")
			}
		}
	}
	copied := *n
	f.notifications = append(f.notifications, &copied)
	return nil
}

func (f *fakeNotificationStore) CountByTypeBetween(_ context.Context, notifType string, from, to time.Time) (int, error) {
	count := 0
	for _, n := range f.notifications {
		if n.Type == notifType && !n.SentAt.Before(from) && n.SentAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) LatestByType(_ context.Context, notifType string) (*models.Notification, error) {
	var latest *models.Notification
	for _, n := range f.notifications {
		if n.Type != notifType {
			continue
		}
		if latest == nil || n.SentAt.After(latest.SentAt) {
			latest = n
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeNotificationStore) List(_ context.Context) ([]*models.Notification, error) {
	out := make([]*models.Notification, len(f.notifications))
	copy(out, f.notifications)
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

type fakeCommentStore struct {
	comments map[string]*models.Comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]*models.Comment)}
}

func (f *fakeCommentStore) Create(_ context.Context, c *models.Comment) error {
	copied := *c
	f.comments[c.ID] = &copied
	return nil
}

func (f *fakeCommentStore) GetByID(_ context.Context, id string) (*models.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "comment not found")
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCommentStore) ListByPublication(_ context.Context, publicationID string) ([]*models.Comment, error) {
	var matches []*models.Comment
	for _, c := range f.comments {
		if c.PublicationID == publicationID {
			matches = append(matches, c)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return matches, nil
}

func (f *fakeCommentStore) ListByParent(_ context.Context, parentID string) ([]*models.Comment, error) {
	var matches []*models.Comment
	for _, c := range f.comments {
		if c.ParentID != nil && *c.ParentID == parentID {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

func (f *fakeCommentStore) ListByUser(_ context.Context, userID string) ([]*models.Comment, error) {
	var matches []*models.Comment
	for _, c := range f.comments {
		if c.UserID == userID {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

func (f *fakeCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := f.comments[id]; !ok {
		return apperr.New(apperr.NotFound, "comment not found")
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeCommentStore) DeleteByPublication(_ context.Context, publicationID string) error {
	for id, c := range f.comments {
		if c.PublicationID == publicationID {
			delete(f.comments, id)
		}
	}
	return nil
}

type fakeImageStore struct {
	uploads    map[string][]byte
	deleted    []string
	failUpload map[string]bool // key substring match
	failDelete bool
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{
		uploads:    make(map[string][]byte),
		failUpload: make(map[string]bool),
	}
}

func (f *fakeImageStore) Upload(_ context.Context, key, _ string, data []byte) (models.Image, error) {
	for substr, fail := range f.failUpload {
		if fail && strings.Contains(key, substr) {
			return models.Image{}, fmt.Errorf("upload refused for %s", key)
		}
	}
	f.uploads[key] = data
	return models.Image{URL: "https://cdn.example.com/" + key, ObjectKey: key}, nil
}

func (f *fakeImageStore) Delete(_ context.Context, key string) error {
	if f.failDelete {
		return fmt.Errorf("delete refused for %s", key)
	}
	delete(f.uploads, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakeDispatcher struct {
	fail    bool
	calls   int
	content string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, content string) (string, error) {
	f.calls++
	if f.fail {
		return "", fmt.Errorf("push gateway unavailable")
	}
	f.content = content
	return fmt.Sprintf("dispatch-%d", f.calls), nil
}

type sentNotice struct {
	userIDs []string
	message WSMessage
}

type fakeNotifier struct {
	notices []sentNotice
}

func (f *fakeNotifier) Notify(userIDs []string, message WSMessage) {
	f.notices = append(f.notices, sentNotice{userIDs: userIDs, message: message})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
