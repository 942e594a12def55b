package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/localstore/internal/kv"
	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/store"
	apperrors "github.com/anonto42/nano-midea/localstore/pkg/errors"
)

// steppingClock advances one second per call so records get distinct timestamps
func steppingClock() models.Clock {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) (*store.Store, *models.IDGenerator) {
	t.Helper()
	s := store.New(kv.NewMemoryBackend())
	t.Cleanup(func() { s.Close() })
	return s, models.NewIDGenerator(steppingClock())
}

type readOnlyBackend struct {
	*kv.MemoryBackend
}

func (readOnlyBackend) Set(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func TestSaveUser_UpsertAndMerge(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	users := NewCollectionUserRepository(s)

	alice := models.User{Username: "alice", Email: "alice@example.com", Password: "pw"}
	saved, err := users.SaveUser(ctx, alice)
	if err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	if saved.Friends == nil {
		t.Error("new user friends should be an empty list")
	}

	got := users.GetUserByUsername(ctx, "alice")
	if got == nil {
		t.Fatal("alice not found")
	}
	want := alice
	want.Friends = []string{}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("got %+v, want %+v", *got, want)
	}

	if _, err := users.SaveUser(ctx, models.User{Username: "alice", Bio: "hello"}); err != nil {
		t.Fatalf("SaveUser merge: %v", err)
	}
	got = users.GetUserByUsername(ctx, "alice")
	if got.Bio != "hello" || got.Email != "alice@example.com" || got.Password != "pw" {
		t.Errorf("merge lost fields: %+v", *got)
	}
	if n := len(users.GetUsers(ctx)); n != 1 {
		t.Errorf("users = %d, want 1", n)
	}

	current := users.GetCurrentUser(ctx)
	if current == nil || current.Bio != "hello" || current.Email != "alice@example.com" {
		t.Errorf("current user = %+v", current)
	}
}

func TestSaveUser_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	users := NewCollectionUserRepository(s)

	_, err := users.SaveUser(context.Background(), models.User{Email: "x@example.com"})
	if !apperrors.HasCode(err, apperrors.ErrCodeValidation) {
		t.Errorf("err = %v, want VALIDATION_ERROR", err)
	}
}

func TestSaveUser_WriteFailure(t *testing.T) {
	s := store.New(readOnlyBackend{kv.NewMemoryBackend()})
	users := NewCollectionUserRepository(s)

	_, err := users.SaveUser(context.Background(), models.User{Username: "alice"})
	if !apperrors.HasCode(err, apperrors.ErrCodeStorageWrite) {
		t.Errorf("err = %v, want STORAGE_WRITE", err)
	}
}

func TestUserLookups(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	users := NewCollectionUserRepository(s)

	for _, u := range []models.User{
		{Username: "alice", Email: "Alice@Example.com", DisplayName: "Alice Liddell"},
		{Username: "bob", Email: "bob@example.com", DisplayName: "Bobby"},
		{Username: "carol", DisplayName: "Carol"},
	} {
		if _, err := users.SaveUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}

	if u := users.GetUserByEmail(ctx, "alice@example.com"); u == nil || u.Username != "alice" {
		t.Errorf("GetUserByEmail = %+v", u)
	}
	if u := users.GetUserByUsername(ctx, "dave"); u != nil {
		t.Errorf("GetUserByUsername(dave) = %+v, want nil", u)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"BOB", []string{"bob"}},
		{"liddell", []string{"alice"}},
		{"o", []string{"bob", "carol"}},
		{"  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, u := range users.SearchUsers(ctx, tt.query) {
				got = append(got, u.Username)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SearchUsers(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestUpdateCurrentUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	users := NewCollectionUserRepository(s)

	got, err := users.UpdateCurrentUser(ctx, models.UserPatch{})
	if err != nil || got != nil {
		t.Fatalf("no session: got %+v, %v", got, err)
	}

	if _, err := users.SaveUser(ctx, models.User{Username: "alice", Email: "a@example.com"}); err != nil {
		t.Fatal(err)
	}
	bio := "climber"
	got, err = users.UpdateCurrentUser(ctx, models.UserPatch{Bio: &bio})
	if err != nil {
		t.Fatalf("UpdateCurrentUser: %v", err)
	}
	if got.Bio != bio || got.Email != "a@example.com" {
		t.Errorf("updated = %+v", got)
	}
	if u := users.GetUserByUsername(ctx, "alice"); u.Bio != bio {
		t.Errorf("stored bio = %q", u.Bio)
	}

	if err := users.ClearCurrentUser(ctx); err != nil {
		t.Fatal(err)
	}
	if cur := users.GetCurrentUser(ctx); cur != nil {
		t.Errorf("current user after logout = %+v", cur)
	}
}

func TestBefriend(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	users := NewCollectionUserRepository(s)
	for _, name := range []string{"bob", "alice"} {
		if _, err := users.SaveUser(ctx, models.User{Username: name}); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 2; i++ {
		if err := users.Befriend(ctx, "alice", "bob"); err != nil {
			t.Fatal(err)
		}
	}

	for name, want := range map[string][]string{"alice": {"bob"}, "bob": {"alice"}} {
		if got := users.GetUserByUsername(ctx, name).Friends; !reflect.DeepEqual(got, want) {
			t.Errorf("%s.friends = %v, want %v", name, got, want)
		}
	}
	if cur := users.GetCurrentUser(ctx); !reflect.DeepEqual(cur.Friends, []string{"bob"}) {
		t.Errorf("session user friends = %v", cur.Friends)
	}
}

func TestBefriend_MissingParty(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	users := NewCollectionUserRepository(s)
	if _, err := users.SaveUser(ctx, models.User{Username: "alice"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		a, b string
	}{
		{"sender gone", "ghost", "alice"},
		{"recipient gone", "alice", "ghost"},
		{"self", "alice", "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := users.Befriend(ctx, tt.a, tt.b); err != nil {
				t.Fatalf("Befriend() error = %v", err)
			}
			if got := users.GetUserByUsername(ctx, "alice").Friends; len(got) != 0 {
				t.Errorf("alice.friends = %v, want empty", got)
			}
			if got := users.GetCurrentUser(ctx).Friends; len(got) != 0 {
				t.Errorf("session user friends = %v, want empty", got)
			}
			if users.GetUserByUsername(ctx, "ghost") != nil {
				t.Error("missing user was created")
			}
		})
	}
}

func TestPosts(t *testing.T) {
	ctx := context.Background()
	s, ids := newTestStore(t)
	posts := NewCollectionPostRepository(s, ids, models.CascadePreserve)

	first, err := posts.CreatePost(ctx, models.Post{Username: "alice", Caption: "one"})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == "" || first.Timestamp.IsZero() || first.Images == nil {
		t.Errorf("post not stamped: %+v", first)
	}
	second, _ := posts.CreatePost(ctx, models.Post{Username: "bob", Caption: "two"})
	third, _ := posts.CreatePost(ctx, models.Post{Username: "alice", Caption: "three", Images: []string{"file://a.jpg"}})

	var feed []string
	for _, p := range posts.GetPosts(ctx) {
		feed = append(feed, p.ID)
	}
	if want := []string{third.ID, second.ID, first.ID}; !reflect.DeepEqual(feed, want) {
		t.Errorf("feed = %v, want %v", feed, want)
	}
	if got := posts.GetPostsByUsername(ctx, "alice"); len(got) != 2 || got[0].ID != third.ID {
		t.Errorf("alice's posts = %+v", got)
	}
	if p := posts.GetPostByID(ctx, second.ID); p == nil || p.Caption != "two" {
		t.Errorf("GetPostByID = %+v", p)
	}
}

func TestDeletePost_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	s, ids := newTestStore(t)
	posts := NewCollectionPostRepository(s, ids, models.CascadePreserve)
	post, _ := posts.CreatePost(ctx, models.Post{Username: "alice"})

	deleted, err := posts.DeletePost(ctx, post.ID, "bob")
	if err != nil || deleted {
		t.Fatalf("non-owner delete = %v, %v", deleted, err)
	}
	deleted, err = posts.DeletePost(ctx, post.ID, "alice")
	if err != nil || !deleted {
		t.Fatalf("owner delete = %v, %v", deleted, err)
	}
	if p := posts.GetPostByID(ctx, post.ID); p != nil {
		t.Errorf("post still present: %+v", p)
	}
}

func TestDeletePost_CascadePolicy(t *testing.T) {
	tests := []struct {
		policy    models.CascadePolicy
		wantKept  int
		wantNotif int
	}{
		{models.CascadePreserve, 1, 2},
		{models.CascadeDelete, 0, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			ctx := context.Background()
			s, ids := newTestStore(t)
			comments := NewCollectionCommentRepository(s, ids)
			likes := NewCollectionLikeRepository(s, ids)
			notifications := NewCollectionNotificationRepository(s, ids)
			posts := NewCollectionPostRepository(s, ids, tt.policy, comments, likes, notifications)

			post, _ := posts.CreatePost(ctx, models.Post{Username: "alice"})
			if _, err := comments.AddComment(ctx, post.ID, "bob", "nice!"); err != nil {
				t.Fatal(err)
			}
			if _, err := likes.ToggleLike(ctx, post.ID, "bob"); err != nil {
				t.Fatal(err)
			}
			if _, err := notifications.AddNotification(ctx, models.NewLikeNotification("bob", *post)); err != nil {
				t.Fatal(err)
			}
			if _, err := notifications.AddNotification(ctx, models.NewFriendRequestNotification("bob", "alice")); err != nil {
				t.Fatal(err)
			}

			if ok, err := posts.DeletePost(ctx, post.ID, "alice"); err != nil || !ok {
				t.Fatalf("DeletePost = %v, %v", ok, err)
			}
			if got := len(comments.GetPostComments(ctx, post.ID)); got != tt.wantKept {
				t.Errorf("comments = %d, want %d", got, tt.wantKept)
			}
			if got := len(likes.GetPostLikes(ctx, post.ID)); got != tt.wantKept {
				t.Errorf("likes = %d, want %d", got, tt.wantKept)
			}
			if got := len(notifications.GetNotifications(ctx)); got != tt.wantNotif {
				t.Errorf("notifications = %d, want %d", got, tt.wantNotif)
			}
		})
	}
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	s, ids := newTestStore(t)
	comments := NewCollectionCommentRepository(s, ids)

	c1, _ := comments.AddComment(ctx, "p1", "bob", "first")
	c2, _ := comments.AddComment(ctx, "p1", "carol", "second")
	if _, err := comments.AddComment(ctx, "p2", "bob", "elsewhere"); err != nil {
		t.Fatal(err)
	}

	got := comments.GetPostComments(ctx, "p1")
	if len(got) != 2 || got[0].ID != c2.ID || got[1].ID != c1.ID {
		t.Fatalf("GetPostComments = %+v, want newest first", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Errorf("comments not in non-increasing timestamp order")
		}
	}

	if _, err := comments.AddComment(ctx, "p1", "bob", ""); !apperrors.HasCode(err, apperrors.ErrCodeValidation) {
		t.Errorf("empty comment err = %v", err)
	}

	if ok, _ := comments.DeleteCommentBy(ctx, c1.ID, "carol"); ok {
		t.Error("non-author deleted a comment")
	}
	if ok, err := comments.DeleteCommentBy(ctx, c1.ID, "bob"); err != nil || !ok {
		t.Errorf("author delete = %v, %v", ok, err)
	}
	if err := comments.DeleteComment(ctx, "missing"); err != nil {
		t.Errorf("deleting unknown id: %v", err)
	}
	if err := comments.DeleteComment(ctx, c2.ID); err != nil {
		t.Fatal(err)
	}
	if c := comments.GetCommentByID(ctx, c2.ID); c != nil {
		t.Errorf("comment still present: %+v", c)
	}
	if n := len(comments.GetComments(ctx)); n != 1 {
		t.Errorf("comments left = %d, want 1", n)
	}
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	s, ids := newTestStore(t)
	likes := NewCollectionLikeRepository(s, ids)
	before := len(likes.GetPostLikes(ctx, "p1"))

	liked, err := likes.ToggleLike(ctx, "p1", "bob")
	if err != nil || !liked {
		t.Fatalf("first toggle = %v, %v", liked, err)
	}
	if !likes.IsPostLiked(ctx, "p1", "bob") {
		t.Error("IsPostLiked = false after like")
	}
	liked, err = likes.ToggleLike(ctx, "p1", "bob")
	if err != nil || liked {
		t.Fatalf("second toggle = %v, %v", liked, err)
	}
	if got := len(likes.GetPostLikes(ctx, "p1")); got != before {
		t.Errorf("likes = %d, want %d", got, before)
	}
}

func TestToggleLike_ConcurrentUsers(t *testing.T) {
	ctx := context.Background()
	s, ids := newTestStore(t)
	likes := NewCollectionLikeRepository(s, ids)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := likes.ToggleLike(ctx, "p1", string(rune('a'+i))); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	if got := len(likes.GetPostLikes(ctx, "p1")); got != 20 {
		t.Errorf("likes = %d, want 20", got)
	}
}

func TestMessages(t *testing.T) {
	ctx := context.Background()
	s, ids := newTestStore(t)
	messages := NewCollectionMessageRepository(s, ids)

	send := func(from, to, text string) {
		t.Helper()
		if _, err := messages.SendMessage(ctx, from, to, text); err != nil {
			t.Fatal(err)
		}
	}
	send("alice", "bob", "hi")
	send("bob", "alice", "hey")
	send("alice", "carol", "unrelated")
	send("alice", "bob", "how are you?")

	conv := messages.GetConversation(ctx, "bob", "alice")
	var texts []string
	for i, m := range conv {
		texts = append(texts, m.Text)
		if i > 0 && m.Timestamp.Before(conv[i-1].Timestamp) {
			t.Error("conversation not in non-decreasing timestamp order")
		}
	}
	if want := []string{"hi", "hey", "how are you?"}; !reflect.DeepEqual(texts, want) {
		t.Errorf("conversation = %v, want %v", texts, want)
	}

	if n := messages.GetUnreadCount(ctx, "bob"); n != 2 {
		t.Errorf("bob unread = %d, want 2", n)
	}
	marked, err := messages.MarkMessagesAsRead(ctx, "alice", "bob")
	if err != nil || marked != 2 {
		t.Fatalf("MarkMessagesAsRead = %d, %v", marked, err)
	}
	if n := messages.GetUnreadCount(ctx, "bob"); n != 0 {
		t.Errorf("bob unread after read = %d", n)
	}
	if n := messages.GetUnreadCount(ctx, "alice"); n != 1 {
		t.Errorf("alice unread = %d, want 1 (reverse direction untouched)", n)
	}

	if _, err := messages.SendMessage(ctx, "alice", "bob", ""); !apperrors.HasCode(err, apperrors.ErrCodeValidation) {
		t.Errorf("empty message err = %v", err)
	}
}

func TestFriendRequests(t *testing.T) {
	ctx := context.Background()
	s, ids := newTestStore(t)
	requests := NewCollectionFriendshipRepository(s, ids)

	first, created, err := requests.SendFriendRequest(ctx, "alice", "bob")
	if err != nil || !created {
		t.Fatalf("first send = %v, %v", created, err)
	}
	again, created, err := requests.SendFriendRequest(ctx, "alice", "bob")
	if err != nil || created || again.ID != first.ID {
		t.Fatalf("second send = %+v, %v, %v", again, created, err)
	}
	if n := len(requests.GetFriendRequests(ctx)); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
	if _, _, err := requests.SendFriendRequest(ctx, "alice", "alice"); !apperrors.HasCode(err, apperrors.ErrCodeValidation) {
		t.Errorf("self request err = %v", err)
	}

	if !requests.HasPendingRequest(ctx, "alice", "bob") || requests.HasPendingRequest(ctx, "bob", "alice") {
		t.Error("HasPendingRequest is not directional")
	}
	if got := requests.GetPendingRequestsTo(ctx, "bob"); len(got) != 1 {
		t.Errorf("pending to bob = %d", len(got))
	}

	updated, err := requests.SetStatus(ctx, first.ID, models.FriendRequestAccepted)
	if err != nil || updated.Status != models.FriendRequestAccepted {
		t.Fatalf("SetStatus = %+v, %v", updated, err)
	}
	if got := requests.GetFriendRequestByID(ctx, first.ID); got.Status != models.FriendRequestAccepted {
		t.Errorf("stored status = %s", got.Status)
	}
	if got, err := requests.SetStatus(ctx, "missing", models.FriendRequestAccepted); err != nil || got != nil {
		t.Errorf("SetStatus(missing) = %+v, %v", got, err)
	}

	second, _, _ := requests.SendFriendRequest(ctx, "carol", "bob")
	if ok, err := requests.RejectFriendRequest(ctx, second.ID); err != nil || !ok {
		t.Fatalf("RejectFriendRequest = %v, %v", ok, err)
	}
	if got := requests.GetFriendRequestByID(ctx, second.ID); got != nil {
		t.Errorf("rejected request still stored: %+v", got)
	}
	if ok, err := requests.RejectFriendRequest(ctx, second.ID); err != nil || ok {
		t.Errorf("rejecting twice = %v, %v", ok, err)
	}
}

func TestNotifications_HeadInsert(t *testing.T) {
	ctx := context.Background()
	s, ids := newTestStore(t)
	notifications := NewCollectionNotificationRepository(s, ids)

	older, _ := notifications.AddNotification(ctx, models.NewFriendRequestNotification("bob", "alice"))
	newer, err := notifications.AddNotification(ctx, models.NewMessageNotification("carol", "alice"))
	if err != nil {
		t.Fatal(err)
	}
	if newer.Read || newer.ID == "" || newer.Timestamp.IsZero() {
		t.Errorf("notification not stamped: %+v", newer)
	}

	all := notifications.GetNotifications(ctx)
	if len(all) != 2 || all[0].ID != newer.ID || all[1].ID != older.ID {
		t.Errorf("order = %+v, want newest at head", all)
	}

	if _, err := notifications.AddNotification(ctx, models.Notification{Type: models.NotificationLike, From: "bob", To: "alice"}); !apperrors.HasCode(err, apperrors.ErrCodeValidation) {
		t.Errorf("like without post err = %v", err)
	}
}

func TestNotifications_ReadState(t *testing.T) {
	ctx := context.Background()
	s, ids := newTestStore(t)
	notifications := NewCollectionNotificationRepository(s, ids)

	forAlice, _ := notifications.AddNotification(ctx, models.NewFriendRequestNotification("bob", "alice"))
	if _, err := notifications.AddNotification(ctx, models.NewMessageNotification("bob", "alice")); err != nil {
		t.Fatal(err)
	}
	if _, err := notifications.AddNotification(ctx, models.NewMessageNotification("alice", "bob")); err != nil {
		t.Fatal(err)
	}

	if _, err := notifications.GetUnreadNotificationCount(ctx, ""); !apperrors.HasCode(err, apperrors.ErrCodeValidation) {
		t.Errorf("unscoped count err = %v, want VALIDATION_ERROR", err)
	}
	count := func(username string) int {
		t.Helper()
		n, err := notifications.GetUnreadNotificationCount(ctx, username)
		if err != nil {
			t.Fatal(err)
		}
		return n
	}
	if n := count("alice"); n != 2 {
		t.Errorf("alice unread = %d, want 2", n)
	}

	if err := notifications.MarkNotificationAsRead(ctx, forAlice.ID); err != nil {
		t.Fatal(err)
	}
	if n := count("alice"); n != 1 {
		t.Errorf("alice unread = %d, want 1", n)
	}

	if err := notifications.MarkAllNotificationsAsReadFor(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if n := count("alice"); n != 0 {
		t.Errorf("alice unread = %d, want 0", n)
	}
	if n := count("bob"); n != 1 {
		t.Errorf("bob unread = %d, want 1 (scoped mark-all)", n)
	}

	if err := notifications.MarkAllNotificationsAsRead(ctx); err != nil {
		t.Fatal(err)
	}
	if n := count("bob"); n != 0 {
		t.Errorf("bob unread after global mark-all = %d", n)
	}
	if got := notifications.GetNotificationsFor(ctx, "alice"); len(got) != 2 {
		t.Errorf("alice notifications = %d, want 2", len(got))
	}
}

func TestNotifications_PostSnapshotSurvivesPostDeletion(t *testing.T) {
	ctx := context.Background()
	s, ids := newTestStore(t)
	posts := NewCollectionPostRepository(s, ids, models.CascadePreserve)
	notifications := NewCollectionNotificationRepository(s, ids)

	post, _ := posts.CreatePost(ctx, models.Post{Username: "alice", Caption: "sunset"})
	if _, err := notifications.AddNotification(ctx, models.NewCommentNotification("bob", *post)); err != nil {
		t.Fatal(err)
	}
	if _, err := posts.DeletePost(ctx, post.ID, "alice"); err != nil {
		t.Fatal(err)
	}

	got := notifications.GetNotificationsFor(ctx, "alice")
	if len(got) != 1 || got[0].PostData == nil || got[0].PostData.Caption != "sunset" {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestStoredLayout(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemoryBackend()
	s := store.New(backend)
	ids := models.NewIDGenerator(steppingClock())
	if _, err := NewCollectionMessageRepository(s, ids).SendMessage(ctx, "alice", "bob", "hi"); err != nil {
		t.Fatal(err)
	}

	raw, err := backend.Get(ctx, store.KeyMessages)
	if err != nil {
		t.Fatal(err)
	}
	var stored []map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("messages key is not a JSON array: %v", err)
	}
	if len(stored) != 1 || stored[0]["from"] != "alice" || stored[0]["read"] != false {
		t.Errorf("stored = %v", stored)
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	users := NewCollectionUserRepository(s)
	for _, name := range []string{"alice", "bob"} {
		if _, err := users.SaveUser(ctx, models.User{Username: name, Bio: "old"}); err != nil {
			t.Fatal(err)
		}
	}

	empty := ""
	got, err := users.UpdateUser(ctx, "alice", models.UserPatch{Bio: &empty})
	if err != nil || got == nil || got.Bio != "" {
		t.Fatalf("UpdateUser = %+v, %v", got, err)
	}
	if cur := users.GetCurrentUser(ctx); cur.Username != "bob" || cur.Bio != "old" {
		t.Errorf("session user changed: %+v", cur)
	}

	got, err = users.UpdateUser(ctx, "bob", models.UserPatch{Bio: &empty})
	if err != nil || got.Bio != "" {
		t.Fatalf("UpdateUser(bob) = %+v, %v", got, err)
	}
	if cur := users.GetCurrentUser(ctx); cur.Bio != "" {
		t.Errorf("session user not refreshed: %+v", cur)
	}

	if got, err := users.UpdateUser(ctx, "nobody", models.UserPatch{Bio: &empty}); err != nil || got != nil {
		t.Errorf("UpdateUser(nobody) = %+v, %v", got, err)
	}
}

func TestRewritesKeepClientFields(t *testing.T) {
	ctx := context.Background()
	s, ids := newTestStore(t)
	seed := map[string]string{
		store.KeyUsers: `[{"id":"1","username":"alice","email":"a@x.io","password":"pw","friends":[],"createdAt":"2024-01-01T00:00:00.000Z"}]`,
		store.KeyPosts: `[{"id":"1","userId":"1","username":"alice","imageUri":"file://a.jpg","images":[],"caption":"c","timestamp":"2024-01-01T00:00:00.000Z","likes":2,"comments":[]}]`,
	}
	for key, raw := range seed {
		if err := s.Backend().Set(ctx, key, []byte(raw)); err != nil {
			t.Fatal(err)
		}
	}

	users := NewCollectionUserRepository(s)
	posts := NewCollectionPostRepository(s, ids, models.CascadePreserve)
	if _, err := users.SaveUser(ctx, models.User{Username: "alice", Bio: "hi"}); err != nil {
		t.Fatalf("SaveUser() error = %v", err)
	}
	if _, err := posts.CreatePost(ctx, models.Post{Username: "bob", Caption: "new"}); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	tests := []struct {
		key  string
		want []string
	}{
		{store.KeyUsers, []string{`"bio":"hi"`, `"createdAt":"2024-01-01T00:00:00.000Z"`}},
		{store.KeyCurrentUser, []string{`"bio":"hi"`, `"createdAt":"2024-01-01T00:00:00.000Z"`}},
		{store.KeyPosts, []string{`"userId":"1"`, `"imageUri":"file://a.jpg"`, `"likes":2`, `"comments":[]`, `"caption":"new"`}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			raw, err := s.Backend().Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(raw), w) {
					t.Errorf("%s = %s, missing %s", tt.key, raw, w)
				}
			}
		})
	}
}
