// ABOUTME: End-to-end tests of the endpoint catalog against the fake backend
// ABOUTME: Exercises auth, social, notification and admin routes through the client

package client_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/markalston/wishlist-cli/internal/apitest"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/tokenstore"
)

func newClient(t *testing.T, srv *apitest.Server, token string) *client.Client {
	t.Helper()
	return client.New(srv.URL, client.WithTokenSource(tokenstore.NewMemory(token)))
}

func TestLoginAndMe(t *testing.T) {
	srv := apitest.NewServer(t)
	ctx := context.Background()

	anon := newClient(t, srv, "")
	token, err := anon.Login(ctx, client.Credentials{Email: "alice@example.com", Password: apitest.AlicePassword})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	me, err := newClient(t, srv, token).Me(ctx)
	if err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if me.Username != "alice" || me.IsAdmin() {
		t.Errorf("unexpected user %+v", me)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := apitest.NewServer(t)

	_, err := newClient(t, srv, "").Login(context.Background(), client.Credentials{Email: "alice@example.com", Password: "wrong"})
	if !client.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	srv := apitest.NewServer(t)

	_, err := newClient(t, srv, "").Register(context.Background(), client.Registration{
		Username: "alice", FullName: "Other", Email: "other@example.com", Password: "secret1",
	})
	if !client.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Fields["username"] == "" {
		t.Errorf("expected username field error, got %v", err)
	}
}

func TestMe_RevokedToken(t *testing.T) {
	srv := apitest.NewServer(t)
	token := srv.TokenFor(apitest.AliceID)
	srv.Revoke(token)

	_, err := newClient(t, srv, token).Me(context.Background())
	if !client.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestAdminRoutes_ForbiddenForUsers(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newClient(t, srv, srv.TokenFor(apitest.AliceID))

	_, err := c.AdminUsers(context.Background(), client.ListParams{})
	if !client.IsForbidden(err) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestAdminUsers_SortAndPage(t *testing.T) {
	srv := apitest.NewServer(t)
	for _, name := range []string{"zed", "bob", "carol"} {
		srv.AddUser(name, client.AccountUser)
	}
	c := newClient(t, srv, srv.TokenFor(apitest.AdminID))

	page, err := c.AdminUsers(context.Background(), client.ListParams{Page: 0, Size: 2, Sort: "username,asc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalElements != 5 || page.TotalPages != 3 || page.Last {
		t.Errorf("unexpected page meta %+v", page)
	}
	if len(page.Content) != 2 || page.Content[0].Username != "admin" || page.Content[1].Username != "alice" {
		t.Errorf("unexpected content %+v", page.Content)
	}

	page, err = c.AdminUsers(context.Background(), client.ListParams{Page: 0, Size: 10, Query: "car"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Content) != 1 || page.Content[0].Username != "carol" {
		t.Errorf("expected carol only, got %+v", page.Content)
	}
}

func TestLikeUnlike(t *testing.T) {
	srv := apitest.NewServer(t)
	bob := srv.AddUser("bob", client.AccountUser)
	post := srv.AddPost(bob.ID, "Headphones")
	c := newClient(t, srv, srv.TokenFor(apitest.AliceID))
	ctx := context.Background()

	if err := c.Like(ctx, post.ID); err != nil {
		t.Fatalf("like failed: %v", err)
	}
	if got := srv.LikeCount(post.ID); got != 1 {
		t.Errorf("expected 1 like, got %d", got)
	}
	if err := c.Like(ctx, post.ID); !client.IsValidation(err) {
		t.Errorf("expected conflict on double like, got %v", err)
	}
	if err := c.Unlike(ctx, post.ID); err != nil {
		t.Fatalf("unlike failed: %v", err)
	}
	if got := srv.LikeCount(post.ID); got != 0 {
		t.Errorf("expected 0 likes, got %d", got)
	}

	// bob was notified of the like
	bobClient := newClient(t, srv, srv.TokenFor(bob.ID))
	list, err := bobClient.Notifications(ctx)
	if err != nil {
		t.Fatalf("notifications failed: %v", err)
	}
	if len(list) != 1 || list[0].Type != client.NotificationLike || list[0].PostID != post.ID {
		t.Errorf("unexpected notifications %+v", list)
	}
	if err := bobClient.MarkAllRead(ctx); err != nil {
		t.Fatalf("mark all read failed: %v", err)
	}
	list, _ = bobClient.Notifications(ctx)
	if client.UnreadCount(list) != 0 {
		t.Errorf("expected all read, got %+v", list)
	}
}

func TestFollowFeedAndProfile(t *testing.T) {
	srv := apitest.NewServer(t)
	bob := srv.AddUser("bob", client.AccountUser)
	srv.AddPost(bob.ID, "Lamp")
	c := newClient(t, srv, srv.TokenFor(apitest.AliceID))
	ctx := context.Background()

	feed, err := c.Feed(ctx)
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if len(feed) != 0 {
		t.Errorf("expected empty feed before follow, got %d", len(feed))
	}

	if err := c.Follow(ctx, "bob"); err != nil {
		t.Fatalf("follow failed: %v", err)
	}
	feed, _ = c.Feed(ctx)
	if len(feed) != 1 || feed[0].Title != "Lamp" {
		t.Errorf("expected bob's post in feed, got %+v", feed)
	}

	profile, err := c.Profile(ctx, "bob")
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if !profile.IsFollowing || profile.FollowerCount != 1 || profile.IsCurrentUser {
		t.Errorf("unexpected profile %+v", profile)
	}

	if _, err := c.Profile(ctx, "nobody"); !client.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdateProfile_RenameReissuesToken(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newClient(t, srv, srv.TokenFor(apitest.AliceID))
	ctx := context.Background()

	resp, err := c.UpdateProfile(ctx, client.ProfileUpdate{Username: "alice2", FullName: "Alice Doe", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected new token after rename")
	}
	if resp.Username != "alice2" {
		t.Errorf("expected alice2, got %s", resp.Username)
	}

	resp, err = c.UpdateProfile(ctx, client.ProfileUpdate{Username: "alice2", FullName: "A. Doe", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if resp.Token != "" {
		t.Error("expected no token when username unchanged")
	}
}

func TestUploadAvatar(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newClient(t, srv, srv.TokenFor(apitest.AliceID))
	ctx := context.Background()

	avatarURL, err := c.UploadAvatar(ctx, strings.NewReader("\x89PNG fake"), "/home/alice/me.png")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if !strings.HasPrefix(avatarURL, "/uploads/avatars/") {
		t.Errorf("unexpected avatar URL %q", avatarURL)
	}
	got, ok := srv.Avatar(avatarURL)
	if !ok {
		t.Fatalf("expected the server to store %q", avatarURL)
	}
	if got.Filename != "me.png" || got.ContentType != "image/png" || string(got.Data) != "\x89PNG fake" {
		t.Errorf("unexpected upload %+v", got)
	}

	if _, err := c.UploadAvatar(ctx, strings.NewReader("hello"), "notes.txt"); !client.IsValidation(err) {
		t.Errorf("expected validation error for a non-image, got %v", err)
	}
	if _, err := newClient(t, srv, "").UploadAvatar(ctx, strings.NewReader("x"), "me.png"); !client.IsAuth(err) {
		t.Errorf("expected auth error without a token, got %v", err)
	}
}

func TestCreatePostAndVisibility(t *testing.T) {
	srv := apitest.NewServer(t)
	c := newClient(t, srv, srv.TokenFor(apitest.AliceID))
	ctx := context.Background()

	prepared, err := c.PreparePost(ctx, client.PrepareRequest{ItemURL: "https://shop.example.com/items/kettle"})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	post, err := c.CreatePost(ctx, client.NewPost{PreparedPost: *prepared, Description: "want"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if post.Title != "kettle" || post.User.ID != apitest.AliceID {
		t.Errorf("unexpected post %+v", post)
	}

	if err := c.SetVisibility(ctx, post.ID, true); err != nil {
		t.Fatalf("visibility failed: %v", err)
	}
	private, err := c.UserPosts(ctx, "alice", client.TabPrivate)
	if err != nil {
		t.Fatalf("private tab failed: %v", err)
	}
	if len(private) != 1 {
		t.Errorf("expected 1 private post, got %d", len(private))
	}

	bob := srv.AddUser("bob", client.AccountUser)
	if err := newClient(t, srv, srv.TokenFor(bob.ID)).DeletePost(ctx, post.ID); !client.IsForbidden(err) {
		t.Errorf("expected forbidden deleting another user's post, got %v", err)
	}
	if err := c.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if srv.PostCount() != 0 {
		t.Errorf("expected no posts, got %d", srv.PostCount())
	}
}

func TestReportAndResolve(t *testing.T) {
	srv := apitest.NewServer(t)
	bob := srv.AddUser("bob", client.AccountUser)
	post := srv.AddPost(bob.ID, "Spam")
	ctx := context.Background()

	if err := newClient(t, srv, srv.TokenFor(apitest.AliceID)).CreateReport(ctx, client.NewReport{
		EntityID: post.ID, EntityType: client.EntityPost, Reason: "spam",
	}); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	admin := newClient(t, srv, srv.TokenFor(apitest.AdminID))
	reports, err := admin.PendingReports(ctx)
	if err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if err := admin.ResolveReport(ctx, reports[0].ID, true); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if srv.PostCount() != 0 {
		t.Errorf("expected reported post removed")
	}
}

func TestInjectedFailure(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Fail(apitest.RouteExplore, http.StatusServiceUnavailable, 1)
	c := newClient(t, srv, "")
	ctx := context.Background()

	if _, err := c.Explore(ctx, client.ListParams{Size: 5}); !client.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if _, err := c.Explore(ctx, client.ListParams{Size: 5}); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if n := len(srv.Calls(apitest.RouteExplore)); n != 2 {
		t.Errorf("expected 2 explore calls, got %d", n)
	}
}
