// ABOUTME: Tests for the feed and explore screens
// ABOUTME: Drives the models against the fake backend and checks optimistic likes

package feed

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/wishlist-cli/internal/apitest"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/listing"
	"github.com/markalston/wishlist-cli/internal/tokenstore"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
)

func newClient(srv *apitest.Server, userID int64) *client.Client {
	token := ""
	if userID != 0 {
		token = srv.TokenFor(userID)
	}
	return client.New(srv.URL, client.WithTokenSource(tokenstore.NewMemory(token)))
}

// run executes cmd and feeds the message it produced back into m
func run(t *testing.T, m tea.Model, cmd tea.Cmd) (tea.Model, tea.Msg, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	next, nextCmd := m.Update(msg)
	return next, msg, nextCmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFeedLoadsAndLikes(t *testing.T) {
	srv := apitest.NewServer(t)
	post := srv.AddPost(apitest.AliceID, "Espresso machine")
	api := newClient(srv, apitest.AliceID)

	f := NewFeed(context.Background(), api, apitest.AliceID)
	f.SetSize(100, 40)
	run(t, f, f.Init())

	if !strings.Contains(f.View(), "Espresso machine") {
		t.Fatalf("expected post in view, got:\n%s", f.View())
	}

	_, cmd := f.Update(key("l"))
	if got := f.likes.State(f.posts[0]); !got.On || got.Count != 1 {
		t.Errorf("expected optimistic like before the server answered, got %+v", got)
	}

	_, msg, _ := run(t, f, cmd)
	settled := msg.(likeSettledMsg)
	if settled.Failure() != nil {
		t.Fatalf("unexpected failure: %v", settled.Failure())
	}
	if srv.LikeCount(post.ID) != 1 {
		t.Errorf("expected server like count 1, got %d", srv.LikeCount(post.ID))
	}
}

func TestFeedLikeFailureRollsBack(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddPost(apitest.AliceID, "Headphones")
	srv.Fail(apitest.RouteLike, 500, 1)
	api := newClient(srv, apitest.AliceID)

	f := NewFeed(context.Background(), api, apitest.AliceID)
	run(t, f, f.Init())

	_, cmd := f.Update(key("l"))
	_, msg, flashCmd := run(t, f, cmd)
	if msg.(nav.Failure).Failure() == nil {
		t.Fatal("expected the like to fail")
	}
	if got := f.likes.State(f.posts[0]); got.On || got.Count != 0 {
		t.Errorf("expected like rolled back, got %+v", got)
	}
	if flashCmd == nil {
		t.Fatal("expected a flash message")
	}
	if fl, ok := flashCmd().(nav.FlashMsg); !ok || !strings.Contains(fl.Text, "Couldn't update like") {
		t.Errorf("unexpected flash %#v", fl)
	}
}

func TestFeedEmptyAndBack(t *testing.T) {
	srv := apitest.NewServer(t)
	f := NewFeed(context.Background(), newClient(srv, apitest.AliceID), apitest.AliceID)
	run(t, f, f.Init())

	if !strings.Contains(f.View(), "Nothing here yet") {
		t.Errorf("expected empty state, got:\n%s", f.View())
	}

	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(nav.BackMsg); !ok {
		t.Error("expected esc to go back")
	}
}

func TestFeedLoadFailureIsReported(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.Fail(apitest.RouteFeed, 401, 1)
	f := NewFeed(context.Background(), newClient(srv, apitest.AliceID), apitest.AliceID)

	_, msg, _ := run(t, f, f.Init())
	if !client.IsAuth(msg.(nav.Failure).Failure()) {
		t.Errorf("expected an auth failure, got %v", msg)
	}
}

func TestExplorePrefetchesNextPage(t *testing.T) {
	srv := apitest.NewServer(t)
	for i := 0; i < 8; i++ {
		srv.AddPost(apitest.AdminID, "Item")
	}
	api := newClient(srv, 0)

	e := NewExplore(context.Background(), listing.ExploreLoader(api), api, 0)
	run(t, e, e.Init())
	if n := len(e.stream.Items()); n != listing.ExploreSize {
		t.Fatalf("expected first page of %d, got %d", listing.ExploreSize, n)
	}

	var cmd tea.Cmd
	for i := 0; i < 3; i++ {
		_, cmd = e.Update(key("j"))
	}
	if cmd == nil {
		t.Fatal("expected prefetch near the end of the page")
	}
	run(t, e, cmd)

	if n := len(e.stream.Items()); n != 8 {
		t.Errorf("expected all 8 posts after prefetch, got %d", n)
	}
	if e.stream.HasMore() {
		t.Error("expected stream exhausted")
	}
	if !strings.Contains(e.View(), "all caught up") {
		t.Errorf("expected end marker, got:\n%s", e.View())
	}
	if calls := srv.Calls(apitest.RouteExplore); len(calls) != 2 {
		t.Errorf("expected 2 explore requests, got %d", len(calls))
	}
}

func TestExploreGuestCannotLike(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddPost(apitest.AdminID, "Item")
	api := newClient(srv, 0)

	e := NewExplore(context.Background(), listing.ExploreLoader(api), api, 0)
	run(t, e, e.Init())

	_, cmd := e.Update(key("l"))
	fl, ok := cmd().(nav.FlashMsg)
	if !ok || fl.Text != "Sign in to like posts" {
		t.Errorf("expected sign-in flash, got %#v", fl)
	}
	if len(srv.Calls(apitest.RouteLike)) != 0 {
		t.Error("expected no like request for a guest")
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name               string
		cursor, total, n   int
		wantStart, wantEnd int
	}{
		{"fits", 0, 3, 5, 0, 3},
		{"unbounded", 4, 10, 0, 0, 10},
		{"top", 0, 10, 4, 0, 4},
		{"middle", 5, 10, 4, 3, 7},
		{"bottom", 9, 10, 4, 6, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, end := window(tc.cursor, tc.total, tc.n)
			if start != tc.wantStart || end != tc.wantEnd {
				t.Errorf("window(%d,%d,%d) = %d,%d; want %d,%d", tc.cursor, tc.total, tc.n, start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}
}
