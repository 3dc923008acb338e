// ABOUTME: Tests for the admin users, posts and reports screens
// ABOUTME: Drives sorting, paging, role changes, deletion and report resolution

package admin

import (
	"context"
	"net/url"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/wishlist-cli/internal/apitest"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/listing"
	"github.com/markalston/wishlist-cli/internal/tokenstore"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminClient(srv *apitest.Server) *client.Client {
	return client.New(srv.URL, client.WithTokenSource(tokenstore.NewMemory(srv.TokenFor(apitest.AdminID))))
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step sends msg and feeds the resulting command's message back in
func step(m tea.Model, msg tea.Msg) tea.Msg {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	out := cmd()
	m.Update(out)
	return out
}

func lastQuery(t *testing.T, srv *apitest.Server, route string) url.Values {
	t.Helper()
	calls := srv.Calls(route)
	require.NotEmpty(t, calls)
	q, err := url.ParseQuery(calls[len(calls)-1].Query)
	require.NoError(t, err)
	return q
}

func newUsers(t *testing.T, srv *apitest.Server) *Users {
	t.Helper()
	api := adminClient(srv)
	cfg := listing.AdminUsers
	cfg.Debounce = 10 * time.Millisecond
	u := NewUsers(context.Background(), listing.NewController(cfg, listing.AdminUsersLoader(api)), api)
	t.Cleanup(u.Close)
	u.Update(u.Init()())
	return u
}

func TestUsersSortToggle(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("zed", client.AccountUser)
	u := newUsers(t, srv)

	assert.Equal(t, "id,asc", lastQuery(t, srv, apitest.RouteAdminUsers).Get("sort"))

	// same field flips direction
	step(u, key("s"))
	assert.Equal(t, "id,desc", lastQuery(t, srv, apitest.RouteAdminUsers).Get("sort"))

	// a new field starts ascending
	step(u, tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, "username", u.cols[u.sortCol].Field)
	step(u, key("s"))
	assert.Equal(t, "username,asc", lastQuery(t, srv, apitest.RouteAdminUsers).Get("sort"))
	assert.Equal(t, "admin", u.ctrl.Items()[0].Username)
}

func TestUsersPaging(t *testing.T) {
	srv := apitest.NewServer(t)
	for i := 0; i < 10; i++ {
		srv.AddUser("user"+string(rune('a'+i)), client.AccountUser)
	}
	u := newUsers(t, srv)
	require.Equal(t, 2, u.ctrl.TotalPages())

	step(u, key("n"))
	assert.Equal(t, "1", lastQuery(t, srv, apitest.RouteAdminUsers).Get("page"))
	assert.Len(t, u.ctrl.Items(), 2)
	assert.Contains(t, u.View(), "Page 2 of 2")

	_, cmd := u.Update(key("n"))
	assert.Nil(t, cmd, "no page past the last")
}

func TestUsersFilterIsDebounced(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("bea", client.AccountUser)
	u := newUsers(t, srv)
	before := len(srv.Calls(apitest.RouteAdminUsers))

	u.Update(key("/"))
	require.True(t, u.filterOn)
	var wait tea.Cmd
	for _, r := range "be" {
		if _, cmd := u.Update(key(string(r))); wait == nil {
			wait = cmd
		}
	}
	require.NotNil(t, wait)
	// the first keystroke's batch holds the wait for the debounced result
	for _, msg := range flatten(wait) {
		u.Update(msg)
	}

	assert.Equal(t, before+1, len(srv.Calls(apitest.RouteAdminUsers)))
	assert.Equal(t, "be", lastQuery(t, srv, apitest.RouteAdminUsers).Get("query"))
	require.Len(t, u.ctrl.Items(), 1)
	assert.Equal(t, "bea", u.ctrl.Items()[0].Username)
}

func flatten(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, flatten(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// drive runs cmd and everything it leads to, feeding each message back into m
func drive(m tea.Model, cmd tea.Cmd) {
	for _, msg := range flatten(cmd) {
		if msg == nil {
			continue
		}
		_, next := m.Update(msg)
		drive(m, next)
	}
}

func TestUsersToggleRole(t *testing.T) {
	srv := apitest.NewServer(t)
	u := newUsers(t, srv)

	// alice is the first row
	msg := step(u, key("t"))
	require.NoError(t, msg.(nav.Failure).Failure())

	alice, _ := srv.User(apitest.AliceID)
	assert.Equal(t, client.AccountAdmin, alice.AccountType)
	assert.Equal(t, client.AccountAdmin, u.ctrl.Items()[0].AccountType)
}

func TestUsersDeleteNeedsConfirmation(t *testing.T) {
	srv := apitest.NewServer(t)
	bob := srv.AddUser("bob", client.AccountUser)
	u := newUsers(t, srv)
	u.table.SetCursor(2)

	u.Update(key("d"))
	require.True(t, u.confirm)
	assert.Contains(t, u.View(), "Delete user @bob? (y/N)")

	_, cmd := u.Update(key("n"))
	assert.False(t, u.confirm)
	assert.IsType(t, nav.FlashMsg{}, cmd())
	_, ok := srv.User(bob.ID)
	assert.True(t, ok, "cancelled delete keeps the user")

	u.Update(key("d"))
	msg := step(u, key("y"))
	require.IsType(t, deletedMsg{}, msg)
	_, ok = srv.User(bob.ID)
	assert.False(t, ok)
	assert.Len(t, u.ctrl.Items(), 2)
}

func TestPostsDeleteLastOnPageStepsBack(t *testing.T) {
	srv := apitest.NewServer(t)
	for i := 0; i < 9; i++ {
		srv.AddPost(apitest.AliceID, "Item")
	}
	api := adminClient(srv)
	p := NewPosts(context.Background(), listing.NewController(listing.AdminPosts, listing.AdminPostsLoader(api)), api)
	t.Cleanup(p.Close)
	p.Update(p.Init()())

	assert.Equal(t, "createdAt,desc", lastQuery(t, srv, apitest.RouteAdminPosts).Get("sort"))
	step(p, key("n"))
	require.Len(t, p.ctrl.Items(), 1)

	p.Update(key("d"))
	step(p, key("y"))

	assert.Equal(t, "0", lastQuery(t, srv, apitest.RouteAdminPosts).Get("page"))
	assert.Equal(t, 8, srv.PostCount())
	assert.Len(t, p.ctrl.Items(), 8)
}

func TestReportsResolve(t *testing.T) {
	srv := apitest.NewServer(t)
	post := srv.AddPost(apitest.AliceID, "Spam item")
	alice, _ := srv.User(apitest.AliceID)
	srv.AddReport(client.Report{EntityType: client.EntityPost, EntityID: post.ID, Reason: "spam", Reporter: alice})
	srv.AddReport(client.Report{EntityType: client.EntityPost, EntityID: post.ID, Reason: "duplicate", Reporter: alice})

	r := NewReports(context.Background(), adminClient(srv))
	r.Update(r.Init()())
	require.Len(t, r.reports, 2)
	assert.Contains(t, r.View(), "spam")

	// dismiss the first
	_, cmd := r.Update(key("k"))
	drive(r, cmd)
	require.Len(t, r.reports, 1)
	assert.Equal(t, 1, srv.PostCount())

	// delete through the second
	r.Update(key("x"))
	require.True(t, r.confirm)
	assert.Contains(t, r.View(), "Delete post")
	_, cmd = r.Update(key("y"))
	drive(r, cmd)

	assert.Equal(t, 0, srv.PostCount())
	assert.Empty(t, r.reports)
	assert.Contains(t, r.View(), "No pending reports.")
}
