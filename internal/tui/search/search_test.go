// ABOUTME: Tests for the user search screen
// ABOUTME: Validates debounced lookups, recent queries and profile selection

package search

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/wishlist-cli/internal/apitest"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/listing"
	"github.com/markalston/wishlist-cli/internal/tokenstore"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
	"github.com/markalston/wishlist-cli/internal/tui/recent"
)

func newSearch(t *testing.T, srv *apitest.Server, rec *recent.Searches) *Search {
	t.Helper()
	api := client.New(srv.URL, client.WithTokenSource(tokenstore.NewMemory("")))
	cfg := listing.Search
	cfg.Debounce = 20 * time.Millisecond
	s := New(context.Background(), listing.NewController(cfg, listing.SearchLoader(api)), rec)
	t.Cleanup(s.Close)
	return s
}

func typeText(s *Search, text string) {
	for _, r := range text {
		s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestTypingIssuesOneRequest(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("bob", client.AccountUser)
	srv.AddUser("bobby", client.AccountUser)
	s := newSearch(t, srv, nil)

	typeText(s, "bob")
	s.Update(s.wait()())

	if calls := srv.Calls(apitest.RouteSearch); len(calls) != 1 {
		t.Fatalf("expected exactly one search request, got %d", len(calls))
	} else if !strings.Contains(calls[0].Query, "q=bob") {
		t.Errorf("expected query for the final input, got %q", calls[0].Query)
	}

	view := s.View()
	if !strings.Contains(view, "@bob") || !strings.Contains(view, "@bobby") {
		t.Errorf("expected both matches in view:\n%s", view)
	}
}

func TestNoMatches(t *testing.T) {
	srv := apitest.NewServer(t)
	s := newSearch(t, srv, nil)

	typeText(s, "zzz")
	s.Update(s.wait()())

	if !strings.Contains(s.View(), `No users match "zzz"`) {
		t.Errorf("expected empty result message:\n%s", s.View())
	}
}

func TestClearingInputCancelsLookup(t *testing.T) {
	srv := apitest.NewServer(t)
	s := newSearch(t, srv, nil)

	typeText(s, "a")
	s.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	time.Sleep(60 * time.Millisecond)

	if calls := srv.Calls(apitest.RouteSearch); len(calls) != 0 {
		t.Errorf("expected no request after clearing the box, got %d", len(calls))
	}
}

func TestSelectOpensProfileAndRemembersQuery(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("bob", client.AccountUser)
	rec := recent.New(t.TempDir())
	s := newSearch(t, srv, rec)

	typeText(s, "bob")
	s.Update(s.wait()())

	s.Update(tea.KeyMsg{Type: tea.KeyDown})
	if s.focus != focusList {
		t.Fatal("expected focus to move to the results")
	}
	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	sel, ok := cmd().(nav.ProfileMsg)
	if !ok || sel.Username != "bob" {
		t.Fatalf("expected bob selected, got %#v", sel)
	}
	if got := rec.List(); len(got) != 1 || got[0] != "bob" {
		t.Errorf("expected query remembered, got %v", got)
	}
}

func TestRecentQueryReruns(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("bob", client.AccountUser)
	rec := recent.New(t.TempDir())
	rec.Add("bob")
	s := newSearch(t, srv, rec)

	if !strings.Contains(s.View(), "Recent searches") {
		t.Fatalf("expected recent list when idle:\n%s", s.View())
	}

	s.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a lookup to be queued")
	}
	if s.input.Value() != "bob" || s.focus != focusInput {
		t.Errorf("expected query filled in, got %q focus %v", s.input.Value(), s.focus)
	}
	s.Update(s.wait()())
	if !strings.Contains(s.View(), "@bob") {
		t.Errorf("expected result in view:\n%s", s.View())
	}
}

func TestEscGoesBack(t *testing.T) {
	srv := apitest.NewServer(t)
	s := newSearch(t, srv, nil)

	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := cmd().(nav.BackMsg); !ok {
		t.Error("expected esc to go back")
	}
}
