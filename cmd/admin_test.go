// ABOUTME: Tests for the admin commands and the report command
// ABOUTME: Checks the admin guard, list options and report resolution end to end

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/markalston/wishlist-cli/internal/apitest"
	"github.com/markalston/wishlist-cli/internal/client"
)

func TestAdmin_RequiresAdmin(t *testing.T) {
	srv := apitest.NewServer(t)
	setupEnv(t, srv, srv.TokenFor(apitest.AliceID))

	var buf bytes.Buffer
	if code := runAdminUsers(context.Background(), &buf, adminListOptions{page: 1, sort: "id,asc"}); code != exitError {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if len(srv.Calls(apitest.RouteAdminUsers)) != 0 {
		t.Error("expected no admin request for a regular user")
	}
}

func TestAdminUsers_SortAndFilter(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddUser("zed", client.AccountUser)
	srv.AddUser("bea", client.AccountUser)
	setupEnv(t, srv, srv.TokenFor(apitest.AdminID))
	jsonOutput = true

	tests := []struct {
		name  string
		opts  adminListOptions
		first string
		count int
	}{
		{"default order", adminListOptions{page: 1, sort: "id,asc"}, "alice", 4},
		{"username descending", adminListOptions{page: 1, sort: "username,desc"}, "zed", 4},
		{"filtered", adminListOptions{page: 1, sort: "id,asc", query: "be"}, "bea", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if code := runAdminUsers(context.Background(), &buf, tt.opts); code != exitOK {
				t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
			}
			var page client.Page[client.UserSummary]
			if err := json.Unmarshal(buf.Bytes(), &page); err != nil {
				t.Fatalf("output is not valid JSON: %v", err)
			}
			if len(page.Content) != tt.count || page.Content[0].Username != tt.first {
				t.Errorf("unexpected page %+v", page.Content)
			}
		})
	}
}

func TestAdminPosts_Query(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.AddPost(apitest.AliceID, "Old kettle")
	srv.AddPost(apitest.AliceID, "New kettle")
	setupEnv(t, srv, srv.TokenFor(apitest.AdminID))

	var buf bytes.Buffer
	code := runAdminPosts(context.Background(), &buf, adminListOptions{page: 2, sort: "createdAt,desc", query: "kettle"})
	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}

	calls := srv.Calls(apitest.RouteAdminPosts)
	if len(calls) != 1 {
		t.Fatalf("expected one request, got %d", len(calls))
	}
	q, _ := url.ParseQuery(calls[0].Query)
	if q.Get("page") != "1" || q.Get("sort") != "createdAt,desc" || q.Get("query") != "kettle" || q.Get("size") != "8" {
		t.Errorf("unexpected query %q", calls[0].Query)
	}
}

func TestAdminPosts_BadOptions(t *testing.T) {
	srv := apitest.NewServer(t)
	setupEnv(t, srv, srv.TokenFor(apitest.AdminID))

	var buf bytes.Buffer
	if code := runAdminPosts(context.Background(), &buf, adminListOptions{page: 0, sort: "createdAt,desc"}); code != exitError {
		t.Errorf("expected exit code 2 for page 0, got %d", code)
	}
	if code := runAdminPosts(context.Background(), &buf, adminListOptions{page: 1, sort: "createdAt,sideways"}); code != exitError {
		t.Errorf("expected exit code 2 for bad sort, got %d", code)
	}
}

func TestAdminUpdateUser(t *testing.T) {
	srv := apitest.NewServer(t)
	setupEnv(t, srv, srv.TokenFor(apitest.AdminID))

	var buf bytes.Buffer
	code := runAdminUpdateUser(context.Background(), &buf, fmt.Sprint(apitest.AliceID), adminUpdateOptions{
		username:    "alice",
		fullName:    "Alice Admin",
		email:       "alice@example.com",
		accountType: "admin",
		active:      true,
	})
	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	u, _ := srv.User(apitest.AliceID)
	if u.AccountType != client.AccountAdmin || u.FullName != "Alice Admin" {
		t.Errorf("unexpected user %+v", u)
	}

	buf.Reset()
	code = runAdminUpdateUser(context.Background(), &buf, "1", adminUpdateOptions{username: "alice", email: "nope", accountType: "USER"})
	if code != exitError {
		t.Errorf("expected exit code 2 for invalid email, got %d", code)
	}
}

func TestAdminUpdateUser_AvatarFile(t *testing.T) {
	srv := apitest.NewServer(t)
	setupEnv(t, srv, srv.TokenFor(apitest.AdminID))

	image := filepath.Join(t.TempDir(), "alice.jpg")
	if err := os.WriteFile(image, []byte("jpeg bytes"), 0600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	code := runAdminUpdateUser(context.Background(), &buf, fmt.Sprint(apitest.AliceID), adminUpdateOptions{
		username:    "alice",
		email:       "alice@example.com",
		accountType: "USER",
		active:      true,
		avatarFile:  image,
	})
	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	u, _ := srv.User(apitest.AliceID)
	stored, ok := srv.Avatar(u.AvatarURL)
	if !ok || stored.ContentType != "image/jpeg" {
		t.Errorf("expected alice's avatar to be the uploaded image, got %q (%+v)", u.AvatarURL, stored)
	}
}

func TestAdminDelete(t *testing.T) {
	srv := apitest.NewServer(t)
	bob := srv.AddUser("bob", client.AccountUser)
	post := srv.AddPost(apitest.AliceID, "Lamp")
	setupEnv(t, srv, srv.TokenFor(apitest.AdminID))

	var buf bytes.Buffer
	if code := runAdminDelete(context.Background(), &buf, "post", fmt.Sprint(post.ID)); code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if srv.PostCount() != 0 {
		t.Error("expected the post to be deleted")
	}

	buf.Reset()
	if code := runAdminDelete(context.Background(), &buf, "user", fmt.Sprint(bob.ID)); code != exitOK {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(buf.String(), fmt.Sprintf("Deleted user #%d", bob.ID)) {
		t.Errorf("unexpected output %q", buf.String())
	}
	if _, ok := srv.User(bob.ID); ok {
		t.Error("expected the user to be deleted")
	}

	if code := runAdminDelete(context.Background(), &buf, "post", "9999"); code != exitFailed {
		t.Errorf("expected exit code 1 for missing post, got %d", code)
	}
}

func TestReportAndResolve(t *testing.T) {
	srv := apitest.NewServer(t)
	post := srv.AddPost(apitest.AdminID, "Suspicious link")
	setupEnv(t, srv, srv.TokenFor(apitest.AliceID))

	var buf bytes.Buffer
	if code := runReport(context.Background(), &buf, "post", fmt.Sprint(post.ID), "  spam  "); code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}

	// switch to the admin account
	setupEnv(t, srv, srv.TokenFor(apitest.AdminID))
	jsonOutput = true

	buf.Reset()
	if code := runAdminReports(context.Background(), &buf); code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	var reports []client.Report
	if err := json.Unmarshal(buf.Bytes(), &reports); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(reports) != 1 || reports[0].Reason != "spam" || reports[0].Reporter.Username != "alice" {
		t.Fatalf("unexpected reports %+v", reports)
	}

	buf.Reset()
	if code := runAdminResolve(context.Background(), &buf, fmt.Sprint(reports[0].ID), true); code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if srv.PostCount() != 0 {
		t.Error("expected the reported post to be deleted")
	}
}

func TestAdminResolve_Dismiss(t *testing.T) {
	srv := apitest.NewServer(t)
	post := srv.AddPost(apitest.AliceID, "Fine post")
	rep := srv.AddReport(client.Report{EntityType: client.EntityPost, EntityID: post.ID, Reason: "meh"})
	setupEnv(t, srv, srv.TokenFor(apitest.AdminID))

	var buf bytes.Buffer
	if code := runAdminResolve(context.Background(), &buf, fmt.Sprint(rep.ID), false); code != exitOK {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(buf.String(), "Dismissed report") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if srv.PostCount() != 1 {
		t.Error("expected the post to survive a dismissal")
	}
}

func TestReport_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		entityType string
		id         string
		reason     string
	}{
		{"bad type", "story", "1", "spam"},
		{"bad id", "post", "x", "spam"},
		{"blank reason", "post", "1", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if code := runReport(context.Background(), &buf, tt.entityType, tt.id, tt.reason); code != exitError {
				t.Errorf("expected exit code 2, got %d", code)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("a much longer title", 6); got != "a muc…" {
		t.Errorf("truncate() = %q", got)
	}
}
