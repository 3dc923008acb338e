// ABOUTME: In-memory fake of the wishlist backend for tests
// ABOUTME: Serves the REST catalog with gorilla/mux, bearer auth, and failure injection

package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/markalston/wishlist-cli/internal/client"
)

// Seeded accounts
const (
	AlicePassword = "password1"
	AdminPassword = "admin-secret"
)

// Route names usable with Fail, Delay and Calls
const (
	RouteLogin          = "login"
	RouteRegister       = "register"
	RouteMe             = "me"
	RouteUpdateProfile  = "update-profile"
	RouteChangePassword = "change-password"
	RouteProfile        = "profile"
	RouteFollow         = "follow"
	RouteUnfollow       = "unfollow"
	RouteSearch         = "search"
	RouteFeed           = "feed"
	RouteExplore        = "explore"
	RoutePost           = "post"
	RouteUserPosts      = "user-posts"
	RoutePrepare        = "prepare"
	RouteCreatePost     = "create-post"
	RouteVisibility     = "visibility"
	RouteDeletePost     = "delete-post"
	RouteComments       = "comments"
	RouteAddComment     = "add-comment"
	RouteLike           = "like"
	RouteUnlike         = "unlike"
	RouteNotifications  = "notifications"
	RouteMarkAllRead    = "mark-all-read"
	RouteMarkRead       = "mark-read"
	RouteReport         = "report"
	RouteAdminUsers     = "admin-users"
	RouteAdminUpdate    = "admin-update-user"
	RouteAdminDelUser   = "admin-delete-user"
	RouteAdminPosts     = "admin-posts"
	RouteAdminDelPost   = "admin-delete-post"
	RoutePendingReports = "pending-reports"
	RouteResolveReport  = "resolve-report"
	RouteUploadAvatar   = "upload-avatar"
)

// Upload is an image received by the avatar upload route
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Call records one request the server received
type Call struct {
	Route  string
	Method string
	Path   string
	Query  string
	Auth   string
}

type failure struct {
	status int
	times  int
}

// Server is a fake backend. All fields are guarded by mu.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	nextID        int64
	tokenSeq      int
	users         map[int64]*client.UserSummary
	passwords     map[int64]string
	tokens        map[string]int64
	posts         []*client.Post
	comments      map[int64][]client.Comment
	follows       map[string]map[string]bool // follower -> followee
	notifications map[int64][]client.Notification
	reports       []client.Report
	avatars       map[string]Upload
	failures      map[string]*failure
	delays        map[string]time.Duration
	calls         []Call
}

// AliceID and AdminID are the seeded user IDs
const (
	AliceID int64 = 1
	AdminID int64 = 2
)

// NewServer starts a fake backend seeded with alice (USER) and admin (ADMIN).
// The server is closed when the test finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		nextID:        100,
		users:         map[int64]*client.UserSummary{},
		passwords:     map[int64]string{},
		tokens:        map[string]int64{},
		comments:      map[int64][]client.Comment{},
		follows:       map[string]map[string]bool{},
		notifications: map[int64][]client.Notification{},
		avatars:       map[string]Upload{},
		failures:      map[string]*failure{},
		delays:        map[string]time.Duration{},
	}
	s.users[AliceID] = &client.UserSummary{
		ID: AliceID, Username: "alice", FullName: "Alice Doe", Email: "alice@example.com",
		AccountType: client.AccountUser, Active: true,
	}
	s.passwords[AliceID] = AlicePassword
	s.users[AdminID] = &client.UserSummary{
		ID: AdminID, Username: "admin", FullName: "Site Admin", Email: "admin@example.com",
		AccountType: client.AccountAdmin, Active: true,
	}
	s.passwords[AdminID] = AdminPassword

	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// TokenFor issues a valid token for a seeded or created user
func (s *Server) TokenFor(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueToken(userID)
}

// Revoke invalidates a token so the next request with it gets 401
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// Fail makes the next `times` requests to route answer with status
func (s *Server) Fail(route string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{status: status, times: times}
}

// Delay makes every request to route wait d before being handled
func (s *Server) Delay(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[route] = d
}

// Calls returns the requests made to route, or all requests when route is empty
func (s *Server) Calls(route string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Call
	for _, c := range s.calls {
		if route == "" || c.Route == route {
			out = append(out, c)
		}
	}
	return out
}

// AddUser creates a user and returns it
func (s *Server) AddUser(username string, accountType client.AccountType) client.UserSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.addUser(username, username, username+"@example.com", "password1", accountType)
}

// AddPost creates a post owned by userID and returns it
func (s *Server) AddPost(userID int64, title string) client.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	post := &client.Post{
		ID:        s.nextID,
		Title:     title,
		ItemURL:   "https://shop.example.com/items/" + fmt.Sprint(s.nextID),
		User:      *s.users[userID],
		LikeList:  []client.Like{},
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.nextID) * time.Minute),
	}
	s.posts = append(s.posts, post)
	return *post
}

// AddNotification appends a notification for userID
func (s *Server) AddNotification(userID int64, n client.Notification) client.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	n.ID = s.nextID
	s.notifications[userID] = append(s.notifications[userID], n)
	return n
}

// AddReport files a pending report
func (s *Server) AddReport(r client.Report) client.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	r.ID = s.nextID
	s.reports = append(s.reports, r)
	return r
}

// LikeCount returns the number of likes a post has on the server
func (s *Server) LikeCount(postID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findPost(postID); p != nil {
		return len(p.LikeList)
	}
	return 0
}

// PostCount returns how many posts exist
func (s *Server) PostCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// User returns the stored user
func (s *Server) User(id int64) (client.UserSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return client.UserSummary{}, false
	}
	return *u, true
}

func (s *Server) addUser(username, fullName, email, password string, accountType client.AccountType) *client.UserSummary {
	s.nextID++
	u := &client.UserSummary{
		ID: s.nextID, Username: username, FullName: fullName, Email: email,
		AccountType: accountType, Active: true,
	}
	s.users[u.ID] = u
	s.passwords[u.ID] = password
	return u
}

func (s *Server) issueToken(userID int64) string {
	s.tokenSeq++
	token := fmt.Sprintf("tok-%d-%d", userID, s.tokenSeq)
	s.tokens[token] = userID
	return token
}

func (s *Server) findPost(id int64) *client.Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Server) userByName(username string) *client.UserSummary {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

type contextKey string

const userKey contextKey = "user"

func currentUser(r *http.Request) *client.UserSummary {
	u, _ := r.Context().Value(userKey).(*client.UserSummary)
	return u
}

// middleware records calls, injects failures and delays, and resolves the bearer token
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Route:  name,
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		})
		delay := s.delays[name]
		var failStatus int
		if f, ok := s.failures[name]; ok && f.times > 0 {
			f.times--
			failStatus = f.status
		}
		var user *client.UserSummary
		if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			if id, ok := s.tokens[token]; ok {
				user = s.users[id]
			}
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if failStatus != 0 {
			writeJSONError(w, http.StatusText(failStatus), failStatus)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUser rejects anonymous requests with 401
func requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			writeJSONError(w, "Full authentication is required", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// requireAdmin rejects non-admin requests with 403
func requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return requireUser(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsAdmin() {
			writeJSONError(w, "Access denied", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// writeJSONError writes an error response as JSON with the given status code
func writeJSONError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"message": message})
}

func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"message": "Validation failed",
		"errors":  fields,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// Avatar returns the upload stored under the URL the upload route handed out
func (s *Server) Avatar(url string) (Upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.avatars[url]
	return u, ok
}
