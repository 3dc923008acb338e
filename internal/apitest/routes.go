// ABOUTME: Route table and handlers for the fake wishlist backend
// ABOUTME: Each handler mutates the in-memory state under the server mutex

package apitest

import (
	"cmp"
	"fmt"
	"io"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/markalston/wishlist-cli/internal/client"
)

// Route defines a single fake API route
type Route struct {
	Name    string
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Routes returns all fake API route definitions
func (s *Server) Routes() []Route {
	return []Route{
		{RouteLogin, http.MethodPost, "/api/auth/login", s.login},
		{RouteRegister, http.MethodPost, "/api/auth/register", s.register},

		{RouteMe, http.MethodGet, "/api/users/me", requireUser(s.me)},
		{RouteUpdateProfile, http.MethodPut, "/api/users/me/profile", requireUser(s.updateProfile)},
		{RouteChangePassword, http.MethodPut, "/api/users/me/change-password", requireUser(s.changePassword)},
		{RouteProfile, http.MethodGet, "/api/users/profile/{username}", s.profile},
		{RouteFollow, http.MethodPost, "/api/users/follow/{username}", requireUser(s.follow)},
		{RouteUnfollow, http.MethodPost, "/api/users/unfollow/{username}", requireUser(s.unfollow)},
		{RouteSearch, http.MethodGet, "/api/users/search", s.search},
		{RouteUploadAvatar, http.MethodPost, "/api/uploads/avatar", requireUser(s.uploadAvatar)},

		{RouteFeed, http.MethodGet, "/api/posts/feed", requireUser(s.feed)},
		{RouteExplore, http.MethodGet, "/api/posts/explore", s.explore},
		{RoutePrepare, http.MethodPost, "/api/posts/prepare", requireUser(s.prepare)},
		{RouteCreatePost, http.MethodPost, "/api/posts/create", requireUser(s.createPost)},
		{RouteUserPosts, http.MethodGet, "/api/posts/user/{username}", s.userPosts},
		{RouteUserPosts, http.MethodGet, "/api/posts/user/{username}/{tab:private|liked}", s.userPosts},
		{RouteComments, http.MethodGet, "/api/posts/{id:[0-9]+}/comments", s.postComments},
		{RouteVisibility, http.MethodPut, "/api/posts/{id:[0-9]+}/visibility", requireUser(s.visibility)},
		{RoutePost, http.MethodGet, "/api/posts/{id:[0-9]+}", s.post},
		{RouteDeletePost, http.MethodDelete, "/api/posts/{id:[0-9]+}", requireUser(s.deleteOwnPost)},
		{RouteAddComment, http.MethodPost, "/api/comments", requireUser(s.addComment)},
		{RouteLike, http.MethodPost, "/api/likes", requireUser(s.like)},
		{RouteUnlike, http.MethodDelete, "/api/likes", requireUser(s.unlike)},
		{RouteReport, http.MethodPost, "/api/reports", requireUser(s.report)},

		{RouteNotifications, http.MethodGet, "/api/notifications", requireUser(s.notificationList)},
		{RouteMarkAllRead, http.MethodPost, "/api/notifications/mark-as-read", requireUser(s.markAllRead)},
		{RouteMarkRead, http.MethodPost, "/api/notifications/{id:[0-9]+}/read", requireUser(s.markRead)},

		{RouteAdminUsers, http.MethodGet, "/api/admin/users", requireAdmin(s.adminUsers)},
		{RouteAdminUpdate, http.MethodPut, "/api/admin/users/{id:[0-9]+}", requireAdmin(s.adminUpdateUser)},
		{RouteAdminDelUser, http.MethodDelete, "/api/admin/users/{id:[0-9]+}", requireAdmin(s.adminDeleteUser)},
		{RouteAdminPosts, http.MethodGet, "/api/admin/posts", requireAdmin(s.adminPosts)},
		{RouteAdminDelPost, http.MethodDelete, "/api/admin/posts/{id:[0-9]+}", requireAdmin(s.adminDeletePost)},
		{RoutePendingReports, http.MethodGet, "/api/admin/reports/pending", requireAdmin(s.pendingReports)},
		{RouteResolveReport, http.MethodPost, "/api/admin/reports/{id:[0-9]+}/resolve", requireAdmin(s.resolveReport)},
	}
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	for _, route := range s.Routes() {
		r.HandleFunc(route.Path, route.Handler).Methods(route.Method).Name(route.Name)
	}
	r.Use(s.middleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "No handler for "+r.URL.Path, http.StatusNotFound)
	})
	return r
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

// Auth

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds client.Credentials
	if err := decode(r, &creds); err != nil {
		writeJSONError(w, "Malformed request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if strings.EqualFold(u.Email, creds.Email) && s.passwords[id] == creds.Password {
			writeJSON(w, http.StatusOK, client.TokenResponse{Token: s.issueToken(id)})
			return
		}
	}
	writeJSONError(w, "Bad credentials", http.StatusUnauthorized)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg client.Registration
	if err := decode(r, &reg); err != nil {
		writeJSONError(w, "Malformed request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fields := map[string]string{}
	for _, u := range s.users {
		if u.Username == reg.Username {
			fields["username"] = "Username is already taken"
		}
		if strings.EqualFold(u.Email, reg.Email) {
			fields["email"] = "Email is already registered"
		}
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}
	u := s.addUser(reg.Username, reg.FullName, reg.Email, reg.Password, client.AccountUser)
	writeJSON(w, http.StatusOK, client.TokenResponse{Token: s.issueToken(u.ID)})
}

// Users

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var update client.ProfileUpdate
	if err := decode(r, &update); err != nil {
		writeJSONError(w, "Malformed request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	me := currentUser(r)
	if other := s.userByName(update.Username); other != nil && other.ID != me.ID {
		writeValidationError(w, map[string]string{"username": "Username is already taken"})
		return
	}

	resp := client.ProfileUpdateResponse{}
	renamed := me.Username != update.Username
	me.Username = update.Username
	me.FullName = update.FullName
	me.Bio = update.Bio
	if update.Email != "" {
		me.Email = update.Email
	}
	if update.AvatarURL != "" {
		me.AvatarURL = update.AvatarURL
	}
	if renamed {
		resp.Token = s.issueToken(me.ID)
	}
	resp.UserSummary = *me
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var change client.PasswordChange
	if err := decode(r, &change); err != nil {
		writeJSONError(w, "Malformed request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	me := currentUser(r)
	if s.passwords[me.ID] != change.CurrentPassword {
		writeValidationError(w, map[string]string{"currentPassword": "Current password is incorrect"})
		return
	}
	s.passwords[me.ID] = change.NewPassword
	w.WriteHeader(http.StatusOK)
}

// maxAvatarBytes bounds the multipart body the upload route accepts
const maxAvatarBytes = 2 << 20

func (s *Server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeJSONError(w, "Only image files are allowed", http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, "Could not read file", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	url := fmt.Sprintf("/uploads/avatars/%d-%s", s.nextID, path.Base(header.Filename))
	s.avatars[url] = Upload{Filename: header.Filename, ContentType: contentType, Data: data}
	writeJSON(w, http.StatusOK, client.AvatarUpload{AvatarURL: url})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.userByName(mux.Vars(r)["username"])
	if u == nil {
		writeJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	p := client.Profile{
		ID:             u.ID,
		Username:       u.Username,
		FullName:       u.FullName,
		Bio:            u.Bio,
		AvatarURL:      u.AvatarURL,
		FollowingCount: len(s.follows[u.Username]),
	}
	for follower, followees := range s.follows {
		if followees[u.Username] {
			p.FollowerCount++
		}
		if me := currentUser(r); me != nil && follower == me.Username && followees[u.Username] {
			p.IsFollowing = true
		}
	}
	if me := currentUser(r); me != nil {
		p.IsCurrentUser = me.ID == u.ID
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) follow(w http.ResponseWriter, r *http.Request) {
	s.setFollow(w, r, true)
}

func (s *Server) unfollow(w http.ResponseWriter, r *http.Request) {
	s.setFollow(w, r, false)
}

func (s *Server) setFollow(w http.ResponseWriter, r *http.Request, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me := currentUser(r)
	target := s.userByName(mux.Vars(r)["username"])
	if target == nil {
		writeJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if target.ID == me.ID {
		writeJSONError(w, "You cannot follow yourself", http.StatusBadRequest)
		return
	}
	if s.follows[me.Username] == nil {
		s.follows[me.Username] = map[string]bool{}
	}
	if on {
		s.follows[me.Username][target.Username] = true
		s.nextID++
		s.notifications[target.ID] = append(s.notifications[target.ID], client.Notification{
			ID: s.nextID, Type: client.NotificationFollow, Sender: me, CreatedAt: time.Now(),
		})
	} else {
		delete(s.follows[me.Username], target.Username)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))

	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []client.UserSummary
	for _, u := range s.users {
		if q == "" || strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.FullName), q) {
			matches = append(matches, *u)
		}
	}
	slices.SortFunc(matches, func(a, b client.UserSummary) int { return cmp.Compare(a.Username, b.Username) })
	writeJSON(w, http.StatusOK, paginate(r, matches, 8))
}

// Posts

func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me := currentUser(r)
	var out []client.Post
	for _, p := range s.posts {
		if p.IsPrivate && p.User.ID != me.ID {
			continue
		}
		if p.User.ID == me.ID || s.follows[me.Username][p.User.Username] {
			out = append(out, *p)
		}
	}
	sortPosts(out, "createdAt", false)
	writeJSON(w, http.StatusOK, nonNil(out))
}

func (s *Server) explore(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []client.Post
	for _, p := range s.posts {
		if !p.IsPrivate {
			out = append(out, *p)
		}
	}
	sortPosts(out, "createdAt", false)
	writeJSON(w, http.StatusOK, paginate(r, out, 5))
}

func (s *Server) post(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findPost(pathID(r))
	if p == nil || (p.IsPrivate && (currentUser(r) == nil || currentUser(r).ID != p.User.ID)) {
		writeJSONError(w, "Post not found", http.StatusNotFound)
		return
	}
	out := *p
	out.CommentList = s.comments[p.ID]
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) userPosts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.userByName(mux.Vars(r)["username"])
	if owner == nil {
		writeJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	tab := mux.Vars(r)["tab"]
	me := currentUser(r)
	if tab == "private" && (me == nil || me.ID != owner.ID) {
		writeJSONError(w, "Access denied", http.StatusForbidden)
		return
	}

	var out []client.Post
	for _, p := range s.posts {
		switch tab {
		case "private":
			if p.User.ID == owner.ID && p.IsPrivate {
				out = append(out, *p)
			}
		case "liked":
			if !p.IsPrivate && p.LikedBy(owner.ID) {
				out = append(out, *p)
			}
		default:
			if p.User.ID == owner.ID && !p.IsPrivate {
				out = append(out, *p)
			}
		}
	}
	sortPosts(out, "createdAt", false)
	writeJSON(w, http.StatusOK, nonNil(out))
}

func (s *Server) prepare(w http.ResponseWriter, r *http.Request) {
	var req client.PrepareRequest
	if err := decode(r, &req); err != nil || !strings.HasPrefix(req.ItemURL, "http") {
		writeValidationError(w, map[string]string{"itemUrl": "A valid item URL is required"})
		return
	}
	title := req.ItemURL[strings.LastIndex(req.ItemURL, "/")+1:]
	writeJSON(w, http.StatusOK, client.PreparedPost{
		Title:    title,
		ItemURL:  req.ItemURL,
		ShopName: "Example Shop",
		Price:    "19.99",
	})
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var np client.NewPost
	if err := decode(r, &np); err != nil {
		writeJSONError(w, "Malformed request body", http.StatusBadRequest)
		return
	}
	if np.Title == "" || np.ItemURL == "" {
		writeValidationError(w, map[string]string{"title": "Title and item URL are required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := &client.Post{
		ID:          s.nextID,
		Title:       np.Title,
		Description: np.Description,
		ItemURL:     np.ItemURL,
		ImageURL:    np.ImageURL,
		Brand:       np.Brand,
		ShopName:    np.ShopName,
		Price:       np.Price,
		IsPrivate:   np.IsPrivate,
		User:        *currentUser(r),
		LikeList:    []client.Like{},
		CreatedAt:   time.Now(),
	}
	s.posts = append(s.posts, p)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) visibility(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsPrivate bool `json:"isPrivate"`
	}
	if err := decode(r, &body); err != nil {
		writeJSONError(w, "Malformed request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ownedPost(w, r)
	if p == nil {
		return
	}
	p.IsPrivate = body.IsPrivate
	w.WriteHeader(http.StatusOK)
}

func (s *Server) deleteOwnPost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.ownedPost(w, r); p != nil {
		s.removePost(p.ID)
		w.WriteHeader(http.StatusOK)
	}
}

// ownedPost resolves the {id} post and checks the caller owns it, writing the error otherwise
func (s *Server) ownedPost(w http.ResponseWriter, r *http.Request) *client.Post {
	p := s.findPost(pathID(r))
	if p == nil {
		writeJSONError(w, "Post not found", http.StatusNotFound)
		return nil
	}
	if p.User.ID != currentUser(r).ID {
		writeJSONError(w, "You can only modify your own posts", http.StatusForbidden)
		return nil
	}
	return p
}

func (s *Server) removePost(id int64) bool {
	for i, p := range s.posts {
		if p.ID == id {
			s.posts = slices.Delete(s.posts, i, i+1)
			delete(s.comments, id)
			return true
		}
	}
	return false
}

func (s *Server) postComments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findPost(pathID(r)) == nil {
		writeJSONError(w, "Post not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.comments[pathID(r)]))
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	var nc client.NewComment
	if err := decode(r, &nc); err != nil {
		writeJSONError(w, "Malformed request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(nc.Text) == "" {
		writeValidationError(w, map[string]string{"text": "Comment cannot be empty"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findPost(nc.PostID)
	if p == nil {
		writeJSONError(w, "Post not found", http.StatusNotFound)
		return
	}
	me := currentUser(r)
	s.nextID++
	s.comments[p.ID] = append(s.comments[p.ID], client.Comment{
		ID: s.nextID, Text: nc.Text, User: *me, CreatedAt: time.Now(),
	})
	if p.User.ID != me.ID {
		s.nextID++
		s.notifications[p.User.ID] = append(s.notifications[p.User.ID], client.Notification{
			ID: s.nextID, Type: client.NotificationComment, Sender: me, PostID: p.ID, CreatedAt: time.Now(),
		})
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) like(w http.ResponseWriter, r *http.Request) {
	var req client.LikeRequest
	if err := decode(r, &req); err != nil {
		writeJSONError(w, "Malformed request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findPost(req.PostID)
	if p == nil {
		writeJSONError(w, "Post not found", http.StatusNotFound)
		return
	}
	me := currentUser(r)
	if p.LikedBy(me.ID) {
		writeJSONError(w, "Post already liked", http.StatusConflict)
		return
	}
	s.nextID++
	p.LikeList = append(p.LikeList, client.Like{ID: s.nextID, User: *me})
	if p.User.ID != me.ID {
		s.nextID++
		s.notifications[p.User.ID] = append(s.notifications[p.User.ID], client.Notification{
			ID: s.nextID, Type: client.NotificationLike, Sender: me, PostID: p.ID, CreatedAt: time.Now(),
		})
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) unlike(w http.ResponseWriter, r *http.Request) {
	var req client.LikeRequest
	if err := decode(r, &req); err != nil {
		writeJSONError(w, "Malformed request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findPost(req.PostID)
	if p == nil {
		writeJSONError(w, "Post not found", http.StatusNotFound)
		return
	}
	me := currentUser(r)
	p.LikeList = slices.DeleteFunc(p.LikeList, func(l client.Like) bool { return l.User.ID == me.ID })
	w.WriteHeader(http.StatusOK)
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	var nr client.NewReport
	if err := decode(r, &nr); err != nil {
		writeJSONError(w, "Malformed request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(nr.Reason) == "" {
		writeValidationError(w, map[string]string{"reason": "A reason is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.reports = append(s.reports, client.Report{
		ID: s.nextID, EntityType: nr.EntityType, EntityID: nr.EntityID, Reason: nr.Reason,
		Reporter: *currentUser(r), CreatedAt: time.Now(),
	})
	w.WriteHeader(http.StatusOK)
}

// Notifications

func (s *Server) notificationList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := slices.Clone(s.notifications[currentUser(r).ID])
	slices.Reverse(list)
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.notifications[currentUser(r).ID]
	for i := range list {
		list[i].Read = true
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.notifications[currentUser(r).ID]
	for i := range list {
		if list[i].ID == pathID(r) {
			list[i].Read = true
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	writeJSONError(w, "Notification not found", http.StatusNotFound)
}

// Admin

func (s *Server) adminUsers(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("query"))
	field, asc := parseSort(r, "id", true)

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []client.UserSummary
	for _, u := range s.users {
		if q == "" || strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, *u)
		}
	}
	slices.SortStableFunc(out, func(a, b client.UserSummary) int {
		var c int
		switch field {
		case "username":
			c = cmp.Compare(a.Username, b.Username)
		case "email":
			c = cmp.Compare(a.Email, b.Email)
		case "fullName":
			c = cmp.Compare(a.FullName, b.FullName)
		case "accountType":
			c = cmp.Compare(a.AccountType, b.AccountType)
		default:
			c = cmp.Compare(a.ID, b.ID)
		}
		if !asc {
			c = -c
		}
		return c
	})
	writeJSON(w, http.StatusOK, paginate(r, out, 10))
}

func (s *Server) adminUpdateUser(w http.ResponseWriter, r *http.Request) {
	var update client.AdminUserUpdate
	if err := decode(r, &update); err != nil {
		writeJSONError(w, "Malformed request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[pathID(r)]
	if !ok {
		writeJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	u.Username = update.Username
	u.FullName = update.FullName
	u.Email = update.Email
	u.AccountType = update.AccountType
	u.Active = update.Active
	if update.AvatarURL != "" {
		u.AvatarURL = update.AvatarURL
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r)
	if _, ok := s.users[id]; !ok {
		writeJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	s.deleteUser(id)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) deleteUser(id int64) {
	delete(s.users, id)
	delete(s.passwords, id)
	for token, owner := range s.tokens {
		if owner == id {
			delete(s.tokens, token)
		}
	}
	s.posts = slices.DeleteFunc(s.posts, func(p *client.Post) bool { return p.User.ID == id })
}

func (s *Server) adminPosts(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("query"))
	field, asc := parseSort(r, "createdAt", false)

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []client.Post
	for _, p := range s.posts {
		if q == "" || strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.User.Username), q) {
			out = append(out, *p)
		}
	}
	sortPosts(out, field, asc)
	writeJSON(w, http.StatusOK, paginate(r, out, 8))
}

func (s *Server) adminDeletePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.removePost(pathID(r)) {
		writeJSONError(w, "Post not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) pendingReports(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, nonNil(s.reports))
}

func (s *Server) resolveReport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Delete bool `json:"delete"`
	}
	if err := decode(r, &body); err != nil {
		writeJSONError(w, "Malformed request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r)
	i := slices.IndexFunc(s.reports, func(rep client.Report) bool { return rep.ID == id })
	if i < 0 {
		writeJSONError(w, "Report not found", http.StatusNotFound)
		return
	}
	rep := s.reports[i]
	s.reports = slices.Delete(s.reports, i, i+1)
	if body.Delete {
		switch rep.EntityType {
		case client.EntityPost:
			s.removePost(rep.EntityID)
		case client.EntityUser:
			s.deleteUser(rep.EntityID)
		case client.EntityComment:
			for postID, list := range s.comments {
				s.comments[postID] = slices.DeleteFunc(list, func(c client.Comment) bool { return c.ID == rep.EntityID })
			}
		}
	}
	w.WriteHeader(http.StatusOK)
}

// parseSort reads sort=field,dir falling back to the given default
func parseSort(r *http.Request, defField string, defAsc bool) (string, bool) {
	raw := r.URL.Query().Get("sort")
	if raw == "" {
		return defField, defAsc
	}
	field, dir, _ := strings.Cut(raw, ",")
	return field, !strings.EqualFold(dir, "desc")
}

func sortPosts(posts []client.Post, field string, asc bool) {
	slices.SortStableFunc(posts, func(a, b client.Post) int {
		var c int
		switch field {
		case "title":
			c = cmp.Compare(a.Title, b.Title)
		case "id":
			c = cmp.Compare(a.ID, b.ID)
		case "user":
			c = cmp.Compare(a.User.Username, b.User.Username)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if !asc {
			c = -c
		}
		return c
	})
}

// paginate slices items according to page= and size= query parameters
func paginate[T any](r *http.Request, items []T, defSize int) client.Page[T] {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		size = defSize
	}
	page = max(page, 0)

	total := len(items)
	totalPages := (total + size - 1) / size
	start := min(page*size, total)
	end := min(start+size, total)
	return client.Page[T]{
		Content:       nonNil(items[start:end]),
		Number:        page,
		TotalPages:    totalPages,
		TotalElements: int64(total),
		Last:          page >= totalPages-1,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
