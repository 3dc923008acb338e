// ABOUTME: Wire types for the wishlist REST API
// ABOUTME: Mirrors the backend's camelCase JSON payloads

package client

import (
	"fmt"
	"time"
)

// AccountType distinguishes regular users from administrators
type AccountType string

const (
	AccountUser  AccountType = "USER"
	AccountAdmin AccountType = "ADMIN"
)

// UserSummary is the identity of a user as returned by /api/users/me and list endpoints
type UserSummary struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	FullName    string      `json:"fullName"`
	Email       string      `json:"email"`
	AvatarURL   string      `json:"avatarUrl,omitempty"`
	Bio         string      `json:"bio,omitempty"`
	AccountType AccountType `json:"accountType"`
	Active      bool        `json:"active"`
}

// IsAdmin reports whether the user has the ADMIN account type
func (u *UserSummary) IsAdmin() bool {
	return u != nil && u.AccountType == AccountAdmin
}

// Page is a bounded slice of a larger ordered result set
type Page[T any] struct {
	Content       []T   `json:"content"`
	Number        int   `json:"number"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements,omitempty"`
	Last          bool  `json:"last"`
}

// TokenResponse is returned by credential exchanges and identity-affecting profile edits
type TokenResponse struct {
	Token string `json:"token"`
}

// Credentials is the login request body
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the register request body
type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// ProfileUpdate is the body of PUT /api/users/me/profile
type ProfileUpdate struct {
	Username  string `json:"username" validate:"required,min=3,max=30"`
	FullName  string `json:"fullName"`
	Email     string `json:"email" validate:"required,email"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// ProfileUpdateResponse carries a reissued token when the edit changed identity claims
type ProfileUpdateResponse struct {
	UserSummary
	Token string `json:"token,omitempty"`
}

// PasswordChange is the body of PUT /api/users/me/change-password
type PasswordChange struct {
	CurrentPassword      string `json:"currentPassword" validate:"required"`
	NewPassword          string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
	ConfirmationPassword string `json:"confirmationPassword" validate:"required,eqfield=NewPassword"`
}

// Profile is a public profile page header
type Profile struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"fullName"`
	Bio            string `json:"bio,omitempty"`
	AvatarURL      string `json:"profileImageUrl,omitempty"`
	FollowerCount  int    `json:"followerCount"`
	FollowingCount int    `json:"followingCount"`
	IsFollowing    bool   `json:"isFollowing"`
	IsCurrentUser  bool   `json:"isCurrentUser"`
}

// Like records one user liking a post
type Like struct {
	ID   int64       `json:"id"`
	User UserSummary `json:"user"`
}

// LikeRequest identifies the post for like and unlike
type LikeRequest struct {
	PostID int64 `json:"postId"`
}

// Comment is a comment on a post
type Comment struct {
	ID        int64       `json:"id"`
	Text      string      `json:"text"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// NewComment is the body of POST /api/comments
type NewComment struct {
	PostID int64  `json:"postId" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

// Post is a wishlist item shared by a user
type Post struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	ItemURL     string      `json:"itemUrl"`
	ImageURL    string      `json:"imageUrl,omitempty"`
	Brand       string      `json:"brand,omitempty"`
	ShopName    string      `json:"shopName,omitempty"`
	Price       string      `json:"price,omitempty"`
	IsPrivate   bool        `json:"isPrivate"`
	User        UserSummary `json:"user"`
	LikeList    []Like      `json:"likeList"`
	CommentList []Comment   `json:"commentList"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// LikedBy reports whether the given user appears in the post's like list
func (p *Post) LikedBy(userID int64) bool {
	for _, l := range p.LikeList {
		if l.User.ID == userID {
			return true
		}
	}
	return false
}

// PreparedPost is the scraped preview returned by POST /api/posts/prepare
type PreparedPost struct {
	Title    string `json:"title"`
	ItemURL  string `json:"itemUrl"`
	ImageURL string `json:"imageUrl,omitempty"`
	Brand    string `json:"brand,omitempty"`
	ShopName string `json:"shopName,omitempty"`
	Price    string `json:"price,omitempty"`
}

// PrepareRequest is the body of POST /api/posts/prepare
type PrepareRequest struct {
	ItemURL string `json:"itemUrl" validate:"required,url"`
}

// NewPost is the body of POST /api/posts/create
type NewPost struct {
	PreparedPost
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
}

// NotificationType distinguishes follow and post notifications
type NotificationType string

const (
	NotificationFollow  NotificationType = "FOLLOW"
	NotificationLike    NotificationType = "LIKE"
	NotificationComment NotificationType = "COMMENT"
)

// Notification is an entry in the notification list
type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Sender    *UserSummary     `json:"sender,omitempty"`
	PostID    int64            `json:"postId,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Target returns the path a notification links to
func (n *Notification) Target() string {
	if n.Type == NotificationFollow && n.Sender != nil {
		return "/profile/" + n.Sender.Username
	}
	return fmt.Sprintf("/post/%d", n.PostID)
}

// Text describes the notification from the recipient's point of view
func (n *Notification) Text() string {
	who := "Someone"
	if n.Sender != nil {
		who = "@" + n.Sender.Username
	}
	switch n.Type {
	case NotificationFollow:
		return who + " started following you"
	case NotificationLike:
		return who + " liked your post"
	case NotificationComment:
		return who + " commented on your post"
	default:
		return fmt.Sprintf("%s: %s", who, n.Type)
	}
}

// EntityType is the kind of entity a report refers to
type EntityType string

const (
	EntityUser    EntityType = "USER"
	EntityPost    EntityType = "POST"
	EntityComment EntityType = "COMMENT"
)

// NewReport is the body of POST /api/reports
type NewReport struct {
	EntityID   int64      `json:"entityId" validate:"required"`
	EntityType EntityType `json:"entityType" validate:"required,oneof=USER POST COMMENT"`
	Reason     string     `json:"reason" validate:"required"`
}

// Report is a pending moderation report
type Report struct {
	ID           int64        `json:"id"`
	EntityType   EntityType   `json:"entityType"`
	EntityID     int64        `json:"entityId"`
	Reason       string       `json:"reason"`
	Reporter     UserSummary  `json:"reporter"`
	ReportedUser *UserSummary `json:"reportedUser,omitempty"`
	Content      string       `json:"content,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// AdminUserUpdate is the body of PUT /api/admin/users/{id}
type AdminUserUpdate struct {
	Username    string      `json:"username" validate:"required"`
	FullName    string      `json:"fullName"`
	Email       string      `json:"email" validate:"required,email"`
	AccountType AccountType `json:"accountType" validate:"required,oneof=USER ADMIN"`
	Active      bool        `json:"active"`
}
