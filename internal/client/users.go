// ABOUTME: Current-user, profile, follow and search endpoints
// ABOUTME: Covers /api/users/* routes used by the session and profile screens

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
)

// Me fetches the current user via GET /api/users/me
func (c *Client) Me(ctx context.Context) (*UserSummary, error) {
	var user UserSummary
	if err := c.get(ctx, "/api/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile edits the current user's profile. The response carries a new token
// when the change affects identity claims (e.g. username).
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*ProfileUpdateResponse, error) {
	var resp ProfileUpdateResponse
	if err := c.put(ctx, "/api/users/me/profile", update, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChangePassword calls PUT /api/users/me/change-password
func (c *Client) ChangePassword(ctx context.Context, change PasswordChange) error {
	return c.put(ctx, "/api/users/me/change-password", change, nil)
}

// Profile fetches a public profile via GET /api/users/profile/{username}
func (c *Client) Profile(ctx context.Context, username string) (*Profile, error) {
	var profile Profile
	if err := c.get(ctx, pathf("/api/users/profile/%s", username), nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Follow calls POST /api/users/follow/{username}
func (c *Client) Follow(ctx context.Context, username string) error {
	return c.post(ctx, pathf("/api/users/follow/%s", username), nil, nil)
}

// Unfollow calls POST /api/users/unfollow/{username}
func (c *Client) Unfollow(ctx context.Context, username string) error {
	return c.post(ctx, pathf("/api/users/unfollow/%s", username), nil, nil)
}

// SearchUsers calls GET /api/users/search?q=
func (c *Client) SearchUsers(ctx context.Context, params ListParams) (*Page[UserSummary], error) {
	var page Page[UserSummary]
	if err := c.get(ctx, "/api/users/search", params.searchValues(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AvatarUpload is the response of POST /api/uploads/avatar
type AvatarUpload struct {
	AvatarURL string `json:"avatarUrl"`
}

// UploadAvatar sends an image as the multipart "file" field of POST /api/uploads/avatar
// and returns the stored image's URL, ready for ProfileUpdate.AvatarURL.
func (c *Client) UploadAvatar(ctx context.Context, image io.Reader, filename string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	partType := mime.TypeByExtension(filepath.Ext(filename))
	if partType == "" {
		partType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	header.Set("Content-Type", partType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return "", &APIError{Kind: KindRequest, Message: "failed to build upload", Err: err}
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", &APIError{Kind: KindRequest, Message: "failed to read image", Err: err}
	}
	if err := mw.Close(); err != nil {
		return "", &APIError{Kind: KindRequest, Message: "failed to build upload", Err: err}
	}

	var resp AvatarUpload
	if err := c.send(ctx, http.MethodPost, "/api/uploads/avatar", nil, &buf, mw.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	if resp.AvatarURL == "" {
		return "", &APIError{Kind: KindTransient, Message: "upload response had no avatarUrl"}
	}
	return resp.AvatarURL, nil
}
