// ABOUTME: Post, like and comment endpoints
// ABOUTME: Feed, explore, profile tabs, post creation and moderation by owner

package client

import "context"

// PostTab selects which of a user's post lists to load
type PostTab string

const (
	TabPosts   PostTab = "posts"
	TabPrivate PostTab = "private"
	TabLiked   PostTab = "liked"
)

// Feed calls GET /api/posts/feed
func (c *Client) Feed(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.get(ctx, "/api/posts/feed", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Explore calls GET /api/posts/explore?page=&size=
func (c *Client) Explore(ctx context.Context, params ListParams) (*Page[Post], error) {
	var page Page[Post]
	if err := c.get(ctx, "/api/posts/explore", params.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Post calls GET /api/posts/{id}
func (c *Client) Post(ctx context.Context, id int64) (*Post, error) {
	var post Post
	if err := c.get(ctx, pathf("/api/posts/%d", id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UserPosts loads one of a user's post tabs
func (c *Client) UserPosts(ctx context.Context, username string, tab PostTab) ([]Post, error) {
	path := pathf("/api/posts/user/%s", username)
	switch tab {
	case TabPrivate:
		path += "/private"
	case TabLiked:
		path += "/liked"
	}

	var posts []Post
	if err := c.get(ctx, path, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// PreparePost scrapes an item URL via POST /api/posts/prepare
func (c *Client) PreparePost(ctx context.Context, req PrepareRequest) (*PreparedPost, error) {
	var prepared PreparedPost
	if err := c.post(ctx, "/api/posts/prepare", req, &prepared); err != nil {
		return nil, err
	}
	return &prepared, nil
}

// CreatePost calls POST /api/posts/create
func (c *Client) CreatePost(ctx context.Context, post NewPost) (*Post, error) {
	var created Post
	if err := c.post(ctx, "/api/posts/create", post, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SetVisibility calls PUT /api/posts/{id}/visibility
func (c *Client) SetVisibility(ctx context.Context, id int64, private bool) error {
	body := struct {
		IsPrivate bool `json:"isPrivate"`
	}{IsPrivate: private}
	return c.put(ctx, pathf("/api/posts/%d/visibility", id), body, nil)
}

// DeletePost calls DELETE /api/posts/{id}
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.delete(ctx, pathf("/api/posts/%d", id), nil)
}

// Like calls POST /api/likes
func (c *Client) Like(ctx context.Context, postID int64) error {
	return c.post(ctx, "/api/likes", LikeRequest{PostID: postID}, nil)
}

// Unlike calls DELETE /api/likes with the post in the body
func (c *Client) Unlike(ctx context.Context, postID int64) error {
	return c.delete(ctx, "/api/likes", LikeRequest{PostID: postID})
}

// Comments calls GET /api/posts/{id}/comments
func (c *Client) Comments(ctx context.Context, postID int64) ([]Comment, error) {
	var comments []Comment
	if err := c.get(ctx, pathf("/api/posts/%d/comments", postID), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment calls POST /api/comments
func (c *Client) AddComment(ctx context.Context, comment NewComment) error {
	return c.post(ctx, "/api/comments", comment, nil)
}

// CreateReport calls POST /api/reports
func (c *Client) CreateReport(ctx context.Context, report NewReport) error {
	return c.post(ctx, "/api/reports", report, nil)
}
