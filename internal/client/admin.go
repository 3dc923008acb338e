// ABOUTME: Admin panel endpoints
// ABOUTME: User and post management plus pending report resolution

package client

import "context"

// AdminUsers calls GET /api/admin/users
func (c *Client) AdminUsers(ctx context.Context, params ListParams) (*Page[UserSummary], error) {
	var page Page[UserSummary]
	if err := c.get(ctx, "/api/admin/users", params.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AdminUpdateUser calls PUT /api/admin/users/{id}
func (c *Client) AdminUpdateUser(ctx context.Context, id int64, update AdminUserUpdate) (*UserSummary, error) {
	var user UserSummary
	if err := c.put(ctx, pathf("/api/admin/users/%d", id), update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AdminDeleteUser calls DELETE /api/admin/users/{id}
func (c *Client) AdminDeleteUser(ctx context.Context, id int64) error {
	return c.delete(ctx, pathf("/api/admin/users/%d", id), nil)
}

// AdminPosts calls GET /api/admin/posts
func (c *Client) AdminPosts(ctx context.Context, params ListParams) (*Page[Post], error) {
	var page Page[Post]
	if err := c.get(ctx, "/api/admin/posts", params.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AdminDeletePost calls DELETE /api/admin/posts/{id}
func (c *Client) AdminDeletePost(ctx context.Context, id int64) error {
	return c.delete(ctx, pathf("/api/admin/posts/%d", id), nil)
}

// PendingReports calls GET /api/admin/reports/pending
func (c *Client) PendingReports(ctx context.Context) ([]Report, error) {
	var reports []Report
	if err := c.get(ctx, "/api/admin/reports/pending", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// ResolveReport calls POST /api/admin/reports/{id}/resolve. deleteEntity removes
// the reported user or content; false dismisses the report.
func (c *Client) ResolveReport(ctx context.Context, id int64, deleteEntity bool) error {
	body := struct {
		Delete bool `json:"delete"`
	}{Delete: deleteEntity}
	return c.post(ctx, pathf("/api/admin/reports/%d/resolve", id), body, nil)
}
