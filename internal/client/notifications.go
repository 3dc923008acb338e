// ABOUTME: Notification endpoints
// ABOUTME: List, mark one read, mark all read

package client

import "context"

// Notifications calls GET /api/notifications
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var list []Notification
	if err := c.get(ctx, "/api/notifications", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkAllRead calls POST /api/notifications/mark-as-read
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.post(ctx, "/api/notifications/mark-as-read", nil, nil)
}

// MarkRead calls POST /api/notifications/{id}/read
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	return c.post(ctx, pathf("/api/notifications/%d/read", id), nil, nil)
}

// UnreadCount returns how many notifications are unread
func UnreadCount(list []Notification) int {
	n := 0
	for _, item := range list {
		if !item.Read {
			n++
		}
	}
	return n
}
