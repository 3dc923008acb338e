// ABOUTME: Admin post moderation screen
// ABOUTME: Lists every post with sorting and filtering and deletes on confirmation

package admin

import (
	"context"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/listing"
)

// PostsAPI is what the posts screen needs from the backend
type PostsAPI interface {
	AdminDeletePost(ctx context.Context, id int64) error
}

// Posts is the admin posts table
type Posts struct {
	*List[client.Post]
}

var postColumns = []Column[client.Post]{
	{Title: "ID", Field: "id", Width: 6, Value: func(p client.Post) string { return strconv.FormatInt(p.ID, 10) }},
	{Title: "Title", Field: "title", Width: 30, Value: func(p client.Post) string { return p.Title }},
	{Title: "Owner", Field: "user", Width: 16, Value: func(p client.Post) string { return "@" + p.User.Username }},
	{Title: "Likes", Width: 6, Value: func(p client.Post) string { return strconv.Itoa(len(p.LikeList)) }},
	{Title: "Private", Width: 8, Value: func(p client.Post) string {
		if p.IsPrivate {
			return "yes"
		}
		return ""
	}},
	{Title: "Created", Field: "createdAt", Width: 17, Value: func(p client.Post) string {
		return p.CreatedAt.Local().Format("2006-01-02 15:04")
	}},
}

// NewPosts creates the admin posts screen
func NewPosts(ctx context.Context, ctrl *listing.Controller[client.Post], api PostsAPI) *Posts {
	remove := func(ctx context.Context, p client.Post) error {
		return api.AdminDeletePost(ctx, p.ID)
	}
	label := func(p client.Post) string {
		return "post #" + strconv.FormatInt(p.ID, 10) + " " + strconv.Quote(p.Title)
	}
	return &Posts{List: newList(ctx, "Admin: posts", ctrl, postColumns, label, remove)}
}

// Update implements tea.Model
func (p *Posts) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return p, p.update(msg)
}
