// ABOUTME: Post rendering and optimistic like state shared by the feed and explore screens
// ABOUTME: One toggle per post id so repeated presses and refreshes never disagree

package feed

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/optimistic"
	"github.com/markalston/wishlist-cli/internal/tui/icons"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
	"github.com/markalston/wishlist-cli/internal/tui/styles"
	"github.com/markalston/wishlist-cli/internal/tui/widgets"
)

// LikeAPI is the part of the API client that backs the like toggle
type LikeAPI interface {
	Like(ctx context.Context, postID int64) error
	Unlike(ctx context.Context, postID int64) error
}

// likeSettledMsg reports how one like/unlike request ended
type likeSettledMsg struct {
	postID int64
	result optimistic.Result
}

// Failure implements nav.Failure
func (m likeSettledMsg) Failure() error {
	return m.result.Err
}

// Likes tracks the visible like state of every post on a screen
type Likes struct {
	api    LikeAPI
	viewer int64
	group  *optimistic.Group[int64]
}

// NewLikes creates like state for viewer; viewer 0 means nobody is signed in
func NewLikes(api LikeAPI, viewer int64) *Likes {
	return &Likes{api: api, viewer: viewer, group: optimistic.NewGroup[int64]()}
}

func (l *Likes) initial(p client.Post) optimistic.State {
	return optimistic.State{On: l.viewer != 0 && p.LikedBy(l.viewer), Count: len(p.LikeList)}
}

// Sync resets idle toggles to freshly loaded server state
func (l *Likes) Sync(posts []client.Post) {
	for _, p := range posts {
		l.group.Get(p.ID, l.initial(p))
	}
}

// State returns what to show for p
func (l *Likes) State(p client.Post) optimistic.State {
	if t, ok := l.group.Lookup(p.ID); ok {
		return t.State()
	}
	return l.initial(p)
}

// Toggle flips the like on p immediately and returns the command that waits for the server
func (l *Likes) Toggle(ctx context.Context, p client.Post) tea.Cmd {
	if l.viewer == 0 {
		return nav.Flash("Sign in to like posts", widgets.StatusInfo)
	}
	t, ok := l.group.Lookup(p.ID)
	if !ok {
		t = l.group.Get(p.ID, l.initial(p))
	}
	id := p.ID
	done := t.Do(ctx,
		func(ctx context.Context) error { return l.api.Like(ctx, id) },
		func(ctx context.Context) error { return l.api.Unlike(ctx, id) },
	)
	return func() tea.Msg {
		return likeSettledMsg{postID: id, result: <-done}
	}
}

// Handle reacts to settled like requests; other messages yield nil
func (l *Likes) Handle(msg tea.Msg) tea.Cmd {
	settled, ok := msg.(likeSettledMsg)
	if !ok || settled.result.Err == nil {
		return nil
	}
	return nav.Flash("Couldn't update like: "+client.Message(settled.result.Err), widgets.StatusWarning)
}

// RenderPost renders one post as a short block
func RenderPost(p client.Post, like optimistic.State, selected bool, width int) string {
	var sb strings.Builder

	title := p.Title
	if p.IsPrivate {
		title = icons.Lock.String() + " " + title
	}
	titleStyle := styles.Normal.Bold(true)
	if selected {
		titleStyle = styles.Selected
	}
	sb.WriteString(styles.Cursor(selected))
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n    ")

	var meta []string
	meta = append(meta, styles.Username.Render("@"+p.User.Username))
	if p.Price != "" {
		meta = append(meta, p.Price)
	}
	if p.ShopName != "" {
		meta = append(meta, p.ShopName)
	}
	if !p.CreatedAt.IsZero() {
		meta = append(meta, humanize.Time(p.CreatedAt))
	}
	sb.WriteString(styles.Dim.Render(strings.Join(meta, " · ")))
	sb.WriteString("\n    ")
	sb.WriteString(widgets.LikeCount(like.On, like.Count))
	sb.WriteString(fmt.Sprintf("  %s %d", icons.Comment.String(), len(p.CommentList)))

	if p.Description != "" && width > 10 {
		sb.WriteString("\n    ")
		sb.WriteString(styles.Dim.Render(truncate(p.Description, width-6)))
	}

	return lipgloss.NewStyle().MarginBottom(1).Render(sb.String())
}

// window returns the slice bounds that keep cursor visible with at most n rows
func window(cursor, total, n int) (int, int) {
	if n <= 0 || total <= n {
		return 0, total
	}
	start := cursor - n/2
	if start < 0 {
		start = 0
	}
	if start+n > total {
		start = total - n
	}
	return start, start + n
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
