// ABOUTME: Home feed screen listing posts from followed users
// ABOUTME: Supports cursor movement, refresh and optimistic likes

package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
	"github.com/markalston/wishlist-cli/internal/tui/styles"
)

// API is what the feed screen needs from the backend
type API interface {
	LikeAPI
	Feed(ctx context.Context) ([]client.Post, error)
}

// postsLoadedMsg carries a fresh copy of the feed
type postsLoadedMsg struct {
	posts []client.Post
	err   error
}

// Failure implements nav.Failure
func (m postsLoadedMsg) Failure() error {
	return m.err
}

// rowsPerPost is the height RenderPost takes without a description
const rowsPerPost = 4

// Feed is the signed-in user's home feed
type Feed struct {
	ctx   context.Context
	api   API
	likes *Likes

	posts      []client.Post
	cursor     int
	loading    bool
	err        error
	lastUpdate time.Time
	width      int
	height     int
}

// NewFeed creates the feed screen for the given viewer
func NewFeed(ctx context.Context, api API, viewer int64) *Feed {
	return &Feed{
		ctx:   ctx,
		api:   api,
		likes: NewLikes(api, viewer),
	}
}

// Init implements tea.Model
func (f *Feed) Init() tea.Cmd {
	return f.load()
}

func (f *Feed) load() tea.Cmd {
	f.loading = true
	ctx, api := f.ctx, f.api
	return func() tea.Msg {
		posts, err := api.Feed(ctx)
		return postsLoadedMsg{posts: posts, err: err}
	}
}

// SetSize sets the screen dimensions
func (f *Feed) SetSize(width, height int) {
	f.width = width
	f.height = height
}

// Update implements tea.Model
func (f *Feed) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.SetSize(msg.Width, msg.Height)

	case postsLoadedMsg:
		f.loading = false
		f.err = msg.err
		if msg.err == nil {
			f.posts = msg.posts
			f.likes.Sync(msg.posts)
			f.lastUpdate = time.Now()
			if f.cursor >= len(f.posts) {
				f.cursor = max(len(f.posts)-1, 0)
			}
		}

	case likeSettledMsg:
		return f, f.likes.Handle(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if f.cursor > 0 {
				f.cursor--
			}
		case "down", "j":
			if f.cursor < len(f.posts)-1 {
				f.cursor++
			}
		case "l", " ":
			if f.cursor < len(f.posts) {
				return f, f.likes.Toggle(f.ctx, f.posts[f.cursor])
			}
		case "r":
			if !f.loading {
				return f, f.load()
			}
		case "esc", "b":
			return f, nav.Back
		}
	}
	return f, nil
}

// View implements tea.Model
func (f *Feed) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Your feed"))
	if !f.lastUpdate.IsZero() {
		b.WriteString(styles.Dim.Render(fmt.Sprintf("  updated %s", f.lastUpdate.Format("15:04:05"))))
	}
	b.WriteString("\n\n")

	switch {
	case f.loading && len(f.posts) == 0:
		b.WriteString(styles.Dim.Render("Loading feed..."))
	case f.err != nil && len(f.posts) == 0:
		b.WriteString(styles.StatusCritical.Render("Couldn't load feed: " + client.Message(f.err)))
		b.WriteString("\n")
		b.WriteString(styles.Help.Render("press r to retry"))
	case len(f.posts) == 0:
		b.WriteString(styles.Dim.Render("Nothing here yet. Follow people from search or explore to fill your feed."))
	default:
		start, end := window(f.cursor, len(f.posts), f.visibleRows())
		for i := start; i < end; i++ {
			p := f.posts[i]
			b.WriteString(RenderPost(p, f.likes.State(p), i == f.cursor, f.width))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (f *Feed) visibleRows() int {
	if f.height <= 0 {
		return 0
	}
	return max(f.height/(rowsPerPost+1), 1)
}
