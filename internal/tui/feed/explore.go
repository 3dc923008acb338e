// ABOUTME: Explore screen streaming public posts a page at a time
// ABOUTME: The next page is fetched before the cursor reaches the end

package feed

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/listing"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
	"github.com/markalston/wishlist-cli/internal/tui/styles"
)

// pageLoadedMsg reports that the stream appended a page, or failed to
type pageLoadedMsg struct {
	err error
}

// Failure implements nav.Failure
func (m pageLoadedMsg) Failure() error {
	return m.err
}

// Explore shows public posts from everyone
type Explore struct {
	ctx    context.Context
	stream *listing.Stream[client.Post]
	likes  *Likes
	width  int
	height int
}

// NewExplore creates the explore screen. viewer is 0 for guests.
func NewExplore(ctx context.Context, load listing.Loader[client.Post], likes LikeAPI, viewer int64) *Explore {
	return &Explore{
		ctx:    ctx,
		stream: listing.NewStream(listing.ExploreSize, load),
		likes:  NewLikes(likes, viewer),
	}
}

// Init implements tea.Model
func (e *Explore) Init() tea.Cmd {
	return e.loadMore()
}

func (e *Explore) loadMore() tea.Cmd {
	if e.stream.Loading() || !e.stream.HasMore() {
		return nil
	}
	ctx, stream := e.ctx, e.stream
	return func() tea.Msg {
		err := stream.LoadMore(ctx)
		if errors.Is(err, listing.ErrStale) {
			return nil
		}
		return pageLoadedMsg{err: err}
	}
}

// SetSize sets the screen dimensions
func (e *Explore) SetSize(width, height int) {
	e.width = width
	e.height = height
}

// Update implements tea.Model
func (e *Explore) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		e.SetSize(msg.Width, msg.Height)

	case pageLoadedMsg:
		if msg.err == nil {
			e.likes.Sync(e.stream.Items())
		}

	case likeSettledMsg:
		return e, e.likes.Handle(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "down", "j":
			if _, prefetch := e.stream.Advance(); prefetch {
				return e, e.loadMore()
			}
		case "up", "k":
			e.stream.Back()
		case "l", " ":
			if p, ok := e.stream.Current(); ok {
				return e, e.likes.Toggle(e.ctx, p)
			}
		case "r":
			e.stream.Reset()
			return e, e.loadMore()
		case "esc", "b":
			return e, nav.Back
		}
	}
	return e, nil
}

// View implements tea.Model
func (e *Explore) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Explore"))
	b.WriteString("\n\n")

	items := e.stream.Items()
	cursor := e.stream.Cursor()
	if len(items) == 0 {
		switch {
		case e.stream.Err() != nil:
			b.WriteString(styles.StatusCritical.Render("Couldn't load posts: " + client.Message(e.stream.Err())))
		case !e.stream.HasMore():
			b.WriteString(styles.Dim.Render("No public posts yet."))
		default:
			b.WriteString(styles.Dim.Render("Loading posts..."))
		}
		return b.String()
	}

	rows := 0
	if e.height > 0 {
		rows = max(e.height/(rowsPerPost+1), 1)
	}
	start, end := window(cursor, len(items), rows)
	for i := start; i < end; i++ {
		p := items[i]
		b.WriteString(RenderPost(p, e.likes.State(p), i == cursor, e.width))
		b.WriteString("\n")
	}

	switch {
	case e.stream.Loading():
		b.WriteString(styles.Dim.Render("Loading more..."))
	case e.stream.Err() != nil:
		b.WriteString(styles.StatusWarning.Render("Couldn't load more posts. Press r to reload."))
	case !e.stream.HasMore():
		b.WriteString(styles.Dim.Render("You're all caught up."))
	}

	return b.String()
}
