// ABOUTME: Profile screen showing a user's header, follow state and post tabs
// ABOUTME: Follow and like both update optimistically

package profile

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize/english"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/optimistic"
	"github.com/markalston/wishlist-cli/internal/tui/feed"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
	"github.com/markalston/wishlist-cli/internal/tui/styles"
	"github.com/markalston/wishlist-cli/internal/tui/widgets"
	"golang.org/x/sync/errgroup"
)

// API is what the profile screen needs from the backend
type API interface {
	feed.LikeAPI
	Profile(ctx context.Context, username string) (*client.Profile, error)
	UserPosts(ctx context.Context, username string, tab client.PostTab) ([]client.Post, error)
	Follow(ctx context.Context, username string) error
	Unfollow(ctx context.Context, username string) error
}

type loadedMsg struct {
	profile *client.Profile
	tab     client.PostTab
	posts   []client.Post
	err     error
}

// Failure implements nav.Failure
func (m loadedMsg) Failure() error {
	return m.err
}

type followSettledMsg struct {
	result optimistic.Result
}

// Failure implements nav.Failure
func (m followSettledMsg) Failure() error {
	return m.result.Err
}

// Profile is one user's page
type Profile struct {
	ctx      context.Context
	api      API
	username string
	viewer   int64

	profile *client.Profile
	follow  *optimistic.Toggle
	likes   *feed.Likes
	tab     client.PostTab
	posts   []client.Post
	cursor  int
	loading bool
	err     error
	width   int
	height  int
}

// New creates the profile screen for username. viewer is 0 for guests.
func New(ctx context.Context, api API, username string, viewer int64) *Profile {
	return &Profile{
		ctx:      ctx,
		api:      api,
		username: username,
		viewer:   viewer,
		likes:    feed.NewLikes(api, viewer),
		tab:      client.TabPosts,
	}
}

// Init implements tea.Model
func (p *Profile) Init() tea.Cmd {
	return p.load(p.tab)
}

// load fetches the header and one tab in parallel
func (p *Profile) load(tab client.PostTab) tea.Cmd {
	p.loading = true
	ctx, api, username := p.ctx, p.api, p.username
	return func() tea.Msg {
		msg := loadedMsg{tab: tab}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			prof, err := api.Profile(gctx, username)
			msg.profile = prof
			return err
		})
		g.Go(func() error {
			posts, err := api.UserPosts(gctx, username, tab)
			msg.posts = posts
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

// tabs lists the post tabs the viewer may open
func (p *Profile) tabs() []client.PostTab {
	if p.profile != nil && p.profile.IsCurrentUser {
		return []client.PostTab{client.TabPosts, client.TabPrivate, client.TabLiked}
	}
	return []client.PostTab{client.TabPosts, client.TabLiked}
}

func (p *Profile) nextTab() client.PostTab {
	tabs := p.tabs()
	for i, t := range tabs {
		if t == p.tab {
			return tabs[(i+1)%len(tabs)]
		}
	}
	return tabs[0]
}

// SetSize sets the screen dimensions
func (p *Profile) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Update implements tea.Model
func (p *Profile) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.SetSize(msg.Width, msg.Height)

	case loadedMsg:
		p.loading = false
		p.err = msg.err
		if msg.err != nil {
			return p, nil
		}
		p.profile = msg.profile
		p.tab = msg.tab
		p.posts = msg.posts
		p.cursor = 0
		p.likes.Sync(msg.posts)
		state := optimistic.State{On: msg.profile.IsFollowing, Count: msg.profile.FollowerCount}
		if p.follow == nil {
			p.follow = optimistic.NewToggle(state)
		} else {
			p.follow.Reset(state)
		}

	case followSettledMsg:
		if msg.result.Err != nil {
			return p, nav.Flash("Couldn't update follow: "+client.Message(msg.result.Err), widgets.StatusWarning)
		}

	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	if cmd := p.likes.Handle(msg); cmd != nil {
		return p, cmd
	}
	return p, nil
}

func (p *Profile) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.posts)-1 {
			p.cursor++
		}
	case "tab":
		if !p.loading && p.profile != nil {
			return p, p.load(p.nextTab())
		}
	case "f":
		return p, p.toggleFollow()
	case "l", " ":
		if p.cursor < len(p.posts) {
			return p, p.likes.Toggle(p.ctx, p.posts[p.cursor])
		}
	case "r":
		if !p.loading {
			return p, p.load(p.tab)
		}
	case "esc", "b":
		return p, nav.Back
	}
	return p, nil
}

func (p *Profile) toggleFollow() tea.Cmd {
	if p.follow == nil || p.profile == nil {
		return nil
	}
	if p.viewer == 0 {
		return nav.Flash("Sign in to follow people", widgets.StatusInfo)
	}
	if p.profile.IsCurrentUser {
		return nil
	}
	api, username := p.api, p.username
	done := p.follow.Do(p.ctx,
		func(ctx context.Context) error { return api.Follow(ctx, username) },
		func(ctx context.Context) error { return api.Unfollow(ctx, username) },
	)
	return func() tea.Msg {
		return followSettledMsg{result: <-done}
	}
}

// View implements tea.Model
func (p *Profile) View() string {
	if p.profile == nil {
		if p.err != nil {
			return styles.StatusCritical.Render("Couldn't load @" + p.username + ": " + client.Message(p.err))
		}
		return styles.Dim.Render("Loading @" + p.username + "...")
	}

	var b strings.Builder
	prof := p.profile
	b.WriteString(styles.Title.Render(prof.FullName))
	b.WriteString("  ")
	b.WriteString(styles.Username.Render("@" + prof.Username))
	b.WriteString("\n")
	if prof.Bio != "" {
		b.WriteString(styles.Subtitle.Render(prof.Bio))
		b.WriteString("\n")
	}

	follow := p.follow.State()
	b.WriteString(styles.Dim.Render(fmt.Sprintf("%s · %d following",
		english.Plural(follow.Count, "follower", ""), prof.FollowingCount)))
	switch {
	case prof.IsCurrentUser:
		b.WriteString("  " + widgets.Badge("You", widgets.StatusNeutral))
	case follow.On:
		b.WriteString("  " + widgets.Badge("Following", widgets.StatusOK))
	case p.viewer != 0:
		b.WriteString("  " + styles.Help.Render("press f to follow"))
	}
	b.WriteString("\n\n")

	b.WriteString(p.renderTabs())
	b.WriteString("\n\n")

	switch {
	case p.err != nil:
		b.WriteString(styles.StatusCritical.Render(client.Message(p.err)))
	case len(p.posts) == 0:
		b.WriteString(styles.Dim.Render("No posts here."))
	default:
		for i, post := range p.posts {
			b.WriteString(feed.RenderPost(post, p.likes.State(post), i == p.cursor, p.width))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (p *Profile) renderTabs() string {
	var parts []string
	for _, t := range p.tabs() {
		label := strings.ToUpper(string(t[:1])) + string(t[1:])
		if t == p.tab {
			parts = append(parts, styles.ActivePanel.Padding(0, 1).Render(label))
		} else {
			parts = append(parts, styles.Panel.Padding(0, 1).Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, parts...) + "  " + styles.Help.Render("tab switch")
}
