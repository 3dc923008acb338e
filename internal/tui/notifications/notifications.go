// ABOUTME: Notifications screen and the background unread poller
// ABOUTME: Marks entries read one at a time or all at once

package notifications

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
	"github.com/markalston/wishlist-cli/internal/tui/styles"
	"github.com/markalston/wishlist-cli/internal/tui/widgets"
)

// API is what the notifications screen needs from the backend
type API interface {
	Notifications(ctx context.Context) ([]client.Notification, error)
	MarkAllRead(ctx context.Context) error
	MarkRead(ctx context.Context, id int64) error
}

// UnreadMsg carries the latest unread count for the header badge
type UnreadMsg struct {
	Count int
	Err   error
}

// Failure implements nav.Failure
func (m UnreadMsg) Failure() error {
	return m.Err
}

// Poll waits every, then fetches the unread count
func Poll(ctx context.Context, api API, every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg {
		return fetchUnread(ctx, api)
	})
}

// FetchUnread fetches the unread count right away
func FetchUnread(ctx context.Context, api API) tea.Cmd {
	return func() tea.Msg {
		return fetchUnread(ctx, api)
	}
}

func fetchUnread(ctx context.Context, api API) tea.Msg {
	list, err := api.Notifications(ctx)
	if err != nil {
		return UnreadMsg{Err: err}
	}
	return UnreadMsg{Count: client.UnreadCount(list)}
}

type loadedMsg struct {
	list []client.Notification
	err  error
}

// Failure implements nav.Failure
func (m loadedMsg) Failure() error {
	return m.err
}

type markedMsg struct {
	all bool
	err error
}

// Failure implements nav.Failure
func (m markedMsg) Failure() error {
	return m.err
}

// Screen lists the signed-in user's notifications
type Screen struct {
	ctx     context.Context
	api     API
	list    []client.Notification
	cursor  int
	loading bool
	err     error
	width   int
	height  int
}

// New creates the notifications screen
func New(ctx context.Context, api API) *Screen {
	return &Screen{ctx: ctx, api: api}
}

// Init implements tea.Model
func (s *Screen) Init() tea.Cmd {
	return s.load()
}

func (s *Screen) load() tea.Cmd {
	s.loading = true
	ctx, api := s.ctx, s.api
	return func() tea.Msg {
		list, err := api.Notifications(ctx)
		return loadedMsg{list: list, err: err}
	}
}

// SetSize sets the screen dimensions
func (s *Screen) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Unread returns the unread count of the loaded list
func (s *Screen) Unread() int {
	return client.UnreadCount(s.list)
}

// Update implements tea.Model
func (s *Screen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.SetSize(msg.Width, msg.Height)

	case loadedMsg:
		s.loading = false
		s.err = msg.err
		if msg.err != nil {
			return s, nil
		}
		s.list = msg.list
		if s.cursor >= len(s.list) {
			s.cursor = max(len(s.list)-1, 0)
		}
		unread := s.Unread()
		return s, func() tea.Msg { return UnreadMsg{Count: unread} }

	case markedMsg:
		if msg.err != nil {
			return s, s.load()
		}
		if msg.all {
			return s, tea.Batch(s.load(), nav.Flash("All notifications marked as read", widgets.StatusOK))
		}
		return s, s.load()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.list)-1 {
			s.cursor++
		}
	case "enter":
		return s, s.open()
	case "a":
		return s, s.markAll()
	case "r":
		if !s.loading {
			return s, s.load()
		}
	case "esc", "b":
		return s, nav.Back
	}
	return s, nil
}

// open marks the selected entry read and follows it when it points at a profile
func (s *Screen) open() tea.Cmd {
	if s.cursor >= len(s.list) {
		return nil
	}
	n := &s.list[s.cursor]

	var cmds []tea.Cmd
	if !n.Read {
		n.Read = true
		ctx, api, id := s.ctx, s.api, n.ID
		cmds = append(cmds, func() tea.Msg {
			return markedMsg{err: api.MarkRead(ctx, id)}
		})
	}
	if n.Type == client.NotificationFollow && n.Sender != nil {
		cmds = append(cmds, nav.OpenProfile(n.Sender.Username))
	}
	return tea.Batch(cmds...)
}

func (s *Screen) markAll() tea.Cmd {
	if s.Unread() == 0 {
		return nav.Flash("Nothing unread", widgets.StatusInfo)
	}
	for i := range s.list {
		s.list[i].Read = true
	}
	ctx, api := s.ctx, s.api
	return func() tea.Msg {
		return markedMsg{all: true, err: api.MarkAllRead(ctx)}
	}
}

// View implements tea.Model
func (s *Screen) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Notifications"))
	if unread := s.Unread(); unread > 0 {
		b.WriteString("  " + widgets.UnreadBadge(unread))
	}
	b.WriteString("\n\n")

	switch {
	case s.loading && s.list == nil:
		b.WriteString(styles.Dim.Render("Loading notifications..."))
		return b.String()
	case s.err != nil && s.list == nil:
		b.WriteString(styles.StatusCritical.Render("Couldn't load notifications: " + client.Message(s.err)))
		return b.String()
	case len(s.list) == 0:
		b.WriteString(styles.Dim.Render("No notifications."))
		return b.String()
	}

	for i, n := range s.list {
		selected := i == s.cursor
		text := n.Text()
		style := styles.Dim
		if !n.Read {
			style = styles.Normal.Bold(true)
			text = "• " + text
		}
		if selected {
			style = styles.Selected
		}
		b.WriteString(styles.Cursor(selected))
		b.WriteString(style.Render(text))
		if !n.CreatedAt.IsZero() {
			b.WriteString(styles.Dim.Render("  " + humanize.Time(n.CreatedAt)))
		}
		b.WriteString(styles.Dim.Render("  " + n.Target()))
		b.WriteString("\n")
	}
	return b.String()
}
