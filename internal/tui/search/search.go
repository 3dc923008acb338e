// ABOUTME: User search screen with debounced lookups as the user types
// ABOUTME: Shows recent queries when the box is empty and opens profiles on enter

package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/listing"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
	"github.com/markalston/wishlist-cli/internal/tui/recent"
	"github.com/markalston/wishlist-cli/internal/tui/styles"
	"github.com/markalston/wishlist-cli/internal/tui/widgets"
)

// resultMsg reports that the controller applied a page
type resultMsg struct {
	err error
}

// Failure implements nav.Failure
func (m resultMsg) Failure() error {
	return m.err
}

type focus int

const (
	focusInput focus = iota
	focusList
)

// Search is the user search screen
type Search struct {
	ctx     context.Context
	ctrl    *listing.Controller[client.UserSummary]
	recent  *recent.Searches
	input   textinput.Model
	focus   focus
	cursor  int
	results chan resultMsg
	waiting bool
	width   int
	height  int
}

// New creates the search screen. recent may be nil.
func New(ctx context.Context, ctrl *listing.Controller[client.UserSummary], rec *recent.Searches) *Search {
	ti := textinput.New()
	ti.Placeholder = "username or name"
	ti.Prompt = "Search: "
	ti.CharLimit = 64
	ti.Width = 40
	ti.Focus()

	return &Search{
		ctx:     ctx,
		ctrl:    ctrl,
		recent:  rec,
		input:   ti,
		results: make(chan resultMsg, 1),
	}
}

// Init implements tea.Model
func (s *Search) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize sets the screen dimensions
func (s *Search) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.input.Width = max(min(width-12, 60), 10)
}

// Close drops any pending debounced lookup
func (s *Search) Close() {
	s.ctrl.CancelQueued()
}

func (s *Search) query() string {
	return strings.TrimSpace(s.input.Value())
}

// queue schedules a debounced lookup and makes sure one wait is outstanding
func (s *Search) queue(q string) tea.Cmd {
	results := s.results
	s.ctrl.QueueFilter(s.ctx, q, func(_ *client.Page[client.UserSummary], err error) {
		select {
		case <-results:
		default:
		}
		results <- resultMsg{err: err}
	})
	if s.waiting {
		return nil
	}
	s.waiting = true
	return s.wait()
}

func (s *Search) wait() tea.Cmd {
	ctx, results := s.ctx, s.results
	return func() tea.Msg {
		select {
		case msg := <-results:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// load fetches the current page immediately, used for paging
func (s *Search) load() tea.Cmd {
	ctx, ctrl := s.ctx, s.ctrl
	return func() tea.Msg {
		_, err := ctrl.Load(ctx)
		if errors.Is(err, listing.ErrStale) {
			return nil
		}
		return resultMsg{err: err}
	}
}

// showingRecent reports whether the list shows recent queries instead of results
func (s *Search) showingRecent() bool {
	return s.query() == "" && s.recent != nil && len(s.recent.List()) > 0
}

func (s *Search) rowCount() int {
	if s.showingRecent() {
		return len(s.recent.List())
	}
	if s.query() == "" {
		return 0
	}
	return len(s.ctrl.Items())
}

// Update implements tea.Model
func (s *Search) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.SetSize(msg.Width, msg.Height)
		return s, nil

	case resultMsg:
		s.waiting = false
		if s.cursor >= s.rowCount() {
			s.cursor = 0
		}
		return s, nil

	case tea.KeyMsg:
		if s.focus == focusList {
			return s.updateList(msg)
		}
		return s.updateInput(msg)
	}
	return s, nil
}

func (s *Search) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.Close()
		return s, nav.Back
	case "down", "enter", "tab":
		if s.rowCount() > 0 {
			s.focus = focusList
			s.cursor = 0
			s.input.Blur()
		}
		return s, nil
	}

	before := s.query()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	q := s.query()
	if q == before {
		return s, cmd
	}
	s.cursor = 0
	if q == "" {
		s.ctrl.CancelQueued()
		return s, cmd
	}
	return s, tea.Batch(cmd, s.queue(q))
}

func (s *Search) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
			return s, nil
		}
		return s, s.focusInput()
	case "down", "j":
		if s.cursor < s.rowCount()-1 {
			s.cursor++
		}
	case "n":
		if !s.showingRecent() && s.ctrl.NextPage() {
			s.cursor = 0
			return s, s.load()
		}
	case "p":
		if !s.showingRecent() && s.ctrl.PrevPage() {
			s.cursor = 0
			return s, s.load()
		}
	case "enter":
		return s.choose()
	case "esc", "/":
		return s, s.focusInput()
	}
	return s, nil
}

func (s *Search) focusInput() tea.Cmd {
	s.focus = focusInput
	return s.input.Focus()
}

func (s *Search) choose() (tea.Model, tea.Cmd) {
	if s.showingRecent() {
		list := s.recent.List()
		if s.cursor >= len(list) {
			return s, nil
		}
		q := list[s.cursor]
		s.input.SetValue(q)
		s.input.CursorEnd()
		return s, tea.Batch(s.focusInput(), s.queue(q))
	}

	users := s.ctrl.Items()
	if s.cursor >= len(users) {
		return s, nil
	}
	if s.recent != nil {
		s.recent.Add(s.query())
	}
	return s, nav.OpenProfile(users[s.cursor].Username)
}

// View implements tea.Model
func (s *Search) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Search users"))
	b.WriteString("\n\n")
	b.WriteString(s.input.View())
	b.WriteString("\n\n")

	if s.showingRecent() {
		b.WriteString(styles.Help.Render("Recent searches:"))
		b.WriteString("\n")
		for i, q := range s.recent.List() {
			b.WriteString(s.row(i, q))
		}
		return b.String()
	}

	if s.query() == "" {
		b.WriteString(styles.Dim.Render("Type to search by username or name."))
		return b.String()
	}

	users := s.ctrl.Items()
	switch {
	case s.ctrl.Err() != nil:
		b.WriteString(styles.StatusCritical.Render("Search failed: " + client.Message(s.ctrl.Err())))
	case s.waiting && len(users) == 0:
		b.WriteString(styles.Dim.Render("Searching..."))
	case len(users) == 0:
		b.WriteString(styles.Dim.Render(fmt.Sprintf("No users match %q", s.query())))
	default:
		for i, u := range users {
			label := styles.Username.Render("@"+u.Username) + "  " + u.FullName
			if badge := widgets.RoleBadge(&u); badge != "" {
				label += " " + badge
			}
			b.WriteString(s.row(i, label))
		}
		if total := s.ctrl.TotalPages(); total > 1 {
			b.WriteString("\n")
			b.WriteString(styles.Dim.Render(fmt.Sprintf("Page %d of %d", s.ctrl.Query().Page+1, total)))
		}
	}
	return b.String()
}

func (s *Search) row(i int, label string) string {
	selected := s.focus == focusList && i == s.cursor
	style := styles.Normal
	if selected {
		style = styles.Selected
	}
	return styles.Cursor(selected) + style.Render(label) + "\n"
}
