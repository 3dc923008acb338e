// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Owns the session view, routes input to the active screen and guards navigation

package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/config"
	"github.com/markalston/wishlist-cli/internal/listing"
	"github.com/markalston/wishlist-cli/internal/session"
	"github.com/markalston/wishlist-cli/internal/tui/admin"
	"github.com/markalston/wishlist-cli/internal/tui/authform"
	"github.com/markalston/wishlist-cli/internal/tui/feed"
	"github.com/markalston/wishlist-cli/internal/tui/icons"
	"github.com/markalston/wishlist-cli/internal/tui/menu"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
	"github.com/markalston/wishlist-cli/internal/tui/notifications"
	"github.com/markalston/wishlist-cli/internal/tui/profile"
	"github.com/markalston/wishlist-cli/internal/tui/recent"
	"github.com/markalston/wishlist-cli/internal/tui/search"
	"github.com/markalston/wishlist-cli/internal/tui/styles"
	"github.com/markalston/wishlist-cli/internal/tui/widgets"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenMenu Screen = iota
	ScreenAuth
	ScreenFeed
	ScreenExplore
	ScreenSearch
	ScreenProfile
	ScreenNotifications
	ScreenAdminUsers
	ScreenAdminPosts
	ScreenReports
)

// Layout constants
const (
	minTerminalWidth = 80
	frameOverhead    = 3 // header, footer and the blank line under the header
)

// Deps are the services the TUI runs against
type Deps struct {
	API     *client.Client
	Session *session.Manager
	Config  *config.Config
}

// sessionMsg is delivered when the session changes outside the update loop
type sessionMsg struct{}

// resolvedMsg is sent when the startup token check finishes
type resolvedMsg struct {
	err error
}

// polledMsg wraps a background unread poll; gen identifies the poll chain
type polledMsg struct {
	gen    int
	unread notifications.UnreadMsg
}

// Failure implements nav.Failure
func (m polledMsg) Failure() error {
	return m.unread.Err
}

// sizer is implemented by screens that lay out to the terminal size
type sizer interface {
	SetSize(width, height int)
}

// closer is implemented by screens with background work to stop when they are left
type closer interface {
	Close()
}

// App is the root model for the TUI
type App struct {
	ctx    context.Context
	deps   Deps
	logger *slog.Logger

	snap    session.Snapshot
	screen  Screen
	current tea.Model
	menu    *menu.Menu
	spinner spinner.Model
	recent  *recent.Searches

	// after is where to go once the user signs in from a guarded screen
	after   Screen
	flash   *nav.FlashMsg
	unread  int
	pollGen int

	width  int
	height int
}

// New creates a new TUI application
func New(ctx context.Context, deps Deps) *App {
	snap := deps.Session.Snapshot()
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary)),
	)
	return &App{
		ctx:     ctx,
		deps:    deps,
		logger:  slog.With("component", "tui"),
		snap:    snap,
		screen:  ScreenMenu,
		menu:    menu.New(snap),
		spinner: sp,
		recent:  recent.New(deps.Config.ConfigDir),
		after:   ScreenMenu,
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.menu.Init()}
	switch a.snap.State {
	case session.Resolving:
		ctx, sess := a.ctx, a.deps.Session
		cmds = append(cmds, a.spinner.Tick, func() tea.Msg {
			return resolvedMsg{err: sess.Resolve(ctx)}
		})
	case session.Authenticated:
		cmds = append(cmds, a.startPolling())
	}
	return tea.Batch(cmds...)
}

// guard returns the screen the user actually lands on when asking for s
func guard(s Screen, snap session.Snapshot) Screen {
	signedIn := snap.State == session.Authenticated
	switch s {
	case ScreenFeed, ScreenNotifications:
		if !signedIn {
			return ScreenAuth
		}
	case ScreenAdminUsers, ScreenAdminPosts, ScreenReports:
		if !signedIn {
			return ScreenAuth
		}
		if !snap.IsAdmin() {
			return ScreenMenu
		}
	case ScreenAuth:
		if signedIn {
			return ScreenMenu
		}
	}
	return s
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if f, ok := msg.(nav.Failure); ok && a.snap.State == session.Authenticated {
		if err := f.Failure(); client.IsAuth(err) {
			return a, a.handleAuthFailure(err)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.menu.Update(msg)
		if s, ok := a.current.(sizer); ok {
			s.SetSize(a.width, a.contentHeight())
		} else if a.current != nil {
			a.current.Update(msg)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		a.flash = nil
		if a.snap.State == session.Resolving {
			return a, nil
		}
		if a.screen == ScreenMenu {
			if msg.String() == "q" {
				return a, tea.Quit
			}
			return a.updateMenu(msg)
		}
		return a.updateCurrent(msg)

	case spinner.TickMsg:
		if a.snap.State != session.Resolving {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case resolvedMsg:
		if msg.err != nil {
			a.logger.Info("Stored session could not be restored", "error", msg.err)
		}
		return a, a.syncSession()

	case sessionMsg:
		return a, a.syncSession()

	case menu.SelectedMsg:
		return a, a.choose(msg.Item)

	case menu.CancelledMsg:
		return a, tea.Quit

	case authform.DoneMsg:
		cmd := a.syncSession()
		text := "Welcome back, @" + msg.User.Username
		if msg.Mode == authform.ModeRegister {
			text = "Welcome to Wishlist, @" + msg.User.Username
		}
		after := a.after
		a.after = ScreenMenu
		a.flash = &nav.FlashMsg{Text: text, Level: widgets.StatusOK}
		if after == ScreenMenu || after == ScreenAuth {
			return a, tea.Batch(cmd, a.goHome())
		}
		return a, tea.Batch(cmd, a.open(after, ""))

	case authform.CancelledMsg, nav.BackMsg:
		a.after = ScreenMenu
		return a, a.goHome()

	case nav.ProfileMsg:
		return a, a.open(ScreenProfile, msg.Username)

	case nav.FlashMsg:
		a.flash = &msg
		return a, nil

	case notifications.UnreadMsg:
		a.unread = msg.Count
		return a.updateCurrent(msg)

	case polledMsg:
		if msg.gen != a.pollGen || a.snap.State != session.Authenticated {
			return a, nil
		}
		if msg.unread.Err == nil {
			a.unread = msg.unread.Count
		}
		return a, a.poll(notifications.Poll(a.ctx, a.deps.API, a.pollEvery()))
	}

	if a.screen == ScreenMenu {
		return a.updateMenu(msg)
	}
	return a.updateCurrent(msg)
}

func (a *App) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := a.menu.Update(msg)
	a.menu = model.(*menu.Menu)
	return a, cmd
}

func (a *App) updateCurrent(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.current == nil {
		return a, nil
	}
	model, cmd := a.current.Update(msg)
	a.current = model
	return a, cmd
}

// handleAuthFailure tears the session down and returns to the home menu
func (a *App) handleAuthFailure(err error) tea.Cmd {
	a.deps.Session.Observe(err)
	cmd := a.syncSession()
	a.logger.Warn("Signed out after authentication failure", "screen", a.screen.String(), "error", err)
	a.flash = &nav.FlashMsg{Text: "Your session has expired. Please sign in again.", Level: widgets.StatusWarning}
	return tea.Batch(cmd, a.goHome())
}

// syncSession applies the session manager's current state
func (a *App) syncSession() tea.Cmd {
	prev := a.snap
	a.snap = a.deps.Session.Snapshot()
	if sameIdentity(prev, a.snap) {
		return nil
	}

	a.logger.Debug("Session changed", "from", prev.State.String(), "to", a.snap.State.String())
	a.menu = menu.New(a.snap)
	cmds := []tea.Cmd{a.menu.Init()}

	if a.snap.State == session.Authenticated && prev.State != session.Authenticated {
		cmds = append(cmds, a.startPolling())
	}
	if a.snap.State != session.Authenticated {
		a.unread = 0
		a.pollGen++
	}
	if a.screen != ScreenMenu && a.screen != ScreenAuth && guard(a.screen, a.snap) != a.screen {
		cmds = append(cmds, a.goHome())
	}
	return tea.Batch(cmds...)
}

func sameIdentity(a, b session.Snapshot) bool {
	if a.State != b.State {
		return false
	}
	if a.User == nil || b.User == nil {
		return a.User == b.User
	}
	return a.User.ID == b.User.ID && a.User.Username == b.User.Username && a.User.AccountType == b.User.AccountType
}

func (a *App) pollEvery() time.Duration {
	if d := a.deps.Config.NotificationPoll; d > 0 {
		return d
	}
	return time.Minute
}

// startPolling begins a new unread poll chain, abandoning any previous one
func (a *App) startPolling() tea.Cmd {
	a.pollGen++
	return a.poll(notifications.FetchUnread(a.ctx, a.deps.API))
}

func (a *App) poll(fetch tea.Cmd) tea.Cmd {
	gen := a.pollGen
	return func() tea.Msg {
		unread, _ := fetch().(notifications.UnreadMsg)
		return polledMsg{gen: gen, unread: unread}
	}
}

// choose acts on a home menu entry
func (a *App) choose(item menu.Item) tea.Cmd {
	switch item {
	case menu.ItemFeed:
		return a.open(ScreenFeed, "")
	case menu.ItemExplore:
		return a.open(ScreenExplore, "")
	case menu.ItemSearch:
		return a.open(ScreenSearch, "")
	case menu.ItemNotifications:
		return a.open(ScreenNotifications, "")
	case menu.ItemAdminUsers:
		return a.open(ScreenAdminUsers, "")
	case menu.ItemAdminPosts:
		return a.open(ScreenAdminPosts, "")
	case menu.ItemReports:
		return a.open(ScreenReports, "")
	case menu.ItemLogin:
		return a.openAuth(authform.ModeLogin)
	case menu.ItemRegister:
		return a.openAuth(authform.ModeRegister)
	case menu.ItemLogout:
		a.deps.Session.Logout()
		cmd := a.syncSession()
		a.flash = &nav.FlashMsg{Text: "Signed out", Level: widgets.StatusInfo}
		return cmd
	case menu.ItemQuit:
		return tea.Quit
	}
	return nil
}

func (a *App) viewer() int64 {
	if a.snap.User == nil {
		return 0
	}
	return a.snap.User.ID
}

func withDebounce(cfg listing.Config, d time.Duration) listing.Config {
	if d > 0 {
		cfg.Debounce = d
	}
	return cfg
}

// open switches to s after applying the navigation guards
func (a *App) open(s Screen, username string) tea.Cmd {
	target := guard(s, a.snap)
	switch {
	case target == ScreenAuth && s != ScreenAuth:
		a.after = s
		a.flash = &nav.FlashMsg{Text: "Sign in to open " + s.String(), Level: widgets.StatusInfo}
		return a.openAuth(authform.ModeLogin)
	case target == ScreenMenu && s != ScreenMenu:
		a.flash = &nav.FlashMsg{Text: "That screen is for administrators only", Level: widgets.StatusWarning}
		return a.goHome()
	}

	ctx, api, cfg := a.ctx, a.deps.API, a.deps.Config
	var model tea.Model
	switch s {
	case ScreenFeed:
		model = feed.NewFeed(ctx, api, a.viewer())
	case ScreenExplore:
		model = feed.NewExplore(ctx, listing.ExploreLoader(api), api, a.viewer())
	case ScreenSearch:
		ctrl := listing.NewController(withDebounce(listing.Search, cfg.SearchDebounce), listing.SearchLoader(api))
		model = search.New(ctx, ctrl, a.recent)
	case ScreenProfile:
		model = profile.New(ctx, api, username, a.viewer())
	case ScreenNotifications:
		model = notifications.New(ctx, api)
	case ScreenAdminUsers:
		ctrl := listing.NewController(withDebounce(listing.AdminUsers, cfg.AdminUsersDebounce), listing.AdminUsersLoader(api))
		model = admin.NewUsers(ctx, ctrl, api)
	case ScreenAdminPosts:
		ctrl := listing.NewController(withDebounce(listing.AdminPosts, cfg.AdminPostsDebounce), listing.AdminPostsLoader(api))
		model = admin.NewPosts(ctx, ctrl, api)
	case ScreenReports:
		model = admin.NewReports(ctx, api)
	default:
		return a.goHome()
	}
	return a.show(s, model)
}

func (a *App) openAuth(mode authform.Mode) tea.Cmd {
	if guard(ScreenAuth, a.snap) != ScreenAuth {
		return a.goHome()
	}
	return a.show(ScreenAuth, authform.New(a.ctx, a.deps.Session, mode))
}

func (a *App) show(s Screen, model tea.Model) tea.Cmd {
	a.leave()
	a.logger.Debug("Opening screen", "screen", s.String())
	a.screen = s
	a.current = model
	if sz, ok := model.(sizer); ok {
		sz.SetSize(a.width, a.contentHeight())
	}
	cmds := []tea.Cmd{model.Init()}
	if _, ok := model.(sizer); !ok && a.width > 0 {
		size := tea.WindowSizeMsg{Width: a.width, Height: a.contentHeight()}
		cmds = append(cmds, func() tea.Msg { return size })
	}
	return tea.Batch(cmds...)
}

// leave stops the active screen's background work
func (a *App) leave() {
	if c, ok := a.current.(closer); ok {
		c.Close()
	}
	a.current = nil
}

func (a *App) goHome() tea.Cmd {
	a.leave()
	a.screen = ScreenMenu
	return nil
}

// contentHeight is the height left for a screen inside the frame
func (a *App) contentHeight() int {
	return max(a.height-frameOverhead, 0)
}

// frameWidth keeps one column free so the border never wraps
func (a *App) frameWidth() int {
	return max(a.width-1, minTerminalWidth)
}

// View implements tea.Model
func (a *App) View() string {
	var content string
	switch {
	case a.snap.State == session.Resolving:
		content = fmt.Sprintf("\n  %s %s", a.spinner.View(), styles.Dim.Render("Restoring your session..."))
	case a.screen == ScreenMenu || a.current == nil:
		content = a.menu.View()
	default:
		content = a.current.View()
	}
	return a.wrapWithFrame(content)
}

// renderHeader creates the header bar with app branding and the signed-in user
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)

	left := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("Wishlist"))

	var right []string
	if badge := widgets.UnreadBadge(a.unread); badge != "" {
		right = append(right, badge)
	}
	switch {
	case a.snap.User != nil:
		right = append(right, styles.Username.Render("@"+a.snap.User.Username))
		if role := widgets.RoleBadge(a.snap.User); role != "" {
			right = append(right, role)
		}
	case a.snap.State == session.Resolving:
		right = append(right, styles.Dim.Render("connecting"))
	default:
		right = append(right, styles.Dim.Render("guest"))
	}
	rightText := " " + strings.Join(right, " ") + " "

	fillWidth := max(width-4-lipgloss.Width(left)-lipgloss.Width(rightText), 0)
	return borderStyle.Render("╭─") + left + borderStyle.Render(strings.Repeat("─", fillWidth)) + rightText + borderStyle.Render("─╮")
}

// shortcuts returns the key hints for the current screen
func (a *App) shortcuts() []string {
	switch a.screen {
	case ScreenMenu:
		return []string{"↑↓ Navigate", "Enter Select", "q Quit"}
	case ScreenAuth:
		return []string{"Enter Next", "ctrl+t Switch", "Esc Back"}
	case ScreenFeed, ScreenExplore:
		return []string{"↑↓ Move", "l Like", "r Refresh", "b Back"}
	case ScreenSearch:
		return []string{"↓ Results", "Enter Open", "Esc Back"}
	case ScreenProfile:
		return []string{"f Follow", "l Like", "Tab Posts", "b Back"}
	case ScreenNotifications:
		return []string{"Enter Open", "a Read all", "r Refresh", "b Back"}
	case ScreenAdminUsers:
		return []string{"/ Filter", "←→ Column", "s Sort", "n/p Page", "t Role", "d Delete", "b Back"}
	case ScreenAdminPosts:
		return []string{"/ Filter", "←→ Column", "s Sort", "n/p Page", "d Delete", "b Back"}
	case ScreenReports:
		return []string{"k Keep", "x Delete", "r Refresh", "b Back"}
	}
	return nil
}

// renderFooter creates the footer with keyboard shortcuts and the flash message
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)

	var styled []string
	for _, s := range a.shortcuts() {
		if k, label, ok := strings.Cut(s, " "); ok {
			styled = append(styled, keyStyle.Render(k)+" "+labelStyle.Render(label))
		} else {
			styled = append(styled, s)
		}
	}
	left := " " + strings.Join(styled, "  ") + " "

	right := ""
	if a.flash != nil {
		right = " " + widgets.StatusText(a.flash.Text, a.flash.Level) + " "
	}

	fillWidth := width - 4 - lipgloss.Width(left) - lipgloss.Width(right)
	if fillWidth < 0 {
		// drop the hints before the flash
		left = " "
		fillWidth = max(width-4-1-lipgloss.Width(right), 0)
	}
	return borderStyle.Render("╰─") + left + borderStyle.Render(strings.Repeat("─", fillWidth)) + right + borderStyle.Render("─╯")
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// String returns the screen name used in logs and hints
func (s Screen) String() string {
	switch s {
	case ScreenMenu:
		return "home"
	case ScreenAuth:
		return "sign in"
	case ScreenFeed:
		return "your feed"
	case ScreenExplore:
		return "explore"
	case ScreenSearch:
		return "search"
	case ScreenProfile:
		return "profile"
	case ScreenNotifications:
		return "notifications"
	case ScreenAdminUsers:
		return "admin users"
	case ScreenAdminPosts:
		return "admin posts"
	case ScreenReports:
		return "reports"
	default:
		return "unknown"
	}
}

// Run starts the TUI and blocks until the user quits
func Run(ctx context.Context, deps Deps) error {
	app := New(ctx, deps)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	// Send blocks until the loop reads it, and the session may notify from inside Update
	deps.Session.Subscribe(func(session.Snapshot) {
		go p.Send(sessionMsg{})
	})

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
