// ABOUTME: Home menu for the TUI, built from the current session
// ABOUTME: Guests see sign-in options, members their screens, admins the moderation screens

package menu

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/markalston/wishlist-cli/internal/session"
	"github.com/markalston/wishlist-cli/internal/tui/icons"
	"github.com/markalston/wishlist-cli/internal/tui/styles"
)

// Item is a home menu entry
type Item int

const (
	ItemFeed Item = iota
	ItemExplore
	ItemSearch
	ItemNotifications
	ItemAdminUsers
	ItemAdminPosts
	ItemReports
	ItemLogin
	ItemRegister
	ItemLogout
	ItemQuit
)

// SelectedMsg is sent when the user picks an entry
type SelectedMsg struct {
	Item Item
}

// CancelledMsg is sent when the user aborts the menu
type CancelledMsg struct{}

type option struct {
	label   string
	value   Item
	enabled bool
}

// Menu is the home screen
type Menu struct {
	options  []option
	selected Item
	form     *huh.Form
}

// New builds the menu for snap
func New(snap session.Snapshot) *Menu {
	signedIn := snap.State == session.Authenticated

	m := &Menu{
		options: []option{
			{label: icons.Feed.String() + " Feed", value: ItemFeed, enabled: signedIn},
			{label: icons.Explore.String() + " Explore", value: ItemExplore, enabled: true},
			{label: icons.Search.String() + " Search users", value: ItemSearch, enabled: true},
			{label: icons.Bell.String() + " Notifications", value: ItemNotifications, enabled: signedIn},
		},
		selected: ItemExplore,
	}
	if signedIn {
		m.selected = ItemFeed
	}
	if snap.IsAdmin() {
		m.options = append(m.options,
			option{label: icons.Admin.String() + " Admin: users", value: ItemAdminUsers, enabled: true},
			option{label: icons.Admin.String() + " Admin: posts", value: ItemAdminPosts, enabled: true},
			option{label: icons.Report.String() + " Admin: reports", value: ItemReports, enabled: true},
		)
	}
	if signedIn {
		m.options = append(m.options, option{label: icons.SignOut.String() + " Sign out", value: ItemLogout, enabled: true})
	} else {
		m.options = append(m.options,
			option{label: icons.SignIn.String() + " Sign in", value: ItemLogin, enabled: true},
			option{label: icons.User.String() + " Create account", value: ItemRegister, enabled: true},
		)
	}
	m.options = append(m.options, option{label: icons.Quit.String() + " Quit", value: ItemQuit, enabled: true})

	m.form = m.buildForm()
	return m
}

func (m *Menu) buildForm() *huh.Form {
	var options []huh.Option[Item]
	for _, opt := range m.options {
		label := opt.label
		if !opt.enabled {
			label = fmt.Sprintf("%s (sign in)", label)
		}
		options = append(options, huh.NewOption(label, opt.value))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Item]().
				Title("What would you like to do?").
				Options(options...).
				Value(&m.selected),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Items returns the entries in display order
func (m *Menu) Items() []Item {
	items := make([]Item, len(m.options))
	for i, opt := range m.options {
		items[i] = opt.value
	}
	return items
}

// Enabled reports whether item can be opened without signing in first
func (m *Menu) Enabled(item Item) bool {
	for _, opt := range m.options {
		if opt.value == item {
			return opt.enabled
		}
	}
	return false
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		item := m.selected
		// rebuild so the menu is usable again when the app comes back to it
		m.form = m.buildForm()
		return m, tea.Batch(m.form.Init(), func() tea.Msg { return SelectedMsg{Item: item} })
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelledMsg{} }
	}
	return m, cmd
}

// View implements tea.Model
func (m *Menu) View() string {
	return m.form.View()
}

// String returns the string representation of an Item
func (i Item) String() string {
	switch i {
	case ItemFeed:
		return "feed"
	case ItemExplore:
		return "explore"
	case ItemSearch:
		return "search"
	case ItemNotifications:
		return "notifications"
	case ItemAdminUsers:
		return "admin-users"
	case ItemAdminPosts:
		return "admin-posts"
	case ItemReports:
		return "reports"
	case ItemLogin:
		return "login"
	case ItemRegister:
		return "register"
	case ItemLogout:
		return "logout"
	case ItemQuit:
		return "quit"
	default:
		return "unknown"
	}
}
