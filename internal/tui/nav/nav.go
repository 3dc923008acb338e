// ABOUTME: Messages shared between the root TUI model and its screens
// ABOUTME: Navigation requests, footer flashes and the failure hook for session teardown

package nav

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/wishlist-cli/internal/tui/widgets"
)

// Failure is implemented by screen result messages that carry an API error.
// The root model inspects these before the screen sees them.
type Failure interface {
	Failure() error
}

// BackMsg asks the root model to return to the home menu
type BackMsg struct{}

// FlashMsg shows a one-line status in the footer until the next key press
type FlashMsg struct {
	Text  string
	Level widgets.StatusLevel
}

// Back returns to the home menu
func Back() tea.Msg {
	return BackMsg{}
}

// Flash returns a command that shows text in the footer
func Flash(text string, level widgets.StatusLevel) tea.Cmd {
	return func() tea.Msg {
		return FlashMsg{Text: text, Level: level}
	}
}

// ProfileMsg asks the root model to open a user's profile
type ProfileMsg struct {
	Username string
}

// OpenProfile returns a command that opens username's profile
func OpenProfile(username string) tea.Cmd {
	return func() tea.Msg {
		return ProfileMsg{Username: username}
	}
}
