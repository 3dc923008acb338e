// ABOUTME: Icon system with Nerd Font detection and Unicode fallback
// ABOUTME: Provides consistent iconography across different terminal capabilities

package icons

import (
	"os"
	"strings"
	"sync"
)

var (
	useNerdFonts     bool
	nerdFontDetected sync.Once
)

// detectNerdFonts checks if Nerd Fonts should be used
func detectNerdFonts() bool {
	// Explicit override via environment variable
	if env := os.Getenv("WISHLIST_NERD_FONTS"); env != "" {
		return env == "1" || strings.ToLower(env) == "true"
	}

	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	nerdFontTerminals := []string{
		"iTerm.app",
		"alacritty",
		"WezTerm",
		"kitty",
		"ghostty",
	}

	for _, t := range nerdFontTerminals {
		if strings.Contains(termProgram, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}

	if os.Getenv("NERD_FONTS") == "1" {
		return true
	}

	// Default to Unicode fallback for maximum compatibility
	return false
}

// HasNerdFonts returns true if Nerd Fonts are available
func HasNerdFonts() bool {
	nerdFontDetected.Do(func() {
		useNerdFonts = detectNerdFonts()
	})
	return useNerdFonts
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

// Icon definitions - Nerd Font codepoints with Unicode fallbacks
var (
	// Content
	Heart      = Icon{"󰣐", "♥"} // nf-md-heart
	HeartEmpty = Icon{"󰋕", "♡"} // nf-md-heart_outline
	Comment    = Icon{"󰅺", "✎"} // nf-md-comment
	Lock       = Icon{"󰌾", "⚿"} // nf-md-lock
	Gift       = Icon{"󰊠", "◈"} // nf-md-gift

	// Screens
	Feed     = Icon{"󰈙", "≡"} // nf-md-file_document
	Explore  = Icon{"󰆋", "◎"} // nf-md-compass
	Search   = Icon{"󰍉", "⌕"} // nf-md-magnify
	Bell     = Icon{"󰂚", "◔"} // nf-md-bell
	User     = Icon{"󰀄", "☺"} // nf-md-account
	Admin    = Icon{"󰒃", "⛊"} // nf-md-shield_check
	Report   = Icon{"󰈻", "⚑"} // nf-md-flag
	SignIn   = Icon{"󰍂", "→"} // nf-md-login
	SignOut  = Icon{"󰍃", "←"} // nf-md-logout
	Settings = Icon{"󰒓", "⚙"} // nf-md-cog

	// Status indicators
	CheckOK  = Icon{"", "✓"} // nf-oct-check_circle
	Warning  = Icon{"", "⚠"} // nf-oct-alert
	Critical = Icon{"", "✗"} // nf-oct-x_circle
	Info     = Icon{"", "ℹ"} // nf-oct-info

	// Sorting
	SortAsc  = Icon{"󰒼", "▲"} // nf-md-sort_ascending
	SortDesc = Icon{"󰒽", "▼"} // nf-md-sort_descending

	// Actions
	Refresh = Icon{"󰑓", "↻"} // nf-md-refresh
	Back    = Icon{"󰁍", "←"} // nf-md-arrow_left
	Quit    = Icon{"󰗼", "×"} // nf-md-exit_to_app

	// Application
	App = Gift
)
