// ABOUTME: Sign-in and registration forms as a bubbletea model
// ABOUTME: Uses huh forms with inline validation; server errors render under the form

package authform

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/forms"
	"github.com/markalston/wishlist-cli/internal/tui/icons"
	"github.com/markalston/wishlist-cli/internal/tui/styles"
)

// Mode selects which form is shown
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

// DoneMsg is sent when the user signed in or registered successfully
type DoneMsg struct {
	User *client.UserSummary
	Mode Mode
}

// CancelledMsg is sent when the user leaves the form
type CancelledMsg struct{}

type resultMsg struct {
	user *client.UserSummary
	err  error
}

// Authenticator performs the credential exchange; session.Manager satisfies it
type Authenticator interface {
	Login(ctx context.Context, creds client.Credentials) (*client.UserSummary, error)
	Register(ctx context.Context, reg client.Registration) (*client.UserSummary, error)
}

// Form manages the sign-in flow
type Form struct {
	ctx  context.Context
	auth Authenticator
	mode Mode
	form *huh.Form

	submitting bool
	err        string
	width      int

	// Form field values (strings for huh)
	username string
	fullName string
	email    string
	password string
}

var modeNames = []string{"Sign in", "Create account"}

// New creates a form in the given mode
func New(ctx context.Context, auth Authenticator, mode Mode) *Form {
	f := &Form{ctx: ctx, auth: auth, mode: mode}
	f.form = f.buildForm()
	return f
}

// check adapts a validate tag to a huh field validator
func check(label, tag string) func(string) error {
	return func(v string) error {
		if msg := forms.Var(strings.TrimSpace(v), tag); msg != "" {
			return fmt.Errorf("%s %s", label, msg)
		}
		return nil
	}
}

func (f *Form) buildForm() *huh.Form {
	email := huh.NewInput().
		Title("Email").
		Placeholder("you@example.com").
		Value(&f.email).
		Validate(check("Email", "required,email"))
	password := huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&f.password).
		Validate(check("Password", "required"))

	if f.mode == ModeLogin {
		return huh.NewForm(
			huh.NewGroup(email, password).
				Title("Sign in").
				Description("Sign in with your email and password"),
		).WithTheme(styles.FormTheme())
	}

	password.Validate(check("Password", "required,min=6"))
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				CharLimit(30).
				Value(&f.username).
				Validate(check("Username", "required,min=3,max=30")),
			huh.NewInput().
				Title("Full name").
				Value(&f.fullName).
				Validate(check("Full name", "required")),
			email,
			password,
		).Title("Create account").
			Description("Pick a username others can find you by"),
	).WithTheme(styles.FormTheme())
}

// Mode returns the active mode
func (f *Form) Mode() Mode {
	return f.mode
}

// Err returns the last submission error shown to the user
func (f *Form) Err() string {
	return f.err
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
		form, cmd := f.form.Update(msg)
		if hf, ok := form.(*huh.Form); ok {
			f.form = hf
		}
		return f, cmd

	case resultMsg:
		return f.handleResult(msg)

	case tea.KeyMsg:
		if f.submitting {
			return f, nil
		}
		switch msg.String() {
		case "esc":
			return f, func() tea.Msg { return CancelledMsg{} }
		case "ctrl+t":
			return f, f.SwitchMode()
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}

	switch f.form.State {
	case huh.StateCompleted:
		return f, f.submit()
	case huh.StateAborted:
		return f, func() tea.Msg { return CancelledMsg{} }
	}
	return f, cmd
}

// SwitchMode flips between sign-in and registration, keeping typed values
func (f *Form) SwitchMode() tea.Cmd {
	if f.mode == ModeLogin {
		f.mode = ModeRegister
	} else {
		f.mode = ModeLogin
	}
	f.err = ""
	f.form = f.buildForm()
	return f.form.Init()
}

// submit runs the credential exchange for the current values
func (f *Form) submit() tea.Cmd {
	f.submitting = true
	f.err = ""

	ctx, auth, mode := f.ctx, f.auth, f.mode
	creds := client.Credentials{Email: strings.TrimSpace(f.email), Password: f.password}
	reg := client.Registration{
		Username: strings.TrimSpace(f.username),
		FullName: strings.TrimSpace(f.fullName),
		Email:    creds.Email,
		Password: f.password,
	}
	return func() tea.Msg {
		var user *client.UserSummary
		var err error
		if mode == ModeLogin {
			user, err = auth.Login(ctx, creds)
		} else {
			user, err = auth.Register(ctx, reg)
		}
		return resultMsg{user: user, err: err}
	}
}

func (f *Form) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	f.submitting = false
	if msg.err == nil {
		mode := f.mode
		return f, func() tea.Msg { return DoneMsg{User: msg.user, Mode: mode} }
	}

	// field errors are folded into the message
	f.err = client.Message(msg.err)
	f.password = ""
	f.form = f.buildForm()
	return f, f.form.Init()
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder

	sb.WriteString(f.renderTabs())
	sb.WriteString("\n\n")

	if f.submitting {
		sb.WriteString(styles.Dim.Render("Contacting server..."))
		return sb.String()
	}

	sb.WriteString(f.form.View())

	if f.err != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.StatusCritical.Render(icons.Critical.String() + " " + f.err))
	}
	return sb.String()
}

// renderTabs renders the mode indicator
func (f *Form) renderTabs() string {
	width := f.width - 1
	if width < 60 {
		width = 60
	}

	var tabs []string
	for i, name := range modeNames {
		if Mode(i) == f.mode {
			tabs = append(tabs, lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("● "+name))
		} else {
			tabs = append(tabs, lipgloss.NewStyle().Foreground(styles.Muted).Render("○ "+name))
		}
	}
	line := strings.Join(tabs, "    ") + styles.Dim.Render("    ctrl+t switch")

	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Muted).
		Padding(0, 1).
		Render(line)
}
