// ABOUTME: Moderation queue of pending reports
// ABOUTME: Each report is dismissed or resolved by deleting the reported entity

package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
	"github.com/markalston/wishlist-cli/internal/tui/styles"
	"github.com/markalston/wishlist-cli/internal/tui/widgets"
)

// ReportsAPI is what the reports screen needs from the backend
type ReportsAPI interface {
	PendingReports(ctx context.Context) ([]client.Report, error)
	ResolveReport(ctx context.Context, id int64, deleteEntity bool) error
}

type reportsMsg struct {
	reports []client.Report
	err     error
}

// Failure implements nav.Failure
func (m reportsMsg) Failure() error {
	return m.err
}

type resolvedMsg struct {
	id      int64
	deleted bool
	err     error
}

// Failure implements nav.Failure
func (m resolvedMsg) Failure() error {
	return m.err
}

// Reports lists pending reports
type Reports struct {
	ctx     context.Context
	api     ReportsAPI
	reports []client.Report
	table   table.Model
	confirm bool
	loading bool
	err     error
}

// NewReports creates the moderation queue screen
func NewReports(ctx context.Context, api ReportsAPI) *Reports {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 5},
			{Title: "Type", Width: 8},
			{Title: "Entity", Width: 7},
			{Title: "Reason", Width: 28},
			{Title: "Reporter", Width: 14},
			{Title: "Filed", Width: 14},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.BorderForeground(styles.Muted).BorderBottom(true).Bold(true)
	ts.Selected = ts.Selected.Foreground(styles.Text).Background(styles.Primary).Bold(false)
	t.SetStyles(ts)

	return &Reports{ctx: ctx, api: api, table: t}
}

// Init implements tea.Model
func (r *Reports) Init() tea.Cmd {
	return r.load()
}

// SetSize sets the screen dimensions
func (r *Reports) SetSize(width, height int) {
	r.table.SetWidth(width)
	if height > 12 {
		r.table.SetHeight(height - 10)
	}
}

func (r *Reports) load() tea.Cmd {
	r.loading = true
	ctx, api := r.ctx, r.api
	return func() tea.Msg {
		reports, err := api.PendingReports(ctx)
		return reportsMsg{reports: reports, err: err}
	}
}

func (r *Reports) selected() (client.Report, bool) {
	i := r.table.Cursor()
	if i < 0 || i >= len(r.reports) {
		return client.Report{}, false
	}
	return r.reports[i], true
}

func (r *Reports) resolve(rep client.Report, deleteEntity bool) tea.Cmd {
	ctx, api := r.ctx, r.api
	return func() tea.Msg {
		err := api.ResolveReport(ctx, rep.ID, deleteEntity)
		return resolvedMsg{id: rep.ID, deleted: deleteEntity, err: err}
	}
}

// Update implements tea.Model
func (r *Reports) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.SetSize(msg.Width, msg.Height)

	case reportsMsg:
		r.loading = false
		r.err = msg.err
		if msg.err == nil {
			r.reports = msg.reports
			r.refreshRows()
		}

	case resolvedMsg:
		if msg.err != nil {
			return r, nav.Flash("Couldn't resolve report: "+client.Message(msg.err), widgets.StatusCritical)
		}
		text := fmt.Sprintf("Dismissed report #%d", msg.id)
		if msg.deleted {
			text = fmt.Sprintf("Resolved report #%d and deleted the content", msg.id)
		}
		return r, tea.Batch(r.load(), nav.Flash(text, widgets.StatusOK))

	case tea.KeyMsg:
		if r.confirm {
			r.confirm = false
			rep, ok := r.selected()
			if msg.String() != "y" || !ok {
				return r, nav.Flash("Delete cancelled", widgets.StatusNeutral)
			}
			return r, r.resolve(rep, true)
		}

		switch msg.String() {
		case "k":
			if rep, ok := r.selected(); ok {
				return r, r.resolve(rep, false)
			}
		case "x":
			if _, ok := r.selected(); ok {
				r.confirm = true
			}
		case "r":
			return r, r.load()
		case "esc", "b":
			return r, nav.Back
		default:
			var cmd tea.Cmd
			r.table, cmd = r.table.Update(msg)
			return r, cmd
		}
	}
	return r, nil
}

func (r *Reports) refreshRows() {
	rows := make([]table.Row, len(r.reports))
	for i, rep := range r.reports {
		filed := ""
		if !rep.CreatedAt.IsZero() {
			filed = humanize.Time(rep.CreatedAt)
		}
		rows[i] = table.Row{
			strconv.FormatInt(rep.ID, 10),
			string(rep.EntityType),
			strconv.FormatInt(rep.EntityID, 10),
			rep.Reason,
			"@" + rep.Reporter.Username,
			filed,
		}
	}
	r.table.SetRows(rows)
	if r.table.Cursor() >= len(rows) {
		r.table.SetCursor(max(len(rows)-1, 0))
	}
}

// View implements tea.Model
func (r *Reports) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Admin: reports"))
	b.WriteString("\n\n")

	switch {
	case r.err != nil:
		b.WriteString(styles.StatusCritical.Render("Couldn't load reports: " + client.Message(r.err)))
		return b.String()
	case r.loading && r.reports == nil:
		b.WriteString(styles.Dim.Render("Loading reports..."))
		return b.String()
	case len(r.reports) == 0:
		b.WriteString(styles.StatusOK.Render("No pending reports."))
		return b.String()
	}

	b.WriteString(r.table.View())
	b.WriteString("\n")

	if rep, ok := r.selected(); ok {
		b.WriteString("\n")
		if rep.ReportedUser != nil {
			b.WriteString(styles.KeyStyle.Render("Reported user: "))
			b.WriteString(styles.Username.Render("@" + rep.ReportedUser.Username))
			b.WriteString("\n")
		}
		if rep.Content != "" {
			b.WriteString(styles.KeyStyle.Render("Content: "))
			b.WriteString(styles.ValueStyle.Render(rep.Content))
			b.WriteString("\n")
		}
	}

	if r.confirm {
		if rep, ok := r.selected(); ok {
			b.WriteString("\n")
			b.WriteString(styles.StatusWarning.Render(fmt.Sprintf("Delete %s #%d and resolve? (y/N)", strings.ToLower(string(rep.EntityType)), rep.EntityID)))
		}
	}
	return b.String()
}
