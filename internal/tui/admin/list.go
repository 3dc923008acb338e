// ABOUTME: Paged, sortable, filterable table shared by the admin users and posts screens
// ABOUTME: Filter input is debounced and deletes ask for confirmation

package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/listing"
	"github.com/markalston/wishlist-cli/internal/tui/icons"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
	"github.com/markalston/wishlist-cli/internal/tui/styles"
	"github.com/markalston/wishlist-cli/internal/tui/widgets"
)

// Column describes one table column
type Column[T any] struct {
	Title string
	// Field is the server sort key; empty when the column cannot be sorted
	Field string
	Width int
	Value func(T) string
}

type pageMsg struct {
	err error
}

// Failure implements nav.Failure
func (m pageMsg) Failure() error {
	return m.err
}

type deletedMsg struct {
	label string
	err   error
}

// Failure implements nav.Failure
func (m deletedMsg) Failure() error {
	return m.err
}

// pages beyond this only get the numeric indicator
const maxDots = 12

// List is one admin table backed by a listing controller
type List[T any] struct {
	ctx      context.Context
	title    string
	ctrl     *listing.Controller[T]
	cols     []Column[T]
	label    func(T) string
	remove   func(context.Context, T) error
	sortCol  int
	table    table.Model
	filter   textinput.Model
	filterOn bool
	confirm  bool
	results  chan pageMsg
	waiting  bool
	width    int
	height   int
}

func newList[T any](ctx context.Context, title string, ctrl *listing.Controller[T], cols []Column[T], label func(T) string, remove func(context.Context, T) error) *List[T] {
	ti := textinput.New()
	ti.Prompt = icons.Search.String() + " "
	ti.Placeholder = "filter"
	ti.CharLimit = 64
	ti.Width = 30

	t := table.New(table.WithFocused(true), table.WithHeight(ctrl.Config().Size))
	ts := table.DefaultStyles()
	ts.Header = ts.Header.BorderForeground(styles.Muted).BorderBottom(true).Bold(true)
	ts.Selected = ts.Selected.Foreground(styles.Text).Background(styles.Primary).Bold(false)
	t.SetStyles(ts)

	l := &List[T]{
		ctx:     ctx,
		title:   title,
		ctrl:    ctrl,
		cols:    cols,
		label:   label,
		remove:  remove,
		table:   t,
		filter:  ti,
		results: make(chan pageMsg, 1),
	}
	for i, c := range cols {
		if c.Field != "" && c.Field == ctrl.Query().Sort.Field {
			l.sortCol = i
		}
	}
	l.refreshColumns()
	return l
}

// Init implements tea.Model
func (l *List[T]) Init() tea.Cmd {
	return l.load()
}

// Close drops any pending filter load
func (l *List[T]) Close() {
	l.ctrl.CancelQueued()
}

// SetSize sets the screen dimensions
func (l *List[T]) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.table.SetWidth(width)
}

func (l *List[T]) load() tea.Cmd {
	ctx, ctrl := l.ctx, l.ctrl
	return func() tea.Msg {
		_, err := ctrl.Load(ctx)
		if errors.Is(err, listing.ErrStale) {
			return nil
		}
		return pageMsg{err: err}
	}
}

func (l *List[T]) queueFilter(q string) tea.Cmd {
	results := l.results
	l.ctrl.QueueFilter(l.ctx, q, func(_ *client.Page[T], err error) {
		select {
		case <-results:
		default:
		}
		results <- pageMsg{err: err}
	})
	if l.waiting {
		return nil
	}
	l.waiting = true
	ctx := l.ctx
	return func() tea.Msg {
		select {
		case msg := <-results:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// selected returns the row under the cursor
func (l *List[T]) selected() (T, bool) {
	items := l.ctrl.Items()
	i := l.table.Cursor()
	if i < 0 || i >= len(items) {
		var zero T
		return zero, false
	}
	return items[i], true
}

func (l *List[T]) refreshRows() {
	items := l.ctrl.Items()
	rows := make([]table.Row, len(items))
	for i, item := range items {
		row := make(table.Row, len(l.cols))
		for j, c := range l.cols {
			row[j] = c.Value(item)
		}
		rows[i] = row
	}
	l.table.SetRows(rows)
	if l.table.Cursor() >= len(rows) {
		l.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (l *List[T]) refreshColumns() {
	sort := l.ctrl.Query().Sort
	cols := make([]table.Column, len(l.cols))
	for i, c := range l.cols {
		title := c.Title
		if c.Field != "" && c.Field == sort.Field {
			arrow := icons.SortAsc
			if sort.Direction == listing.Desc {
				arrow = icons.SortDesc
			}
			title += " " + arrow.String()
		}
		if i == l.sortCol {
			title = "[" + title + "]"
		}
		cols[i] = table.Column{Title: title, Width: c.Width}
	}
	l.table.SetColumns(cols)
}

// moveSortColumn steps the highlighted column to the next sortable one
func (l *List[T]) moveSortColumn(step int) {
	n := len(l.cols)
	for i := 1; i <= n; i++ {
		next := ((l.sortCol+step*i)%n + n) % n
		if l.cols[next].Field != "" {
			l.sortCol = next
			break
		}
	}
	l.refreshColumns()
}

// update handles messages common to every admin table
func (l *List[T]) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		l.SetSize(msg.Width, msg.Height)
		return nil

	case pageMsg:
		l.waiting = false
		l.refreshRows()
		return nil

	case deletedMsg:
		l.refreshRows()
		if msg.err != nil {
			return nav.Flash("Delete failed: "+client.Message(msg.err), widgets.StatusCritical)
		}
		return nav.Flash("Deleted "+msg.label, widgets.StatusOK)

	case tea.KeyMsg:
		switch {
		case l.filterOn:
			return l.updateFilter(msg)
		case l.confirm:
			return l.updateConfirm(msg)
		}
		return l.updateKeys(msg)
	}
	return nil
}

func (l *List[T]) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter", "esc", "tab":
		l.filterOn = false
		l.filter.Blur()
		l.table.Focus()
		return nil
	}

	before := l.filter.Value()
	var cmd tea.Cmd
	l.filter, cmd = l.filter.Update(msg)
	if q := strings.TrimSpace(l.filter.Value()); q != strings.TrimSpace(before) {
		return tea.Batch(cmd, l.queueFilter(q))
	}
	return cmd
}

func (l *List[T]) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	l.confirm = false
	item, ok := l.selected()
	if msg.String() != "y" || !ok {
		return nav.Flash("Delete cancelled", widgets.StatusNeutral)
	}

	ctx, ctrl, remove, label := l.ctx, l.ctrl, l.remove, l.label(item)
	return func() tea.Msg {
		if err := remove(ctx, item); err != nil {
			return deletedMsg{label: label, err: err}
		}
		if _, err := ctrl.Deleted(ctx); err != nil && !errors.Is(err, listing.ErrStale) {
			return pageMsg{err: err}
		}
		return deletedMsg{label: label}
	}
}

func (l *List[T]) updateKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "/":
		l.filterOn = true
		l.table.Blur()
		return l.filter.Focus()
	case "left", "h":
		l.moveSortColumn(-1)
	case "right":
		l.moveSortColumn(1)
	case "s":
		if f := l.cols[l.sortCol].Field; f != "" {
			l.ctrl.ToggleSort(f)
			l.refreshColumns()
			l.table.SetCursor(0)
			return l.load()
		}
	case "n":
		if l.ctrl.NextPage() {
			l.table.SetCursor(0)
			return l.load()
		}
	case "p":
		if l.ctrl.PrevPage() {
			l.table.SetCursor(0)
			return l.load()
		}
	case "d":
		if _, ok := l.selected(); ok {
			l.confirm = true
		}
	case "r":
		return l.load()
	case "esc", "b":
		l.Close()
		return nav.Back
	default:
		var cmd tea.Cmd
		l.table, cmd = l.table.Update(msg)
		return cmd
	}
	return nil
}

// View implements tea.Model
func (l *List[T]) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render(l.title))
	b.WriteString("\n")
	if l.filterOn || l.filter.Value() != "" {
		b.WriteString(l.filter.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if err := l.ctrl.Err(); err != nil {
		b.WriteString(styles.StatusCritical.Render("Couldn't load: " + client.Message(err)))
		b.WriteString("\n\n")
	}

	if len(l.ctrl.Items()) == 0 {
		b.WriteString(styles.Dim.Render("No results."))
		b.WriteString("\n")
	} else {
		b.WriteString(l.table.View())
		b.WriteString("\n")
	}

	q := l.ctrl.Query()
	total := max(l.ctrl.TotalPages(), 1)
	if total > 1 && total <= maxDots {
		dots := paginator.New(paginator.WithTotalPages(total))
		dots.Type = paginator.Dots
		dots.Page = min(q.Page, total-1)
		b.WriteString(dots.View())
		b.WriteString("  ")
	}
	status := fmt.Sprintf("Page %d of %d", q.Page+1, total)
	if q.Sort.Field != "" {
		status += " · sort " + q.Sort.String()
	}
	if q.Filter != "" {
		status += fmt.Sprintf(" · filter %q", q.Filter)
	}
	b.WriteString(styles.Dim.Render(status))

	if l.confirm {
		if item, ok := l.selected(); ok {
			b.WriteString("\n\n")
			b.WriteString(styles.StatusWarning.Render(fmt.Sprintf("Delete %s? (y/N)", l.label(item))))
		}
	}
	return b.String()
}
