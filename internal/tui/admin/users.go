// ABOUTME: Admin user management screen
// ABOUTME: Lists accounts, toggles the admin role and deletes users

package admin

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/listing"
	"github.com/markalston/wishlist-cli/internal/tui/nav"
	"github.com/markalston/wishlist-cli/internal/tui/widgets"
)

// UsersAPI is what the users screen needs from the backend
type UsersAPI interface {
	AdminUpdateUser(ctx context.Context, id int64, update client.AdminUserUpdate) (*client.UserSummary, error)
	AdminDeleteUser(ctx context.Context, id int64) error
}

type roleChangedMsg struct {
	user *client.UserSummary
	err  error
}

// Failure implements nav.Failure
func (m roleChangedMsg) Failure() error {
	return m.err
}

// Users is the admin users table
type Users struct {
	*List[client.UserSummary]
	api UsersAPI
}

var userColumns = []Column[client.UserSummary]{
	{Title: "ID", Field: "id", Width: 6, Value: func(u client.UserSummary) string { return strconv.FormatInt(u.ID, 10) }},
	{Title: "Username", Field: "username", Width: 16, Value: func(u client.UserSummary) string { return u.Username }},
	{Title: "Name", Field: "fullName", Width: 20, Value: func(u client.UserSummary) string { return u.FullName }},
	{Title: "Email", Field: "email", Width: 26, Value: func(u client.UserSummary) string { return u.Email }},
	{Title: "Role", Field: "accountType", Width: 8, Value: func(u client.UserSummary) string { return string(u.AccountType) }},
	{Title: "Active", Width: 7, Value: func(u client.UserSummary) string {
		if u.Active {
			return "yes"
		}
		return "no"
	}},
}

// NewUsers creates the admin users screen
func NewUsers(ctx context.Context, ctrl *listing.Controller[client.UserSummary], api UsersAPI) *Users {
	remove := func(ctx context.Context, u client.UserSummary) error {
		return api.AdminDeleteUser(ctx, u.ID)
	}
	label := func(u client.UserSummary) string {
		return "user @" + u.Username
	}
	return &Users{
		List: newList(ctx, "Admin: users", ctrl, userColumns, label, remove),
		api:  api,
	}
}

// Update implements tea.Model
func (u *Users) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case roleChangedMsg:
		if msg.err != nil {
			return u, nav.Flash("Role change failed: "+client.Message(msg.err), widgets.StatusCritical)
		}
		updated := *msg.user
		u.ctrl.Replace(func(row client.UserSummary) bool { return row.ID == updated.ID }, updated)
		u.refreshRows()
		return u, nav.Flash(fmt.Sprintf("@%s is now %s", updated.Username, updated.AccountType), widgets.StatusOK)

	case tea.KeyMsg:
		if msg.String() == "t" && !u.filterOn && !u.confirm {
			return u, u.toggleRole()
		}
	}

	return u, u.update(msg)
}

func (u *Users) toggleRole() tea.Cmd {
	user, ok := u.selected()
	if !ok {
		return nil
	}
	role := client.AccountAdmin
	if user.IsAdmin() {
		role = client.AccountUser
	}
	update := client.AdminUserUpdate{
		Username:    user.Username,
		FullName:    user.FullName,
		Email:       user.Email,
		AccountType: role,
		Active:      user.Active,
	}
	ctx, api := u.ctx, u.api
	return func() tea.Msg {
		updated, err := api.AdminUpdateUser(ctx, user.ID, update)
		return roleChangedMsg{user: updated, err: err}
	}
}
