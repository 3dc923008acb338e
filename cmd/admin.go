// ABOUTME: Admin panel commands for the wishlist CLI
// ABOUTME: User and post management plus pending report resolution; ADMIN accounts only

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/forms"
	"github.com/markalston/wishlist-cli/internal/listing"
	"github.com/spf13/cobra"
)

type adminListOptions struct {
	page  int
	sort  string
	query string
}

type adminUpdateOptions struct {
	username    string
	fullName    string
	email       string
	accountType string
	active      bool
	avatarURL   string
	avatarFile  string
}

var (
	adminUsersOpts  adminListOptions
	adminPostsOpts  adminListOptions
	adminUpdateOpts adminUpdateOptions
	resolveDelete   bool
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Moderate users, posts and reports (ADMIN accounts only)",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runAdminUsers(ctx, w, adminUsersOpts)
		})
	},
}

var adminPostsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List posts",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runAdminPosts(ctx, w, adminPostsOpts)
		})
	},
}

var adminUpdateUserCmd = &cobra.Command{
	Use:   "update-user <userId>",
	Short: "Edit a user's account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runAdminUpdateUser(ctx, w, args[0], adminUpdateOpts)
		})
	},
}

var adminDeleteUserCmd = &cobra.Command{
	Use:   "delete-user <userId>",
	Short: "Delete a user and everything they posted",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runAdminDelete(ctx, w, "user", args[0])
		})
	},
}

var adminDeletePostCmd = &cobra.Command{
	Use:   "delete-post <postId>",
	Short: "Delete any post",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runAdminDelete(ctx, w, "post", args[0])
		})
	},
}

var adminReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List pending reports",
	Run: func(cmd *cobra.Command, args []string) {
		run(runAdminReports)
	},
}

var adminResolveCmd = &cobra.Command{
	Use:   "resolve <reportId>",
	Short: "Resolve a report, optionally deleting the reported entity",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runAdminResolve(ctx, w, args[0], resolveDelete)
		})
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminUsersCmd, adminPostsCmd, adminUpdateUserCmd, adminDeleteUserCmd,
		adminDeletePostCmd, adminReportsCmd, adminResolveCmd)

	adminUsersCmd.Flags().IntVar(&adminUsersOpts.page, "page", 1, "Page number")
	adminUsersCmd.Flags().StringVar(&adminUsersOpts.sort, "sort", listing.AdminUsers.DefaultSort.String(), "Sort as field,direction (id, username, email, fullName, accountType)")
	adminUsersCmd.Flags().StringVar(&adminUsersOpts.query, "query", "", "Filter by username or email")

	adminPostsCmd.Flags().IntVar(&adminPostsOpts.page, "page", 1, "Page number")
	adminPostsCmd.Flags().StringVar(&adminPostsOpts.sort, "sort", listing.AdminPosts.DefaultSort.String(), "Sort as field,direction")
	adminPostsCmd.Flags().StringVar(&adminPostsOpts.query, "query", "", "Filter by title or username")

	adminUpdateUserCmd.Flags().StringVar(&adminUpdateOpts.username, "username", "", "Username")
	adminUpdateUserCmd.Flags().StringVar(&adminUpdateOpts.fullName, "full-name", "", "Full name")
	adminUpdateUserCmd.Flags().StringVar(&adminUpdateOpts.email, "email", "", "Email")
	adminUpdateUserCmd.Flags().StringVar(&adminUpdateOpts.accountType, "account-type", string(client.AccountUser), "USER or ADMIN")
	adminUpdateUserCmd.Flags().BoolVar(&adminUpdateOpts.active, "active", true, "Whether the account can sign in")
	adminUpdateUserCmd.Flags().StringVar(&adminUpdateOpts.avatarURL, "avatar-url", "", "Avatar image URL")
	adminUpdateUserCmd.Flags().StringVar(&adminUpdateOpts.avatarFile, "avatar-file", "", "Upload a local image as the avatar")
	adminUpdateUserCmd.MarkFlagsMutuallyExclusive("avatar-url", "avatar-file")

	adminResolveCmd.Flags().BoolVar(&resolveDelete, "delete", false, "Delete the reported user, post or comment")
}

// loadAdminPage applies CLI list options (1-based page) to a controller and loads it
func loadAdminPage[T any](ctx context.Context, list *listing.Controller[T], opts adminListOptions) (*client.Page[T], error) {
	if opts.page < 1 {
		return nil, fmt.Errorf("--page must be at least 1")
	}
	sort, err := listing.ParseSort(opts.sort)
	if err != nil {
		return nil, err
	}
	list.SetSort(sort)
	list.SetFilter(opts.query)
	list.SetPage(opts.page - 1)
	return list.Load(ctx)
}

// runAdminUsers prints one page of users
func runAdminUsers(ctx context.Context, w io.Writer, opts adminListOptions) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if _, err := e.requireAdmin(ctx); err != nil {
		return fail(w, err)
	}

	list := listing.NewController(listing.AdminUsers, listing.AdminUsersLoader(e.api))
	page, err := loadAdminPage(ctx, list, opts)
	if err != nil {
		return fail(w, e.session.Observe(err))
	}

	return renderOrFail(w, page, func(w io.Writer) {
		if len(page.Content) == 0 {
			fmt.Fprintln(w, "No users.")
			return
		}
		fmt.Fprintf(w, "%-6s %-20s %-28s %-24s %-6s %s\n", "ID", "USERNAME", "EMAIL", "FULL NAME", "TYPE", "ACTIVE")
		for _, u := range page.Content {
			fmt.Fprintf(w, "%-6d %-20s %-28s %-24s %-6s %t\n", u.ID, u.Username, u.Email, u.FullName, u.AccountType, u.Active)
		}
		writePageFooter(w, page)
	})
}

// runAdminPosts prints one page of posts
func runAdminPosts(ctx context.Context, w io.Writer, opts adminListOptions) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if _, err := e.requireAdmin(ctx); err != nil {
		return fail(w, err)
	}

	list := listing.NewController(listing.AdminPosts, listing.AdminPostsLoader(e.api))
	page, err := loadAdminPage(ctx, list, opts)
	if err != nil {
		return fail(w, e.session.Observe(err))
	}

	return renderOrFail(w, page, func(w io.Writer) {
		if len(page.Content) == 0 {
			fmt.Fprintln(w, "No posts.")
			return
		}
		fmt.Fprintf(w, "%-6s %-32s %-20s %-8s %s\n", "ID", "TITLE", "AUTHOR", "PRIVATE", "CREATED")
		for _, p := range page.Content {
			fmt.Fprintf(w, "%-6d %-32s %-20s %-8t %s\n", p.ID, truncate(p.Title, 32), p.User.Username, p.IsPrivate, since(p.CreatedAt))
		}
		writePageFooter(w, page)
	})
}

// runAdminUpdateUser replaces a user's account fields
func runAdminUpdateUser(ctx context.Context, w io.Writer, rawID string, opts adminUpdateOptions) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	update := client.AdminUserUpdate{
		Username:    opts.username,
		FullName:    opts.fullName,
		Email:       opts.email,
		AccountType: client.AccountType(strings.ToUpper(opts.accountType)),
		Active:      opts.active,
		AvatarURL:   opts.avatarURL,
	}
	if err := forms.Validate(update); err != nil {
		return fail(w, err)
	}
	if opts.avatarURL != "" && opts.avatarFile != "" {
		fmt.Fprintln(w, "Error: --avatar-url and --avatar-file cannot be used together")
		return exitError
	}

	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if _, err := e.requireAdmin(ctx); err != nil {
		return fail(w, err)
	}
	if opts.avatarFile != "" {
		if update.AvatarURL, err = uploadAvatar(ctx, e, opts.avatarFile); err != nil {
			return fail(w, err)
		}
	}

	user, err := e.api.AdminUpdateUser(ctx, id, update)
	if err != nil {
		return fail(w, e.session.Observe(err))
	}
	return renderOrFail(w, user, func(w io.Writer) {
		fmt.Fprintf(w, "Updated user #%d: %s\n", user.ID, formatUser(*user))
	})
}

// runAdminDelete deletes a user or post by id
func runAdminDelete(ctx context.Context, w io.Writer, kind, rawID string) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if _, err := e.requireAdmin(ctx); err != nil {
		return fail(w, err)
	}

	del := e.api.AdminDeletePost
	if kind == "user" {
		del = e.api.AdminDeleteUser
	}
	if err := del(ctx, id); err != nil {
		return fail(w, e.session.Observe(err))
	}
	fmt.Fprintf(w, "Deleted %s #%d\n", kind, id)
	return exitOK
}

// runAdminReports lists pending reports
func runAdminReports(ctx context.Context, w io.Writer) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if _, err := e.requireAdmin(ctx); err != nil {
		return fail(w, err)
	}

	reports, err := e.api.PendingReports(ctx)
	if err != nil {
		return fail(w, e.session.Observe(err))
	}
	return renderOrFail(w, reports, func(w io.Writer) {
		if len(reports) == 0 {
			fmt.Fprintln(w, "No pending reports.")
			return
		}
		for _, r := range reports {
			fmt.Fprintf(w, "[%d] %s #%d reported by @%s %s\n", r.ID, r.EntityType, r.EntityID, r.Reporter.Username, since(r.CreatedAt))
			fmt.Fprintf(w, "     Reason: %s\n", r.Reason)
			if r.Content != "" {
				fmt.Fprintf(w, "     Content: %s\n", truncate(r.Content, 60))
			}
		}
	})
}

// runAdminResolve resolves a report, deleting the entity when deleteEntity is set
func runAdminResolve(ctx context.Context, w io.Writer, rawID string, deleteEntity bool) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if _, err := e.requireAdmin(ctx); err != nil {
		return fail(w, err)
	}

	if err := e.api.ResolveReport(ctx, id, deleteEntity); err != nil {
		return fail(w, e.session.Observe(err))
	}
	if deleteEntity {
		fmt.Fprintf(w, "Resolved report #%d and deleted the reported content\n", id)
	} else {
		fmt.Fprintf(w, "Dismissed report #%d\n", id)
	}
	return exitOK
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
