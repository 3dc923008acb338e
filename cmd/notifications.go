// ABOUTME: Notifications command for the wishlist CLI
// ABOUTME: Lists notifications with unread markers and marks them read

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/spf13/cobra"
)

type notificationsOptions struct {
	markAll bool
	read    int64
	unread  bool
}

var notificationsOpts notificationsOptions

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notifs"},
	Short:   "List your notifications",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runNotifications(ctx, w, notificationsOpts)
		})
	},
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.Flags().BoolVar(&notificationsOpts.markAll, "mark-read", false, "Mark all notifications as read after listing")
	notificationsCmd.Flags().Int64Var(&notificationsOpts.read, "read", 0, "Mark one notification as read by id")
	notificationsCmd.Flags().BoolVar(&notificationsOpts.unread, "unread", false, "Only show unread notifications")
}

type notificationsView struct {
	Unread        int                   `json:"unread"`
	Notifications []client.Notification `json:"notifications"`
}

// runNotifications lists notifications and applies the requested read marks
func runNotifications(ctx context.Context, w io.Writer, opts notificationsOptions) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if _, err := e.requireUser(ctx); err != nil {
		return fail(w, err)
	}

	if opts.read > 0 {
		if err := e.api.MarkRead(ctx, opts.read); err != nil {
			return fail(w, e.session.Observe(err))
		}
	}

	list, err := e.api.Notifications(ctx)
	if err != nil {
		return fail(w, e.session.Observe(err))
	}

	view := notificationsView{Unread: client.UnreadCount(list)}
	for _, n := range list {
		if opts.unread && n.Read {
			continue
		}
		view.Notifications = append(view.Notifications, n)
	}

	if opts.markAll && view.Unread > 0 {
		if err := e.api.MarkAllRead(ctx); err != nil {
			return fail(w, e.session.Observe(err))
		}
	}

	return renderOrFail(w, view, func(w io.Writer) {
		if len(view.Notifications) == 0 {
			fmt.Fprintln(w, "No notifications.")
			return
		}
		fmt.Fprintf(w, "%d unread\n\n", view.Unread)
		for _, n := range view.Notifications {
			fmt.Fprintln(w, formatNotification(n))
		}
		if opts.markAll && view.Unread > 0 {
			fmt.Fprintln(w, "\nMarked all as read")
		}
	})
}

// formatNotification renders one line: unread marker, id, text, age, link target
func formatNotification(n client.Notification) string {
	marker := " "
	if !n.Read {
		marker = "•"
	}
	return fmt.Sprintf("%s [%d] %s (%s) %s", marker, n.ID, n.Text(), since(n.CreatedAt), n.Target())
}
