// ABOUTME: Status command for the wishlist CLI
// ABOUTME: Shows the backend, where the session is stored, who is signed in and unread notifications

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/session"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend, session and notification status",
	Long: `Display the backend URL, the session file, the signed-in user and the number
of unread notifications. Exits 2 when the backend cannot be reached.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(runStatus)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the status command's output
type statusReport struct {
	Backend     string              `json:"backend"`
	SessionFile string              `json:"session_file"`
	State       string              `json:"state"`
	User        *client.UserSummary `json:"user,omitempty"`
	Unread      int                 `json:"unread"`
	Error       string              `json:"error,omitempty"`
}

// runStatus resolves the session and returns exit code
func runStatus(ctx context.Context, w io.Writer) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	report := statusReport{
		Backend:     e.cfg.APIURL,
		SessionFile: sessionPath(e),
	}

	exitCode := exitOK
	resolveErr := e.session.Resolve(ctx)
	snap := e.session.Snapshot()
	report.State = snap.State.String()
	report.User = snap.User

	switch {
	case resolveErr != nil && !client.IsAuth(resolveErr):
		report.Error = client.Message(resolveErr)
		exitCode = exitError
	case snap.State == session.Authenticated:
		list, err := e.api.Notifications(ctx)
		if err != nil {
			report.Error = client.Message(e.session.Observe(err))
			exitCode = exitCodeFor(err)
		} else {
			report.Unread = client.UnreadCount(list)
		}
	}

	if code := renderOrFail(w, report, func(w io.Writer) {
		fmt.Fprintln(w, formatStatusHuman(report))
	}); code != exitOK {
		return code
	}
	return exitCode
}

// sessionPath returns the token file location when the store is file-backed
func sessionPath(e *env) string {
	if fs, ok := e.store.(interface{ Path() string }); ok {
		return fs.Path()
	}
	return ""
}

// formatStatusHuman formats the status report for human readability
func formatStatusHuman(r statusReport) string {
	user := "not logged in"
	if r.User != nil {
		user = formatUser(*r.User)
	}
	out := fmt.Sprintf(`Backend:      %s
Session file: %s
Session:      %s
User:         %s`, r.Backend, r.SessionFile, r.State, user)
	if r.User != nil && r.Error == "" {
		out += fmt.Sprintf("\nUnread:       %d", r.Unread)
	}
	if r.Error != "" {
		out += "\n\nError: " + r.Error
	}
	return out
}
