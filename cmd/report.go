// ABOUTME: Report command for the wishlist CLI
// ABOUTME: Flags a user, post or comment for administrator review

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/forms"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <user|post|comment> <id> <reason>",
	Short: "Report a user, post or comment to the administrators",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runReport(ctx, w, args[0], args[1], args[2])
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

// runReport submits a report and returns exit code
func runReport(ctx context.Context, w io.Writer, entityType, rawID, reason string) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	report := client.NewReport{
		EntityID:   id,
		EntityType: client.EntityType(strings.ToUpper(entityType)),
		Reason:     strings.TrimSpace(reason),
	}
	if err := forms.Validate(report); err != nil {
		return fail(w, err)
	}

	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if _, err := e.requireUser(ctx); err != nil {
		return fail(w, err)
	}

	if err := e.api.CreateReport(ctx, report); err != nil {
		return fail(w, e.session.Observe(err))
	}
	fmt.Fprintf(w, "Reported %s #%d. Thanks, an administrator will review it.\n", strings.ToLower(entityType), id)
	return exitOK
}
