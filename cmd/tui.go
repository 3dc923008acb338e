// ABOUTME: TUI command for the wishlist CLI
// ABOUTME: Starts the interactive terminal UI with logs redirected to debug.log

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/markalston/wishlist-cli/internal/logger"
	"github.com/markalston/wishlist-cli/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive terminal UI",
	Long: `Start the interactive terminal UI: feed, explore, search, notifications and,
for administrators, the admin panel. Logs are written to <config dir>/debug.log.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(runTUI)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// runTUI runs the terminal UI until the user quits
func runTUI(ctx context.Context, w io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	closeLog, err := logger.InitFile(cfg.ConfigDir, cfg.LogLevel, cfg.LogFormat)
	defer closeLog()
	if err != nil {
		fmt.Fprintf(w, "Warning: logging disabled: %v\n", err)
	}

	e := newEnv(cfg)
	if err := tui.Run(ctx, tui.Deps{API: e.api, Session: e.session, Config: cfg}); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}
