// ABOUTME: Config command for the wishlist CLI
// ABOUTME: Prints the effective configuration as YAML, ready to save as config.yaml

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/markalston/wishlist-cli/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after applying defaults, the config file, WISHLIST_*
environment variables, .env and flags. The output is valid config.yaml content.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runConfig(w)
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// configView mirrors config.Config with durations as strings
type configView struct {
	APIURL             string `json:"api_url" yaml:"api_url"`
	Timeout            string `json:"timeout" yaml:"timeout"`
	ConfigDir          string `json:"config_dir" yaml:"config_dir"`
	LogLevel           string `json:"log_level" yaml:"log_level"`
	LogFormat          string `json:"log_format" yaml:"log_format"`
	SearchDebounce     string `json:"search_debounce" yaml:"search_debounce"`
	AdminUsersDebounce string `json:"admin_users_debounce" yaml:"admin_users_debounce"`
	AdminPostsDebounce string `json:"admin_posts_debounce" yaml:"admin_posts_debounce"`
	NotificationPoll   string `json:"notification_poll" yaml:"notification_poll"`
	OAuthProvider      string `json:"oauth_provider" yaml:"oauth_provider"`
}

func newConfigView(cfg *config.Config) configView {
	return configView{
		APIURL:             cfg.APIURL,
		Timeout:            cfg.Timeout.String(),
		ConfigDir:          cfg.ConfigDir,
		LogLevel:           cfg.LogLevel,
		LogFormat:          cfg.LogFormat,
		SearchDebounce:     cfg.SearchDebounce.String(),
		AdminUsersDebounce: cfg.AdminUsersDebounce.String(),
		AdminPostsDebounce: cfg.AdminPostsDebounce.String(),
		NotificationPoll:   cfg.NotificationPoll.String(),
		OAuthProvider:      cfg.OAuthProvider,
	}
}

// runConfig prints the effective configuration and returns exit code
func runConfig(w io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	view := newConfigView(cfg)

	if IsJSONOutput() {
		return renderOrFail(w, view, nil)
	}
	data, err := yaml.Marshal(view)
	if err != nil {
		fmt.Fprintf(w, "Error: failed to encode YAML: %v\n", err)
		return exitError
	}
	fmt.Fprint(w, string(data))
	return exitOK
}
