// ABOUTME: Root command for the wishlist CLI
// ABOUTME: Handles global flags, configuration, logging and shared command plumbing

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/config"
	"github.com/markalston/wishlist-cli/internal/logger"
	"github.com/markalston/wishlist-cli/internal/session"
	"github.com/markalston/wishlist-cli/internal/tokenstore"
	"github.com/spf13/cobra"
)

// Exit codes shared by every command
const (
	exitOK     = 0
	exitFailed = 1
	exitError  = 2
)

var (
	apiURL       string
	configFile   string
	jsonOutput   bool
	outputFormat string
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "wishlist",
	Short: "Terminal client for the wishlist app",
	Long: `wishlist is a command-line and terminal UI client for the wishlist social app.

Share items you want, follow friends, like and comment on their wishes, and
moderate the community if you are an administrator.

Exit codes:
  0 - Success
  1 - The server refused the operation (validation, permission, not found)
  2 - Error (connectivity, invalid input, not logged in)

Environment Variables:
  WISHLIST_API_URL     Backend API URL (default: http://localhost:8082)
  WISHLIST_TIMEOUT     Request timeout (default: 30s)
  WISHLIST_CONFIG_DIR  Token and config directory (default: ~/.config/wishlist)
  LOG_LEVEL            debug, info, warn, error (default: info)
  LOG_FORMAT           text or json (default: text)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides WISHLIST_API_URL)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: <config dir>/config.yaml)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Request timeout (overrides WISHLIST_TIMEOUT)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
}

// env is everything a command needs to talk to the backend
type env struct {
	cfg     *config.Config
	store   tokenstore.Store
	api     *client.Client
	session *session.Manager
}

// loadConfig resolves configuration from flags, env, .env and the config file
func loadConfig() (*config.Config, error) {
	return config.Load(config.Options{
		File:  configFile,
		Flags: rootCmd.PersistentFlags(),
	})
}

// loadEnv resolves configuration and builds the client stack. Command output goes
// to stdout, so logs go to stderr.
func loadEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	return newEnv(cfg), nil
}

func newEnv(cfg *config.Config) *env {
	store := tokenstore.New(cfg.ConfigDir)
	api := client.New(cfg.APIURL,
		client.WithTokenSource(store),
		client.WithTimeout(cfg.Timeout),
	)
	return &env{
		cfg:     cfg,
		store:   store,
		api:     api,
		session: session.New(api, store),
	}
}

// requireUser resolves the persisted token and fails when nobody is signed in
func (e *env) requireUser(ctx context.Context) (*client.UserSummary, error) {
	if err := e.session.Resolve(ctx); err != nil && !client.IsAuth(err) {
		return nil, err
	}
	snap := e.session.Snapshot()
	if snap.State != session.Authenticated {
		return nil, errNotLoggedIn
	}
	return snap.User, nil
}

// requireAdmin is requireUser plus the ADMIN account type
func (e *env) requireAdmin(ctx context.Context) (*client.UserSummary, error) {
	user, err := e.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, &client.APIError{Kind: client.KindForbidden, Message: "administrator account required"}
	}
	return user, nil
}

var errNotLoggedIn = errors.New("not logged in: run 'wishlist login' first")

// run wires signal handling around a runX function and exits with its code
func run(fn func(ctx context.Context, w io.Writer) int) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	exitCode := fn(ctx, os.Stdout)
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// fail prints err and returns the matching exit code. Server refusals are 1,
// everything else (connectivity, local validation, no session) is 2.
func fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %s\n", client.Message(err))
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode == 0 {
		return exitError
	}
	switch apiErr.Kind {
	case client.KindAuth, client.KindValidation, client.KindForbidden, client.KindNotFound, client.KindRequest:
		return exitFailed
	default:
		return exitError
	}
}

// format returns the requested output format; --json wins over --output
func format() string {
	if jsonOutput {
		return "json"
	}
	return outputFormat
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return format() == "json"
}
