// ABOUTME: Session commands for the wishlist CLI
// ABOUTME: login (password or OAuth), register, logout and whoami

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/spf13/cobra"
)

type loginOptions struct {
	email         string
	password      string
	passwordStdin bool
	oauth         bool
	provider      string
	callbackAddr  string
	oauthTimeout  time.Duration
}

type registerOptions struct {
	username      string
	fullName      string
	email         string
	password      string
	passwordStdin bool
}

var (
	loginOpts    loginOptions
	registerOpts registerOptions
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password, or through an OAuth provider",
	Long: `Sign in and store the session token in the config directory.

With --oauth the CLI prints the provider login URL and waits for the backend to
redirect the browser back to a local callback.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runLogin(ctx, w, os.Stdin, loginOpts)
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runRegister(ctx, w, os.Stdin, registerOpts)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runLogout(w)
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Run: func(cmd *cobra.Command, args []string) {
		run(runWhoami)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringVar(&loginOpts.email, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginOpts.password, "password", "", "Account password")
	loginCmd.Flags().BoolVar(&loginOpts.passwordStdin, "password-stdin", false, "Read the password from stdin")
	loginCmd.Flags().BoolVar(&loginOpts.oauth, "oauth", false, "Sign in through an OAuth provider in the browser")
	loginCmd.Flags().StringVar(&loginOpts.provider, "provider", "", "OAuth provider (default from config: google)")
	loginCmd.Flags().StringVar(&loginOpts.callbackAddr, "callback-addr", "127.0.0.1:0", "Local address for the OAuth callback")
	loginCmd.Flags().DurationVar(&loginOpts.oauthTimeout, "oauth-timeout", 5*time.Minute, "How long to wait for the OAuth redirect")

	registerCmd.Flags().StringVar(&registerOpts.username, "username", "", "Username (3-30 characters)")
	registerCmd.Flags().StringVar(&registerOpts.fullName, "full-name", "", "Full name")
	registerCmd.Flags().StringVar(&registerOpts.email, "email", "", "Email address")
	registerCmd.Flags().StringVar(&registerOpts.password, "password", "", "Password (at least 6 characters)")
	registerCmd.Flags().BoolVar(&registerOpts.passwordStdin, "password-stdin", false, "Read the password from stdin")
}

// readPassword returns the first line of in
func readPassword(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// runLogin signs in and returns exit code
func runLogin(ctx context.Context, w io.Writer, in io.Reader, opts loginOptions) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if opts.oauth {
		return runOAuthLogin(ctx, w, e, opts)
	}

	if opts.passwordStdin {
		pw, err := readPassword(in)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
		opts.password = pw
	}

	user, err := e.session.Login(ctx, client.Credentials{Email: opts.email, Password: opts.password})
	if err != nil {
		return fail(w, err)
	}
	return renderOrFail(w, user, func(w io.Writer) {
		fmt.Fprintf(w, "Logged in as %s\n", formatUser(*user))
	})
}

func runOAuthLogin(ctx context.Context, w io.Writer, e *env, opts loginOptions) int {
	provider := opts.provider
	if provider == "" {
		provider = e.cfg.OAuthProvider
	}

	cb, err := newOAuthCallback(opts.callbackAddr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	defer cb.Close()

	fmt.Fprintf(w, "Open this URL in your browser to sign in with %s:\n\n  %s\n\n", provider, e.api.OAuthURL(provider, cb.RedirectURL()))
	fmt.Fprintln(w, "Waiting for the redirect...")

	waitCtx := ctx
	if opts.oauthTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.oauthTimeout)
		defer cancel()
	}

	token, err := cb.Wait(waitCtx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	user, err := e.session.LoginWithToken(ctx, token)
	if err != nil {
		return fail(w, err)
	}
	return renderOrFail(w, user, func(w io.Writer) {
		fmt.Fprintf(w, "Logged in as %s\n", formatUser(*user))
	})
}

// runRegister creates an account and returns exit code
func runRegister(ctx context.Context, w io.Writer, in io.Reader, opts registerOptions) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if opts.passwordStdin {
		pw, err := readPassword(in)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
		opts.password = pw
	}

	user, err := e.session.Register(ctx, client.Registration{
		Username: opts.username,
		FullName: opts.fullName,
		Email:    opts.email,
		Password: opts.password,
	})
	if err != nil {
		return fail(w, err)
	}
	return renderOrFail(w, user, func(w io.Writer) {
		fmt.Fprintf(w, "Welcome, %s\n", formatUser(*user))
	})
}

// runLogout clears the stored token. No network call is made.
func runLogout(w io.Writer) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	e.session.Logout()
	fmt.Fprintln(w, "Logged out")
	return exitOK
}

// runWhoami resolves the stored token and prints the user
func runWhoami(ctx context.Context, w io.Writer) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	user, err := e.requireUser(ctx)
	if err != nil {
		return fail(w, err)
	}
	return renderOrFail(w, user, func(w io.Writer) {
		fmt.Fprintln(w, formatUser(*user))
		fmt.Fprintf(w, "Email:   %s\n", user.Email)
		fmt.Fprintf(w, "Account: %s\n", user.AccountType)
		if user.Bio != "" {
			fmt.Fprintf(w, "Bio:     %s\n", user.Bio)
		}
	})
}
