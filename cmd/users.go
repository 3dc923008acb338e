// ABOUTME: User commands for the wishlist CLI
// ABOUTME: search, follow/unfollow, and the profile subcommands (show, update, password)

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/forms"
	"github.com/markalston/wishlist-cli/internal/listing"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

type profileUpdateOptions struct {
	username   string
	fullName   string
	email      string
	bio        string
	avatarURL  string
	avatarFile string
}

type passwordOptions struct {
	current string
	next    string
	confirm string
}

var (
	searchPage   int
	profileTab   string
	updateOpts   profileUpdateOptions
	passwordOpts passwordOptions
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find users by username or name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runSearch(ctx, w, args[0], searchPage)
		})
	},
}

var followCmd = &cobra.Command{
	Use:   "follow <username>",
	Short: "Follow a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runFollow(ctx, w, args[0], true)
		})
	},
}

var unfollowCmd = &cobra.Command{
	Use:   "unfollow <username>",
	Short: "Stop following a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runFollow(ctx, w, args[0], false)
		})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View profiles and edit your own",
}

var profileShowCmd = &cobra.Command{
	Use:   "show [username]",
	Short: "Show a profile and its posts (default: you)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := ""
		if len(args) == 1 {
			username = args[0]
		}
		run(func(ctx context.Context, w io.Writer) int {
			return runProfileShow(ctx, w, username, client.PostTab(profileTab))
		})
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Edit your profile",
	Long: `Edit your profile. Flags that are not given keep their current value.
Changing the username issues a new session token, which is stored automatically.
--avatar-file uploads a local image and uses the stored copy as the avatar.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runProfileUpdate(ctx, w, updateOpts, changedFlags(cmd))
		})
	},
}

var profilePasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runProfilePassword(ctx, w, passwordOpts)
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd, followCmd, unfollowCmd, profileCmd)
	profileCmd.AddCommand(profileShowCmd, profileUpdateCmd, profilePasswordCmd)

	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Page number")

	profileShowCmd.Flags().StringVar(&profileTab, "tab", string(client.TabPosts), "Posts tab: posts, private, liked")

	profileUpdateCmd.Flags().StringVar(&updateOpts.username, "username", "", "New username")
	profileUpdateCmd.Flags().StringVar(&updateOpts.fullName, "full-name", "", "New full name")
	profileUpdateCmd.Flags().StringVar(&updateOpts.email, "email", "", "New email")
	profileUpdateCmd.Flags().StringVar(&updateOpts.bio, "bio", "", "New bio")
	profileUpdateCmd.Flags().StringVar(&updateOpts.avatarURL, "avatar-url", "", "New avatar image URL")
	profileUpdateCmd.Flags().StringVar(&updateOpts.avatarFile, "avatar-file", "", "Upload a local image as the new avatar")
	profileUpdateCmd.MarkFlagsMutuallyExclusive("avatar-url", "avatar-file")

	profilePasswordCmd.Flags().StringVar(&passwordOpts.current, "current", "", "Current password")
	profilePasswordCmd.Flags().StringVar(&passwordOpts.next, "new", "", "New password (at least 6 characters)")
	profilePasswordCmd.Flags().StringVar(&passwordOpts.confirm, "confirm", "", "New password again")
}

// changedFlags returns the names of flags the user set on cmd
func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	return changed
}

// runSearch prints one page of users matching query
func runSearch(ctx context.Context, w io.Writer, query string, page int) int {
	if page < 1 {
		fmt.Fprintln(w, "Error: --page must be at least 1")
		return exitError
	}
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	list := listing.NewController(listing.Search, listing.SearchLoader(e.api))
	list.SetFilter(query)
	list.SetPage(page - 1)

	result, err := list.Load(ctx)
	if err != nil {
		return fail(w, err)
	}
	return renderOrFail(w, result, func(w io.Writer) {
		if len(result.Content) == 0 {
			fmt.Fprintf(w, "No users match %q\n", query)
			return
		}
		for _, u := range result.Content {
			fmt.Fprintln(w, formatUser(u))
		}
		writePageFooter(w, result)
	})
}

// runFollow follows or unfollows username
func runFollow(ctx context.Context, w io.Writer, username string, follow bool) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if _, err := e.requireUser(ctx); err != nil {
		return fail(w, err)
	}

	verb := "Following"
	op := e.api.Follow
	if !follow {
		verb = "Unfollowed"
		op = e.api.Unfollow
	}
	if err := op(ctx, username); err != nil {
		return fail(w, e.session.Observe(err))
	}
	fmt.Fprintf(w, "%s @%s\n", verb, username)
	return exitOK
}

type profileView struct {
	Profile *client.Profile `json:"profile"`
	Tab     client.PostTab  `json:"tab"`
	Posts   []client.Post   `json:"posts"`
}

// runProfileShow loads the profile header and one posts tab in parallel
func runProfileShow(ctx context.Context, w io.Writer, username string, tab client.PostTab) int {
	switch tab {
	case client.TabPosts, client.TabPrivate, client.TabLiked:
	default:
		fmt.Fprintf(w, "Error: unknown tab %q (want posts, private or liked)\n", tab)
		return exitError
	}

	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	var viewer int64
	if username == "" || tab == client.TabPrivate {
		user, err := e.requireUser(ctx)
		if err != nil {
			return fail(w, err)
		}
		viewer = user.ID
		if username == "" {
			username = user.Username
		}
	}

	var view profileView
	view.Tab = tab
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := e.api.Profile(gctx, username)
		view.Profile = p
		return err
	})
	g.Go(func() error {
		posts, err := e.api.UserPosts(gctx, username, tab)
		view.Posts = posts
		return err
	})
	if err := g.Wait(); err != nil {
		return fail(w, e.session.Observe(err))
	}

	p := view.Profile
	return renderOrFail(w, view, func(w io.Writer) {
		fmt.Fprintf(w, "@%s", p.Username)
		if p.FullName != "" {
			fmt.Fprintf(w, " (%s)", p.FullName)
		}
		if p.IsFollowing {
			fmt.Fprint(w, " · following")
		}
		fmt.Fprintln(w)
		if p.Bio != "" {
			fmt.Fprintln(w, p.Bio)
		}
		fmt.Fprintf(w, "%s · %d following\n\n", plural(p.FollowerCount, "follower"), p.FollowingCount)
		writePosts(w, view.Posts, viewer)
	})
}

// runProfileUpdate applies the changed fields on top of the current profile
func runProfileUpdate(ctx context.Context, w io.Writer, opts profileUpdateOptions, changed map[string]bool) int {
	if len(changed) == 0 {
		fmt.Fprintln(w, "Error: nothing to update; pass at least one of --username, --full-name, --email, --bio, --avatar-url, --avatar-file")
		return exitError
	}
	if changed["avatar-url"] && changed["avatar-file"] {
		fmt.Fprintln(w, "Error: --avatar-url and --avatar-file cannot be used together")
		return exitError
	}

	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	me, err := e.requireUser(ctx)
	if err != nil {
		return fail(w, err)
	}

	update := client.ProfileUpdate{
		Username:  me.Username,
		FullName:  me.FullName,
		Email:     me.Email,
		Bio:       me.Bio,
		AvatarURL: me.AvatarURL,
	}
	if changed["username"] {
		update.Username = opts.username
	}
	if changed["full-name"] {
		update.FullName = opts.fullName
	}
	if changed["email"] {
		update.Email = opts.email
	}
	if changed["bio"] {
		update.Bio = opts.bio
	}
	if changed["avatar-url"] {
		update.AvatarURL = opts.avatarURL
	}
	if err := forms.Validate(update); err != nil {
		return fail(w, err)
	}
	if changed["avatar-file"] {
		avatarURL, err := uploadAvatar(ctx, e, opts.avatarFile)
		if err != nil {
			return fail(w, err)
		}
		update.AvatarURL = avatarURL
	}

	resp, err := e.api.UpdateProfile(ctx, update)
	if err != nil {
		return fail(w, e.session.Observe(err))
	}
	e.session.UpdateToken(resp.Token)

	user, err := e.session.RefetchUser(ctx)
	if err != nil {
		// the edit went through; only the confirmation read failed
		user = &resp.UserSummary
	}
	return renderOrFail(w, user, func(w io.Writer) {
		fmt.Fprintf(w, "Profile updated: %s\n", formatUser(*user))
	})
}

// uploadAvatar sends the image at path and returns the URL the backend stored it under
func uploadAvatar(ctx context.Context, e *env, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening avatar: %w", err)
	}
	defer f.Close()

	avatarURL, err := e.api.UploadAvatar(ctx, f, filepath.Base(path))
	if err != nil {
		return "", e.session.Observe(err)
	}
	return avatarURL, nil
}

// runProfilePassword changes the signed-in user's password
func runProfilePassword(ctx context.Context, w io.Writer, opts passwordOptions) int {
	change := client.PasswordChange{
		CurrentPassword:      opts.current,
		NewPassword:          opts.next,
		ConfirmationPassword: opts.confirm,
	}
	if err := forms.Validate(change); err != nil {
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

	if err := e.api.ChangePassword(ctx, change); err != nil {
		return fail(w, e.session.Observe(err))
	}
	fmt.Fprintln(w, "Password changed")
	return exitOK
}
