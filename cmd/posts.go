// ABOUTME: Post commands for the wishlist CLI
// ABOUTME: feed, explore, like/unlike, and the post subcommands (show, create, visibility, delete, comments)

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/forms"
	"github.com/markalston/wishlist-cli/internal/listing"
	"github.com/markalston/wishlist-cli/internal/optimistic"
	"github.com/spf13/cobra"
)

type createOptions struct {
	title       string
	description string
	private     bool
}

var (
	explorePages int
	createOpts   createOptions
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show posts from you and the people you follow",
	Run: func(cmd *cobra.Command, args []string) {
		run(runFeed)
	},
}

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse public posts from everyone",
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runExplore(ctx, w, explorePages)
		})
	},
}

var likeCmd = &cobra.Command{
	Use:   "like <postId>",
	Short: "Like a post",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runSetLike(ctx, w, args[0], true)
		})
	},
}

var unlikeCmd = &cobra.Command{
	Use:   "unlike <postId>",
	Short: "Remove your like from a post",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runSetLike(ctx, w, args[0], false)
		})
	},
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Show, create and manage posts",
}

var postShowCmd = &cobra.Command{
	Use:   "show <postId>",
	Short: "Show a post with its comments",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runPostShow(ctx, w, args[0])
		})
	},
}

var postCreateCmd = &cobra.Command{
	Use:   "create <itemUrl>",
	Short: "Share an item from a shop URL",
	Long: `Share an item. The backend reads the shop page to fill in the title, image,
brand and price; --title overrides the scraped title.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runPostCreate(ctx, w, args[0], createOpts)
		})
	},
}

var postVisibilityCmd = &cobra.Command{
	Use:   "visibility <postId> <public|private>",
	Short: "Make one of your posts public or private",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runPostVisibility(ctx, w, args[0], args[1])
		})
	},
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete <postId>",
	Short: "Delete one of your posts",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runPostDelete(ctx, w, args[0])
		})
	},
}

var postCommentCmd = &cobra.Command{
	Use:   "comment <postId> <text>",
	Short: "Comment on a post",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		run(func(ctx context.Context, w io.Writer) int {
			return runPostComment(ctx, w, args[0], args[1])
		})
	},
}

func init() {
	rootCmd.AddCommand(feedCmd, exploreCmd, likeCmd, unlikeCmd, postCmd)
	postCmd.AddCommand(postShowCmd, postCreateCmd, postVisibilityCmd, postDeleteCmd, postCommentCmd)

	exploreCmd.Flags().IntVar(&explorePages, "pages", 1, "Number of pages to load")

	postCreateCmd.Flags().StringVar(&createOpts.title, "title", "", "Title (defaults to the scraped title)")
	postCreateCmd.Flags().StringVar(&createOpts.description, "description", "", "Description")
	postCreateCmd.Flags().BoolVar(&createOpts.private, "private", false, "Only you can see the post")
}

// parseID parses a positive numeric ID argument
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// runFeed prints the signed-in user's feed
func runFeed(ctx context.Context, w io.Writer) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	user, err := e.requireUser(ctx)
	if err != nil {
		return fail(w, err)
	}

	posts, err := e.api.Feed(ctx)
	if err != nil {
		return fail(w, e.session.Observe(err))
	}
	return renderOrFail(w, posts, func(w io.Writer) {
		writePosts(w, posts, user.ID)
	})
}

// runExplore loads up to pages pages of public posts through the explore stream
func runExplore(ctx context.Context, w io.Writer, pages int) int {
	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if pages < 1 {
		fmt.Fprintln(w, "Error: --pages must be at least 1")
		return exitError
	}

	var viewer int64
	if _, ok := e.store.Get(); ok {
		if user, err := e.requireUser(ctx); err == nil {
			viewer = user.ID
		}
	}

	stream := listing.NewStream(listing.ExploreSize, listing.ExploreLoader(e.api))
	for i := 0; i < pages && stream.HasMore(); i++ {
		if err := stream.LoadMore(ctx); err != nil {
			return fail(w, err)
		}
	}

	posts := stream.Items()
	return renderOrFail(w, posts, func(w io.Writer) {
		writePosts(w, posts, viewer)
		if stream.HasMore() {
			fmt.Fprintf(w, "\nMore posts available: use --pages %d\n", pages+1)
		}
	})
}

type likeResult struct {
	PostID int64 `json:"postId"`
	Liked  bool  `json:"liked"`
	Likes  int   `json:"likes"`
}

// runSetLike likes or unlikes a post. The toggle starts from the post's current
// state, so liking an already-liked post is a no-op.
func runSetLike(ctx context.Context, w io.Writer, rawID string, like bool) int {
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
	user, err := e.requireUser(ctx)
	if err != nil {
		return fail(w, err)
	}

	post, err := e.api.Post(ctx, id)
	if err != nil {
		return fail(w, e.session.Observe(err))
	}

	toggle := optimistic.NewToggle(optimistic.State{On: post.LikedBy(user.ID), Count: len(post.LikeList)})
	state := toggle.State()
	if state.On != like {
		res := <-toggle.Do(ctx,
			func(ctx context.Context) error { return e.api.Like(ctx, id) },
			func(ctx context.Context) error { return e.api.Unlike(ctx, id) },
		)
		if res.Err != nil {
			return fail(w, e.session.Observe(res.Err))
		}
		state = res.State
	}

	out := likeResult{PostID: id, Liked: state.On, Likes: state.Count}
	return renderOrFail(w, out, func(w io.Writer) {
		verb := "Unliked"
		if out.Liked {
			verb = "Liked"
		}
		fmt.Fprintf(w, "%s #%d (%s)\n", verb, id, plural(out.Likes, "like"))
	})
}

type postDetail struct {
	Post     *client.Post     `json:"post"`
	Comments []client.Comment `json:"comments"`
}

// runPostShow prints one post and its comments
func runPostShow(ctx context.Context, w io.Writer, rawID string) int {
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

	post, err := e.api.Post(ctx, id)
	if err != nil {
		return fail(w, e.session.Observe(err))
	}
	comments, err := e.api.Comments(ctx, id)
	if err != nil {
		return fail(w, e.session.Observe(err))
	}

	return renderOrFail(w, postDetail{Post: post, Comments: comments}, func(w io.Writer) {
		fmt.Fprintln(w, formatPost(*post, 0))
		if post.Description != "" {
			fmt.Fprintf(w, "\n%s\n", post.Description)
		}
		if len(comments) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s:\n", plural(len(comments), "comment"))
		for _, c := range comments {
			fmt.Fprintf(w, "  @%s (%s): %s\n", c.User.Username, since(c.CreatedAt), c.Text)
		}
	})
}

// runPostCreate prepares the item from its URL and publishes it
func runPostCreate(ctx context.Context, w io.Writer, itemURL string, opts createOptions) int {
	req := client.PrepareRequest{ItemURL: itemURL}
	if err := forms.Validate(req); err != nil {
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

	prepared, err := e.api.PreparePost(ctx, req)
	if err != nil {
		return fail(w, e.session.Observe(err))
	}
	if opts.title != "" {
		prepared.Title = opts.title
	}

	post, err := e.api.CreatePost(ctx, client.NewPost{
		PreparedPost: *prepared,
		Description:  opts.description,
		IsPrivate:    opts.private,
	})
	if err != nil {
		return fail(w, e.session.Observe(err))
	}
	return renderOrFail(w, post, func(w io.Writer) {
		fmt.Fprintf(w, "Created post #%d: %s\n", post.ID, post.Title)
	})
}

// runPostVisibility switches a post between public and private
func runPostVisibility(ctx context.Context, w io.Writer, rawID, visibility string) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	var private bool
	switch visibility {
	case "private":
		private = true
	case "public":
	default:
		fmt.Fprintf(w, "Error: visibility must be public or private, got %q\n", visibility)
		return exitError
	}

	e, err := loadEnv()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if _, err := e.requireUser(ctx); err != nil {
		return fail(w, err)
	}

	if err := e.api.SetVisibility(ctx, id, private); err != nil {
		return fail(w, e.session.Observe(err))
	}
	fmt.Fprintf(w, "Post #%d is now %s\n", id, visibility)
	return exitOK
}

// runPostDelete deletes one of the signed-in user's posts
func runPostDelete(ctx context.Context, w io.Writer, rawID string) int {
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
	if _, err := e.requireUser(ctx); err != nil {
		return fail(w, err)
	}

	if err := e.api.DeletePost(ctx, id); err != nil {
		return fail(w, e.session.Observe(err))
	}
	fmt.Fprintf(w, "Deleted post #%d\n", id)
	return exitOK
}

// runPostComment adds a comment to a post
func runPostComment(ctx context.Context, w io.Writer, rawID, text string) int {
	id, err := parseID(rawID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	comment := client.NewComment{PostID: id, Text: text}
	if err := forms.Validate(comment); err != nil {
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

	if err := e.api.AddComment(ctx, comment); err != nil {
		return fail(w, e.session.Observe(err))
	}
	fmt.Fprintf(w, "Commented on #%d\n", id)
	return exitOK
}
