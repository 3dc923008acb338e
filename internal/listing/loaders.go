// ABOUTME: Loader adapters binding list controllers to API endpoints
// ABOUTME: One constructor per paged endpoint

package listing

import (
	"context"

	"github.com/markalston/wishlist-cli/internal/client"
)

// AdminUsersLoader loads GET /api/admin/users
func AdminUsersLoader(api *client.Client) Loader[client.UserSummary] {
	return func(ctx context.Context, q Query) (*client.Page[client.UserSummary], error) {
		return api.AdminUsers(ctx, q.Params())
	}
}

// AdminPostsLoader loads GET /api/admin/posts
func AdminPostsLoader(api *client.Client) Loader[client.Post] {
	return func(ctx context.Context, q Query) (*client.Page[client.Post], error) {
		return api.AdminPosts(ctx, q.Params())
	}
}

// SearchLoader loads GET /api/users/search
func SearchLoader(api *client.Client) Loader[client.UserSummary] {
	return func(ctx context.Context, q Query) (*client.Page[client.UserSummary], error) {
		return api.SearchUsers(ctx, q.Params())
	}
}

// ExploreLoader loads GET /api/posts/explore
func ExploreLoader(api *client.Client) Loader[client.Post] {
	return func(ctx context.Context, q Query) (*client.Page[client.Post], error) {
		return api.Explore(ctx, q.Params())
	}
}
