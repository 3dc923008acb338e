// ABOUTME: Loopback listener that completes an OAuth2 browser login
// ABOUTME: Waits for the backend to redirect to /oauth2/redirect?token=...

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/markalston/wishlist-cli/internal/session"
)

// oauthRedirectPath is where the backend sends the browser after a provider login
const oauthRedirectPath = "/oauth2/redirect"

type callbackResult struct {
	token string
	err   error
}

// oauthCallback serves the redirect target on a loopback listener
type oauthCallback struct {
	listener net.Listener
	server   *http.Server
	results  chan callbackResult
}

// newOAuthCallback binds addr (use "127.0.0.1:0" for any free port) and starts serving
func newOAuthCallback(addr string) (*oauthCallback, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	cb := &oauthCallback{
		listener: ln,
		results:  make(chan callbackResult, 1),
	}

	r := mux.NewRouter()
	r.HandleFunc(oauthRedirectPath, cb.handleRedirect).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	cb.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := cb.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("OAuth callback server stopped", "error", err)
		}
	}()
	return cb, nil
}

// RedirectURL is the URL the backend must redirect to
func (cb *oauthCallback) RedirectURL() string {
	return "http://" + cb.listener.Addr().String() + oauthRedirectPath
}

func (cb *oauthCallback) handleRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("token")

	res := callbackResult{token: token}
	if token == "" {
		res.err = session.ErrNoToken
		if reason := q.Get("error"); reason != "" {
			res.err = fmt.Errorf("%w (%s)", session.ErrNoToken, reason)
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintln(w, "Login failed. You can close this window and try again.")
	} else {
		fmt.Fprintln(w, "Login complete. You can close this window and return to the terminal.")
	}

	select {
	case cb.results <- res:
	default:
		// a second redirect after the first is ignored
	}
}

// Wait blocks until the first redirect arrives or ctx ends
func (cb *oauthCallback) Wait(ctx context.Context) (string, error) {
	select {
	case res := <-cb.results:
		return res.token, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for OAuth redirect: %w", ctx.Err())
	}
}

// Close stops the listener
func (cb *oauthCallback) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = cb.server.Shutdown(ctx)
}
