// ABOUTME: Tests for login, register, logout and whoami
// ABOUTME: Runs the commands against the in-memory backend and checks the stored token

package cmd

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/markalston/wishlist-cli/internal/apitest"
	"github.com/markalston/wishlist-cli/internal/session"
)

func TestLogin_Success(t *testing.T) {
	srv := apitest.NewServer(t)
	cfgDir := setupEnv(t, srv, "")

	var buf bytes.Buffer
	code := runLogin(context.Background(), &buf, strings.NewReader(""), loginOptions{
		email:    "alice@example.com",
		password: apitest.AlicePassword,
	})
	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Logged in as @alice") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if storedToken(cfgDir) == "" {
		t.Error("expected token to be stored")
	}
}

func TestLogin_PasswordStdin(t *testing.T) {
	srv := apitest.NewServer(t)
	cfgDir := setupEnv(t, srv, "")

	var buf bytes.Buffer
	code := runLogin(context.Background(), &buf, strings.NewReader(apitest.AlicePassword+"\n"), loginOptions{
		email:         "alice@example.com",
		passwordStdin: true,
	})
	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if storedToken(cfgDir) == "" {
		t.Error("expected token to be stored")
	}
}

func TestLogin_BadCredentialsKeepsPreviousSession(t *testing.T) {
	srv := apitest.NewServer(t)
	prev := srv.TokenFor(apitest.AdminID)
	cfgDir := setupEnv(t, srv, prev)

	var buf bytes.Buffer
	code := runLogin(context.Background(), &buf, strings.NewReader(""), loginOptions{
		email:    "alice@example.com",
		password: "wrong-password",
	})
	if code != exitFailed {
		t.Errorf("expected exit code 1, got %d: %s", code, buf.String())
	}
	if got := storedToken(cfgDir); got != prev {
		t.Errorf("expected previous token %q to survive, got %q", prev, got)
	}
}

func TestLogin_InvalidInputSkipsBackend(t *testing.T) {
	srv := apitest.NewServer(t)
	setupEnv(t, srv, "")

	var buf bytes.Buffer
	code := runLogin(context.Background(), &buf, strings.NewReader(""), loginOptions{email: "not-an-email"})
	if code != exitError {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(buf.String(), "email") || !strings.Contains(buf.String(), "password") {
		t.Errorf("expected both fields reported, got %q", buf.String())
	}
	if calls := srv.Calls(apitest.RouteLogin); len(calls) != 0 {
		t.Errorf("expected no login request, got %d", len(calls))
	}
}

func TestRegister(t *testing.T) {
	srv := apitest.NewServer(t)
	cfgDir := setupEnv(t, srv, "")

	var buf bytes.Buffer
	code := runRegister(context.Background(), &buf, strings.NewReader(""), registerOptions{
		username: "carol",
		fullName: "Carol C",
		email:    "carol@example.com",
		password: "secret1",
	})
	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Welcome, @carol") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if storedToken(cfgDir) == "" {
		t.Error("expected token to be stored")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	srv := apitest.NewServer(t)
	cfgDir := setupEnv(t, srv, "")

	var buf bytes.Buffer
	code := runRegister(context.Background(), &buf, strings.NewReader(""), registerOptions{
		username: "alice",
		fullName: "Another Alice",
		email:    "other@example.com",
		password: "secret1",
	})
	if code != exitFailed {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(buf.String(), "username") {
		t.Errorf("expected username field error, got %q", buf.String())
	}
	if storedToken(cfgDir) != "" {
		t.Error("expected no token after failed register")
	}
}

func TestLogout(t *testing.T) {
	srv := apitest.NewServer(t)
	cfgDir := setupEnv(t, srv, srv.TokenFor(apitest.AliceID))

	var buf bytes.Buffer
	if code := runLogout(&buf); code != exitOK {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if storedToken(cfgDir) != "" {
		t.Error("expected token to be cleared")
	}
}

func TestWhoami(t *testing.T) {
	tests := []struct {
		name      string
		token     func(*apitest.Server) string
		wantCode  int
		wantOut   string
		wantToken bool
	}{
		{
			name:      "signed in",
			token:     func(s *apitest.Server) string { return s.TokenFor(apitest.AdminID) },
			wantCode:  exitOK,
			wantOut:   "@admin (Site Admin) [admin]",
			wantToken: true,
		},
		{
			name:     "no token",
			token:    func(*apitest.Server) string { return "" },
			wantCode: exitError,
			wantOut:  "not logged in",
		},
		{
			name: "revoked token",
			token: func(s *apitest.Server) string {
				tok := s.TokenFor(apitest.AliceID)
				s.Revoke(tok)
				return tok
			},
			wantCode: exitError,
			wantOut:  "not logged in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := apitest.NewServer(t)
			cfgDir := setupEnv(t, srv, tt.token(srv))

			var buf bytes.Buffer
			if code := runWhoami(context.Background(), &buf); code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
			if !strings.Contains(buf.String(), tt.wantOut) {
				t.Errorf("expected %q in output, got %q", tt.wantOut, buf.String())
			}
			if has := storedToken(cfgDir) != ""; has != tt.wantToken {
				t.Errorf("token stored = %v, want %v", has, tt.wantToken)
			}
		})
	}
}

func TestOAuthCallback(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantToken string
		wantCode  int
	}{
		{"token", "?token=abc", "abc", http.StatusOK},
		{"missing token", "", "", http.StatusBadRequest},
		{"provider error", "?error=access_denied", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, err := newOAuthCallback("127.0.0.1:0")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer cb.Close()

			resp, err := http.Get(cb.RedirectURL() + tt.query)
			if err != nil {
				t.Fatalf("callback request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, resp.StatusCode)
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			token, err := cb.Wait(ctx)
			if token != tt.wantToken {
				t.Errorf("expected token %q, got %q", tt.wantToken, token)
			}
			if tt.wantToken == "" && !errors.Is(err, session.ErrNoToken) {
				t.Errorf("expected ErrNoToken, got %v", err)
			}
		})
	}
}

func TestOAuthCallback_WaitTimesOut(t *testing.T) {
	cb, err := newOAuthCallback("127.0.0.1:0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := cb.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

// syncBuffer lets the test read command output while the command is still running
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLogin_OAuth(t *testing.T) {
	srv := apitest.NewServer(t)
	cfgDir := setupEnv(t, srv, "")
	token := srv.TokenFor(apitest.AliceID)

	// reserve a free port for the callback listener
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			resp, err := http.Get("http://" + addr + oauthRedirectPath + "?token=" + token)
			if err == nil {
				resp.Body.Close()
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	var out syncBuffer
	code := runLogin(context.Background(), &out, strings.NewReader(""), loginOptions{
		oauth:        true,
		callbackAddr: addr,
		oauthTimeout: 5 * time.Second,
	})
	if code != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", code, out.String())
	}
	if !strings.Contains(out.String(), "/oauth2/authorization/google?redirect_uri=") {
		t.Errorf("expected provider URL in output, got %q", out.String())
	}
	if got := storedToken(cfgDir); got != token {
		t.Errorf("expected stored token %q, got %q", token, got)
	}
}
