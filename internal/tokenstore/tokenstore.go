// ABOUTME: Persists the bearer token between CLI and TUI runs
// ABOUTME: Stores a single token slot as JSON in the XDG config directory

package tokenstore

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// tokenKey is the fixed key the token is stored under
const tokenKey = "token"

// Store is a single process-wide slot for the bearer token.
// Only the session manager writes to it.
type Store interface {
	Get() (string, bool)
	Set(token string)
	Clear()
}

// FileStore keeps the token in <configDir>/session.json
type FileStore struct {
	configDir string
	mu        sync.Mutex
}

// New creates a FileStore rooted at configDir
func New(configDir string) *FileStore {
	return &FileStore{configDir: configDir}
}

// Path returns the path to the session file
func (fs *FileStore) Path() string {
	return filepath.Join(fs.configDir, "session.json")
}

// Get reads the persisted token. A missing or unreadable file means no token.
func (fs *FileStore) Get() (string, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.read()
	if err != nil {
		return "", false
	}
	token := data[tokenKey]
	return token, token != ""
}

// Set persists the token, replacing any previous value
func (fs *FileStore) Set(token string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.read()
	if err != nil {
		data = map[string]string{}
	}
	data[tokenKey] = token
	fs.write(data)
}

// Clear removes the token
func (fs *FileStore) Clear() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.read()
	if err != nil {
		return
	}
	delete(data, tokenKey)
	fs.write(data)
}

func (fs *FileStore) read() (map[string]string, error) {
	raw, err := os.ReadFile(fs.Path())
	if err != nil {
		return nil, err
	}

	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		// Corrupt file, start fresh
		slog.Debug("Ignoring unreadable session file", "path", fs.Path(), "error", err)
		return map[string]string{}, nil
	}
	if data == nil {
		data = map[string]string{}
	}
	return data, nil
}

// write saves the file. Failures are logged and otherwise ignored.
func (fs *FileStore) write(data map[string]string) {
	if err := os.MkdirAll(fs.configDir, 0700); err != nil {
		slog.Debug("Cannot create config directory", "dir", fs.configDir, "error", err)
		return
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return
	}

	if err := os.WriteFile(fs.Path(), raw, 0600); err != nil {
		slog.Debug("Cannot write session file", "path", fs.Path(), "error", err)
	}
}

// MemoryStore keeps the token in memory only
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemory creates a MemoryStore, optionally seeded with a token
func NewMemory(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

// Get implements Store
func (ms *MemoryStore) Get() (string, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.token, ms.token != ""
}

// Set implements Store
func (ms *MemoryStore) Set(token string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.token = token
}

// Clear implements Store
func (ms *MemoryStore) Clear() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.token = ""
}
