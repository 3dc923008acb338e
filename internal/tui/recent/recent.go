// ABOUTME: Remembers recent user searches for the TUI search screen
// ABOUTME: Stores the list as JSON next to the CLI config

package recent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// MaxSearches is the maximum number of queries kept
const MaxSearches = 5

// Searches manages the recent query list
type Searches struct {
	configDir string
	queries   []string
}

type recentData struct {
	Queries []string `json:"queries"`
}

// New creates a Searches manager backed by configDir
func New(configDir string) *Searches {
	return &Searches{configDir: configDir}
}

func (s *Searches) file() string {
	return filepath.Join(s.configDir, "recent_searches.json")
}

// Load reads the list from disk. A missing or corrupt file yields an empty list.
func (s *Searches) Load() ([]string, error) {
	data, err := os.ReadFile(s.file())
	if os.IsNotExist(err) {
		s.queries = []string{}
		return s.queries, nil
	}
	if err != nil {
		return nil, err
	}

	var recent recentData
	if err := json.Unmarshal(data, &recent); err != nil {
		s.queries = []string{}
		return s.queries, nil
	}

	s.queries = make([]string, 0, len(recent.Queries))
	for _, q := range recent.Queries {
		if q = strings.TrimSpace(q); q != "" {
			s.queries = append(s.queries, q)
		}
	}
	return s.queries, nil
}

// Save writes queries to disk, keeping at most MaxSearches
func (s *Searches) Save(queries []string) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return err
	}
	if len(queries) > MaxSearches {
		queries = queries[:MaxSearches]
	}
	s.queries = queries

	data, err := json.MarshalIndent(recentData{Queries: queries}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.file(), data, 0600)
}

// Add moves query to the front of the list. Blank queries are ignored and
// duplicates are matched case-insensitively.
func (s *Searches) Add(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if s.queries == nil {
		if _, err := s.Load(); err != nil {
			s.queries = []string{}
		}
	}

	next := make([]string, 0, len(s.queries)+1)
	next = append(next, query)
	for _, q := range s.queries {
		if !strings.EqualFold(q, query) {
			next = append(next, q)
		}
	}
	return s.Save(next)
}

// List returns the current list, loading it on first use
func (s *Searches) List() []string {
	if s.queries == nil {
		s.Load()
	}
	return s.queries
}
