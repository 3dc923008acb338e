// ABOUTME: Tests for the recent searches store
// ABOUTME: Validates persistence, the size limit and move-to-front deduplication

package recent

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmpty(t *testing.T) {
	s := New(t.TempDir())

	queries, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(queries) != 0 {
		t.Errorf("expected empty list, got %v", queries)
	}
}

func TestAddMoveToFront(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	s.Add("alice")
	s.Add("bob")
	s.Add("  ALICE ")

	queries, _ := New(dir).Load()
	if len(queries) != 2 {
		t.Fatalf("expected 2 queries, got %v", queries)
	}
	if queries[0] != "ALICE" || queries[1] != "bob" {
		t.Errorf("unexpected order %v", queries)
	}
}

func TestAddIgnoresBlank(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	if err := s.Add("   "); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "recent_searches.json")); !os.IsNotExist(err) {
		t.Error("expected nothing written for a blank query")
	}
}

func TestMaxLimit(t *testing.T) {
	s := New(t.TempDir())
	for i := 1; i <= 7; i++ {
		s.Add(fmt.Sprintf("user%d", i))
	}

	queries := s.List()
	if len(queries) != MaxSearches {
		t.Errorf("expected %d queries max, got %d", MaxSearches, len(queries))
	}
	if queries[0] != "user7" {
		t.Errorf("expected user7 first, got %s", queries[0])
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "recent_searches.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	queries, err := New(dir).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(queries) != 0 {
		t.Errorf("expected corrupt file to read as empty, got %v", queries)
	}
}

func TestCreatesConfigDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wishlist")
	New(dir).Add("alice")

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("config dir should have been created: %v", err)
	}
}
