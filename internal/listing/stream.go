// ABOUTME: Append-only infinite scroll over a paged endpoint
// ABOUTME: Tracks a cursor and signals when the next page should be prefetched

package listing

import (
	"context"
	"sync"

	"github.com/markalston/wishlist-cli/internal/debounce"
)

// PrefetchWithin is how close to the end the cursor gets before the next page is fetched
const PrefetchWithin = 2

// ExploreSize is the page size of the explore stream
const ExploreSize = 5

// Stream accumulates pages in order. Safe for concurrent use.
type Stream[T any] struct {
	size int
	load Loader[T]

	mu      sync.Mutex
	items   []T
	next    int
	hasMore bool
	loading bool
	cursor  int
	err     error
	gate    debounce.Gate
}

// NewStream creates an empty stream that fetches size items per page
func NewStream[T any](size int, load Loader[T]) *Stream[T] {
	return &Stream[T]{size: size, load: load, hasMore: true}
}

// LoadMore appends the next page. It is a no-op while a load is in flight or once
// the last page has been seen.
func (s *Stream[T]) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.loading || !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	gen := s.gate.Next()
	q := Query{Page: s.next, Size: s.size}
	s.mu.Unlock()

	page, err := s.load(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.gate.Current(gen) {
		return ErrStale
	}
	s.loading = false
	if err != nil {
		s.err = err
		return err
	}
	s.err = nil
	s.items = append(s.items, page.Content...)
	s.next++
	s.hasMore = !page.Last && len(page.Content) > 0
	return nil
}

// Reset empties the stream; an in-flight load is discarded
func (s *Stream[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate.Next()
	s.items = nil
	s.next = 0
	s.hasMore = true
	s.loading = false
	s.cursor = 0
	s.err = nil
}

// Advance moves the cursor forward one item. It reports whether the caller should
// start LoadMore: the cursor is within PrefetchWithin of the end, more pages exist,
// and nothing is loading.
func (s *Stream[T]) Advance() (moved, prefetch bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor < len(s.items)-1 {
		s.cursor++
		moved = true
	}
	prefetch = s.hasMore && !s.loading && s.cursor >= len(s.items)-PrefetchWithin
	return moved, prefetch
}

// Back moves the cursor back one item
func (s *Stream[T]) Back() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == 0 {
		return false
	}
	s.cursor--
	return true
}

// Current returns the item under the cursor
func (s *Stream[T]) Current() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if s.cursor >= len(s.items) {
		return zero, false
	}
	return s.items[s.cursor], true
}

// Update rewrites the item at index i with fn
func (s *Stream[T]) Update(i int, fn func(T) T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.items) {
		return false
	}
	s.items[i] = fn(s.items[i])
	return true
}

// Cursor returns the cursor index
func (s *Stream[T]) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Items returns a copy of the loaded items
func (s *Stream[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.items...)
}

// HasMore reports whether another page may exist
func (s *Stream[T]) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Loading reports whether a page is being fetched
func (s *Stream[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error from the last LoadMore
func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
