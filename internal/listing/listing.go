// ABOUTME: Paged, sorted, filtered list controller with last-request-wins loading
// ABOUTME: Drives the admin tables and search results; filter changes are debounced

package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/markalston/wishlist-cli/internal/client"
	"github.com/markalston/wishlist-cli/internal/debounce"
)

// ErrStale is returned by Load when a newer request was issued before this one finished.
// The result was discarded.
var ErrStale = errors.New("stale response discarded")

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Flip returns the opposite direction
func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// Sort is a field and direction, encoded as "field,direction"
type Sort struct {
	Field     string
	Direction Direction
}

// String encodes the sort for the sort= query parameter
func (s Sort) String() string {
	if s.Field == "" {
		return ""
	}
	return s.Field + "," + string(s.Direction)
}

// ParseSort decodes "field,direction". A missing direction means ascending.
func ParseSort(raw string) (Sort, error) {
	field, dir, _ := strings.Cut(raw, ",")
	field = strings.TrimSpace(field)
	if field == "" {
		return Sort{}, fmt.Errorf("invalid sort %q: missing field", raw)
	}
	switch Direction(strings.ToLower(strings.TrimSpace(dir))) {
	case "", Asc:
		return Sort{Field: field, Direction: Asc}, nil
	case Desc:
		return Sort{Field: field, Direction: Desc}, nil
	default:
		return Sort{}, fmt.Errorf("invalid sort %q: direction must be asc or desc", raw)
	}
}

// Query selects one page of a list
type Query struct {
	Page   int
	Size   int
	Sort   Sort
	Filter string
}

// Params converts the query to client list parameters
func (q Query) Params() client.ListParams {
	return client.ListParams{Page: q.Page, Size: q.Size, Sort: q.Sort.String(), Query: q.Filter}
}

// Loader fetches one page
type Loader[T any] func(ctx context.Context, q Query) (*client.Page[T], error)

// Config fixes the per-list defaults
type Config struct {
	Size int
	// DefaultSort is the sort before the user picks a column
	DefaultSort Sort
	// NewFieldDirection is applied when sorting switches to a different field
	NewFieldDirection Direction
	// Debounce is the quiet period for filter input
	Debounce time.Duration
}

// Per-screen defaults
var (
	AdminUsers = Config{
		Size:              10,
		DefaultSort:       Sort{Field: "id", Direction: Asc},
		NewFieldDirection: Asc,
		Debounce:          500 * time.Millisecond,
	}
	AdminPosts = Config{
		Size:              8,
		DefaultSort:       Sort{Field: "createdAt", Direction: Desc},
		NewFieldDirection: Desc,
		Debounce:          300 * time.Millisecond,
	}
	Search = Config{
		Size:     8,
		Debounce: 300 * time.Millisecond,
	}
	QuickSearch = Config{
		Size:     5,
		Debounce: 300 * time.Millisecond,
	}
)

// Controller keeps the query and last applied page of one list. Safe for
// concurrent use; loads may complete in any order but only the newest is applied.
type Controller[T any] struct {
	cfg  Config
	load Loader[T]

	mu      sync.Mutex
	query   Query
	page    *client.Page[T]
	loading bool
	err     error
	gate    debounce.Gate

	debouncer *debounce.Debouncer[string]
	queued    queuedLoad[T]
}

type queuedLoad[T any] struct {
	ctx     context.Context
	deliver func(*client.Page[T], error)
}

// NewController creates a controller starting at page 0 with the default sort
func NewController[T any](cfg Config, load Loader[T]) *Controller[T] {
	c := &Controller[T]{
		cfg:   cfg,
		load:  load,
		query: Query{Size: cfg.Size, Sort: cfg.DefaultSort},
	}
	c.debouncer = debounce.New(cfg.Debounce, c.fireQueued)
	return c
}

// Config returns the controller's defaults
func (c *Controller[T]) Config() Config {
	return c.cfg
}

// Query returns the current query
func (c *Controller[T]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Items returns the rows of the last applied page
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page == nil {
		return nil
	}
	return append([]T(nil), c.page.Content...)
}

// TotalPages returns the page count of the last applied page
func (c *Controller[T]) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page == nil {
		return 0
	}
	return c.page.TotalPages
}

// Loading reports whether a load is in flight
func (c *Controller[T]) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error of the last applied load
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// SetFilter replaces the filter and returns to the first page
func (c *Controller[T]) SetFilter(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Filter = q
	c.query.Page = 0
}

// ToggleSort flips the direction when field is already active, otherwise switches
// to field with the configured initial direction. Returns to the first page.
func (c *Controller[T]) ToggleSort(field string) Sort {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.query.Sort.Field == field {
		c.query.Sort.Direction = c.query.Sort.Direction.Flip()
	} else {
		dir := c.cfg.NewFieldDirection
		if dir == "" {
			dir = Asc
		}
		c.query.Sort = Sort{Field: field, Direction: dir}
	}
	c.query.Page = 0
	return c.query.Sort
}

// SetSort replaces the sort outright and returns to the first page
func (c *Controller[T]) SetSort(s Sort) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Sort = s
	c.query.Page = 0
}

// SetPage moves to page n. Pages beyond the known total are rejected once a page
// has been loaded.
func (c *Controller[T]) SetPage(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 0 {
		return false
	}
	if c.page != nil && c.page.TotalPages > 0 && n >= c.page.TotalPages {
		return false
	}
	c.query.Page = n
	return true
}

// NextPage advances one page if there is one
func (c *Controller[T]) NextPage() bool {
	return c.SetPage(c.Query().Page + 1)
}

// PrevPage goes back one page if not on the first
func (c *Controller[T]) PrevPage() bool {
	return c.SetPage(c.Query().Page - 1)
}

// Load fetches the page for the current query. If another Load starts before this
// one returns, this result is dropped and ErrStale is returned.
func (c *Controller[T]) Load(ctx context.Context) (*client.Page[T], error) {
	c.mu.Lock()
	gen := c.gate.Next()
	q := c.query
	c.loading = true
	c.mu.Unlock()

	page, err := c.load(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gate.Current(gen) {
		return nil, ErrStale
	}
	c.loading = false
	if err != nil {
		c.err = err
		return nil, err
	}
	c.err = nil
	c.page = page
	return page, nil
}

// QueueFilter applies the filter now and loads once input has been quiet for the
// configured delay. deliver receives the result unless a newer load superseded it.
func (c *Controller[T]) QueueFilter(ctx context.Context, q string, deliver func(*client.Page[T], error)) {
	c.SetFilter(q)

	c.mu.Lock()
	c.queued = queuedLoad[T]{ctx: ctx, deliver: deliver}
	c.mu.Unlock()

	c.debouncer.Trigger(q)
}

func (c *Controller[T]) fireQueued(_ uint64, _ string) {
	c.mu.Lock()
	queued := c.queued
	c.mu.Unlock()

	ctx := queued.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	page, err := c.Load(ctx)
	if errors.Is(err, ErrStale) {
		return
	}
	if queued.deliver != nil {
		queued.deliver(page, err)
	}
}

// CancelQueued drops any pending debounced load
func (c *Controller[T]) CancelQueued() {
	c.debouncer.Stop()
}

// Deleted reloads after a row was removed. When the removed row was the only one
// on a later page, the previous page is requested instead of an empty one.
func (c *Controller[T]) Deleted(ctx context.Context) (*client.Page[T], error) {
	c.mu.Lock()
	if c.page != nil && len(c.page.Content) == 1 && c.query.Page > 0 {
		c.query.Page--
	}
	c.mu.Unlock()

	return c.Load(ctx)
}

// Replace swaps the first row matching match for item. Returns false when no row matched.
func (c *Controller[T]) Replace(match func(T) bool, item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.page == nil {
		return false
	}
	for i, row := range c.page.Content {
		if match(row) {
			content := append([]T(nil), c.page.Content...)
			content[i] = item
			page := *c.page
			page.Content = content
			c.page = &page
			return true
		}
	}
	return false
}
