package catalog

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

// Searcher is the catalog search operation the browser depends on
type Searcher interface {
	Search(ctx context.Context, query string, page, pageSize int) (*Page, error)
}

// BrowseState is the product list as shown by the products view
type BrowseState struct {
	Query      string           `json:"query"`
	Items      []domain.Product `json:"items"`
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	Loading    bool             `json:"loading"`
	// Error is set after a failed fetch; the view offers a retry
	Error string `json:"error,omitempty"`
}

// Browser holds the paginated product list. Query changes are debounced and
// responses from superseded requests are dropped.
type Browser struct {
	mu         sync.Mutex
	searcher   Searcher
	pageSize   int
	debounce   time.Duration
	logger     *zap.Logger
	state      BrowseState
	generation uint64
	timer      *time.Timer
	closed     bool
}

// NewBrowser creates a browser with an empty query
func NewBrowser(searcher Searcher, pageSize int, debounce time.Duration, logger *zap.Logger) *Browser {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Browser{
		searcher: searcher,
		pageSize: pageSize,
		debounce: debounce,
		logger:   logger,
		state:    BrowseState{Items: []domain.Product{}, Page: 1, TotalPages: 1},
	}
}

// State returns a copy of the current list state
func (b *Browser) State() BrowseState {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.state
	s.Items = append(make([]domain.Product, 0, len(b.state.Items)), b.state.Items...)
	return s
}

// SetQuery schedules a reload of page 1 once the query has been stable for
// the debounce interval. The list reports Loading until then.
func (b *Browser) SetQuery(query string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.state.Query = query
	// the list is about to be replaced; LoadMore waits for page 1
	b.state.Loading = true
	b.generation++
	gen := b.generation

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.debounce, func() {
		b.fetch(context.Background(), gen, 1)
	})
}

// Refresh reloads page 1 for the current query
func (b *Browser) Refresh(ctx context.Context) BrowseState {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.generation++
	gen := b.generation
	b.mu.Unlock()

	b.fetch(ctx, gen, 1)
	return b.State()
}

// LoadMore appends the next page when there is one and no fetch is running.
// It reports whether a fetch was issued.
func (b *Browser) LoadMore(ctx context.Context) bool {
	b.mu.Lock()
	if b.state.Loading || b.state.Page >= b.state.TotalPages {
		b.mu.Unlock()
		return false
	}
	b.state.Loading = true
	gen := b.generation
	next := b.state.Page + 1
	b.mu.Unlock()

	b.fetch(ctx, gen, next)
	return true
}

// Close stops a pending debounced fetch
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
	}
}

func (b *Browser) fetch(ctx context.Context, gen uint64, page int) {
	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		return
	}
	query := b.state.Query
	b.state.Loading = true
	b.mu.Unlock()

	result, err := b.searcher.Search(ctx, query, page, b.pageSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.generation {
		b.logger.Debug("Discarding stale catalog response",
			zap.String("query", query),
			zap.Int("page", page),
		)
		return
	}

	b.state.Loading = false
	if err != nil {
		b.logger.Warn("Failed to load products", zap.Error(err), zap.String("query", query))
		b.state.Error = "Failed to load products."
		return
	}

	b.state.Error = ""
	b.state.Page = page
	b.state.TotalPages = result.TotalPages
	if page == 1 {
		b.state.Items = result.Items
	} else {
		b.state.Items = append(b.state.Items, result.Items...)
	}
}
