package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSearcher returns totalPages pages of one product each. Queries listed in
// block wait until release is closed.
type fakeSearcher struct {
	mu         sync.Mutex
	calls      []string
	totalPages int
	fail       bool
	block      map[string]chan struct{}
}

func (f *fakeSearcher) Search(ctx context.Context, query string, page, pageSize int) (*Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf("%s#%d", query, page))
	wait := f.block[query]
	fail := f.fail
	f.mu.Unlock()

	if wait != nil {
		<-wait
	}
	if fail {
		return nil, ErrFetchFailed
	}
	return &Page{
		Items:      []domain.Product{{ID: fmt.Sprintf("%s-%d", query, page), Name: query}},
		Page:       page,
		TotalPages: f.totalPages,
	}, nil
}

func (f *fakeSearcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestBrowserDebouncesQueryChanges(t *testing.T) {
	searcher := &fakeSearcher{totalPages: 1}
	browser := NewBrowser(searcher, 10, 30*time.Millisecond, zap.NewNop())
	defer browser.Close()

	browser.SetQuery("i")
	browser.SetQuery("ip")
	browser.SetQuery("iph")

	require.Eventually(t, func() bool {
		return len(browser.State().Items) == 1
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, []string{"iph#1"}, searcher.Calls())
	require.Equal(t, "iph-1", browser.State().Items[0].ID)
}

func TestBrowserLoadMoreStopsAtLastPage(t *testing.T) {
	searcher := &fakeSearcher{totalPages: 2}
	browser := NewBrowser(searcher, 10, time.Millisecond, zap.NewNop())
	defer browser.Close()

	state := browser.Refresh(context.Background())
	require.Len(t, state.Items, 1)
	require.Equal(t, 2, state.TotalPages)

	require.True(t, browser.LoadMore(context.Background()))
	state = browser.State()
	require.Equal(t, 2, state.Page)
	require.Len(t, state.Items, 2)

	require.False(t, browser.LoadMore(context.Background()))
	require.Len(t, searcher.Calls(), 2)
}

func TestBrowserDiscardsStaleResponses(t *testing.T) {
	release := make(chan struct{})
	searcher := &fakeSearcher{totalPages: 1, block: map[string]chan struct{}{"old": release}}
	browser := NewBrowser(searcher, 10, time.Millisecond, zap.NewNop())
	defer browser.Close()

	browser.SetQuery("old")
	require.Eventually(t, func() bool {
		return len(searcher.Calls()) == 1
	}, time.Second, time.Millisecond)

	// newer query completes while the old request is still in flight
	browser.SetQuery("new")
	require.Eventually(t, func() bool {
		items := browser.State().Items
		return len(items) == 1 && items[0].ID == "new-1"
	}, time.Second, time.Millisecond)

	close(release)
	require.Eventually(t, func() bool {
		return len(searcher.Calls()) == 2
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	state := browser.State()
	require.Equal(t, "new", state.Query)
	require.Equal(t, "new-1", state.Items[0].ID)
}

func TestBrowserReportsFailureForRetry(t *testing.T) {
	searcher := &fakeSearcher{totalPages: 1, fail: true}
	browser := NewBrowser(searcher, 10, time.Millisecond, zap.NewNop())
	defer browser.Close()

	state := browser.Refresh(context.Background())
	require.NotEmpty(t, state.Error)
	require.False(t, state.Loading)

	searcher.mu.Lock()
	searcher.fail = false
	searcher.mu.Unlock()

	state = browser.Refresh(context.Background())
	require.Empty(t, state.Error)
	require.Len(t, state.Items, 1)
}

func TestBrowserLoadMoreRunsOnce(t *testing.T) {
	searcher := &fakeSearcher{totalPages: 3}
	browser := NewBrowser(searcher, 10, time.Millisecond, zap.NewNop())
	defer browser.Close()

	browser.Refresh(context.Background())

	release := make(chan struct{})
	searcher.mu.Lock()
	searcher.block = map[string]chan struct{}{"": release}
	searcher.mu.Unlock()

	done := make(chan bool, 1)
	go func() { done <- browser.LoadMore(context.Background()) }()
	require.Eventually(t, func() bool {
		return len(searcher.Calls()) == 2
	}, time.Second, time.Millisecond)

	// a second press while page 2 is loading is dropped
	require.False(t, browser.LoadMore(context.Background()))
	require.True(t, browser.State().Loading)

	close(release)
	require.True(t, <-done)

	state := browser.State()
	require.Equal(t, 2, state.Page)
	require.Equal(t, []string{"-1", "-2"}, []string{state.Items[0].ID, state.Items[1].ID})
	require.Equal(t, []string{"#1", "#2"}, searcher.Calls())
}

func TestBrowserLoadMoreWaitsForPendingQuery(t *testing.T) {
	searcher := &fakeSearcher{totalPages: 3}
	browser := NewBrowser(searcher, 10, time.Hour, zap.NewNop())
	defer browser.Close()

	browser.Refresh(context.Background())
	browser.SetQuery("galaxy")

	require.False(t, browser.LoadMore(context.Background()))
	state := browser.State()
	require.True(t, state.Loading)
	require.Equal(t, 1, state.Page)
	require.Equal(t, []string{"#1"}, searcher.Calls())

	// refresh loads page 1 of the new query right away
	state = browser.Refresh(context.Background())
	require.False(t, state.Loading)
	require.Equal(t, "galaxy-1", state.Items[0].ID)
}
