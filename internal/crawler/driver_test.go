package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/nao1215/nyaacache/internal/database"
	"github.com/nao1215/nyaacache/internal/model"
)

const testBaseURL = "https://nyaa.test"

// fakeFetcher serves canned pages keyed by URL.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fail  map[string]error
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]string),
		fail:  make(map[string]error),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, pageURL)
	if err, ok := f.fail[pageURL]; ok {
		return nil, err
	}
	page, ok := f.pages[pageURL]
	if !ok {
		return nil, &ConnectivityError{URL: pageURL, StatusCode: 404}
	}
	return []byte(page), nil
}

func (f *fakeFetcher) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func setupDriver(t *testing.T, fetcher Fetcher, opts ...DriverOption) (*Driver, *database.CacheDB) {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	site := testSite(testBaseURL)
	parser, err := NewParser(site)
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	opts = append([]DriverOption{WithDriverLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewDriver(db, fetcher, parser, site, opts...), db
}

func resultIDs(r *Result) []int64 {
	ids := make([]int64, 0, len(r.Torrents))
	for _, t := range r.Torrents {
		ids = append(ids, t.ID)
	}
	return ids
}

// TestDriver tests the crawl loop against a fake site.
func TestDriver(t *testing.T) {
	t.Parallel()

	page1 := testBaseURL + "/?q=frieren"
	page2 := testBaseURL + "/?q=frieren&p=2"

	t.Run("first crawl follows every page", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.pages[page1] = listingPage("/?q=frieren&p=2", 6, 5)
		fetcher.pages[page2] = listingPage("", 4, 3)

		driver, _ := setupDriver(t, fetcher)
		result, err := driver.Run(context.Background(), "frieren")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if ids := resultIDs(result); !slices.Equal(ids, []int64{6, 5, 4, 3}) {
			t.Errorf("torrents = %v, want [6 5 4 3]", ids)
		}
		if result.Pages != 2 || result.NewTorrents != 4 {
			t.Errorf("Pages = %d NewTorrents = %d, want 2 and 4", result.Pages, result.NewTorrents)
		}
		if !slices.Equal(result.Columns, model.TorrentColumns) {
			t.Errorf("Columns = %v", result.Columns)
		}
	})

	t.Run("second crawl stops at the watermark", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.pages[page1] = listingPage("/?q=frieren&p=2", 6, 5)
		fetcher.pages[page2] = listingPage("", 4, 3)

		driver, _ := setupDriver(t, fetcher)
		first, err := driver.Run(context.Background(), "frieren")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		// Two new uploads push 6 and 5 down the first page.
		fetcher.pages[page1] = listingPage("/?q=frieren&p=2", 8, 7, 6, 5)
		fetcher.reset()

		second, err := driver.Run(context.Background(), "frieren")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if second.QueryID != first.QueryID {
			t.Errorf("QueryID changed from %d to %d", first.QueryID, second.QueryID)
		}
		if ids := resultIDs(second); !slices.Equal(ids, []int64{8, 7, 6, 5, 4, 3}) {
			t.Errorf("torrents = %v, want [8 7 6 5 4 3]", ids)
		}
		if second.NewTorrents != 2 {
			t.Errorf("NewTorrents = %d, want 2", second.NewTorrents)
		}
		if calls := fetcher.fetched(); !slices.Equal(calls, []string{page1}) {
			t.Errorf("fetched %v, want only the first page", calls)
		}
	})

	t.Run("unchanged listing is idempotent", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.pages[page1] = listingPage("", 2, 1)

		driver, db := setupDriver(t, fetcher)
		ctx := context.Background()
		for range 2 {
			if _, err := driver.Run(ctx, "frieren"); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
		}

		queries, err := db.ListQueries(ctx)
		if err != nil {
			t.Fatalf("ListQueries() error = %v", err)
		}
		if len(queries) != 1 {
			t.Fatalf("queries = %d, want 1", len(queries))
		}
		torrents, err := db.FetchAll(ctx, queries[0].ID)
		if err != nil {
			t.Fatalf("FetchAll() error = %v", err)
		}
		if len(torrents) != 2 {
			t.Errorf("torrents = %d, want 2", len(torrents))
		}
	})

	t.Run("fetch failure keeps earlier pages", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.pages[page1] = listingPage("/?q=frieren&p=2", 6, 5)
		fetcher.fail[page2] = &ConnectivityError{URL: page2, StatusCode: 502}

		driver, db := setupDriver(t, fetcher)
		ctx := context.Background()

		_, err := driver.Run(ctx, "frieren")
		if !errors.Is(err, ErrConnectivity) {
			t.Fatalf("Run() error = %v, want ErrConnectivity", err)
		}

		q, err := db.GetQuery(ctx, "frieren")
		if err != nil || q == nil {
			t.Fatalf("GetQuery() = %v, %v", q, err)
		}
		torrents, err := db.FetchAll(ctx, q.ID)
		if err != nil {
			t.Fatalf("FetchAll() error = %v", err)
		}
		if len(torrents) != 2 {
			t.Errorf("stored torrents = %d, want 2 from the first page", len(torrents))
		}
	})

	t.Run("parse failure aborts", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.pages[page1] = `<html><body><table class="torrent-list"><tbody><tr><td>broken</td></tr></tbody></table></body></html>`

		driver, _ := setupDriver(t, fetcher)
		_, err := driver.Run(context.Background(), "frieren")

		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Run() error = %v, want *ParseError", err)
		}
	})

	t.Run("page limit", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.pages[page1] = listingPage("/?q=frieren&p=2", 6, 5)
		fetcher.pages[page2] = listingPage("", 4, 3)

		driver, _ := setupDriver(t, fetcher, WithMaxPages(1))
		result, err := driver.Run(context.Background(), "frieren")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if result.Pages != 1 {
			t.Errorf("Pages = %d, want 1", result.Pages)
		}
		if ids := resultIDs(result); !slices.Equal(ids, []int64{6, 5}) {
			t.Errorf("torrents = %v, want [6 5]", ids)
		}
	})

	t.Run("query text is escaped in the first page URL", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher()
		fetcher.pages[testBaseURL+"/?q=one+piece%26more"] = listingPage("")

		driver, _ := setupDriver(t, fetcher)
		result, err := driver.Run(context.Background(), "one piece&more")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(result.Torrents) != 0 {
			t.Errorf("torrents = %d, want 0", len(result.Torrents))
		}
	})
}
