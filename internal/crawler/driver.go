package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/nyaacache/internal/config"
	"github.com/nao1215/nyaacache/internal/model"
)

// Store is the part of the cache the driver needs.
// *database.CacheDB implements it.
type Store interface {
	QueryID(ctx context.Context, text string) (int64, error)
	Watermark(ctx context.Context, queryID int64) (model.Watermark, error)
	StoreTorrents(ctx context.Context, queryID int64, torrents []model.Torrent) error
	FetchAll(ctx context.Context, queryID int64) ([]model.Torrent, error)
	ColumnNames(ctx context.Context) ([]string, error)
}

// Fetcher retrieves a page body. *HTTPFetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// Driver runs one incremental crawl for a query.
// Pages are fetched newest first until the watermark row, the last page, or
// the page limit is reached; each page's rows are stored before the next
// page is requested.
type Driver struct {
	store    Store
	fetcher  Fetcher
	parser   *Parser
	site     config.Site
	maxPages int
	logger   *slog.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithMaxPages bounds the number of pages fetched per crawl.
// 0 means no limit.
func WithMaxPages(n int) DriverOption {
	return func(d *Driver) {
		if n >= 0 {
			d.maxPages = n
		}
	}
}

// WithDriverLogger sets the logger used for progress messages.
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDriver creates a crawl driver.
func NewDriver(store Store, fetcher Fetcher, parser *Parser, site config.Site, opts ...DriverOption) *Driver {
	d := &Driver{
		store:   store,
		fetcher: fetcher,
		parser:  parser,
		site:    site,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Result is the outcome of a crawl.
type Result struct {
	// QueryID is the cache row of the query.
	QueryID int64

	// Columns are the torrent column names in schema order.
	Columns []string

	// Torrents is the full cached result set for the query, highest ID first.
	Torrents []model.Torrent

	// Pages is the number of pages fetched during this crawl.
	Pages int

	// NewTorrents is the number of rows parsed above the watermark.
	NewTorrents int
}

// Run crawls query and returns everything the cache holds for it.
// A fetch, parse or storage failure aborts the crawl; rows stored from
// earlier pages remain in the cache.
func (d *Driver) Run(ctx context.Context, query string) (*Result, error) {
	queryID, err := d.store.QueryID(ctx, query)
	if err != nil {
		return nil, err
	}

	stop, err := d.store.Watermark(ctx, queryID)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("starting crawl",
		"query", query,
		"query_id", queryID,
		"watermark", stop.String(),
	)

	result := &Result{QueryID: queryID}
	pageURL := d.site.FirstPageURL(query)

	for pageURL != "" {
		if d.maxPages > 0 && result.Pages >= d.maxPages {
			d.logger.Debug("page limit reached", "max_pages", d.maxPages)
			break
		}

		body, err := d.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		result.Pages++

		parsed, err := d.parser.Parse(bytes.NewReader(body), stop)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pageURL, err)
		}

		if err := d.store.StoreTorrents(ctx, queryID, parsed.Torrents); err != nil {
			return nil, err
		}
		result.NewTorrents += len(parsed.Torrents)

		d.logger.Debug("page crawled",
			"url", pageURL,
			"page", result.Pages,
			"torrents", len(parsed.Torrents),
			"watermark_reached", !parsed.ContinueSearching,
		)

		if !parsed.ContinueSearching {
			break
		}
		pageURL = parsed.NextPageURL
	}

	torrents, err := d.store.FetchAll(ctx, queryID)
	if err != nil {
		return nil, err
	}
	columns, err := d.store.ColumnNames(ctx)
	if err != nil {
		return nil, err
	}

	result.Torrents = torrents
	result.Columns = columns

	d.logger.Debug("crawl finished",
		"query", query,
		"pages", result.Pages,
		"new_torrents", result.NewTorrents,
		"cached_torrents", len(torrents),
	)

	return result, nil
}
