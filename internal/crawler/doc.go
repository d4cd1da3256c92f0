// Package crawler provides the incremental crawl of a paginated torrent listing.
//
// # Components
//
//   - Parser: turns one listing page into torrents using the CSS selectors of
//     a config.Site, and stops at the watermark row
//   - HTTPFetcher: GETs a page with a timeout, a body size limit and an
//     optional SOCKS5 proxy
//   - Driver: the page loop; it resolves the query, reads the watermark,
//     then fetches, parses and stores page after page
//
// # Crawl loop
//
// Listings are ordered newest first, so the highest cached ID of a query
// (the watermark) marks where the previous crawl began. The driver follows
// next-page links until a page contains the watermark row, a page has no
// next link, or the optional page limit is hit:
//
//	parser, _ := crawler.NewParser(site)
//	fetcher, _ := crawler.NewHTTPFetcher(crawler.WithTimeout(30 * time.Second))
//	driver := crawler.NewDriver(db, fetcher, parser, site)
//	result, err := driver.Run(ctx, "one piece")
//
// # Errors
//
// Transport failures are *ConnectivityError (errors.Is(err, ErrConnectivity));
// malformed rows are *ParseError. Either aborts the crawl without retry.
// Pages stored before the failure stay in the cache.
package crawler
