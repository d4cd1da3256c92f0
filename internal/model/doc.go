// Package model defines the core data structures shared by the crawler,
// the cache database and the report writers.
//
// This package contains the following main types:
//   - Torrent: A listing row discovered by a crawl
//   - Query: A logical search term owning a set of torrents
//   - Watermark: The highest torrent ID already cached for a query
//   - Value: A typed cell used by the report writers
//
// Models live in their own package so that crawler, database and report can
// all depend on them without importing each other.
package model
