// Package database provides the SQLite-backed torrent cache for nyaacache.
//
// The CacheDB stores three tables:
//   - queries: one row per distinct search term, with created/last-used times
//   - torrents: one row per upstream torrent ID, shared by every query that found it
//   - query2torrent: the many-to-many association, deleted with its query
//
// The cache is the only writer of these tables. Every exported method is a
// single atomic unit (one statement or one transaction); nothing spans a
// whole crawl.
//
// We use SQLite through modernc.org/sqlite: the cache is a single file, the
// driver is CGO-free, and native ON CONFLICT clauses give us the upsert and
// insert-or-ignore semantics without read-check-write races.
package database
