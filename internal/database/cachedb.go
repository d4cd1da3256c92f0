package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/nyaacache/internal/model"
)

// DBFileName is the name of the SQLite file inside the database directory.
const DBFileName = "nyaa.db"

// CacheDB provides SQLite-based storage for queries and torrents.
// It owns the queries, torrents and query2torrent tables; no other component
// writes to them.
type CacheDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// now returns the current time for last_used and created stamps.
	now func() time.Time
}

// Options configures CacheDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool

	// Clock returns the current time. Nil means time.Now.
	Clock func() time.Time
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CacheDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created
// and the schema is initialized on first run.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CacheDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// foreign_keys must be on for every connection, otherwise deleting a
	// query would not cascade to query2torrent.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	cdb := &CacheDB{
		db:     db,
		dbPath: dbPath,
		now:    opts.Clock,
	}
	if cdb.now == nil {
		cdb.now = time.Now
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CacheDB) Close() error {
	return cdb.db.Close()
}

// Path returns the path of the SQLite file.
func (cdb *CacheDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CacheDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS queries (
		id INTEGER PRIMARY KEY,
		query TEXT NOT NULL UNIQUE,
		last_used INTEGER NOT NULL,
		created INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS torrents (
		id INTEGER PRIMARY KEY,
		name TEXT,
		magnet TEXT,
		category TEXT,
		size TEXT,
		uploaded INTEGER,
		created INTEGER
	);

	CREATE TABLE IF NOT EXISTS query2torrent (
		query_id INTEGER NOT NULL REFERENCES queries(id) ON DELETE CASCADE,
		torrent_id INTEGER NOT NULL REFERENCES torrents(id),
		UNIQUE(query_id, torrent_id)
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// QueryID returns the ID of the query row for text, creating it if needed.
// A new row gets the current time as both created and last_used; an existing
// row only has last_used bumped. The upsert is a single statement, so two
// callers with the same text can never produce two rows.
func (cdb *CacheDB) QueryID(ctx context.Context, text string) (int64, error) {
	now := cdb.now().Unix()

	query := `
	INSERT INTO queries (query, last_used, created) VALUES (?, ?, ?)
	ON CONFLICT(query) DO UPDATE SET last_used = excluded.last_used
	RETURNING id
	`

	var id int64
	if err := cdb.db.QueryRowContext(ctx, query, text, now, now).Scan(&id); err != nil {
		return 0, storageErr("resolve query", err)
	}
	return id, nil
}

// GetQuery retrieves the query row for text.
// Returns nil, nil when the query has never been crawled.
func (cdb *CacheDB) GetQuery(ctx context.Context, text string) (*model.Query, error) {
	query := `SELECT id, query, last_used, created FROM queries WHERE query = ?`

	q, err := scanQuery(cdb.db.QueryRowContext(ctx, query, text))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get query", err)
	}
	return q, nil
}

// ListQueries returns every cached query, most recently used first.
func (cdb *CacheDB) ListQueries(ctx context.Context) ([]model.Query, error) {
	query := `SELECT id, query, last_used, created FROM queries ORDER BY last_used DESC, id DESC`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr("list queries", err)
	}
	defer rows.Close()

	queries := make([]model.Query, 0)
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, storageErr("list queries", err)
		}
		queries = append(queries, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list queries", err)
	}
	return queries, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuery(row rowScanner) (*model.Query, error) {
	var (
		q        model.Query
		lastUsed int64
		created  int64
	)
	if err := row.Scan(&q.ID, &q.Text, &lastUsed, &created); err != nil {
		return nil, err
	}
	q.LastUsed = time.Unix(lastUsed, 0)
	q.Created = time.Unix(created, 0)
	return &q, nil
}

// Watermark returns the highest torrent ID associated with queryID.
// The watermark is invalid when the query has no torrents yet.
func (cdb *CacheDB) Watermark(ctx context.Context, queryID int64) (model.Watermark, error) {
	query := `SELECT MAX(torrent_id) FROM query2torrent WHERE query_id = ?`

	var maxID sql.NullInt64
	if err := cdb.db.QueryRowContext(ctx, query, queryID).Scan(&maxID); err != nil {
		return model.Watermark{}, storageErr("read watermark", err)
	}
	if !maxID.Valid {
		return model.Watermark{}, nil
	}
	return model.NewWatermark(maxID.Int64), nil
}

// StoreTorrents attaches torrents to queryID.
// A torrent whose ID is already cached is left untouched (first writer wins);
// an association that already exists is ignored. Torrent and association
// inserts commit together or not at all.
func (cdb *CacheDB) StoreTorrents(ctx context.Context, queryID int64, torrents []model.Torrent) (err error) {
	if len(torrents) == 0 {
		return nil
	}

	now := cdb.now().Unix()

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("store torrents", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // the original error matters more
		}
	}()

	insertTorrent, err := tx.PrepareContext(ctx, `
	INSERT INTO torrents (id, name, magnet, category, size, uploaded, created)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return storageErr("store torrents", err)
	}
	defer insertTorrent.Close()

	for _, t := range torrents {
		if _, err = insertTorrent.ExecContext(ctx,
			t.ID,
			t.Name,
			t.Magnet,
			t.Category,
			t.Size,
			t.Uploaded,
			now,
		); err != nil {
			return storageErr("store torrents", err)
		}
	}

	insertLink, err := tx.PrepareContext(ctx, `
	INSERT INTO query2torrent (query_id, torrent_id) VALUES (?, ?)
	ON CONFLICT(query_id, torrent_id) DO NOTHING
	`)
	if err != nil {
		return storageErr("store torrents", err)
	}
	defer insertLink.Close()

	for _, t := range torrents {
		if _, err = insertLink.ExecContext(ctx, queryID, t.ID); err != nil {
			return storageErr("store torrents", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return storageErr("store torrents", err)
	}
	return nil
}

// FetchAll returns every torrent associated with queryID, highest ID first.
// It does not touch last_used.
func (cdb *CacheDB) FetchAll(ctx context.Context, queryID int64) ([]model.Torrent, error) {
	query := `
	SELECT t.id, t.name, t.magnet, t.category, t.size, t.uploaded, t.created
	FROM torrents AS t
	JOIN query2torrent AS qt ON t.id = qt.torrent_id
	WHERE qt.query_id = ?
	ORDER BY t.id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, queryID)
	if err != nil {
		return nil, storageErr("fetch torrents", err)
	}
	defer rows.Close()

	torrents := make([]model.Torrent, 0)
	for rows.Next() {
		var (
			t                            model.Torrent
			name, magnet, category, size sql.NullString
			uploaded, created            sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &name, &magnet, &category, &size, &uploaded, &created); err != nil {
			return nil, storageErr("fetch torrents", err)
		}
		t.Name = name.String
		t.Magnet = magnet.String
		t.Category = category.String
		t.Size = size.String
		t.Uploaded = uploaded.Int64
		t.Created = created.Int64
		torrents = append(torrents, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("fetch torrents", err)
	}

	return torrents, nil
}

// ColumnNames returns the torrents table columns in schema order.
// It is used to label output columns.
func (cdb *CacheDB) ColumnNames(ctx context.Context) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, "PRAGMA table_info(torrents)")
	if err != nil {
		return nil, storageErr("read columns", err)
	}
	defer rows.Close()

	columns := make([]string, 0, len(model.TorrentColumns))
	for rows.Next() {
		var (
			cid      int
			name     string
			ctype    string
			notNull  int
			defValue any
			pk       int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defValue, &pk); err != nil {
			return nil, storageErr("read columns", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read columns", err)
	}

	return columns, nil
}
