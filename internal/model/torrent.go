package model

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Column names of the torrents table, in schema order.
const (
	ColumnID       = "id"
	ColumnName     = "name"
	ColumnMagnet   = "magnet"
	ColumnCategory = "category"
	ColumnSize     = "size"
	ColumnUploaded = "uploaded"
	ColumnCreated  = "created"
)

// TorrentColumns lists the torrent columns in the order the cache stores them.
var TorrentColumns = []string{
	ColumnID,
	ColumnName,
	ColumnMagnet,
	ColumnCategory,
	ColumnSize,
	ColumnUploaded,
	ColumnCreated,
}

// Torrent is a single listing row.
// The ID is assigned by the upstream site and is unique across all queries,
// so one Torrent may belong to many queries.
type Torrent struct {
	// ID is the upstream identifier (e.g. 1234 for /view/1234).
	ID int64 `json:"id"`

	// Name is the torrent title as shown in the listing.
	Name string `json:"name"`

	// Magnet is the magnet URI.
	Magnet string `json:"magnet"`

	// Category is the listing category label (e.g. "Anime - English-translated").
	Category string `json:"category"`

	// Size is the human readable size exactly as the site prints it.
	Size string `json:"size"`

	// Uploaded is the upload time in unix seconds.
	Uploaded int64 `json:"uploaded"`

	// Created is the time the cache first saw this torrent, in unix seconds.
	// The parser leaves it zero; the database assigns it on first insert.
	Created int64 `json:"created"`
}

// Value returns the cell for the named column.
// The second result is false when the column is unknown.
func (t Torrent) Value(column string) (Value, bool) {
	switch column {
	case ColumnID:
		return IntValue(t.ID), true
	case ColumnName:
		return StringValue(t.Name), true
	case ColumnMagnet:
		return StringValue(t.Magnet), true
	case ColumnCategory:
		return StringValue(t.Category), true
	case ColumnSize:
		return StringValue(t.Size), true
	case ColumnUploaded:
		return IntValue(t.Uploaded), true
	case ColumnCreated:
		return IntValue(t.Created), true
	default:
		return Value{}, false
	}
}

// String returns a one-line summary used in debug logs.
func (t Torrent) String() string {
	return fmt.Sprintf("[%s] %s (%s) [%d]", t.Category, t.Name, t.Size, t.ID)
}

// Query is a logical search term.
// Text is unique; crawling the same text again only bumps LastUsed.
type Query struct {
	ID       int64
	Text     string
	LastUsed time.Time
	Created  time.Time
}

// NormalizeQuery returns the cache key for a raw search term.
// Leading and trailing space is removed and the text is put in Unicode NFC,
// so that visually identical input maps to the same query row.
func NormalizeQuery(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// Watermark is the highest torrent ID already cached for a query.
// The zero value means the query has no cached torrents yet.
type Watermark struct {
	ID    int64
	Valid bool
}

// NewWatermark returns a valid watermark at id.
func NewWatermark(id int64) Watermark {
	return Watermark{ID: id, Valid: true}
}

// Reached reports whether id is the watermark.
// An invalid watermark is never reached.
func (w Watermark) Reached(id int64) bool {
	return w.Valid && w.ID == id
}

// String returns the ID, or "none" for an invalid watermark.
func (w Watermark) String() string {
	if !w.Valid {
		return "none"
	}
	return fmt.Sprintf("%d", w.ID)
}
