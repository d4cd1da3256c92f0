// Package report renders cached torrents for the terminal or for other tools.
//
// A Table is built from the column names reported by the cache and the
// torrents of a query, optionally narrowed with Select, and handed to a
// Writer:
//   - JSONWriter: one compact JSON object per row, keys in column order
//   - TSVWriter: header line plus one tab separated line per row
//   - BinaryWriter: length prefixed frames, one frame per row
//   - MarkdownWriter: a GitHub flavoured table
//
// Every writer emits the header (or, for JSON, the keys) in the same
// column order as the rows.
package report
