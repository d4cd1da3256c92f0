package report

import "errors"

var (
	// ErrUnknownFormat is returned for an output format name that has no writer.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrUnknownColumn is returned when a requested column is not a torrent column.
	ErrUnknownColumn = errors.New("unknown column")
)
