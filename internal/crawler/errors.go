package crawler

import (
	"errors"
	"fmt"
)

// ErrConnectivity matches every ConnectivityError via errors.Is.
var ErrConnectivity = errors.New("connectivity error")

// ErrMissingField is wrapped by ParseError when a row lacks a required value.
var ErrMissingField = errors.New("missing field")

// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address is malformed.
var ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port or socks5://[user:pass@]host:port")

// ConnectivityError reports that a page could not be retrieved:
// a network failure, a non-200 status, or an unreadable body.
type ConnectivityError struct {
	// URL is the page that was requested.
	URL string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *ConnectivityError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
}

// Unwrap returns the underlying transport error.
func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// Is makes every ConnectivityError match ErrConnectivity.
func (e *ConnectivityError) Is(target error) bool {
	return target == ErrConnectivity
}

// ParseError reports a listing row that could not be turned into a torrent.
type ParseError struct {
	// Row is the zero-based index of the row within the page.
	Row int

	// Field is the column being extracted (e.g. "uploaded").
	Field string

	// Err describes what was wrong with the value.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse row %d: field %s: %v", e.Row, e.Field, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}
