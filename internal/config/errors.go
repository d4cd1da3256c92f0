package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and by the config file loader.
// Callers use errors.Is() to tell them apart; the CLI maps ErrDBPathNotSet to
// its own exit code.
var (
	// ErrDBPathNotSet is returned when no database directory is configured
	// through --db-dir, DB_PATH or the config file.
	ErrDBPathNotSet = errors.New("database location is not set: use --db-dir or the DB_PATH environment variable")

	// ErrNoQuery is returned when the search query is empty after normalization.
	ErrNoQuery = errors.New("no query specified")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	// Use 0 to crawl until the listing runs out of pages.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidSite is returned when the site selector bundle is incomplete.
	ErrInvalidSite = errors.New("invalid site configuration")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
