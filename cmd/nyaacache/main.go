// Package main provides the entry point for the nyaacache CLI.
//
// nyaacache crawls a torrent listing site incrementally, caches every torrent
// it sees per search query in SQLite, and prints the cached result set.
//
// Usage:
//
//	nyaacache search <query>
//	nyaacache prune <seconds>
//
// See --help for all available options.
package main

// main is the entry point for nyaacache.
func main() {
	Execute()
}
