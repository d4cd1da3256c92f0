// Package config provides configuration structures and utilities for nyaacache.
// It defines the runtime options for crawling, the site selector bundle used
// by the page parser, and the YAML configuration file loader.
package config
