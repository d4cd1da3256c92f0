package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
)

// QueryPlaceholder is replaced by the escaped query text in Site.SearchURL.
const QueryPlaceholder = "{query}"

// Selector locates one value inside a listing row (or inside the page for
// the next-page link). CSS is a goquery/cascadia selector; when Attr is set
// the attribute value is used, otherwise the element text.
type Selector struct {
	CSS  string `yaml:"css,omitempty"`
	Attr string `yaml:"attr,omitempty"`
}

// IsZero reports whether the selector is unset.
func (s Selector) IsZero() bool {
	return s.CSS == "" && s.Attr == ""
}

// Selectors is the fixed bundle of structural and field selectors.
type Selectors struct {
	// Row matches one element per torrent in the listing.
	Row string `yaml:"row,omitempty"`

	// NextPage is evaluated against the whole page.
	NextPage Selector `yaml:"nextPage,omitempty"`

	// The remaining selectors are evaluated inside a row.
	ID       Selector `yaml:"id,omitempty"`
	Category Selector `yaml:"category,omitempty"`
	Name     Selector `yaml:"name,omitempty"`
	Size     Selector `yaml:"size,omitempty"`
	Magnet   Selector `yaml:"magnet,omitempty"`
	Uploaded Selector `yaml:"uploaded,omitempty"`
}

// Site describes how to reach and read a listing site.
// A Site is a plain value: it is copied into the parser and the driver and
// never mutated after the configuration is built.
type Site struct {
	// BaseURL resolves relative links such as "/view/123" or "/?p=2".
	BaseURL string `yaml:"baseURL,omitempty"`

	// SearchURL is the first page URL template; QueryPlaceholder is replaced
	// by the query-escaped search term.
	SearchURL string `yaml:"searchURL,omitempty"`

	Selectors Selectors `yaml:"selectors,omitempty"`
}

// DefaultSite returns the selector bundle for nyaa.si.
func DefaultSite() Site {
	return Site{
		BaseURL:   "https://nyaa.si",
		SearchURL: "https://nyaa.si/?f=0&c=0_0&s=id&o=desc&q=" + QueryPlaceholder,
		Selectors: Selectors{
			Row:      "table.torrent-list > tbody > tr",
			NextPage: Selector{CSS: "ul.pagination li.next:not(.disabled) > a[href]", Attr: "href"},
			ID:       Selector{CSS: "td:nth-child(2) a[href^='/view/']:not(.comments)", Attr: "href"},
			Category: Selector{CSS: "td:nth-child(1) a", Attr: "title"},
			Name:     Selector{CSS: "td:nth-child(2) a[href^='/view/']:not(.comments)", Attr: "title"},
			Size:     Selector{CSS: "td:nth-child(4)"},
			Magnet:   Selector{CSS: "td:nth-child(3) a[href^='magnet:']", Attr: "href"},
			Uploaded: Selector{CSS: "td:nth-child(5)", Attr: "data-timestamp"},
		},
	}
}

// FirstPageURL builds the first listing page URL for a query.
// It is a pure string transform; no network access happens here.
func (s Site) FirstPageURL(query string) string {
	return strings.ReplaceAll(s.SearchURL, QueryPlaceholder, url.QueryEscape(query))
}

// ResolveURL resolves href against BaseURL.
// Absolute hrefs are returned unchanged.
func (s Site) ResolveURL(href string) (string, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", s.BaseURL, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// Merge returns s with every non-zero field of override applied.
func (s Site) Merge(override Site) Site {
	result := s

	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.SearchURL != "" {
		result.SearchURL = override.SearchURL
	}

	o := override.Selectors
	if o.Row != "" {
		result.Selectors.Row = o.Row
	}
	mergeSelector(&result.Selectors.NextPage, o.NextPage)
	mergeSelector(&result.Selectors.ID, o.ID)
	mergeSelector(&result.Selectors.Category, o.Category)
	mergeSelector(&result.Selectors.Name, o.Name)
	mergeSelector(&result.Selectors.Size, o.Size)
	mergeSelector(&result.Selectors.Magnet, o.Magnet)
	mergeSelector(&result.Selectors.Uploaded, o.Uploaded)

	return result
}

func mergeSelector(dst *Selector, override Selector) {
	if !override.IsZero() {
		*dst = override
	}
}

// Validate checks that the site can be crawled: both URLs parse and every
// selector compiles.
func (s Site) Validate() error {
	base, err := url.Parse(s.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("%w: base URL %q must be absolute", ErrInvalidSite, s.BaseURL)
	}
	if !strings.Contains(s.SearchURL, QueryPlaceholder) {
		return fmt.Errorf("%w: search URL must contain %s", ErrInvalidSite, QueryPlaceholder)
	}
	if _, err := url.Parse(s.FirstPageURL("q")); err != nil {
		return fmt.Errorf("%w: search URL: %w", ErrInvalidSite, err)
	}

	sel := s.Selectors
	if err := compileSelector("row", sel.Row); err != nil {
		return err
	}
	fields := []struct {
		name string
		sel  Selector
	}{
		{"nextPage", sel.NextPage},
		{"id", sel.ID},
		{"category", sel.Category},
		{"name", sel.Name},
		{"size", sel.Size},
		{"magnet", sel.Magnet},
		{"uploaded", sel.Uploaded},
	}
	for _, f := range fields {
		if err := compileSelector(f.name, f.sel.CSS); err != nil {
			return err
		}
	}
	return nil
}

// compileSelector rejects empty or malformed CSS. goquery matches nothing
// for a selector it cannot compile, which would look like an empty page.
func compileSelector(name, css string) error {
	if strings.TrimSpace(css) == "" {
		return fmt.Errorf("%w: %s selector is empty", ErrInvalidSite, name)
	}
	if _, err := cascadia.Compile(css); err != nil {
		return fmt.Errorf("%w: %s selector %q: %w", ErrInvalidSite, name, css, err)
	}
	return nil
}
