package crawler

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/nyaacache/internal/config"
	"github.com/nao1215/nyaacache/internal/model"
)

// Field names used in ParseError.
const (
	fieldID       = "id"
	fieldCategory = "category"
	fieldName     = "name"
	fieldSize     = "size"
	fieldMagnet   = "magnet"
	fieldUploaded = "uploaded"
)

// Parser turns one listing page into torrents.
// It holds no state between pages; the same Parser can be reused for every
// page of every query.
type Parser struct {
	site config.Site
}

// ParseResult is what a single page yields.
type ParseResult struct {
	// Torrents are the rows above the watermark, in page order.
	Torrents []model.Torrent

	// NextPageURL is the absolute URL of the following page,
	// or empty when the page has no next link.
	NextPageURL string

	// ContinueSearching is false once the watermark row was seen.
	ContinueSearching bool
}

// NewParser creates a parser for the given site.
func NewParser(site config.Site) (*Parser, error) {
	if err := site.Validate(); err != nil {
		return nil, err
	}
	return &Parser{site: site}, nil
}

// Parse reads one listing page.
// Rows are read in document order. When a row's ID equals stop, that row and
// everything after it are dropped and ContinueSearching is false.
func (p *Parser) Parse(content io.Reader, stop model.Watermark) (*ParseResult, error) {
	root, err := html.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	result := &ParseResult{
		Torrents:          make([]model.Torrent, 0),
		ContinueSearching: true,
	}

	next, err := p.nextPageURL(doc)
	if err != nil {
		return nil, err
	}
	result.NextPageURL = next

	var rowErr error
	doc.Find(p.site.Selectors.Row).EachWithBreak(func(i int, row *goquery.Selection) bool {
		id, err := p.extractID(row)
		if err != nil {
			rowErr = &ParseError{Row: i, Field: fieldID, Err: err}
			return false
		}
		if stop.Reached(id) {
			result.ContinueSearching = false
			return false
		}

		t, err := p.extractTorrent(i, id, row)
		if err != nil {
			rowErr = err
			return false
		}
		result.Torrents = append(result.Torrents, t)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return result, nil
}

// nextPageURL returns the resolved next-page link, or "" when there is none.
func (p *Parser) nextPageURL(doc *goquery.Document) (string, error) {
	href, ok := selectValue(doc.Selection, p.site.Selectors.NextPage)
	if !ok {
		return "", nil
	}
	resolved, err := p.site.ResolveURL(href)
	if err != nil {
		return "", fmt.Errorf("next page link: %w", err)
	}
	return resolved, nil
}

// extractID reads the row identifier from the last path segment of the id
// selector's value, e.g. "/view/1234" or "https://nyaa.si/view/1234" give 1234.
func (p *Parser) extractID(row *goquery.Selection) (int64, error) {
	raw, ok := selectValue(row, p.site.Selectors.ID)
	if !ok {
		return 0, ErrMissingField
	}
	return parseID(raw)
}

func parseID(raw string) (int64, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid link %q: %w", raw, err)
	}
	segment := path.Base(strings.TrimRight(u.Path, "/"))
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}

func (p *Parser) extractTorrent(index int, id int64, row *goquery.Selection) (model.Torrent, error) {
	sel := p.site.Selectors
	t := model.Torrent{ID: id}

	fields := []struct {
		name string
		sel  config.Selector
		dst  *string
	}{
		{fieldCategory, sel.Category, &t.Category},
		{fieldName, sel.Name, &t.Name},
		{fieldSize, sel.Size, &t.Size},
		{fieldMagnet, sel.Magnet, &t.Magnet},
	}
	for _, f := range fields {
		v, ok := selectValue(row, f.sel)
		if !ok {
			return model.Torrent{}, &ParseError{Row: index, Field: f.name, Err: ErrMissingField}
		}
		*f.dst = v
	}

	raw, ok := selectValue(row, sel.Uploaded)
	if !ok {
		return model.Torrent{}, &ParseError{Row: index, Field: fieldUploaded, Err: ErrMissingField}
	}
	uploaded, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return model.Torrent{}, &ParseError{Row: index, Field: fieldUploaded, Err: fmt.Errorf("invalid timestamp %q: %w", raw, err)}
	}
	t.Uploaded = uploaded

	return t, nil
}

// selectValue evaluates sel inside s and returns the whitespace-normalised
// attribute or text of the first match. ok is false when nothing matched or
// the value is empty.
func selectValue(s *goquery.Selection, sel config.Selector) (string, bool) {
	match := s.Find(sel.CSS).First()
	if match.Length() == 0 {
		return "", false
	}

	var v string
	if sel.Attr != "" {
		attr, exists := match.Attr(sel.Attr)
		if !exists {
			return "", false
		}
		v = attr
	} else {
		v = match.Text()
	}

	v = normalizeSpace(v)
	return v, v != ""
}

// normalizeSpace collapses runs of whitespace into single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
