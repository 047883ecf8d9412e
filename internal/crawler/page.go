package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/nao1215/refcrawl/internal/cache"
)

// Fetcher retrieves the body of a URL as text.
// fetch.Client is the HTTP implementation.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// Page is one URL retrieved during a crawl.
// It owns the cache entry for the URL between Open and Close.
type Page struct {
	url   string
	depth int

	entry   cache.Entry
	fetcher Fetcher
	logger  *slog.Logger

	// doc is built on the first structural query and never rebuilt.
	doc *html.Node

	// selection is the goquery view over doc.
	selection *goquery.Document

	opened  bool
	fetched bool
	closed  bool
}

// PageOption configures a Page.
type PageOption func(*Page)

// WithPageLogger sets the logger used by the page.
func WithPageLogger(logger *slog.Logger) PageOption {
	return func(p *Page) {
		p.logger = logger
	}
}

// WithPageDepth records the crawl level the page was found at.
func WithPageDepth(depth int) PageOption {
	return func(p *Page) {
		p.depth = depth
	}
}

// NewPage creates a page for pageURL. A nil entry is replaced by a
// transient one, so the content is kept only for the page's lifetime.
func NewPage(pageURL string, entry cache.Entry, fetcher Fetcher, opts ...PageOption) *Page {
	if entry == nil {
		entry = cache.NewTransientEntry(pageURL)
	}

	p := &Page{
		url:     pageURL,
		entry:   entry,
		fetcher: fetcher,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// URL returns the page URL.
func (p *Page) URL() string {
	return p.url
}

// Depth returns the crawl level of the page. The start page is level 0.
func (p *Page) Depth() int {
	return p.depth
}

// Content returns the page body and whether one is present.
func (p *Page) Content() (string, bool) {
	return p.entry.Content()
}

// Fetched reports whether this page performed a network fetch, as opposed
// to being served from the cache.
func (p *Page) Fetched() bool {
	return p.fetched
}

// Open loads the cache entry and fetches the URL if no content is cached.
// Calling Open again does nothing.
func (p *Page) Open(ctx context.Context) error {
	if p.opened {
		return nil
	}

	if err := p.entry.Load(); err != nil {
		return err
	}

	if _, ok := p.entry.Content(); ok {
		p.logger.Debug("cache hit", "url", p.url)
	} else if err := p.fetch(ctx); err != nil {
		return err
	}

	p.opened = true
	return nil
}

// Refetch opens the page but fetches the URL even when content is cached.
// A page fetches at most once, so Refetch after a fetch does nothing.
func (p *Page) Refetch(ctx context.Context) error {
	if p.fetched {
		return nil
	}

	if err := p.entry.Load(); err != nil {
		return err
	}
	if err := p.fetch(ctx); err != nil {
		return err
	}

	p.opened = true
	return nil
}

func (p *Page) fetch(ctx context.Context) error {
	if p.fetcher == nil {
		return fmt.Errorf("%s: %w", p.url, ErrNoFetcher)
	}

	body, err := p.fetcher.Fetch(ctx, p.url)
	if err != nil {
		return err
	}

	p.entry.SetContent(body)
	p.fetched = true
	return nil
}

// Close saves the cache entry. Only the first call has an effect.
func (p *Page) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	return p.entry.Save()
}

// document returns the parsed content, parsing it on first use.
func (p *Page) document() (*html.Node, error) {
	if p.doc != nil {
		return p.doc, nil
	}

	content, ok := p.entry.Content()
	if !ok {
		return nil, fmt.Errorf("%s: %w", p.url, ErrNoContent)
	}

	doc, err := htmlquery.Parse(strings.NewReader(content))
	if err != nil {
		return nil, &ParseError{URL: p.url, Err: err}
	}

	p.doc = doc
	return doc, nil
}

// XPath returns the elements matching expr.
func (p *Page) XPath(expr string) ([]*Element, error) {
	doc, err := p.document()
	if err != nil {
		return nil, err
	}

	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}

	elements := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &Element{node: n})
	}
	return elements, nil
}

// Select returns the elements matching the CSS selector. It shares the
// document tree with XPath.
func (p *Page) Select(selector string) (*goquery.Selection, error) {
	doc, err := p.document()
	if err != nil {
		return nil, err
	}

	if p.selection == nil {
		p.selection = goquery.NewDocumentFromNode(doc)
	}
	return p.selection.Find(selector), nil
}

// Element is a node matched by a structural query.
type Element struct {
	node *html.Node
}

// Attr returns the value of the named attribute and whether it is set.
func (e *Element) Attr(name string) (string, bool) {
	for _, attr := range e.node.Attr {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

// Text returns the text content of the element and its descendants.
func (e *Element) Text() string {
	return htmlquery.InnerText(e.node)
}

// Node returns the underlying node.
func (e *Element) Node() *html.Node {
	return e.node
}
