package crawler

import (
	"log/slog"

	"github.com/nao1215/refcrawl/internal/cache"
)

// DefaultMaxDepth is the depth ceiling used when none is configured.
const DefaultMaxDepth = 1

// Spider is the crawl policy: where to start, how deep to go, where page
// bodies are cached and which links are followed.
// It is not modified after NewSpider returns, so one Spider can start any
// number of independent crawls.
type Spider struct {
	// startURL is the level 0 page.
	startURL string

	// maxDepth is the deepest level that is opened.
	// 0 means only the start page, 1 adds the pages it links to, etc.
	maxDepth int

	// cache provides entries for page bodies. nil means pages are not cached.
	cache cache.Provider

	// fetcher retrieves pages that are not cached.
	fetcher Fetcher

	// filter selects the links to follow.
	filter LinkFilter

	// refetch fetches every page even when its body is cached.
	refetch bool

	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the starting page, 1 = starting page plus linked pages, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithCache stores page bodies in provider.
func WithCache(provider cache.Provider) SpiderOption {
	return func(s *Spider) {
		s.cache = provider
	}
}

// WithLinkFilter sets the filter that decides which links are followed.
// The default is AllLinks.
func WithLinkFilter(filter LinkFilter) SpiderOption {
	return func(s *Spider) {
		s.filter = filter
	}
}

// WithRefetch makes every page bypass the cached body.
// The fresh body still replaces the cached one.
func WithRefetch(refetch bool) SpiderOption {
	return func(s *Spider) {
		s.refetch = refetch
	}
}

// WithLogger sets the logger for the spider and the pages it opens.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that starts at startURL and fetches pages
// with fetcher.
func NewSpider(startURL string, fetcher Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		startURL: startURL,
		maxDepth: DefaultMaxDepth,
		fetcher:  fetcher,
		filter:   AllLinks,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.filter == nil {
		s.filter = AllLinks
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// StartURL returns the URL of the level 0 page.
func (s *Spider) StartURL() string {
	return s.startURL
}

// MaxDepth returns the deepest level that is opened.
func (s *Spider) MaxDepth() int {
	return s.maxDepth
}

// CacheEntry returns the cache entry for pageURL.
// It returns nil without error when no cache is configured or pageURL is
// empty; pages then use a transient entry.
func (s *Spider) CacheEntry(pageURL string) (cache.Entry, error) {
	if s.cache == nil || pageURL == "" {
		return nil, nil
	}
	return s.cache.Entry(pageURL)
}

// ChildURLs returns the hrefs on page that should be followed.
func (s *Spider) ChildURLs(page *Page) ([]string, error) {
	return s.filter.ChildURLs(page)
}

// Crawl starts a new traversal. Traversals share the spider's cache but
// each keeps its own frontier.
func (s *Spider) Crawl() *CrawlPath {
	return newCrawlPath(s)
}
