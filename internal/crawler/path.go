package crawler

import (
	"context"
	"errors"
	"iter"
	"net/url"
)

type pathState int

const (
	// stateAwaitingFirst is the state before the first Next.
	stateAwaitingFirst pathState = iota

	// statePageOpen means Page returns a page that is not finalized yet.
	statePageOpen

	// stateExhausted is terminal.
	stateExhausted
)

// CrawlPath walks the pages reachable from a spider's start URL in
// breadth-first order. Use it like bufio.Scanner:
//
//	for path.Next(ctx) {
//		page := path.Page()
//	}
//	err := path.Err()
type CrawlPath struct {
	spider *Spider

	// current holds the URLs left on the level being opened.
	current []string

	// next holds the URLs discovered for the following level.
	next []string

	// seen holds every URL that was opened.
	seen map[string]struct{}

	// depth is the level of current.
	depth int

	state pathState
	page  *Page
	err   error
}

func newCrawlPath(s *Spider) *CrawlPath {
	return &CrawlPath{
		spider:  s,
		current: []string{s.startURL},
		seen:    make(map[string]struct{}),
		state:   stateAwaitingFirst,
	}
}

// Next finalizes the open page, then opens the next unseen URL.
// It returns false when no URL is left within the depth ceiling or when an
// error occurred; Err tells the two apart. Once Next returns false it keeps
// returning false.
func (c *CrawlPath) Next(ctx context.Context) bool {
	if c.state == stateExhausted {
		return false
	}

	if c.state == statePageOpen {
		if err := c.finalize(); err != nil {
			return c.fail(err)
		}
	}

	if err := ctx.Err(); err != nil {
		return c.fail(err)
	}

	for {
		pageURL, ok := c.popNext()
		if !ok {
			c.spider.logger.Debug("crawl finished", "start", c.spider.startURL, "pages", len(c.seen))
			c.state = stateExhausted
			return false
		}

		if _, ok := c.seen[pageURL]; ok {
			continue
		}
		c.seen[pageURL] = struct{}{}

		page, err := c.enter(ctx, pageURL)
		if err != nil {
			return c.fail(err)
		}

		c.page = page
		c.state = statePageOpen
		return true
	}
}

// Page returns the page opened by the last successful Next, or nil.
func (c *CrawlPath) Page() *Page {
	return c.page
}

// Err returns the error that ended the traversal, or nil.
func (c *CrawlPath) Err() error {
	return c.err
}

// Depth returns the level currently being opened.
func (c *CrawlPath) Depth() int {
	return c.depth
}

// Close saves the open page, without following its links, and ends the
// traversal.
func (c *CrawlPath) Close() error {
	page := c.page
	c.page = nil
	c.state = stateExhausted

	if page == nil {
		return nil
	}
	return page.Close()
}

// All returns an iterator over the remaining pages. A traversal error is
// yielded last with a nil page. Breaking out of the loop closes the path.
func (c *CrawlPath) All(ctx context.Context) iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		for c.Next(ctx) {
			if !yield(c.page, nil) {
				_ = c.Close()
				return
			}
		}
		if c.err != nil {
			yield(nil, c.err)
		}
	}
}

// finalize queues the links of the open page and saves it.
func (c *CrawlPath) finalize() error {
	page := c.page
	c.page = nil

	links, err := c.spider.ChildURLs(page)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			return err
		}
		return &PolicyError{URL: page.URL(), Err: err}
	}

	base, err := url.Parse(page.URL())
	if err != nil {
		return &PolicyError{URL: page.URL(), Err: err}
	}

	for _, href := range links {
		ref, err := url.Parse(href)
		if err != nil {
			c.spider.logger.Debug("skip unparsable link", "page", page.URL(), "href", href, "error", err)
			continue
		}
		c.next = append(c.next, base.ResolveReference(ref).String())
	}

	return page.Close()
}

// popNext returns the next queued URL, moving to the next level when the
// current one is empty. Seen URLs are not filtered here.
func (c *CrawlPath) popNext() (string, bool) {
	if len(c.current) == 0 {
		c.current, c.next = c.next, nil
		c.depth++
	}

	if c.depth > c.spider.maxDepth || len(c.current) == 0 {
		return "", false
	}

	pageURL := c.current[0]
	c.current = c.current[1:]
	return pageURL, true
}

// enter creates the page for pageURL and opens it.
func (c *CrawlPath) enter(ctx context.Context, pageURL string) (*Page, error) {
	entry, err := c.spider.CacheEntry(pageURL)
	if err != nil {
		return nil, err
	}

	page := NewPage(pageURL, entry, c.spider.fetcher,
		WithPageDepth(c.depth),
		WithPageLogger(c.spider.logger),
	)

	c.spider.logger.Info("open page", "url", pageURL, "depth", c.depth)

	if c.spider.refetch {
		err = page.Refetch(ctx)
	} else {
		err = page.Open(ctx)
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (c *CrawlPath) fail(err error) bool {
	c.err = err
	c.page = nil
	c.state = stateExhausted
	return false
}
