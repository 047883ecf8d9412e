// Package crawler implements a depth-bounded breadth-first crawl over HTML
// pages whose bodies are kept in a cache.
//
// # Architecture
//
// A Spider holds the crawl policy: the start URL, the depth ceiling, the
// cache provider, the fetcher and the LinkFilter that decides which links
// on a page are followed. Spider.Crawl returns a CrawlPath, a pull iterator
// that opens one Page per call to Next.
//
// Each Page owns a cache.Entry for its URL. Opening a page loads the entry
// and fetches the URL only when no content is cached. The document tree is
// parsed on the first structural query and reused afterwards.
//
// Before moving on, the CrawlPath finalizes the open page: it asks the
// LinkFilter for the page's links, resolves them against the page URL,
// queues them for the next level and saves the cache entry. Links are
// therefore harvested exactly once per page, after the caller used it.
//
// # Levels
//
// The start page is level 0. Levels are processed in FIFO discovery order.
// A URL is marked seen when it is opened, so a URL discovered by several
// pages of one level is queued several times and skipped at pop time.
//
// # Usage
//
//	spider := crawler.NewSpider(startURL, client,
//		crawler.WithMaxDepth(2),
//		crawler.WithCache(cache.NewDir(dir)),
//	)
//	path := spider.Crawl()
//	defer path.Close()
//	for path.Next(ctx) {
//		page := path.Page()
//		// use page
//	}
//	if err := path.Err(); err != nil {
//		return err
//	}
//
// A CrawlPath is not safe for concurrent use.
package crawler
