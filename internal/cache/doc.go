// Package cache stores the raw body of fetched pages so that a crawl can be
// restarted without touching the network again.
//
// # Storage model
//
// Every URL maps to exactly one record holding two fields, the URL itself
// and its content. Content is absent until the page has been fetched. The
// file-backed Dir keeps one JSON document per URL under a root directory,
// named after the hex-encoded SHA-1 of the URL:
//
//	<root>/2b1f...e9.json  {"url": "http://...", "content": "<html>..."}
//
// Records are written once and never expired or evicted. Deleting the root
// directory is the only way to invalidate the cache.
//
// # Entries
//
// Callers never touch records directly. They ask a Provider for an Entry,
// call Load, read or set fields, and call Save. Save writes only when a
// field changed since the last Load or Save. TransientEntry offers the same
// contract with no storage behind it, which is what a crawl without a cache
// uses.
//
//	dir := cache.NewDir("out/cache")
//	entry, err := dir.Entry("http://example.com/")
//	if err != nil { ... }
//	if err := entry.Load(); err != nil { ... }
//	if _, ok := entry.Content(); !ok {
//	    entry.SetContent(body)
//	}
//	err = entry.Save()
package cache
