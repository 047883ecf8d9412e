// Package fetch retrieves page bodies over HTTP for the crawler.
//
// Client performs a plain GET per URL and returns the body as UTF-8 text.
// It makes no attempt to honor the declared charset: bodies are expected to
// be UTF-8, a leading byte order mark is dropped, and anything that is not
// valid UTF-8 is reported as a TransportError. Non-2xx responses are errors
// as well, so the crawler only ever caches pages that were served
// successfully.
//
// There is no retry logic. A failed fetch aborts the crawl and the caller
// decides whether to run it again; pages cached before the failure are not
// fetched a second time.
//
// Requests can be routed through a SOCKS5 proxy (for example a local Tor
// daemon) with WithSOCKS5Proxy.
package fetch
