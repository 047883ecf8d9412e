package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

// LinkFilter decides which links on a page are followed.
// ChildURLs returns raw href values; the caller resolves them against the
// page URL.
type LinkFilter interface {
	ChildURLs(page *Page) ([]string, error)
}

// LinkFilterFunc adapts a function to the LinkFilter interface.
type LinkFilterFunc func(page *Page) ([]string, error)

// ChildURLs calls f.
func (f LinkFilterFunc) ChildURLs(page *Page) ([]string, error) {
	return f(page)
}

// AllLinks follows the href of every anchor on the page.
// Anchors without an href are skipped.
var AllLinks LinkFilter = LinkFilterFunc(hrefs)

func hrefs(page *Page) ([]string, error) {
	anchors, err := page.XPath("//a[@href]")
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(anchors))
	for _, a := range anchors {
		if href, ok := a.Attr("href"); ok {
			links = append(links, href)
		}
	}
	return links, nil
}

// HrefMatcher reports whether href, found on the page at base, is followed.
type HrefMatcher func(base *url.URL, href string) bool

// FilterLinks follows the anchors whose href is accepted by every matcher.
// With no matchers it behaves like AllLinks.
func FilterLinks(matchers ...HrefMatcher) LinkFilter {
	return LinkFilterFunc(func(page *Page) ([]string, error) {
		links, err := hrefs(page)
		if err != nil {
			return nil, err
		}

		base, err := url.Parse(page.URL())
		if err != nil {
			return nil, err
		}

		kept := links[:0]
		for _, href := range links {
			if acceptsAll(matchers, base, href) {
				kept = append(kept, href)
			}
		}
		return kept, nil
	})
}

func acceptsAll(matchers []HrefMatcher, base *url.URL, href string) bool {
	for _, match := range matchers {
		if !match(base, href) {
			return false
		}
	}
	return true
}

// PrefixFilter follows hrefs that start with one of prefixes.
func PrefixFilter(prefixes ...string) LinkFilter {
	return FilterLinks(HasPrefix(prefixes...))
}

// PatternFilter follows hrefs whose path matches the follow and ignore
// patterns, see MatchPatterns.
func PatternFilter(follow, ignore []string) LinkFilter {
	return FilterLinks(MatchPatterns(follow, ignore))
}

// HasPrefix accepts raw hrefs starting with any of prefixes.
// With no prefixes every href is accepted.
func HasPrefix(prefixes ...string) HrefMatcher {
	return func(_ *url.URL, href string) bool {
		if len(prefixes) == 0 {
			return true
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(href, prefix) {
				return true
			}
		}
		return false
	}
}

// SameHost accepts hrefs that resolve to the host of the referring page.
func SameHost() HrefMatcher {
	return func(base *url.URL, href string) bool {
		ref, err := url.Parse(href)
		if err != nil {
			return false
		}
		return strings.EqualFold(base.ResolveReference(ref).Host, base.Host)
	}
}

// MatchPatterns filters on the path of the resolved href.
//
// Logic:
//  1. If the path matches any ignore pattern, skip it
//  2. If follow patterns are set and the path matches none, skip it
//  3. Otherwise, follow it
//
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/api/v?").
func MatchPatterns(follow, ignore []string) HrefMatcher {
	return func(base *url.URL, href string) bool {
		ref, err := url.Parse(href)
		if err != nil {
			return false
		}

		path := base.ResolveReference(ref).Path
		if path == "" {
			path = "/"
		}

		for _, pattern := range ignore {
			if matchPattern(pattern, path) {
				return false
			}
		}

		if len(follow) == 0 {
			return true
		}
		for _, pattern := range follow {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing /* to match everything below a directory
//
// Examples:
//   - "/admin/*" matches "/admin", "/admin/users/edit"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Bare name patterns like "index.*" apply to the last segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		return err == nil && matched
	}

	return false
}
