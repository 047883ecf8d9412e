package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContent is returned by structural queries on a page that has
	// no content, which means it was never opened.
	ErrNoContent = errors.New("page has no content")

	// ErrNoFetcher is returned when a page must be fetched but no
	// Fetcher is configured.
	ErrNoFetcher = errors.New("no fetcher configured")
)

// ParseError reports a page whose content could not be parsed.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// PolicyError reports a LinkFilter failure while harvesting a page's links.
type PolicyError struct {
	URL string
	Err error
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("link filter for %s: %v", e.URL, e.Err)
}

func (e *PolicyError) Unwrap() error {
	return e.Err
}
