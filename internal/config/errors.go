package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() for programmatic error handling.
var (
	// ErrNoStartURL is returned when neither an argument nor a site provides
	// a start URL.
	ErrNoStartURL = errors.New("no start URL specified: provide a URL or use --site")

	// ErrInvalidStartURL is returned when the start URL is not an absolute
	// http or https URL.
	ErrInvalidStartURL = errors.New("invalid start URL: must be an absolute http or https URL")

	// ErrInvalidDepth is returned when the crawl depth is negative.
	// Use 0 to open only the start page.
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is negative.
	// Use 0 for no timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for no limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrUnknownCacheBackend is returned for a cache backend other than
	// file, sqlite or none.
	ErrUnknownCacheBackend = errors.New("unknown cache backend: must be file, sqlite or none")

	// ErrNoCacheDir is returned when a cache backend is enabled without a
	// cache directory.
	ErrNoCacheDir = errors.New("no cache directory specified")

	// ErrUnknownReportFormat is returned for a report format other than
	// markdown or json.
	ErrUnknownReportFormat = errors.New("unknown report format: must be markdown or json")

	// ErrUnknownSite is returned when the requested site is not in the
	// configuration file.
	ErrUnknownSite = errors.New("site not found in configuration file")
)
