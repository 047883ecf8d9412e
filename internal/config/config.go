package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "refcrawl"

	// DefaultMaxDepth opens the start page and the pages it links to.
	DefaultMaxDepth = 1

	// DefaultOutputDir is where example files are written.
	DefaultOutputDir = "out"

	// DefaultUserAgent identifies refcrawl in HTTP requests.
	DefaultUserAgent = "refcrawl (+https://github.com/nao1215/refcrawl)"

	// DefaultReportFormat is the format of the --report file.
	DefaultReportFormat = ReportFormatMarkdown
)

// Cache backends.
const (
	// CacheBackendFile stores one JSON file per URL.
	CacheBackendFile = "file"

	// CacheBackendSQLite stores pages in a SQLite database.
	CacheBackendSQLite = "sqlite"

	// CacheBackendNone keeps page bodies in memory only.
	CacheBackendNone = "none"
)

// Report formats.
const (
	ReportFormatMarkdown = "markdown"
	ReportFormatJSON     = "json"
)

// Config holds all configuration options for refcrawl.
// It is populated from the configuration file and CLI flags and passed
// through the application rather than kept in global state.
type Config struct {
	// StartURL is the level 0 page of the crawl.
	StartURL string

	// Site names the configuration file entry applied to the crawl.
	Site string

	// MaxDepth is the deepest crawl level that is opened.
	// Depth 0 means only fetch the start page.
	MaxDepth int

	// FollowPrefixes restricts the crawl to hrefs starting with one of them.
	FollowPrefixes []string

	// FollowPatterns restricts the crawl to URL paths matching one of them.
	FollowPatterns []string

	// IgnorePatterns skips URL paths matching any of them.
	IgnorePatterns []string

	// SameHost skips links that leave the host of the referring page.
	SameHost bool

	// CacheBackend is one of CacheBackendFile, CacheBackendSQLite or
	// CacheBackendNone.
	CacheBackend string

	// CacheDir is the directory holding cached pages.
	// Defaults to the XDG cache directory (~/.cache/refcrawl on Linux).
	CacheDir string

	// Refetch fetches every page even when it is cached.
	Refetch bool

	// Extract enables writing example files.
	Extract bool

	// Extraction locates examples on pages. Nil means the default rule.
	Extraction *ExtractConfig

	// OutputDir is where example files are written.
	OutputDir string

	// ReportFile is the path of the crawl report. Empty means no report file.
	ReportFile string

	// ReportFormat is ReportFormatMarkdown or ReportFormatJSON.
	ReportFormat string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// Timeout bounds each HTTP request. 0 means no timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the largest response body accepted, in bytes.
	// 0 means no limit.
	MaxBodySize int64

	// Headers are added to every request.
	Headers map[string]string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// LogJSON writes logs as JSON instead of text.
	LogJSON bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .refcrawl in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds the site configurations loaded from the config file.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxDepth:     DefaultMaxDepth,
		CacheBackend: CacheBackendFile,
		CacheDir:     XDGCacheDir(),
		Extract:      true,
		OutputDir:    DefaultOutputDir,
		ReportFormat: DefaultReportFormat,
		UserAgent:    DefaultUserAgent,
	}
}

// XDGCacheDir returns the XDG cache directory for refcrawl.
// On Linux: ~/.cache/refcrawl
// On macOS: ~/Library/Caches/refcrawl
// On Windows: %LOCALAPPDATA%\refcrawl\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// XDGConfigDir returns the XDG config directory for refcrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplySite copies the settings present in site onto c.
// Unset site fields leave c unchanged.
func (c *Config) ApplySite(site SiteConfig) {
	if site.Start != "" {
		c.StartURL = site.Start
	}
	if site.Depth != nil {
		c.MaxDepth = *site.Depth
	}
	if len(site.FollowPrefixes) > 0 {
		c.FollowPrefixes = site.FollowPrefixes
	}
	if len(site.FollowPatterns) > 0 {
		c.FollowPatterns = site.FollowPatterns
	}
	if len(site.IgnorePatterns) > 0 {
		c.IgnorePatterns = site.IgnorePatterns
	}
	if site.SameHost {
		c.SameHost = true
	}
	if len(site.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			c.Headers[k] = v
		}
	}
	if site.Extract != nil {
		c.Extraction = site.Extract
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}

	u, err := url.Parse(c.StartURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidStartURL
	}

	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	switch c.CacheBackend {
	case CacheBackendFile, CacheBackendSQLite:
		if c.CacheDir == "" {
			return ErrNoCacheDir
		}
	case CacheBackendNone:
	default:
		return ErrUnknownCacheBackend
	}

	switch c.ReportFormat {
	case ReportFormatMarkdown, ReportFormatJSON:
	default:
		return ErrUnknownReportFormat
	}

	return nil
}
