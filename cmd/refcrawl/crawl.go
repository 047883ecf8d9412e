package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/refcrawl/internal/cache"
	"github.com/nao1215/refcrawl/internal/config"
	"github.com/nao1215/refcrawl/internal/crawler"
	"github.com/nao1215/refcrawl/internal/database"
	"github.com/nao1215/refcrawl/internal/extract"
	"github.com/nao1215/refcrawl/internal/fetch"
	"github.com/nao1215/refcrawl/internal/log"
	"github.com/nao1215/refcrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [start-url]",
		Short: "Crawl a reference site and extract its examples",
		Long: `Crawl opens the start page and then every page it links to, level by
level, until the depth limit is reached. Each URL is opened at most once.

Pages are cached by URL. A page that is already cached is read from the cache
instead of the network unless --refetch is given.

Examples:
  # Crawl a page and the pages it links to
  refcrawl crawl https://cplusplus.com/reference/string/string/

  # Crawl two levels, following only links under a prefix
  refcrawl crawl -d 2 --prefix /reference/string/string/ https://cplusplus.com/reference/string/string/

  # Crawl a site from the configuration file
  refcrawl crawl --site cplusplus

  # Write a Markdown report
  refcrawl crawl --site cplusplus --report report.md

Configuration file (.refcrawl) example:
  sites:
    cplusplus:
      start: "https://cplusplus.com/reference/string/string/"
      depth: 2
      followPrefixes:
        - "/reference/string/string/"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Traversal flags
	cmd.Flags().String("site", "",
		"Site from the configuration file to crawl")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum crawl depth (0 opens only the start page)")
	cmd.Flags().StringArray("prefix", nil,
		"Only follow hrefs starting with this prefix (repeatable)")
	cmd.Flags().Bool("same-host", false,
		"Only follow links to the host of the referring page")

	// Cache flags
	cmd.Flags().String("cache-dir", "",
		"Cache directory (default: XDG cache directory)")
	cmd.Flags().String("cache-backend", config.CacheBackendFile,
		"Cache backend: file or sqlite")
	cmd.Flags().Bool("no-cache", false,
		"Do not read or write the cache")
	cmd.Flags().Bool("refetch", false,
		"Fetch every page even when it is cached")

	// Extraction flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory example files are written to")
	cmd.Flags().Bool("no-extract", false,
		"Do not write example files")

	// Report flags
	cmd.Flags().String("report", "",
		"Write a crawl report to the specified file path")
	cmd.Flags().String("report-format", config.DefaultReportFormat,
		"Report file format: markdown or json")

	// HTTP flags
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	cmd.Flags().DurationP("timeout", "t", 0,
		"Timeout for each request (0 means no timeout)")
	cmd.Flags().String("user-agent", "",
		"User-Agent header sent with requests")
	cmd.Flags().Int64("max-body-size", 0,
		"Largest response body accepted in bytes (0 means no limit)")

	// Configuration and logging
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .refcrawl in current or home directory)")
	cmd.Flags().Bool("log-json", false,
		"Write logs as JSON")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildConfig creates a Config from the configuration file and the flags.
// Site settings override the defaults and explicitly set flags override
// both.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.UserAgent = userAgent()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly given config file must exist. Otherwise a missing
	// file means no site settings.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.Site, err = flags.GetString("site")
	if err != nil {
		return nil, err
	}
	if cfg.Site != "" && !cfg.SiteConfigs.HasSite(cfg.Site) {
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownSite, cfg.Site)
	}
	cfg.ApplySite(cfg.SiteConfigs.GetSiteConfig(cfg.Site))

	if len(args) > 0 {
		cfg.StartURL = args[0]
	}

	if flags.Changed("depth") {
		if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("prefix") {
		if cfg.FollowPrefixes, err = flags.GetStringArray("prefix"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("same-host") {
		if cfg.SameHost, err = flags.GetBool("same-host"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("cache-dir") {
		if cfg.CacheDir, err = flags.GetString("cache-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("cache-backend") {
		if cfg.CacheBackend, err = flags.GetString("cache-backend"); err != nil {
			return nil, err
		}
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return nil, err
	}
	if noCache {
		cfg.CacheBackend = config.CacheBackendNone
	}
	if cfg.Refetch, err = flags.GetBool("refetch"); err != nil {
		return nil, err
	}

	if cfg.OutputDir, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	noExtract, err := flags.GetBool("no-extract")
	if err != nil {
		return nil, err
	}
	cfg.Extract = !noExtract

	if cfg.ReportFile, err = flags.GetString("report"); err != nil {
		return nil, err
	}
	if cfg.ReportFormat, err = flags.GetString("report-format"); err != nil {
		return nil, err
	}

	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}

	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// setupLogger creates the logger selected by the configuration.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return log.NewJSONLogger(w, cfg.Verbose)
	}
	return log.NewLogger(w, cfg.Verbose)
}

// runCrawl crawls the configured site and writes the examples and reports.
// Examples and the cache entries written before a failure are kept.
func runCrawl(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	client, err := fetch.NewClient(
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithHeaders(cfg.Headers),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithSOCKS5Proxy(cfg.ProxyAddress),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	provider, closeCache, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeCache(); err != nil {
			logger.Error("failed to close cache", "error", err)
		}
	}()

	opts := []crawler.SpiderOption{
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithLinkFilter(linkFilter(cfg)),
		crawler.WithRefetch(cfg.Refetch),
		crawler.WithLogger(logger),
	}
	if provider != nil {
		opts = append(opts, crawler.WithCache(provider))
	}
	spider := crawler.NewSpider(cfg.StartURL, client, opts...)

	var extractor *extract.Extractor
	var writer *extract.Writer
	if cfg.Extract {
		extractor = extract.NewExtractor(extractionRule(cfg.Extraction))
		writer = extract.NewWriter(cfg.OutputDir, extractor.Rule().Extension, extract.WithLogger(logger))
	}

	logger.Info("starting crawl",
		"start", cfg.StartURL,
		"maxDepth", cfg.MaxDepth,
		"cacheBackend", cfg.CacheBackend,
	)

	writers := []report.Writer{report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))}
	if cfg.ReportFile != "" {
		reportWriter, f, err := openReport(cfg)
		if err != nil {
			return err
		}
		defer f.Close()
		writers = append(writers, reportWriter)
	}

	summary := report.NewSummary(cfg.StartURL, cfg.MaxDepth, time.Now())
	crawlErr := crawl(ctx, spider, extractor, writer, summary, logger)
	summary.Finish(time.Now(), crawlErr)

	if _, err := report.NewMultiWriter(writers...).Write(summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if crawlErr != nil {
		return fmt.Errorf("crawl failed: %w", crawlErr)
	}
	return nil
}

// crawl walks the spider's path, records every opened page in summary and
// writes the examples found on them.
func crawl(ctx context.Context, spider *crawler.Spider, extractor *extract.Extractor, writer *extract.Writer, summary *report.Summary, logger *slog.Logger) error {
	for page, err := range spider.Crawl().All(ctx) {
		if err != nil {
			return err
		}

		visit := report.Visit{
			URL:       page.URL(),
			Depth:     page.Depth(),
			FromCache: !page.Fetched(),
		}

		if extractor != nil {
			example, err := extractor.Extract(page)
			switch {
			case err != nil:
				logger.Warn("skipping example", "url", page.URL(), "error", err)
			case example != nil:
				path, err := writer.Write(example)
				if err != nil {
					summary.Add(visit)
					return err
				}
				visit.Example = path
			}
		}

		summary.Add(visit)
	}
	return nil
}

// openCache returns the cache provider selected by the configuration and a
// function releasing it. The provider is nil when caching is disabled.
func openCache(cfg *config.Config) (cache.Provider, func() error, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendSQLite:
		db, err := database.Open(cfg.CacheDir, database.DefaultOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
		}
		return db, db.Close, nil
	case config.CacheBackendNone:
		return nil, func() error { return nil }, nil
	default:
		return cache.NewDir(cfg.CacheDir), func() error { return nil }, nil
	}
}

// linkFilter builds the link filter from the prefix, pattern and host
// settings.
func linkFilter(cfg *config.Config) crawler.LinkFilter {
	matchers := []crawler.HrefMatcher{
		crawler.HasPrefix(cfg.FollowPrefixes...),
	}
	if len(cfg.FollowPatterns) > 0 || len(cfg.IgnorePatterns) > 0 {
		matchers = append(matchers, crawler.MatchPatterns(cfg.FollowPatterns, cfg.IgnorePatterns))
	}
	if cfg.SameHost {
		matchers = append(matchers, crawler.SameHost())
	}
	return crawler.FilterLinks(matchers...)
}

// extractionRule converts the configured extraction settings to a rule.
// Empty XPaths and extension keep the default rule's values.
func extractionRule(ec *config.ExtractConfig) extract.Rule {
	rule := extract.DefaultRule()
	if ec == nil {
		return rule
	}

	if ec.Source != "" {
		rule.SourceXPath = ec.Source
	}
	if ec.Output != "" {
		rule.OutputXPath = ec.Output
	}
	rule.NamePrefix = ec.NamePrefix
	if ec.Extension != "" {
		rule.Extension = ec.Extension
	}
	rule.Substitutions = make([]extract.Substitution, 0, len(ec.Substitutions))
	for _, sub := range ec.Substitutions {
		rule.Substitutions = append(rule.Substitutions, extract.Substitution{From: sub.From, To: sub.To})
	}
	return rule
}

// openReport creates the report file and returns the writer for the
// configured format.
func openReport(cfg *config.Config) (report.Writer, io.Closer, error) {
	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create report file: %w", err)
	}

	switch cfg.ReportFormat {
	case config.ReportFormatJSON:
		return report.NewJSONWriter(f, report.WithPrettyPrint()), f, nil
	default:
		return report.NewMarkdownWriter(f), f, nil
	}
}
