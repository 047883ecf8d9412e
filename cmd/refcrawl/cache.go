package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/nao1215/refcrawl/internal/cache"
	"github.com/nao1215/refcrawl/internal/config"
	"github.com/nao1215/refcrawl/internal/database"
	"github.com/spf13/cobra"
)

// contentPreviewLength is the number of content bytes shown by cache show.
const contentPreviewLength = 200

// NewCacheCmd creates the cache command.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the page cache",
		Long: `Cache inspects the pages stored by previous crawls.

Examples:
  # Show where a page is cached and what is stored for it
  refcrawl cache show https://cplusplus.com/reference/string/string/

  # Inspect the SQLite cache instead of the file cache
  refcrawl cache show --cache-backend sqlite https://cplusplus.com/reference/string/string/`,
	}

	cmd.PersistentFlags().String("cache-dir", config.XDGCacheDir(),
		"Cache directory")
	cmd.PersistentFlags().String("cache-backend", config.CacheBackendFile,
		"Cache backend: file or sqlite")

	cmd.AddCommand(newCacheShowCmd())

	return cmd
}

func newCacheShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <url>",
		Short: "Show the cache key, location and record for a URL",
		Args:  cobra.ExactArgs(1),
		RunE:  runCacheShowCmd,
	}
}

// runCacheShowCmd executes the cache show command.
func runCacheShowCmd(cmd *cobra.Command, args []string) error {
	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return err
	}
	backend, err := cmd.Flags().GetString("cache-backend")
	if err != nil {
		return err
	}

	return showCacheEntry(cmd.OutOrStdout(), backend, cacheDir, args[0])
}

// showCacheEntry prints what the cache holds for pageURL.
// It never creates a cache directory or database.
func showCacheEntry(w io.Writer, backend, cacheDir, pageURL string) error {
	var location string
	var entry cache.Entry

	switch backend {
	case config.CacheBackendFile:
		dir := cache.NewDir(cacheDir)
		location = dir.Path(pageURL)
		entry = cache.NewFileEntry(location, pageURL)
	case config.CacheBackendSQLite:
		opts := database.DefaultOptions()
		opts.CreateIfNotExists = false
		db, err := database.Open(cacheDir, opts)
		if err != nil {
			return fmt.Errorf("failed to open cache database: %w", err)
		}
		defer db.Close()

		location = filepath.Join(cacheDir, database.FileName) + "#" + cache.Key(pageURL)
		if entry, err = db.Entry(pageURL); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", config.ErrUnknownCacheBackend, backend)
	}

	if err := entry.Load(); err != nil {
		return err
	}

	fmt.Fprintf(w, "URL:      %s\n", pageURL)
	fmt.Fprintf(w, "Key:      %s\n", cache.Key(pageURL))
	fmt.Fprintf(w, "Location: %s\n", location)

	content, ok := entry.Content()
	if !ok {
		fmt.Fprintln(w, "Content:  (not cached)")
		return nil
	}

	fmt.Fprintf(w, "Stored:   %s\n", entry.URL())
	fmt.Fprintf(w, "Content:  %d bytes\n", len(content))
	if len(content) > contentPreviewLength {
		content = content[:contentPreviewLength] + "..."
	}
	fmt.Fprintf(w, "\n%s\n", content)
	return nil
}
