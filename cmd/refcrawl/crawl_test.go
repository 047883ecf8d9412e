package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/refcrawl/internal/config"
	"github.com/nao1215/refcrawl/internal/crawler"
	"github.com/nao1215/refcrawl/internal/fetch"
	"github.com/nao1215/refcrawl/internal/log"
	"github.com/nao1215/refcrawl/internal/report"
)

// referenceSite serves a small reference site and counts requests.
type referenceSite struct {
	server   *httptest.Server
	requests atomic.Int64
}

func newReferenceSite(t *testing.T) *referenceSite {
	t.Helper()

	pages := map[string]string{
		"/ref/": `<html><body>
			<a href="/ref/append/">append</a>
			<a href="/ref/operator+=/">operator+=</a>
			<a href="/forum/">forum</a>
		</body></html>`,
		"/ref/append/": `<html><body><table>
			<tr><td class="source">int main() { return 0; }</td></tr>
			<tr><td class="output">done</td></tr>
		</table></body></html>`,
		"/ref/operator+=/": `<html><body><table>
			<tr><td class="source">s += "x";</td></tr>
			<tr><td class="output">x</td></tr>
		</table></body></html>`,
		"/forum/": `<html><body>forum</body></html>`,
	}

	site := &referenceSite{}
	site.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.requests.Add(1)
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(site.server.Close)
	return site
}

func testCrawlConfig(t *testing.T, startURL string) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.StartURL = startURL
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.FollowPrefixes = []string{"/ref/"}
	return cfg
}

func discardLogger() *slog.Logger {
	return log.NewLogger(io.Discard, false)
}

// TestRunCrawl tests a complete crawl against a local site.
func TestRunCrawl(t *testing.T) {
	t.Parallel()

	t.Run("writes examples and a markdown report", func(t *testing.T) {
		t.Parallel()

		site := newReferenceSite(t)
		cfg := testCrawlConfig(t, site.server.URL+"/ref/")
		cfg.ReportFile = filepath.Join(t.TempDir(), "reports", "report.md")

		var out bytes.Buffer
		if err := runCrawl(t.Context(), cfg, &out, discardLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(out.String(), "CRAWL SUMMARY") {
			t.Errorf("expected summary on stdout, got: %s", out.String())
		}
		if got := site.requests.Load(); got != 3 {
			t.Errorf("expected 3 requests, got %d", got)
		}

		content, err := os.ReadFile(filepath.Join(cfg.OutputDir, "string_append.cpp.in"))
		if err != nil {
			t.Fatalf("expected example file: %v", err)
		}
		want := strings.Join([]string{
			"[URL]", site.server.URL + "/ref/append/", "",
			"[Source]", "int main() { return 0; }", "",
			"[Output]", "done",
		}, "\n")
		if string(content) != want {
			t.Errorf("unexpected example file:\n%s", content)
		}

		if _, err := os.Stat(filepath.Join(cfg.OutputDir, "string_operator_plusequal.cpp.in")); err != nil {
			t.Errorf("expected substituted example name: %v", err)
		}

		reportContent, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("expected report file: %v", err)
		}
		if !strings.Contains(string(reportContent), "# Crawl Report") {
			t.Errorf("expected markdown report, got: %s", reportContent)
		}
	})

	t.Run("second crawl is served from the cache", func(t *testing.T) {
		t.Parallel()

		site := newReferenceSite(t)
		cfg := testCrawlConfig(t, site.server.URL+"/ref/")

		if err := runCrawl(t.Context(), cfg, io.Discard, discardLogger()); err != nil {
			t.Fatalf("first crawl: %v", err)
		}
		first := site.requests.Load()

		if err := runCrawl(t.Context(), cfg, io.Discard, discardLogger()); err != nil {
			t.Fatalf("second crawl: %v", err)
		}
		if got := site.requests.Load(); got != first {
			t.Errorf("expected no new requests, got %d after %d", got, first)
		}
	})

	t.Run("refetch ignores the cache", func(t *testing.T) {
		t.Parallel()

		site := newReferenceSite(t)
		cfg := testCrawlConfig(t, site.server.URL+"/ref/")

		if err := runCrawl(t.Context(), cfg, io.Discard, discardLogger()); err != nil {
			t.Fatalf("first crawl: %v", err)
		}
		cfg.Refetch = true
		if err := runCrawl(t.Context(), cfg, io.Discard, discardLogger()); err != nil {
			t.Fatalf("second crawl: %v", err)
		}
		if got := site.requests.Load(); got != 6 {
			t.Errorf("expected 6 requests, got %d", got)
		}
	})

	t.Run("sqlite backend with json report", func(t *testing.T) {
		t.Parallel()

		site := newReferenceSite(t)
		cfg := testCrawlConfig(t, site.server.URL+"/ref/")
		cfg.CacheBackend = config.CacheBackendSQLite
		cfg.ReportFormat = config.ReportFormatJSON
		cfg.ReportFile = filepath.Join(t.TempDir(), "report.json")

		if err := runCrawl(t.Context(), cfg, io.Discard, discardLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("expected report file: %v", err)
		}
		var summary report.Summary
		if err := json.Unmarshal(data, &summary); err != nil {
			t.Fatalf("invalid JSON report: %v", err)
		}
		if len(summary.Visits) != 3 {
			t.Errorf("expected 3 visits, got %d", len(summary.Visits))
		}
		if summary.Visits[0].Depth != 0 || summary.Visits[1].Depth != 1 {
			t.Errorf("unexpected depths: %+v", summary.Visits)
		}
		if summary.Examples() != 2 {
			t.Errorf("expected 2 examples, got %d", summary.Examples())
		}
	})

	t.Run("no extract writes no files", func(t *testing.T) {
		t.Parallel()

		site := newReferenceSite(t)
		cfg := testCrawlConfig(t, site.server.URL+"/ref/")
		cfg.Extract = false
		cfg.CacheBackend = config.CacheBackendNone

		if err := runCrawl(t.Context(), cfg, io.Discard, discardLogger()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(cfg.OutputDir); !os.IsNotExist(err) {
			t.Error("expected no output directory")
		}
		if _, err := os.Stat(cfg.CacheDir); !os.IsNotExist(err) {
			t.Error("expected no cache directory")
		}
	})

	t.Run("failed start page still writes the summary", func(t *testing.T) {
		t.Parallel()

		site := newReferenceSite(t)
		cfg := testCrawlConfig(t, site.server.URL+"/missing/")

		var out bytes.Buffer
		err := runCrawl(t.Context(), cfg, &out, discardLogger())
		if !errors.Is(err, fetch.ErrUnexpectedStatus) {
			t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
		}
		if !strings.Contains(out.String(), "CRAWL SUMMARY") {
			t.Error("expected summary on stdout")
		}
	})

	t.Run("malformed proxy fails before crawling", func(t *testing.T) {
		t.Parallel()

		site := newReferenceSite(t)
		cfg := testCrawlConfig(t, site.server.URL+"/ref/")
		cfg.ProxyAddress = "not-a-proxy"

		err := runCrawl(t.Context(), cfg, io.Discard, discardLogger())
		if !errors.Is(err, fetch.ErrInvalidProxyAddress) {
			t.Fatalf("expected ErrInvalidProxyAddress, got %v", err)
		}
		if got := site.requests.Load(); got != 0 {
			t.Errorf("expected no requests, got %d", got)
		}
	})
}

// TestBuildConfig tests the merging of config file and flags.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	writeConfig := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "refcrawl.yaml")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	siteFile := `
defaults:
  depth: 3
  headers:
    Accept-Language: "en"
sites:
  docs:
    start: "https://example.com/docs/"
    depth: 0
    followPrefixes:
      - "/docs/"
    sameHost: true
`

	t.Run("flags only", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		path := writeConfig(t, "")
		if err := cmd.ParseFlags([]string{"-c", path, "-d", "2", "--prefix", "/a/", "--prefix", "/b/", "--no-cache"}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"https://example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.StartURL != "https://example.com/" {
			t.Errorf("unexpected start URL %q", cfg.StartURL)
		}
		if cfg.MaxDepth != 2 {
			t.Errorf("expected depth 2, got %d", cfg.MaxDepth)
		}
		if len(cfg.FollowPrefixes) != 2 || cfg.FollowPrefixes[1] != "/b/" {
			t.Errorf("unexpected prefixes %v", cfg.FollowPrefixes)
		}
		if cfg.CacheBackend != config.CacheBackendNone {
			t.Errorf("expected no cache, got %q", cfg.CacheBackend)
		}
		if !strings.HasPrefix(cfg.UserAgent, "refcrawl/") {
			t.Errorf("unexpected user agent %q", cfg.UserAgent)
		}
	})

	t.Run("defaults apply without a site", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", writeConfig(t, siteFile)}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"https://example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxDepth != 3 {
			t.Errorf("expected default depth 3, got %d", cfg.MaxDepth)
		}
		if cfg.Headers["Accept-Language"] != "en" {
			t.Errorf("expected default headers, got %v", cfg.Headers)
		}
	})

	t.Run("site settings", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", writeConfig(t, siteFile), "--site", "docs"}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.StartURL != "https://example.com/docs/" {
			t.Errorf("unexpected start URL %q", cfg.StartURL)
		}
		if cfg.MaxDepth != 0 {
			t.Errorf("expected site depth 0, got %d", cfg.MaxDepth)
		}
		if !cfg.SameHost {
			t.Error("expected same host")
		}
		if cfg.Site != "docs" {
			t.Errorf("unexpected site %q", cfg.Site)
		}
	})

	t.Run("flags override site settings", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		args := []string{"-c", writeConfig(t, siteFile), "--site", "docs", "-d", "4", "--prefix", "/api/"}
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"https://example.com/api/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.StartURL != "https://example.com/api/" {
			t.Errorf("unexpected start URL %q", cfg.StartURL)
		}
		if cfg.MaxDepth != 4 {
			t.Errorf("expected depth 4, got %d", cfg.MaxDepth)
		}
		if len(cfg.FollowPrefixes) != 1 || cfg.FollowPrefixes[0] != "/api/" {
			t.Errorf("unexpected prefixes %v", cfg.FollowPrefixes)
		}
	})

	t.Run("unknown site", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", writeConfig(t, siteFile), "--site", "nope"}); err != nil {
			t.Fatal(err)
		}

		_, err := buildConfig(cmd, nil)
		if !errors.Is(err, config.ErrUnknownSite) {
			t.Errorf("expected ErrUnknownSite, got %v", err)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		missing := filepath.Join(t.TempDir(), "missing.yaml")
		if err := cmd.ParseFlags([]string{"-c", missing}); err != nil {
			t.Fatal(err)
		}

		if _, err := buildConfig(cmd, nil); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

// TestRunCrawlCmd tests flag validation through the command.
func TestRunCrawlCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"no start URL", nil, config.ErrNoStartURL},
		{"relative start URL", []string{"/ref/"}, config.ErrInvalidStartURL},
		{"negative depth", []string{"-d", "-1", "https://example.com/"}, config.ErrInvalidDepth},
		{"unknown backend", []string{"--cache-backend", "redis", "https://example.com/"}, config.ErrUnknownCacheBackend},
		{"unknown report format", []string{"--report-format", "html", "https://example.com/"}, config.ErrUnknownReportFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "refcrawl.yaml")
			if err := os.WriteFile(path, nil, 0600); err != nil {
				t.Fatal(err)
			}

			cmd := NewCrawlCmd()
			cmd.SetArgs(append([]string{"-c", path}, tt.args...))
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)

			err := cmd.Execute()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestLinkFilter tests the filter built from the configuration.
func TestLinkFilter(t *testing.T) {
	t.Parallel()

	body := `<html><body>
		<a href="/ref/a/">a</a>
		<a href="/ref/skip/">skip</a>
		<a href="https://other.example/ref/b/">other</a>
		<a href="/forum/">forum</a>
	</body></html>`
	fetcher := crawler.FetcherFunc(func(_ context.Context, _ string) (string, error) {
		return body, nil
	})

	tests := []struct {
		name string
		cfg  config.Config
		want []string
	}{
		{
			name: "no restrictions",
			cfg:  config.Config{},
			want: []string{"/ref/a/", "/ref/skip/", "https://other.example/ref/b/", "/forum/"},
		},
		{
			name: "prefix",
			cfg:  config.Config{FollowPrefixes: []string{"/ref/"}},
			want: []string{"/ref/a/", "/ref/skip/"},
		},
		{
			name: "ignore pattern",
			cfg:  config.Config{IgnorePatterns: []string{"/ref/skip/"}},
			want: []string{"/ref/a/", "https://other.example/ref/b/", "/forum/"},
		},
		{
			name: "same host",
			cfg:  config.Config{SameHost: true},
			want: []string{"/ref/a/", "/ref/skip/", "/forum/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page := crawler.NewPage("https://example.com/ref/", nil, fetcher)
			if err := page.Open(t.Context()); err != nil {
				t.Fatal(err)
			}

			got, err := linkFilter(&tt.cfg).ChildURLs(page)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// TestExtractionRule tests the conversion of extraction settings.
func TestExtractionRule(t *testing.T) {
	t.Parallel()

	t.Run("nil keeps the default rule", func(t *testing.T) {
		t.Parallel()

		rule := extractionRule(nil)
		if rule.NamePrefix != "string_" || len(rule.Substitutions) != 4 {
			t.Errorf("expected default rule, got %+v", rule)
		}
	})

	t.Run("configured fields replace the defaults", func(t *testing.T) {
		t.Parallel()

		rule := extractionRule(&config.ExtractConfig{
			Source:        "//pre[@class='code']",
			NamePrefix:    "vector_",
			Substitutions: []config.Substitution{{From: "::", To: "_"}},
		})
		if rule.SourceXPath != "//pre[@class='code']" {
			t.Errorf("unexpected source XPath %q", rule.SourceXPath)
		}
		if rule.OutputXPath != "//td[@class='output']" {
			t.Errorf("expected default output XPath, got %q", rule.OutputXPath)
		}
		if rule.Extension != ".cpp.in" {
			t.Errorf("expected default extension, got %q", rule.Extension)
		}
		if rule.Name("https://example.com/a::b/") != "vector_a_b" {
			t.Errorf("unexpected name %q", rule.Name("https://example.com/a::b/"))
		}
	})
}
