package config

// SiteConfig holds the crawl settings for one reference site.
type SiteConfig struct {
	// Start is the start URL of the crawl.
	Start string `yaml:"start,omitempty"`

	// Depth overrides the crawl depth. Nil keeps the default; 0 opens only
	// the start page.
	Depth *int `yaml:"depth,omitempty"`

	// FollowPrefixes restricts the crawl to hrefs starting with one of them.
	FollowPrefixes []string `yaml:"followPrefixes,omitempty"`

	// FollowPatterns are URL path patterns to follow during crawling.
	// If specified, only URLs matching these patterns are crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`

	// IgnorePatterns are URL path patterns to skip during crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// SameHost skips links to other hosts.
	SameHost bool `yaml:"sameHost,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Extract locates examples on the site's pages.
	Extract *ExtractConfig `yaml:"extract,omitempty"`
}

// ExtractConfig describes where examples live on a page and how the
// example files are named.
type ExtractConfig struct {
	// Source is the XPath of the example source code.
	Source string `yaml:"source"`

	// Output is the XPath of the example output.
	Output string `yaml:"output"`

	// NamePrefix is prepended to every example name.
	NamePrefix string `yaml:"namePrefix,omitempty"`

	// Extension is appended to the example name to form the file name.
	Extension string `yaml:"extension,omitempty"`

	// Substitutions rewrite the URL base name, in order.
	Substitutions []Substitution `yaml:"substitutions,omitempty"`
}

// Substitution replaces From with To in an example name.
type Substitution struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// File represents the structure of the .refcrawl configuration file.
type File struct {
	// Sites maps site names to their configurations.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless the site overrides them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a named site merged over the
// defaults. An unknown name returns the defaults.
func (cf *File) GetSiteConfig(name string) SiteConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	site, ok := cf.Sites[name]
	if !ok {
		return result
	}

	if site.Start != "" {
		result.Start = site.Start
	}
	if site.Depth != nil {
		result.Depth = site.Depth
	}
	if len(site.FollowPrefixes) > 0 {
		result.FollowPrefixes = site.FollowPrefixes
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = site.FollowPatterns
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if site.SameHost {
		result.SameHost = true
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	if site.Extract != nil {
		result.Extract = site.Extract
	}

	return result
}

// HasSite reports whether the file configures the named site.
func (cf *File) HasSite(name string) bool {
	_, ok := cf.Sites[name]
	return ok
}
