// Package config provides configuration structures and utilities for
// refcrawl. It defines the crawl, cache, extraction and report options and
// loads per-site settings from a YAML configuration file.
package config
