// Package main provides the entry point for the refcrawl CLI.
//
// refcrawl crawls a reference site breadth first, caches every page it
// opens, and writes the code examples it finds on those pages to files.
//
// Usage:
//
//	refcrawl crawl <start-url>
//	refcrawl crawl --site cplusplus
//
// See --help for all available options.
package main

func main() {
	Execute()
}
