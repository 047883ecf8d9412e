// Package extract pulls example source code and its output out of crawled
// reference pages and writes them as example files.
//
// A Rule names the XPath expressions that locate the source and output
// cells of a page and how the example file is named. A page holds an
// example only when each expression matches exactly one element.
package extract
