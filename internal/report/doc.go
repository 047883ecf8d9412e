// Package report summarizes a crawl and writes the summary in several
// formats:
//   - SimpleWriter: plain text for terminal display
//   - MarkdownWriter: Markdown for sharing, built with nao1215/markdown
//   - JSONWriter: JSON for tool integration
//
// Writers implement the Writer interface, so they can be combined with
// MultiWriter.
package report
