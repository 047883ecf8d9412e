package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs summaries in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSources(md, summary)
	w.writeLevels(md, summary)
	w.writeVisits(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the crawl information table and an alert on failure.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *Summary) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + summary.StartURL + "`"},
			{"Max Depth", strconv.Itoa(summary.MaxDepth)},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration().Round(time.Millisecond).String()},
			{"Pages", strconv.Itoa(len(summary.Visits))},
			{"Examples", strconv.Itoa(summary.Examples())},
			{"Status", statusText(summary)},
		},
	})
	md.PlainText("")

	switch {
	case summary.Error != "":
		md.Cautionf("The crawl stopped early: %s. Pages visited before the failure are cached.", summary.Error)
	case len(summary.Visits) == 0:
		md.Warningf("No page was opened from %s.", summary.StartURL)
	case summary.Fetched() == 0:
		md.Tip("Every page was served from the cache.")
	default:
		md.Note("Fetched pages are cached and will not be requested again.")
	}
	md.PlainText("")
}

// writeSources writes a pie chart of fetched and cached pages.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, summary *Summary) {
	if len(summary.Visits) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Sources"),
		piechart.WithShowData(true),
	)
	if n := summary.Fetched(); n > 0 {
		chart.LabelAndIntValue("Fetched", uint64(n))
	}
	if n := summary.Cached(); n > 0 {
		chart.LabelAndIntValue("Cached", uint64(n))
	}

	md.H2("Page Sources")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeLevels writes the page count of each depth.
func (w *MarkdownWriter) writeLevels(md *markdown.Markdown, summary *Summary) {
	levels := summary.ByDepth()
	if len(levels) == 0 {
		return
	}

	rows := make([][]string, len(levels))
	for i, level := range levels {
		rows[i] = []string{strconv.Itoa(level.Depth), strconv.Itoa(level.Pages)}
	}

	md.H2("Pages by Depth")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Depth", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeVisits writes the visited page table.
func (w *MarkdownWriter) writeVisits(md *markdown.Markdown, summary *Summary) {
	md.H2("Visited Pages")
	md.PlainText("")

	if len(summary.Visits) == 0 {
		md.PlainText("No pages visited.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Visits))
	for i, v := range summary.Visits {
		source := "fetched"
		if v.FromCache {
			source = "cached"
		}
		example := v.Example
		if example == "" {
			example = "-"
		}
		rows[i] = []string{
			strconv.Itoa(v.Depth),
			truncateString(v.URL, 80),
			source,
			example,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Depth", "URL", "Source", "Example"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [refcrawl](https://github.com/nao1215/refcrawl)*")
}
