package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// SimpleWriter outputs human-readable text summaries for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists every visited page.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every visited page in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeLevels(&sb, summary)
	if w.verbose {
		w.writeVisits(&sb, summary)
	}

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *Summary) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Start URL:  %s\n", summary.StartURL)
	fmt.Fprintf(sb, "Max Depth:  %d\n", summary.MaxDepth)
	fmt.Fprintf(sb, "Pages:      %d (%d fetched, %d cached)\n", len(summary.Visits), summary.Fetched(), summary.Cached())
	fmt.Fprintf(sb, "Examples:   %d\n", summary.Examples())
	fmt.Fprintf(sb, "Duration:   %s\n", summary.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Status:     %s\n", statusText(summary))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeLevels(sb *strings.Builder, summary *Summary) {
	levels := summary.ByDepth()
	if len(levels) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES BY DEPTH\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, level := range levels {
		fmt.Fprintf(sb, "  depth %d: %d\n", level.Depth, level.Pages)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeVisits(sb *strings.Builder, summary *Summary) {
	if len(summary.Visits) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("VISITED PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, v := range summary.Visits {
		source := "fetched"
		if v.FromCache {
			source = "cached"
		}
		fmt.Fprintf(sb, "  [%d] %s (%s)\n", v.Depth, v.URL, source)
		if v.Example != "" {
			fmt.Fprintf(sb, "      example: %s\n", v.Example)
		}
	}
	sb.WriteString("\n")
}
