package extract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Writer stores examples as files in a directory.
type Writer struct {
	dir       string
	extension string
	logger    *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// NewWriter creates a Writer for dir. File names are the example name
// followed by extension.
func NewWriter(dir, extension string, opts ...WriterOption) *Writer {
	w := &Writer{
		dir:       dir,
		extension: extension,
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = slog.Default()
	}

	return w
}

// Path returns the file path for ex.
func (w *Writer) Path(ex *Example) string {
	return filepath.Join(w.dir, ex.Name+w.extension)
}

// Write stores ex, replacing an existing file, and returns its path.
func (w *Writer) Write(ex *Example) (string, error) {
	if err := os.MkdirAll(w.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := w.Path(ex)
	w.logger.Info("writing file", "path", path)

	if err := os.WriteFile(path, []byte(ex.Render()), 0600); err != nil {
		return "", fmt.Errorf("failed to write example: %w", err)
	}
	return path, nil
}
