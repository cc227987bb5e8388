package summarizer

import (
	"fmt"

	"github.com/user/motionpipe/pkg/ports"
)

// Writer writes formatted summaries through a FileSystem.
type Writer struct {
	formatter Formatter
	fs        ports.FileSystem
}

// NewWriter creates a new Writer with the given Formatter.
func NewWriter(formatter Formatter, fs ports.FileSystem) *Writer {
	return &Writer{
		formatter: formatter,
		fs:        fs,
	}
}

// Write formats the summary and replaces the file at path.
func (w *Writer) Write(path string, summary *Summary) error {
	if err := w.fs.WriteFile(path, []byte(w.formatter.Format(summary))); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// Append formats the summary and appends it to the file at path.
func (w *Writer) Append(path string, summary *Summary) error {
	if err := w.fs.AppendFile(path, []byte(w.formatter.Format(summary))); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}
