package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/scrapesynth/internal/chart"
	"github.com/nao1215/scrapesynth/internal/database"
)

// Writer writes reports in one format.
type Writer interface {
	// Write outputs one run.
	Write(report *Report) (int, error)

	// WriteHistory outputs a list of stored runs.
	WriteHistory(runs []database.RunSummary) (int, error)
}

// Format selects a Writer.
type Format int

const (
	// FormatText is plain text.
	FormatText Format = iota
	// FormatJSON is indented JSON.
	FormatJSON
	// FormatMarkdown is a Markdown document.
	FormatMarkdown
	// FormatTerminal is Markdown rendered for the terminal.
	FormatTerminal
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format.
var ErrUnknownFormat = errors.New("unknown report format")

// NewWriter returns the Writer for format writing to output.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatText:
		return NewSimpleWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatTerminal:
		return NewTerminalWriter(output)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
}

// MultiWriter writes to multiple Writers in order and stops at the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
func (m *MultiWriter) Write(report *Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory outputs the run list to all configured Writers.
func (m *MultiWriter) WriteHistory(runs []database.RunSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(runs)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// CreateFile creates path and its parent directories. Reports can contain
// fetched page content, so the file is readable by the owner only.
func CreateFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// chartHeading returns e.g. "Bar chart: Prices".
func chartHeading(c chart.Chart) string {
	heading := cases.Title(language.English).String(string(c.Type)) + " chart"
	if c.Title != "" {
		heading += ": " + c.Title
	}
	return heading
}

// modeLabel describes the active modes.
func modeLabel(r *Report) string {
	label := "analyst"
	if r.Modes.GameMode {
		label = "game"
	}
	if r.Modes.TimeTravel {
		label += fmt.Sprintf(", time travel %d", r.Modes.Year())
	}
	if len(r.Sources) > 1 {
		label += ", comparison"
	}
	return label
}

// truncateString truncates s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
