package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"

	"github.com/nao1215/scrapesynth/internal/database"
)

// DefaultWordWrap is the terminal width used for rendering.
const DefaultWordWrap = 100

// TerminalWriter renders the Markdown report for the terminal.
type TerminalWriter struct {
	baseWriter
	renderer *glamour.TermRenderer
}

// TerminalWriterOption configures a TerminalWriter.
type TerminalWriterOption func(*terminalOptions)

type terminalOptions struct {
	style    string
	wordWrap int
}

// WithStyle selects a glamour standard style such as "dark", "light" or
// "notty". The default follows the terminal background.
func WithStyle(style string) TerminalWriterOption {
	return func(o *terminalOptions) {
		o.style = style
	}
}

// WithWordWrap sets the wrap width.
func WithWordWrap(width int) TerminalWriterOption {
	return func(o *terminalOptions) {
		o.wordWrap = width
	}
}

// NewTerminalWriter creates a TerminalWriter that outputs to the given writer.
func NewTerminalWriter(output io.Writer, opts ...TerminalWriterOption) (*TerminalWriter, error) {
	o := terminalOptions{wordWrap: DefaultWordWrap}
	for _, opt := range opts {
		opt(&o)
	}

	rendererOpts := []glamour.TermRendererOption{glamour.WithWordWrap(o.wordWrap)}
	if o.style != "" {
		rendererOpts = append(rendererOpts, glamour.WithStandardStyle(o.style))
	} else {
		rendererOpts = append(rendererOpts, glamour.WithAutoStyle())
	}

	renderer, err := glamour.NewTermRenderer(rendererOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal renderer: %w", err)
	}
	return &TerminalWriter{baseWriter: newBaseWriter(output), renderer: renderer}, nil
}

// Write renders the report.
func (w *TerminalWriter) Write(report *Report) (int, error) {
	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
		return 0, err
	}
	return w.render(buf.String())
}

// WriteHistory renders the run list.
func (w *TerminalWriter) WriteHistory(runs []database.RunSummary) (int, error) {
	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).WriteHistory(runs); err != nil {
		return 0, err
	}
	return w.render(buf.String())
}

func (w *TerminalWriter) render(md string) (int, error) {
	out, err := w.renderer.Render(md)
	if err != nil {
		return 0, fmt.Errorf("failed to render report: %w", err)
	}
	return io.WriteString(w.output, out)
}
