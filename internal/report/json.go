package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/scrapesynth/internal/database"
)

// JSONWriter outputs reports as JSON.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report.
func (w *JSONWriter) Write(report *Report) (int, error) {
	return w.writeJSON(report)
}

// historyEntry is the JSON shape of a RunSummary.
type historyEntry struct {
	RunID       string `json:"runId"`
	CreatedAt   string `json:"createdAt"`
	Instruction string `json:"instruction"`
	Sources     int    `json:"sources"`
	Model       string `json:"model,omitempty"`
	OK          bool   `json:"ok"`
}

// WriteHistory outputs the run list as a JSON array.
func (w *JSONWriter) WriteHistory(runs []database.RunSummary) (int, error) {
	entries := make([]historyEntry, len(runs))
	for i, r := range runs {
		entries[i] = historyEntry{
			RunID:       r.RunID,
			CreatedAt:   r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Instruction: r.Instruction,
			Sources:     r.SourceCount,
			Model:       r.Model,
			OK:          r.OK,
		}
	}
	return w.writeJSON(entries)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
